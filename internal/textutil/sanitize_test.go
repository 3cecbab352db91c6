package textutil

import "testing"

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello World", "Hello_World"},
		{"  Café: the Movie! ", "Cafe_the_Movie"},
		{"a/b\\c", "abc"},
		{"Obrolan  Seru - Part 2", "Obrolan_Seru_-_Part_2"},
		{"日本語", ""},
		{"", ""},
	}
	for _, tc := range tests {
		if got := SanitizeFileName(tc.in); got != tc.want {
			t.Fatalf("SanitizeFileName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeFileNameOr(t *testing.T) {
	if got := SanitizeFileNameOr("???", "video"); got != "video" {
		t.Fatalf("expected fallback, got %q", got)
	}
	if got := SanitizeFileNameOr("clip one", "video"); got != "clip_one" {
		t.Fatalf("unexpected %q", got)
	}
}
