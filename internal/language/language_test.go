package language

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		input  string
		want   string
		wantOK bool
	}{
		{"", "", true},
		{"auto", "", true},
		{"id", "id", true},
		{"IND", "id", true},
		{"Bahasa  Indonesia", "id", true},
		{"indonesian", "id", true},
		{"fre", "fr", true},
		{" English ", "en", true},
		{"filipino", "tl", true},
		{"klingon", "", false},
		{"xx", "", false},
	}
	for _, tt := range tests {
		got, ok := Normalize(tt.input)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Normalize(%q) = %q, %v; want %q, %v", tt.input, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestDisplayName(t *testing.T) {
	tests := map[string]string{
		"":        "Auto-detect",
		"id":      "Indonesian",
		"jav":     "Javanese",
		"klingon": "KLINGON",
	}
	for input, want := range tests {
		if got := DisplayName(input); got != want {
			t.Errorf("DisplayName(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestEveryCodeRoundTrips(t *testing.T) {
	for _, e := range languages {
		for _, alias := range append(append([]string{e.code2}, e.code3...), e.words...) {
			if got, ok := Normalize(alias); !ok || got != e.code2 {
				t.Errorf("Normalize(%q) = %q, %v; want %q", alias, got, ok, e.code2)
			}
		}
	}
}
