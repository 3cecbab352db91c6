package subtitles

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clipcaster/internal/services/whisperx"
)

func TestTimestamp(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0:00:00.00"},
		{1.5, "0:00:01.50"},
		{61.234, "0:01:01.23"},
		{3723.456, "1:02:03.46"},
		{59.999, "0:01:00.00"},
		{-3, "0:00:00.00"},
	}
	for _, tc := range tests {
		if got := Timestamp(tc.in); got != tc.want {
			t.Fatalf("Timestamp(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestWriteWordCuesAndWatermark(t *testing.T) {
	segments := []whisperx.Segment{
		{Words: []whisperx.Word{{Word: " Hello", Start: 0.1, End: 0.5}, {Word: "{x}", Start: 0.5, End: 0.9}}},
		{},
		{Words: []whisperx.Word{{Word: "world ", Start: 1.0, End: 2.25}, {Word: "  ", Start: 2.3, End: 2.4}}},
	}
	var buf bytes.Buffer
	cues, err := Write(&buf, segments, Options{Watermark: "acctX", Highlight: "&H00FF00&"})
	if err != nil {
		t.Fatal(err)
	}
	if cues != 3 {
		t.Fatalf("cues = %d", cues)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "[Script Info]") || !strings.Contains(out, "PlayResY: 1920") {
		t.Fatalf("missing header:\n%s", out)
	}
	wantLine := `Dialogue: 0,0:00:00.10,0:00:00.50,Default,,0,0,0,,{\c&H00FF00&\fscx120\fscy120}Hello{\c&HFFFFFF&\fscx100\fscy100}`
	if !strings.Contains(out, wantLine) {
		t.Fatalf("missing word cue %q in:\n%s", wantLine, out)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	last := lines[len(lines)-1]
	if last != `Dialogue: 0,0:00:00.00,0:00:02.25,Default,,0,0,0,,{\an5}{\fs40\alpha&H80&}acctX` {
		t.Fatalf("watermark line = %q", last)
	}
}

func TestHighlightChosenOncePerRender(t *testing.T) {
	segments := []whisperx.Segment{{Words: []whisperx.Word{
		{Word: "a", Start: 0, End: 1}, {Word: "b", Start: 1, End: 2}, {Word: "c", Start: 2, End: 3},
	}}}
	var buf bytes.Buffer
	if _, err := Write(&buf, segments, Options{}); err != nil {
		t.Fatal(err)
	}
	used := map[string]bool{}
	for _, color := range Palette {
		if strings.Contains(buf.String(), `{\c`+color) {
			used[color] = true
		}
	}
	if len(used) != 1 {
		t.Fatalf("expected exactly one highlight colour, got %v", used)
	}
}

func TestWriteFileWithoutWatermark(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cues.ass")
	cues, err := WriteFile(path, nil, Options{})
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cues != 0 || strings.Contains(string(data), "Dialogue:") {
		t.Fatalf("unexpected dialogue lines:\n%s", data)
	}
}
