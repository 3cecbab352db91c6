package subtitles

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"os"
	"strings"

	"clipcaster/internal/services/whisperx"
)

// Palette holds the highlight colours in ASS BGR notation.
var Palette = []string{
	"&H00FFFF&",
	"&H00D7FF&",
	"&H00FF00&",
	"&HFF00FF&",
	"&H00A5FF&",
}

const header = `[Script Info]
ScriptType: v4.00+
PlayResX: 1080
PlayResY: 1920

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Default,Arial,70,&H00FFFFFF,&H00FFFFFF,&H00000000,&H64000000,1,0,0,0,100,100,0,0,1,4,0,2,40,40,400,1

[Events]
Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text
`

// Options controls one render.
type Options struct {
	// Watermark is drawn centred for the whole clip; empty disables it.
	Watermark string
	// Highlight overrides the random palette pick.
	Highlight string
	Rand      *rand.Rand
}

// Write renders segments as an ASS document to w. It returns the number of
// word cues written.
func Write(w io.Writer, segments []whisperx.Segment, opts Options) (int, error) {
	highlight := opts.Highlight
	if highlight == "" {
		highlight = pick(opts.Rand)
	}

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(header); err != nil {
		return 0, err
	}
	var lastEnd float64
	cues := 0
	for _, seg := range segments {
		for _, word := range seg.Words {
			text := cleanWord(word.Word)
			if text == "" {
				continue
			}
			lastEnd = math.Max(lastEnd, word.End)
			fmt.Fprintf(bw, "Dialogue: 0,%s,%s,Default,,0,0,0,,{\\c%s\\fscx120\\fscy120}%s{\\c&HFFFFFF&\\fscx100\\fscy100}\n",
				Timestamp(word.Start), Timestamp(word.End), highlight, text)
			cues++
		}
	}
	if mark := cleanWord(opts.Watermark); mark != "" {
		fmt.Fprintf(bw, "Dialogue: 0,0:00:00.00,%s,Default,,0,0,0,,{\\an5}{\\fs40\\alpha&H80&}%s\n",
			Timestamp(lastEnd), mark)
	}
	return cues, bw.Flush()
}

// WriteFile renders segments to path.
func WriteFile(path string, segments []whisperx.Segment, opts Options) (int, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create cue file: %w", err)
	}
	cues, err := Write(file, segments, opts)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return 0, fmt.Errorf("write cue file: %w", err)
	}
	return cues, nil
}

// Timestamp formats seconds as H:MM:SS.CC.
func Timestamp(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	cs := int64(math.Round(seconds * 100))
	h := cs / 360000
	m := (cs / 6000) % 60
	s := (cs / 100) % 60
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, cs%100)
}

func pick(rng *rand.Rand) string {
	if rng == nil {
		return Palette[rand.IntN(len(Palette))]
	}
	return Palette[rng.IntN(len(Palette))]
}

// cleanWord strips override-block braces and line breaks that would corrupt
// the dialogue line.
func cleanWord(word string) string {
	word = strings.NewReplacer("{", "", "}", "", "\n", " ", "\r", "").Replace(word)
	return strings.TrimSpace(word)
}
