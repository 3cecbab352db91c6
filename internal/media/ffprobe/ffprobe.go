package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"clipcaster/internal/media"
	"clipcaster/internal/services"
)

// Info summarizes a probed file.
type Info struct {
	Duration     time.Duration
	Width        int
	Height       int
	VideoStreams int
	AudioStreams int
}

// Landscape reports whether the first video stream is wider than tall.
func (i Info) Landscape() bool { return i.Width > i.Height }

type output struct {
	Streams []stream `json:"streams"`
	Format  format   `json:"format"`
}

type stream struct {
	CodecType string `json:"codec_type"`
	Duration  string `json:"duration"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

type format struct {
	Duration string `json:"duration"`
}

// Prober runs ffprobe.
type Prober struct {
	Binary string
	Runner media.Runner
}

// New returns a prober for binary, defaulting to "ffprobe".
func New(binary string) *Prober {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	return &Prober{Binary: binary}
}

// Args builds the ffprobe command line for path.
func Args(path string) []string {
	return []string{"-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path}
}

// Probe inspects path.
func (p *Prober) Probe(ctx context.Context, path string) (Info, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Info{}, errors.New("ffprobe: empty path")
	}
	run := p.Runner
	if run == nil {
		run = media.ExecRunner
	}
	data, err := run(ctx, p.Binary, Args(path)...)
	if err != nil {
		return Info{}, err
	}
	return Parse(data)
}

// Parse decodes ffprobe JSON. The container duration wins; the longest
// stream duration is used when the container has none.
func Parse(data []byte) (Info, error) {
	var out output
	if err := json.Unmarshal(data, &out); err != nil {
		return Info{}, services.Wrap(services.ErrExternalTool, "ffprobe", "parse", "decode json", err)
	}
	var info Info
	longest := 0.0
	for _, s := range out.Streams {
		switch strings.ToLower(s.CodecType) {
		case "video":
			if info.VideoStreams == 0 {
				info.Width, info.Height = s.Width, s.Height
			}
			info.VideoStreams++
		case "audio":
			info.AudioStreams++
		}
		if d := parseSeconds(s.Duration); d > longest {
			longest = d
		}
	}
	secs := parseSeconds(out.Format.Duration)
	if secs <= 0 {
		secs = longest
	}
	info.Duration = time.Duration(secs * float64(time.Second))
	return info, nil
}

func parseSeconds(value string) float64 {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) || parsed < 0 {
		return 0
	}
	return parsed
}
