package media

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Frame geometry for the rendered short.
const (
	PaneWidth     = 760
	PaneHeight    = 1350
	StackWidth    = 1080
	StackHeight   = 960
	DefaultCRF    = 18
	DefaultPreset = "veryfast"
	browserAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Input is the media source for an ffmpeg invocation.
type Input struct {
	Location string
	Remote   bool
	Proxy    string
	Start    time.Duration
	End      time.Duration
}

// RenderRequest describes one final render.
type RenderRequest struct {
	Input Input
	// Crop selects crop-to-fill; false pads to fit.
	Crop bool
	// Anchor is the crop window position: "l", "c" or "r".
	Anchor string
	// Cues is an optional ASS file to burn in.
	Cues string
	// Filler enables the stacked layout with this clip in the bottom pane.
	Filler string
	Output string
}

// Encoder builds and runs ffmpeg commands.
type Encoder struct {
	Binary string
	CRF    int
	Preset string
	Runner Runner
}

// NewEncoder returns an encoder with defaults for empty settings.
func NewEncoder(binary string, crf int, preset string) *Encoder {
	if binary == "" {
		binary = "ffmpeg"
	}
	if crf <= 0 {
		crf = DefaultCRF
	}
	if preset == "" {
		preset = DefaultPreset
	}
	return &Encoder{Binary: binary, CRF: crf, Preset: preset}
}

// ExtractAudio writes a mono 16 kHz WAV slice of in to output.
func (e *Encoder) ExtractAudio(ctx context.Context, in Input, output string) error {
	_, err := runOrDefault(e.Runner)(ctx, e.Binary, AudioArgs(in, output)...)
	return wrapToolErr("ffmpeg", "extract audio", err)
}

// Render produces the final vertical clip.
func (e *Encoder) Render(ctx context.Context, req RenderRequest) error {
	_, err := runOrDefault(e.Runner)(ctx, e.Binary, e.RenderArgs(req)...)
	return wrapToolErr("ffmpeg", "render", err)
}

// AudioArgs builds the audio extraction arguments.
func AudioArgs(in Input, output string) []string {
	args := []string{"-y", "-hide_banner", "-loglevel", "error",
		"-ss", seconds(in.Start), "-to", seconds(in.End)}
	if in.Remote && in.Proxy != "" {
		args = append(args, "-http_proxy", in.Proxy)
	}
	return append(args, "-i", in.Location, "-vn", "-ac", "1", "-ar", "16000", output)
}

// RenderArgs builds the render arguments.
func (e *Encoder) RenderArgs(req RenderRequest) []string {
	args := []string{"-y", "-hide_banner", "-loglevel", "error"}
	if req.Input.Remote {
		if req.Input.Proxy != "" {
			args = append(args, "-http_proxy", req.Input.Proxy)
		}
		args = append(args,
			"-reconnect", "1", "-reconnect_streamed", "1", "-reconnect_delay_max", "5",
			"-headers", "User-Agent: "+browserAgent+"\r\n")
	}
	args = append(args, "-ss", seconds(req.Input.Start), "-to", seconds(req.Input.End), "-i", req.Input.Location)

	if req.Filler != "" {
		args = append(args,
			"-stream_loop", "-1", "-i", req.Filler,
			"-filter_complex", StackedFilter(req.Cues),
			"-map", "0:a", "-shortest")
	} else {
		args = append(args, "-vf", SingleFilter(req.Crop, req.Anchor, req.Cues))
	}

	crf := e.CRF
	if crf <= 0 {
		crf = DefaultCRF
	}
	preset := e.Preset
	if preset == "" {
		preset = DefaultPreset
	}
	return append(args,
		"-c:v", "libx264", "-preset", preset, "-crf", strconv.Itoa(crf),
		"-c:a", "aac", "-b:a", "192k", "-avoid_negative_ts", "make_zero",
		req.Output)
}

// SingleFilter is the one-pane filter graph: crop-to-fill anchored by
// position, or pad-to-fit, then optional burned-in cues.
func SingleFilter(crop bool, anchor, cues string) string {
	var filters []string
	if crop {
		filters = append(filters,
			fmt.Sprintf("scale=-1:%d", PaneHeight),
			"format=yuv420p",
			fmt.Sprintf("crop='if(gt(iw,ih),iw/2,iw)':%d:%s:0", PaneHeight, cropX(anchor)))
	} else {
		filters = append(filters,
			fmt.Sprintf("scale=%d:-1", PaneWidth),
			"format=yuv420p",
			fmt.Sprintf("pad=%d:%d:(ow-iw)/2:(oh-ih)/2", PaneWidth, PaneHeight))
	}
	if cues != "" {
		filters = append(filters, subtitlesFilter(cues))
	}
	return strings.Join(filters, ",")
}

// StackedFilter stacks the source over a looping filler clip. Cues burn into
// the top pane only.
func StackedFilter(cues string) string {
	pane := fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,setsar=1",
		StackWidth, StackHeight, StackWidth, StackHeight)
	top := pane
	if cues != "" {
		top += "," + subtitlesFilter(cues)
	}
	return fmt.Sprintf("[0:v]%s[top];[1:v]%s[bottom];[top][bottom]vstack=inputs=2,format=yuv420p", top, pane)
}

func cropX(anchor string) string {
	switch anchor {
	case "l":
		return "0"
	case "r":
		return "iw/2"
	default:
		return "iw/4"
	}
}

func subtitlesFilter(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	abs = filepath.ToSlash(abs)
	abs = strings.ReplaceAll(abs, ":", `\:`)
	abs = strings.ReplaceAll(abs, "'", `\'`)
	return fmt.Sprintf("subtitles='%s'", abs)
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}
