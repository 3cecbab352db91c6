package ffprobe_test

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"clipcaster/internal/media/ffprobe"
	"clipcaster/internal/services"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		json string
		want ffprobe.Info
	}{
		{
			name: "container duration",
			json: `{"streams":[{"codec_type":"video","width":1920,"height":1080},{"codec_type":"audio"},{"codec_type":"audio"}],"format":{"duration":"123.5"}}`,
			want: ffprobe.Info{Duration: 123500 * time.Millisecond, Width: 1920, Height: 1080, VideoStreams: 1, AudioStreams: 2},
		},
		{
			name: "stream duration fallback",
			json: `{"streams":[{"codec_type":"video","width":720,"height":1280,"duration":"30"},{"codec_type":"audio","duration":"31.25"}],"format":{"duration":"N/A"}}`,
			want: ffprobe.Info{Duration: 31250 * time.Millisecond, Width: 720, Height: 1280, VideoStreams: 1, AudioStreams: 1},
		},
		{
			name: "audio only",
			json: `{"streams":[{"codec_type":"audio"}],"format":{"duration":"-3"}}`,
			want: ffprobe.Info{AudioStreams: 1},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ffprobe.Parse([]byte(tc.json))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := ffprobe.Parse([]byte("not json")); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestProbeUsesRunner(t *testing.T) {
	var gotName string
	var gotArgs []string
	p := ffprobe.New("")
	p.Runner = func(_ context.Context, name string, args ...string) ([]byte, error) {
		gotName, gotArgs = name, args
		return []byte(`{"streams":[{"codec_type":"video","width":1280,"height":720}],"format":{"duration":"60"}}`), nil
	}
	info, err := p.Probe(context.Background(), "/v/a.mp4")
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if gotName != "ffprobe" || !slices.Equal(gotArgs, ffprobe.Args("/v/a.mp4")) {
		t.Fatalf("unexpected invocation %s %v", gotName, gotArgs)
	}
	if !info.Landscape() || info.Duration != time.Minute {
		t.Fatalf("unexpected info %+v", info)
	}
	if _, err := p.Probe(context.Background(), " "); err == nil {
		t.Fatal("expected empty path error")
	}
}
