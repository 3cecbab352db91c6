package whisperx

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clipcaster/internal/services"
)

const sampleOutput = `{"segments":[
 {"text":" hello world ","start":0.0,"end":1.2,"words":[
   {"word":"hello","start":0.0,"end":0.5},
   {"word":"world","start":0.6,"end":1.2},
   {"word":"42"}
 ]}
]}`

func TestTranscribeBuildsArgsAndParsesOutput(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "temp_audio_abcd1234.wav")
	var gotName string
	var gotArgs []string

	svc := NewService(Config{})
	svc.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		gotName, gotArgs = name, args
		return os.WriteFile(OutputPath(audio, dir), []byte(sampleOutput), 0o644)
	})

	segments, err := svc.Transcribe(context.Background(), audio, "medium", dir)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if gotName != "whisperx" {
		t.Fatalf("command = %q", gotName)
	}
	joined := strings.Join(gotArgs, " ")
	for _, want := range []string{"--model medium", "--output_format json", "--device cpu", "--compute_type int8"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("args %q missing %q", joined, want)
		}
	}
	if len(segments) != 1 || segments[0].Text != "hello world" {
		t.Fatalf("segments = %+v", segments)
	}
	if len(segments[0].Words) != 2 {
		t.Fatalf("unaligned words must be dropped: %+v", segments[0].Words)
	}
	if _, err := os.Stat(OutputPath(audio, dir)); !os.IsNotExist(err) {
		t.Fatal("transcript json should be removed after parsing")
	}
}

func TestTranscribeFailureIsTransient(t *testing.T) {
	svc := NewService(Config{Command: "wx", Device: "cuda", ComputeType: "float16"})
	svc.WithCommandRunner(func(context.Context, string, ...string) error {
		return errors.New("exit status 1")
	})
	_, err := svc.Transcribe(context.Background(), filepath.Join(t.TempDir(), "a.wav"), "", "")
	if !errors.Is(err, services.ErrTransient) || !services.Retryable(err) {
		t.Fatalf("expected retryable transient error, got %v", err)
	}
}

func TestTranscribeSplitsLauncherCommand(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "temp_audio_abcd1234.wav")
	var gotName string
	var gotArgs []string

	svc := NewService(Config{Command: `uvx --from "whisperx==3.1" whisperx`})
	svc.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		gotName, gotArgs = name, args
		return os.WriteFile(OutputPath(audio, dir), []byte(sampleOutput), 0o644)
	})
	if _, err := svc.Transcribe(context.Background(), audio, "", dir); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if gotName != "uvx" || svc.Command() != "uvx" {
		t.Fatalf("command = %q", gotName)
	}
	if len(gotArgs) < 4 || gotArgs[1] != "whisperx==3.1" || gotArgs[2] != "whisperx" || gotArgs[3] != audio {
		t.Fatalf("args = %v", gotArgs)
	}

	broken := NewService(Config{Command: `uvx "whisperx`})
	_, err := broken.Transcribe(context.Background(), audio, "", dir)
	if !errors.Is(err, services.ErrConfiguration) || services.Retryable(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestBuildArgsDefaultsModel(t *testing.T) {
	svc := NewService(Config{})
	args := svc.buildArgs("a.wav", " ", "/out")
	if args[0] != "a.wav" || args[2] != DefaultModel {
		t.Fatalf("args = %v", args)
	}
	if strings.Contains(strings.Join(args, " "), "--language") {
		t.Fatalf("language must be omitted for auto-detect: %v", args)
	}
}

func TestBuildArgsPassesLanguage(t *testing.T) {
	svc := NewService(Config{Language: "id"})
	args := strings.Join(svc.buildArgs("a.wav", "small", "/out"), " ")
	if !strings.HasSuffix(args, "--language id") {
		t.Fatalf("args = %s", args)
	}
}
