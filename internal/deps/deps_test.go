package deps

import (
	"os"
	"path/filepath"
	"testing"

	"clipcaster/internal/config"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  ", Optional: true},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Detail != "" {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for blank command: %s", results[2].Detail)
	}

	missing := Missing(results)
	if len(missing) != 1 || missing[0].Name != "Missing" {
		t.Fatalf("optional entries must not count as missing: %#v", missing)
	}
}

func TestRequirementsFollowConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Encoder.FFmpeg = "/opt/ffmpeg/bin/ffmpeg"
	cfg.Transcription.Command = "uvx-whisperx"

	reqs := Requirements(&cfg)
	got := map[string]string{}
	for _, r := range reqs {
		got[r.Name] = r.Command
	}
	if got["FFmpeg"] != "/opt/ffmpeg/bin/ffmpeg" || got["WhisperX"] != "uvx-whisperx" || got["yt-dlp"] != "yt-dlp" || got["FFprobe"] != "ffprobe" {
		t.Fatalf("unexpected requirements: %v", got)
	}
}

func TestExecutableSplitsLauncher(t *testing.T) {
	tests := map[string]string{
		"whisperx":                            "whisperx",
		`uvx --from "whisperx==3.1" whisperx`: "uvx",
		"  ":                                  "",
		`"/opt/whisper x/bin/whisperx"`:       "/opt/whisper x/bin/whisperx",
	}
	for in, want := range tests {
		if got := Executable(in); got != want {
			t.Errorf("Executable(%q) = %q, want %q", in, got, want)
		}
	}
}
