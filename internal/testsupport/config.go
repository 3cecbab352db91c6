package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"clipcaster/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Delays are zeroed so scheduler tests never sleep for real.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.ScheduleFile = filepath.Join(base, "data", "_jobs.json")
	cfgVal.Paths.WorkDir = filepath.Join(base, "shorts")
	cfgVal.Paths.FillerDir = filepath.Join(base, "filler")
	cfgVal.Paths.AccountsDir = filepath.Join(base, "accounts")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.CookiesFile = filepath.Join(base, "data", "_cookies.txt")
	cfgVal.Scheduler.MinDelay = 0
	cfgVal.Scheduler.MaxDelay = 0
	cfgVal.Scheduler.RetryMinDelay = 0
	cfgVal.Scheduler.RetryMaxDelay = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithAccount creates an account directory holding the given files
// (file name to contents), for example yt_token.json or meta.env.
func WithAccount(name string, files map[string]string) ConfigOption {
	return func(b *configBuilder) {
		dir := filepath.Join(b.cfg.Paths.AccountsDir, name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			b.t.Fatalf("mkdir account %s: %v", name, err)
		}
		for file, body := range files {
			if err := os.WriteFile(filepath.Join(dir, file), []byte(body), 0o600); err != nil {
				b.t.Fatalf("write %s/%s: %v", name, file, err)
			}
		}
	}
}

// WithFillers writes placeholder filler clips with the given names.
func WithFillers(names ...string) ConfigOption {
	return func(b *configBuilder) {
		for _, name := range names {
			WriteFile(b.t, filepath.Join(b.cfg.Paths.FillerDir, name), 16)
		}
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the external media tools are
// stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "yt-dlp", "whisperx"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.WorkDir)
}
