package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clipcaster/internal/config"
	"clipcaster/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	for _, key := range []string{"TELEGRAM_TOKEN", "TELEGRAM_CHAT_ID", "NTFY_TOPIC", "PROXIES"} {
		t.Setenv(key, "")
	}

	configPath := filepath.Join(homeDir, ".config", "clipcaster", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
data_dir = %q
schedule_file = %q
work_dir = %q
filler_dir = %q
accounts_dir = %q
log_dir = %q
cookies_file = %q

[scheduler]
min_delay = 0
max_delay = 0
retry_min_delay = 0
retry_max_delay = 0
default_account = %q

[publish]
daily_cap = %d

[notifications]
ntfy_topic = %q
`,
		cfg.Paths.DataDir,
		cfg.Paths.ScheduleFile,
		cfg.Paths.WorkDir,
		cfg.Paths.FillerDir,
		cfg.Paths.AccountsDir,
		cfg.Paths.LogDir,
		cfg.Paths.CookiesFile,
		cfg.Scheduler.DefaultAccount,
		cfg.Publish.DailyCap,
		cfg.Notifications.NtfyTopic,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected output to contain %q\n---\n%s", substr, output)
	}
}
