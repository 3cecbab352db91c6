package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir      string `toml:"data_dir"`
	ScheduleFile string `toml:"schedule_file"`
	WorkDir      string `toml:"work_dir"`
	FillerDir    string `toml:"filler_dir"`
	AccountsDir  string `toml:"accounts_dir"`
	LogDir       string `toml:"log_dir"`
	CookiesFile  string `toml:"cookies_file"`
}

// Scheduler contains the poll loop and retry timing. All values are seconds.
type Scheduler struct {
	CheckInterval  int    `toml:"check_interval"`
	MinDelay       int    `toml:"min_delay"`
	MaxDelay       int    `toml:"max_delay"`
	MaxRetries     int    `toml:"max_retries"`
	RetryMinDelay  int    `toml:"retry_min_delay"`
	RetryMaxDelay  int    `toml:"retry_max_delay"`
	DefaultAccount string `toml:"default_account"`
}

// Proxies lists proxy URLs rotated round-robin across job attempts.
type Proxies struct {
	URLs []string `toml:"urls"`
}

// Publish contains platform dispatch settings.
type Publish struct {
	DailyCap        int    `toml:"daily_cap"`
	PollInterval    int    `toml:"poll_interval"`
	PollAttempts    int    `toml:"poll_attempts"`
	Concurrent      bool   `toml:"concurrent"`
	RequestTimeout  int    `toml:"request_timeout"`
	GraphAPIVersion string `toml:"graph_api_version"`
}

// Encoder contains the external media tool settings.
type Encoder struct {
	FFmpeg  string `toml:"ffmpeg"`
	FFprobe string `toml:"ffprobe"`
	YTDLP   string `toml:"ytdlp"`
	CRF     int    `toml:"crf"`
	Preset  string `toml:"preset"`
}

// Transcription contains the speech-to-text collaborator settings.
type Transcription struct {
	Command     string `toml:"command"`
	Device      string `toml:"device"`
	ComputeType string `toml:"compute_type"`
	// Language is a name or ISO code; empty lets WhisperX detect it.
	Language string `toml:"language"`
}

// Notifications contains Telegram and ntfy delivery settings.
type Notifications struct {
	TelegramToken  string `toml:"telegram_token"`
	TelegramChatID string `toml:"telegram_chat_id"`
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	JobEvents      bool   `toml:"job_events"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for clipcaster.
//
// Configuration sections by subsystem:
//   - Paths: schedule document, ledgers, scratch/work space, accounts
//   - Scheduler: poll interval, inter-job delay, whole-job retry budget
//   - Proxies: rotating proxy list for remote sources
//   - Publish: daily cap, processing poll cadence, HTTP timeouts
//   - Encoder: ffmpeg, ffprobe and yt-dlp binaries and quality knobs
//   - Transcription: whisperx command line and language
//   - Notifications: Telegram and ntfy delivery
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Scheduler     Scheduler     `toml:"scheduler"`
	Proxies       Proxies       `toml:"proxies"`
	Publish       Publish       `toml:"publish"`
	Encoder       Encoder       `toml:"encoder"`
	Transcription Transcription `toml:"transcription"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

const defaultConfigLocation = "~/.config/clipcaster/config.toml"

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigLocation)
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. exists is false when
// no file was found and defaults (plus environment) were used.
func Load(path string) (cfg *Config, resolved string, exists bool, err error) {
	// A missing .env is the common case; values already exported win.
	_ = godotenv.Load()

	resolved, exists, err = resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	loaded := Default()
	if exists {
		data, readErr := os.ReadFile(resolved)
		if readErr != nil {
			return nil, "", false, fmt.Errorf("read config: %w", readErr)
		}
		if err := toml.Unmarshal(data, &loaded); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	}
	if err := loaded.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := loaded.Validate(); err != nil {
		return nil, "", false, err
	}
	return &loaded, resolved, exists, nil
}

// resolveConfigPath honours an explicit path even when it does not exist.
// Otherwise the user config wins over ./clipcaster.toml, and the user
// location is reported when neither exists.
func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		switch _, err := os.Stat(expanded); {
		case err == nil:
			return expanded, true, nil
		case errors.Is(err, fs.ErrNotExist):
			return expanded, false, nil
		default:
			return "", false, fmt.Errorf("stat config: %w", err)
		}
	}

	userPath, err := expandPath(defaultConfigLocation)
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("clipcaster.toml")
	if err != nil {
		return "", false, err
	}
	for _, candidate := range []string{userPath, projectPath} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true, nil
		}
	}
	return userPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
// The filler and accounts directories are operator-managed and only created
// on a best-effort basis.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.WorkDir, c.Paths.LogDir, filepath.Dir(c.Paths.ScheduleFile)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	for _, dir := range []string{c.Paths.FillerDir, c.Paths.AccountsDir} {
		if strings.TrimSpace(dir) != "" {
			_ = os.MkdirAll(dir, 0o755)
		}
	}
	return nil
}

// CheckInterval returns the scheduler poll interval.
func (c *Config) CheckInterval() time.Duration {
	return time.Duration(c.Scheduler.CheckInterval) * time.Second
}

// PollInterval returns the remote processing poll interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Publish.PollInterval) * time.Second
}

// RequestTimeout returns the HTTP timeout applied to platform API calls.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Publish.RequestTimeout) * time.Second
}

// HistoryDBPath returns the run history database location.
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.Paths.DataDir, "history.db")
}

// LockPath returns the daemon single-instance lock location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "clipcaster.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return "", nil
	}
	if pathValue == "~" || strings.HasPrefix(pathValue, "~/") || strings.HasPrefix(pathValue, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		pathValue = filepath.Join(home, strings.TrimLeft(pathValue[1:], `/\`))
	}
	absolute, err := filepath.Abs(pathValue)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
