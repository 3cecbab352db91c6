package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"clipcaster/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeScheduler(); err != nil {
		return err
	}
	c.normalizeProxies()
	c.normalizePublish()
	c.normalizeEncoder()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ScheduleFile) == "" {
		c.Paths.ScheduleFile = filepath.Join(c.Paths.DataDir, defaultScheduleFileName)
	}
	if c.Paths.ScheduleFile, err = expandPath(c.Paths.ScheduleFile); err != nil {
		return fmt.Errorf("paths.schedule_file: %w", err)
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if c.Paths.FillerDir, err = expandPath(c.Paths.FillerDir); err != nil {
		return fmt.Errorf("paths.filler_dir: %w", err)
	}
	if c.Paths.AccountsDir, err = expandPath(c.Paths.AccountsDir); err != nil {
		return fmt.Errorf("paths.accounts_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.CookiesFile, err = expandPath(c.Paths.CookiesFile); err != nil {
		return fmt.Errorf("paths.cookies_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeScheduler() error {
	overrides := []struct {
		env    string
		target *int
	}{
		{"CHECK_INTERVAL", &c.Scheduler.CheckInterval},
		{"MIN_DELAY", &c.Scheduler.MinDelay},
		{"MAX_DELAY", &c.Scheduler.MaxDelay},
		{"MAX_RETRIES", &c.Scheduler.MaxRetries},
	}
	for _, o := range overrides {
		value, ok := os.LookupEnv(o.env)
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%s: %q is not an integer", o.env, value)
		}
		*o.target = parsed
	}
	c.Scheduler.DefaultAccount = strings.TrimSpace(c.Scheduler.DefaultAccount)
	if c.Scheduler.DefaultAccount == "" {
		c.Scheduler.DefaultAccount = defaultAccount
	}
	if c.Scheduler.CheckInterval <= 0 {
		c.Scheduler.CheckInterval = defaultCheckInterval
	}
	return nil
}

func (c *Config) normalizeProxies() {
	urls := c.Proxies.URLs
	if len(urls) == 0 {
		if value, ok := os.LookupEnv("PROXIES"); ok {
			urls = strings.Split(value, ",")
		}
	}
	cleaned := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			cleaned = append(cleaned, u)
		}
	}
	c.Proxies.URLs = cleaned
}

func (c *Config) normalizePublish() {
	c.Publish.GraphAPIVersion = strings.TrimSpace(c.Publish.GraphAPIVersion)
	if c.Publish.GraphAPIVersion == "" {
		c.Publish.GraphAPIVersion = defaultGraphAPIVersion
	}
	if c.Publish.RequestTimeout <= 0 {
		c.Publish.RequestTimeout = defaultRequestTimeout
	}
	if c.Publish.PollInterval <= 0 {
		c.Publish.PollInterval = defaultPollInterval
	}
}

func (c *Config) normalizeEncoder() {
	c.Encoder.FFmpeg = strings.TrimSpace(c.Encoder.FFmpeg)
	if c.Encoder.FFmpeg == "" {
		c.Encoder.FFmpeg = defaultFFmpeg
	}
	c.Encoder.FFprobe = strings.TrimSpace(c.Encoder.FFprobe)
	if c.Encoder.FFprobe == "" {
		c.Encoder.FFprobe = defaultFFprobe
	}
	c.Encoder.YTDLP = strings.TrimSpace(c.Encoder.YTDLP)
	if c.Encoder.YTDLP == "" {
		c.Encoder.YTDLP = defaultYTDLP
	}
	c.Encoder.Preset = strings.TrimSpace(c.Encoder.Preset)
	if c.Encoder.Preset == "" {
		c.Encoder.Preset = defaultPreset
	}
	c.Transcription.Command = strings.TrimSpace(c.Transcription.Command)
	if c.Transcription.Command == "" {
		c.Transcription.Command = defaultTranscriber
	}
	c.Transcription.Device = strings.ToLower(strings.TrimSpace(c.Transcription.Device))
	if c.Transcription.Device == "" {
		c.Transcription.Device = defaultDevice
	}
	c.Transcription.ComputeType = strings.TrimSpace(c.Transcription.ComputeType)
	if c.Transcription.ComputeType == "" {
		c.Transcription.ComputeType = defaultComputeType
	}
	if code, ok := language.Normalize(c.Transcription.Language); ok {
		c.Transcription.Language = code
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.TelegramToken = strings.TrimSpace(c.Notifications.TelegramToken)
	if c.Notifications.TelegramToken == "" {
		if value, ok := os.LookupEnv("TELEGRAM_TOKEN"); ok {
			c.Notifications.TelegramToken = strings.TrimSpace(value)
		}
	}
	c.Notifications.TelegramChatID = strings.TrimSpace(c.Notifications.TelegramChatID)
	if c.Notifications.TelegramChatID == "" {
		if value, ok := os.LookupEnv("TELEGRAM_CHAT_ID"); ok {
			c.Notifications.TelegramChatID = strings.TrimSpace(value)
		}
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
