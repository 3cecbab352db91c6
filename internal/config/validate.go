package config

import (
	"errors"
	"fmt"

	"github.com/kballard/go-shellquote"

	"clipcaster/internal/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateScheduler(); err != nil {
		return err
	}
	if err := c.validatePublish(); err != nil {
		return err
	}
	if err := c.validateEncoder(); err != nil {
		return err
	}
	if parts, err := shellquote.Split(c.Transcription.Command); err != nil || len(parts) == 0 {
		return fmt.Errorf("transcription.command %q is not a valid command line", c.Transcription.Command)
	}
	if _, ok := language.Normalize(c.Transcription.Language); !ok {
		return fmt.Errorf("transcription.language %q is not a supported language", c.Transcription.Language)
	}
	return c.validateLogging()
}

func (c *Config) validateScheduler() error {
	s := c.Scheduler
	if s.MinDelay < 0 || s.MaxDelay < 0 {
		return errors.New("scheduler.min_delay and scheduler.max_delay must not be negative")
	}
	if s.MinDelay > s.MaxDelay {
		return fmt.Errorf("scheduler.min_delay (%d) must not exceed scheduler.max_delay (%d)", s.MinDelay, s.MaxDelay)
	}
	if s.MaxRetries < 0 {
		return errors.New("scheduler.max_retries must not be negative")
	}
	if s.RetryMinDelay < 0 || s.RetryMinDelay > s.RetryMaxDelay {
		return fmt.Errorf("scheduler.retry_min_delay (%d) must be between 0 and scheduler.retry_max_delay (%d)", s.RetryMinDelay, s.RetryMaxDelay)
	}
	return nil
}

func (c *Config) validatePublish() error {
	if c.Publish.DailyCap < 1 {
		return errors.New("publish.daily_cap must be at least 1")
	}
	if c.Publish.PollAttempts < 1 {
		return errors.New("publish.poll_attempts must be at least 1")
	}
	return nil
}

func (c *Config) validateEncoder() error {
	if c.Encoder.CRF < 0 || c.Encoder.CRF > 51 {
		return fmt.Errorf("encoder.crf must be between 0 and 51, got %d", c.Encoder.CRF)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
}
