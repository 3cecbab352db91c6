package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"clipcaster/internal/logging"
	"clipcaster/internal/services"
)

const (
	// DefaultPollInterval is the spacing between processing polls.
	DefaultPollInterval = 10 * time.Second
	// DefaultPollAttempts bounds processing polls to roughly five minutes.
	DefaultPollAttempts = 30
)

// Result is the terminal outcome for one platform.
type Result struct {
	Platform Platform
	Outcome  Outcome
	RemoteID string
	Link     string
	Reason   string
	Err      error
}

// Machine runs the per-platform publish state machine.
type Machine struct {
	Gate         RateGate
	Notifier     Notifier
	PollInterval time.Duration
	PollAttempts int
	Logger       *slog.Logger
	// Sleep waits between polls; it returns early with ctx.Err() on cancel.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Run drives pub for account and returns exactly one terminal outcome.
func (m *Machine) Run(ctx context.Context, pub Publisher, account string, content Content) Result {
	platform := pub.Platform()
	logger := logging.WithContext(ctx, logging.NewComponentLogger(m.Logger, "publish")).With(
		logging.Platform(string(platform)),
		logging.Account(account),
		logging.String(logging.FieldJobTitle, content.Title),
	)
	res := Result{Platform: platform}

	if m.Gate != nil {
		release, err := m.Gate.Hold(ctx, platform, account)
		if err != nil {
			return m.fail(logger, res, "rate_check", fmt.Errorf("rate hold: %w", err))
		}
		defer release()

		ok, err := m.Gate.CanPublish(platform, account)
		if err != nil {
			return m.fail(logger, res, "rate_check", fmt.Errorf("rate check: %w", err))
		}
		if !ok {
			res.Outcome = OutcomeSkipped
			res.Reason = fmt.Sprintf("daily cap of %d reached", m.Gate.Cap())
			logger.Info("publish skipped",
				logging.String(logging.FieldEventType, "publish_skipped"),
				logging.String(logging.FieldOutcome, string(res.Outcome)),
				logging.String("reason", res.Reason),
			)
			return res
		}
	}

	logger.Info("publish started", logging.String(logging.FieldEventType, "publish_started"))

	session, err := pub.Create(ctx, content)
	if err != nil {
		return m.fail(logger, res, "create", err)
	}
	res.RemoteID = session.ID

	session, err = pub.Upload(ctx, session, content)
	if err != nil {
		return m.fail(logger, res, "upload", err)
	}
	res.RemoteID = session.ID

	if out, ok := m.poll(ctx, logger, pub, session, res); !ok {
		return out
	}

	published, err := pub.Publish(ctx, session, content)
	if err != nil {
		return m.fail(logger, res, "publish", err)
	}
	res.Outcome = OutcomePublished
	if published.ID != "" {
		res.RemoteID = published.ID
	}
	res.Link = published.Link
	logger.Info("publish completed",
		logging.String(logging.FieldEventType, "publish_completed"),
		logging.String(logging.FieldOutcome, string(res.Outcome)),
		logging.String("remote_id", res.RemoteID),
		logging.String("link", res.Link),
	)

	if m.Notifier != nil {
		event := Event{Title: content.Title, Account: account, Platform: platform, Link: res.Link}
		if err := m.Notifier.NotifyPublished(ctx, event); err != nil {
			logging.WarnWithContext(logger, "publish notification failed", "notify_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check notification settings"),
				logging.String(logging.FieldImpact, "operator was not notified; publish unaffected"),
			)
		}
	}

	if m.Gate != nil {
		count, err := m.Gate.RecordPublish(platform, account)
		if err != nil {
			logging.WarnWithContext(logger, "rate ledger update failed", "ledger_write_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check data_dir permissions"),
				logging.String(logging.FieldImpact, "today's publish count may be understated"),
			)
		} else {
			logger.Debug("rate ledger updated", logging.Int("count", count), logging.Int("cap", m.Gate.Cap()))
		}
	}
	return res
}

// poll waits for remote processing. ok is false when res is terminal.
func (m *Machine) poll(ctx context.Context, logger *slog.Logger, pub Publisher, session Session, res Result) (Result, bool) {
	attempts := m.PollAttempts
	if attempts <= 0 {
		attempts = DefaultPollAttempts
	}
	interval := m.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	sleep := m.Sleep
	if sleep == nil {
		sleep = SleepContext
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		status, err := pub.PollStatus(ctx, session)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return m.fail(logger, res, "poll", ctx.Err()), false
			}
			logger.Warn("processing poll failed",
				logging.Int("poll", attempt),
				logging.Error(err),
				logging.String(logging.FieldEventType, "poll_error"),
				logging.String(logging.FieldErrorHint, "transient errors are retried until the poll budget is spent"),
				logging.String(logging.FieldImpact, "poll attempt wasted"),
			)
		case status.State == StateReady:
			logger.Debug("remote processing finished", logging.Int("poll", attempt))
			return res, true
		case status.State == StateFailed:
			err := services.Wrap(services.ErrRemoteProcessing, string(pub.Platform()), "processing", status.Detail, nil)
			return m.fail(logger, res, "poll", err), false
		default:
			logger.Debug("remote processing pending", logging.Int("poll", attempt), logging.String("detail", status.Detail))
		}
		if attempt == attempts {
			break
		}
		if err := sleep(ctx, interval); err != nil {
			return m.fail(logger, res, "poll", err), false
		}
	}

	res.Outcome = OutcomeTimedOut
	res.Err = services.Wrap(services.ErrTimeout, string(pub.Platform()), "processing",
		fmt.Sprintf("not ready after %d polls", attempts), nil)
	logging.ErrorWithContext(logger, "remote processing timed out", "publish_timed_out",
		logging.String(logging.FieldOutcome, string(res.Outcome)),
		logging.Error(res.Err),
		logging.String(logging.FieldErrorHint, "check the platform's processing queue"),
	)
	return res, false
}

func (m *Machine) fail(logger *slog.Logger, res Result, step string, err error) Result {
	res.Outcome = OutcomeFailed
	res.Err = err
	logging.ErrorWithContext(logger, "publish failed", "publish_failed",
		logging.String(logging.FieldStep, step),
		logging.String(logging.FieldOutcome, string(res.Outcome)),
		logging.String(logging.FieldErrorKind, services.Kind(err)),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, hintFor(err)),
	)
	return res
}

func hintFor(err error) string {
	switch {
	case errors.Is(err, services.ErrConfiguration):
		return "check the account's credential files"
	case errors.Is(err, services.ErrRemoteProcessing):
		return "the platform rejected the video; inspect the artifact"
	default:
		return "check network connectivity and platform API status"
	}
}

// SleepContext waits for d or until ctx is done.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
