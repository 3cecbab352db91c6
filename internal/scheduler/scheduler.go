package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"clipcaster/internal/config"
	"clipcaster/internal/history"
	"clipcaster/internal/logging"
	"clipcaster/internal/pipeline"
	"clipcaster/internal/proxypool"
	"clipcaster/internal/publish"
	"clipcaster/internal/schedule"
	"clipcaster/internal/services"
)

// Store is the schedule document the loop reads and rewrites.
type Store interface {
	Load() (schedule.Schedule, error)
	Save(schedule.Schedule) error
}

// Runner executes one pipeline attempt.
type Runner interface {
	Execute(ctx context.Context, job schedule.Job, proxy string) (pipeline.Result, error)
}

// Recorder persists run history.
type Recorder interface {
	RecordRun(ctx context.Context, run history.Run) error
}

// Notifier receives job and daily summary events.
type Notifier interface {
	NotifyJobCompleted(ctx context.Context, title, account string) error
	NotifyJobFailed(ctx context.Context, title, account string, attempts int, err error) error
	NotifyDailySummary(ctx context.Context, date string, slots, items int) error
}

// Options holds loop timing and retry policy.
type Options struct {
	CheckInterval time.Duration
	MinDelay      time.Duration
	MaxDelay      time.Duration
	MaxRetries    int
	RetryMinDelay time.Duration
	RetryMaxDelay time.Duration
	Defaults      schedule.Defaults
}

// OptionsFromConfig maps configuration onto loop options.
func OptionsFromConfig(cfg *config.Config) Options {
	sec := func(v int) time.Duration { return time.Duration(v) * time.Second }
	return Options{
		CheckInterval: cfg.CheckInterval(),
		MinDelay:      sec(cfg.Scheduler.MinDelay),
		MaxDelay:      sec(cfg.Scheduler.MaxDelay),
		MaxRetries:    cfg.Scheduler.MaxRetries,
		RetryMinDelay: sec(cfg.Scheduler.RetryMinDelay),
		RetryMaxDelay: sec(cfg.Scheduler.RetryMaxDelay),
		Defaults:      schedule.Defaults{Account: cfg.Scheduler.DefaultAccount},
	}
}

// Scheduler is the slot loop.
type Scheduler struct {
	Store    Store
	Runner   Runner
	Proxies  *proxypool.Pool
	History  Recorder
	Notifier Notifier
	Options  Options
	Logger   *slog.Logger

	// Clock, Sleep, Rand and NewID are replaced in tests.
	Clock func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
	Rand  *rand.Rand
	NewID func() string

	lastSummary  string
	lastNotified string
	wakeOnce     sync.Once
	wake         chan struct{}
}

// Run ticks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	logger := logging.NewComponentLogger(s.Logger, "scheduler")
	logger.Info("scheduler started",
		logging.String(logging.FieldEventType, "scheduler_start"),
		logging.Duration("check_interval", s.Options.CheckInterval),
		logging.Int("proxies", s.Proxies.Len()),
	)
	interval := s.Options.CheckInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	for {
		if err := s.Tick(ctx); err != nil && ctx.Err() == nil {
			logging.WarnWithContext(logger, "scheduler tick failed", "tick_failed", logging.Error(err))
		}
		if err := s.waitNext(ctx, interval); err != nil {
			logger.Info("scheduler stopped", logging.String(logging.FieldEventType, "scheduler_stop"))
			return nil
		}
	}
}

// Tick runs one cycle: reload, summarize, execute due slots. It returns
// ctx.Err() when cancelled mid-slot; the interrupted slot is not persisted.
func (s *Scheduler) Tick(ctx context.Context) error {
	logger := logging.NewComponentLogger(s.Logger, "scheduler")
	now := s.now()

	sched, err := s.Store.Load()
	if err != nil {
		logging.WarnWithContext(logger, "schedule unreadable; treating as empty", "schedule_load_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "fix or remove the schedule file"),
			logging.String(logging.FieldImpact, "no slots run until the file parses"),
		)
		sched = schedule.Schedule{}
	}

	s.summarize(ctx, logger, sched, now)

	due, malformed := sched.Due(now)
	for _, bad := range malformed {
		logging.WarnWithContext(logger, "slot skipped: bad due timestamp", "slot_malformed",
			logging.Int("index", bad.Index),
			logging.Error(bad.Err),
			logging.String(logging.FieldErrorHint, "use YYYY-MM-DD,HH:MM"),
			logging.String(logging.FieldImpact, "slot never runs"),
		)
	}

	for _, idx := range due {
		slot := sched[idx]
		if err := s.runSlot(ctx, slot); err != nil {
			return err
		}
		if err := s.complete(sched, idx); err != nil {
			logging.ErrorWithContext(logger, "failed to persist completed slot", "slot_persist_failed",
				logging.String(logging.FieldSlot, slot.Due),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check schedule file permissions"),
			)
			return err
		}
		logger.Info("slot completed",
			logging.String(logging.FieldEventType, "slot_complete"),
			logging.String(logging.FieldSlot, slot.Due),
			logging.Int("jobs", len(slot.Items)),
		)
		s.lastSummary = ""
	}
	return nil
}

// complete marks the slot in a fresh read of the document so operator
// edits made during the slot survive. The slot is matched by its due key,
// not its position. A slot the operator removed meanwhile is left removed;
// the in-memory copy is written only when the file cannot be read.
func (s *Scheduler) complete(sched schedule.Schedule, idx int) error {
	due := sched[idx].Due
	fresh, err := s.Store.Load()
	if err != nil {
		sched[idx].Complete()
		return s.Store.Save(sched)
	}
	i := slices.IndexFunc(fresh, func(slot schedule.Slot) bool {
		return slot.Due == due && slot.Pending()
	})
	if i < 0 {
		return nil
	}
	fresh[i].Complete()
	return s.Store.Save(fresh)
}

func (s *Scheduler) runSlot(ctx context.Context, slot schedule.Slot) error {
	ctx = services.WithSlot(ctx, slot.Due)
	logger := logging.WithContext(ctx, logging.NewComponentLogger(s.Logger, "scheduler"))
	logger.Info("slot started",
		logging.String(logging.FieldEventType, "slot_start"),
		logging.Int("jobs", len(slot.Items)),
	)
	for i, record := range slot.Items {
		if i > 0 {
			delay := s.between(s.Options.MinDelay, s.Options.MaxDelay)
			logger.Info("waiting before next job", logging.String(logging.FieldEventType, "job_delay"), logging.Duration("delay", delay))
			if err := s.sleep(ctx, delay); err != nil {
				return err
			}
		}
		s.runJob(ctx, slot.Due, i, record)
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

// ManualSlot is the slot key recorded for jobs started by RunJob.
const ManualSlot = "manual"

// RunJob executes record outside any slot with the same retry, history and
// notification handling as scheduled jobs.
func (s *Scheduler) RunJob(ctx context.Context, record schedule.JobRecord) history.Run {
	return s.runJob(ctx, ManualSlot, 0, record)
}

func (s *Scheduler) runJob(ctx context.Context, slotKey string, index int, record schedule.JobRecord) history.Run {
	runID := s.newID()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, logging.NewComponentLogger(s.Logger, "scheduler"))
	started := s.now()

	run := history.Run{ID: runID, Slot: slotKey, JobIndex: index, StartedAt: started}
	job, err := record.Resolve(s.Options.Defaults)
	if err != nil {
		run.Title, run.Account = derefTitle(record), derefAccount(record, s.Options.Defaults)
		return s.finish(ctx, logger, run, pipeline.Result{}, 0, err)
	}
	run.Title, run.Account = job.Title, job.Account
	ctx = services.WithAccount(ctx, job.Account)
	logger = logger.With(logging.Account(job.Account), logging.String(logging.FieldJobTitle, job.Title))

	maxAttempts := 1 + max(s.Options.MaxRetries, 0)
	var (
		res      pipeline.Result
		attempts int
	)
	for attempts = 1; attempts <= maxAttempts; attempts++ {
		proxy := s.Proxies.Next()
		logger.Info("job attempt started",
			logging.String(logging.FieldEventType, "job_attempt"),
			logging.Int(logging.FieldAttempt, attempts),
			logging.Int("max_attempts", maxAttempts),
			logging.String("proxy", proxypool.Redact(proxy)),
		)
		res, err = s.Runner.Execute(ctx, job, proxy)
		if err == nil || ctx.Err() != nil || !services.Retryable(err) || attempts == maxAttempts {
			break
		}
		wait := s.between(s.Options.RetryMinDelay, s.Options.RetryMaxDelay)
		logging.WarnWithContext(logger, "job attempt failed; retrying", "job_retry",
			logging.Int(logging.FieldAttempt, attempts),
			logging.Error(err),
			logging.String(logging.FieldErrorKind, services.Kind(err)),
			logging.Duration("retry_in", wait),
			logging.String(logging.FieldImpact, "job will be retried"),
		)
		if sleepErr := s.sleep(ctx, wait); sleepErr != nil {
			err = sleepErr
			break
		}
	}
	return s.finish(ctx, logger, run, res, min(attempts, maxAttempts), err)
}

func (s *Scheduler) finish(ctx context.Context, logger *slog.Logger, run history.Run, res pipeline.Result, attempts int, err error) history.Run {
	run.Attempts = attempts
	run.Artifact = res.Artifact
	run.Retained = res.Retained
	if res.Title != "" {
		run.Title = res.Title
	}
	for _, r := range res.Report.Results {
		pr := history.PlatformResult{
			Platform: string(r.Platform),
			Outcome:  string(r.Outcome),
			RemoteID: r.RemoteID,
			Link:     r.Link,
		}
		if r.Err != nil {
			pr.Error = r.Err.Error()
		} else {
			pr.Error = r.Reason
		}
		run.Results = append(run.Results, pr)
	}

	// Bookkeeping must survive the cancellation that may have ended the run.
	bg := context.WithoutCancel(ctx)
	switch {
	case err == nil:
		run.Status = history.StatusCompleted
		logger.Info("job completed",
			logging.String(logging.FieldEventType, "job_complete"),
			logging.Int(logging.FieldAttempt, attempts),
			logging.Int("published", res.Report.Count(publish.OutcomePublished)),
		)
		if s.Notifier != nil {
			s.warnNotify(logger, s.Notifier.NotifyJobCompleted(bg, run.Title, run.Account))
		}
	case errors.Is(err, context.Canceled) || ctx.Err() != nil:
		run.Status = history.StatusCancelled
		run.Error = err.Error()
		logger.Info("job cancelled", logging.String(logging.FieldEventType, "job_cancelled"))
	default:
		run.Status = history.StatusFailed
		run.Error = err.Error()
		logging.ErrorWithContext(logger, "job failed", "job_failed",
			logging.Int(logging.FieldAttempt, attempts),
			logging.Error(err),
			logging.String(logging.FieldErrorKind, services.Kind(err)),
			logging.String(logging.FieldImpact, "slot continues with the next job"),
		)
		if s.Notifier != nil {
			s.warnNotify(logger, s.Notifier.NotifyJobFailed(bg, run.Title, run.Account, attempts, err))
		}
	}
	run.FinishedAt = s.now()

	if s.History != nil {
		if recErr := s.History.RecordRun(bg, run); recErr != nil {
			logging.WarnWithContext(logger, "failed to record run history", "history_write_failed",
				logging.Error(recErr),
				logging.String(logging.FieldImpact, "run missing from history"),
			)
		}
	}
	return run
}

func (s *Scheduler) summarize(ctx context.Context, logger *slog.Logger, sched schedule.Schedule, now time.Time) {
	today := now.Format("2006-01-02")
	if s.lastSummary == today {
		return
	}
	s.lastSummary = today

	slots := sched.PendingOn(now)
	items := 0
	for _, slot := range slots {
		items += slot.Items
		logger.Info("pending slot today",
			logging.String(logging.FieldEventType, "daily_summary_slot"),
			logging.String("time", slot.Time),
			logging.Int("jobs", slot.Items),
		)
	}
	logger.Info("daily summary",
		logging.String(logging.FieldEventType, "daily_summary"),
		logging.String("date", today),
		logging.Int("slots", len(slots)),
		logging.Int("jobs", items),
	)
	if s.Notifier != nil && len(slots) > 0 && s.lastNotified != today {
		s.lastNotified = today
		s.warnNotify(logger, s.Notifier.NotifyDailySummary(ctx, today, len(slots), items))
	}
}

func (s *Scheduler) warnNotify(logger *slog.Logger, err error) {
	if err == nil {
		return
	}
	logging.WarnWithContext(logger, "notification failed", "notification_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check notification settings"),
		logging.String(logging.FieldImpact, "operator not informed"),
	)
}

func (s *Scheduler) between(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return max(lo, 0)
	}
	span := int64(hi - lo)
	if s.Rand != nil {
		return lo + time.Duration(s.Rand.Int64N(span+1))
	}
	return lo + time.Duration(rand.Int64N(span+1))
}

func (s *Scheduler) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

// Wake cuts the current check interval short so the next tick runs now.
// It never blocks; wakes arriving during a tick coalesce into one.
func (s *Scheduler) Wake() {
	select {
	case s.wakeCh() <- struct{}{}:
	default:
	}
}

func (s *Scheduler) wakeCh() chan struct{} {
	s.wakeOnce.Do(func() { s.wake = make(chan struct{}, 1) })
	return s.wake
}

func (s *Scheduler) waitNext(ctx context.Context, interval time.Duration) error {
	if s.Sleep != nil {
		return s.Sleep(ctx, interval)
	}
	timer := time.NewTimer(interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	case <-s.wakeCh():
		return nil
	}
}

func (s *Scheduler) sleep(ctx context.Context, d time.Duration) error {
	if s.Sleep != nil {
		return s.Sleep(ctx, d)
	}
	return publish.SleepContext(ctx, d)
}

func (s *Scheduler) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func derefTitle(r schedule.JobRecord) string {
	if r.Title != nil {
		return *r.Title
	}
	return ""
}

func derefAccount(r schedule.JobRecord, d schedule.Defaults) string {
	if r.Account != nil && *r.Account != "" {
		return *r.Account
	}
	if d.Account != "" {
		return d.Account
	}
	return "random"
}
