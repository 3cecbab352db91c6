package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"clipcaster/internal/config"
	"clipcaster/internal/logging"
)

// Loop is the scheduler surface the daemon drives.
type Loop interface {
	Run(ctx context.Context) error
}

// Daemon runs the scheduler loop and enforces single-instance execution.
type Daemon struct {
	cfg    *config.Config
	loop   Loop
	logger *slog.Logger

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}
	mu      sync.Mutex
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	ScheduleFile string
	HistoryPath  string
	LockFilePath string
}

// New constructs a daemon around loop.
func New(cfg *config.Config, loop Loop, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || loop == nil {
		return nil, errors.New("daemon requires config and scheduler")
	}
	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:      cfg,
		loop:     loop,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and launches the scheduler loop.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another clipcaster daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.done = make(chan struct{})
	d.running.Store(true)
	go func(done chan struct{}) {
		defer close(done)
		if err := d.loop.Run(runCtx); err != nil {
			logging.ErrorWithContext(d.logger, "scheduler exited", "scheduler_exit", logging.Error(err))
		}
	}(d.done)

	d.logger.Info("clipcaster daemon started",
		logging.String(logging.FieldEventType, "daemon_start"),
		logging.String("lock", d.lockPath),
		logging.String("schedule", d.cfg.Paths.ScheduleFile),
	)
	return nil
}

// Stop cancels the loop, waits for the in-flight slot to unwind and
// releases the lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running.Load() {
		return
	}
	d.cancel()
	<-d.done
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "next start may report a running instance"),
		)
	}
	d.cancel = nil
	d.running.Store(false)
	d.logger.Info("clipcaster daemon stopped", logging.String(logging.FieldEventType, "daemon_stop"))
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		ScheduleFile: d.cfg.Paths.ScheduleFile,
		HistoryPath:  d.cfg.HistoryDBPath(),
		LockFilePath: d.lockPath,
	}
}

// Probe reports whether another process holds the daemon lock for cfg.
func Probe(cfg *config.Config) (Status, error) {
	if cfg == nil {
		return Status{}, errors.New("config is required")
	}
	st := Status{
		ScheduleFile: cfg.Paths.ScheduleFile,
		HistoryPath:  cfg.HistoryDBPath(),
		LockFilePath: cfg.LockPath(),
	}
	lock := flock.New(st.LockFilePath)
	ok, err := lock.TryLock()
	if err != nil {
		return st, fmt.Errorf("probe lock: %w", err)
	}
	if ok {
		_ = lock.Unlock()
		return st, nil
	}
	st.Running = true
	return st, nil
}
