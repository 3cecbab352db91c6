package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"clipcaster/internal/config"
	"clipcaster/internal/daemon"
	"clipcaster/internal/deps"
	"clipcaster/internal/history"
	"clipcaster/internal/logging"
	"clipcaster/internal/logs"
	"clipcaster/internal/preflight"
	"clipcaster/internal/schedule"
	"clipcaster/internal/workdir"
)

// scratchMaxAge is how old an orphaned scratch file must be before startup
// removes it.
const scratchMaxAge = 24 * time.Hour

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the scheduler daemon and blocks until SIGINT/SIGTERM or
// cmdCtx is cancelled.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("clipcaster-%s.log", runID))
	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update clipcaster.log link: %v\n", err)
	}

	logDependencySnapshot(logger, cfg)
	for _, failed := range preflight.Failed(preflight.RunAll(signalCtx, cfg)) {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", failed.Name),
			logging.String("detail", failed.Detail),
			logging.String(logging.FieldErrorHint, "run clipcaster doctor"),
			logging.String(logging.FieldImpact, "jobs needing this may fail"),
		)
	}

	hist, err := history.Open(cfg.HistoryDBPath())
	if err != nil {
		logger.Error("open history store", logging.Error(err))
		return err
	}
	defer hist.Close()

	services, err := Build(cfg, logger, hist)
	if err != nil {
		return err
	}

	d, err := daemon.New(cfg, services.Scheduler, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	stop, err := startInstance(signalCtx, cfg, d, logger)
	if err != nil {
		return err
	}
	defer stop()

	go func() {
		if err := schedule.Watch(signalCtx, cfg.Paths.ScheduleFile, schedule.DefaultWatchDebounce, services.Scheduler.Wake, logger); err != nil {
			logging.WarnWithContext(logger, "schedule watcher unavailable", "schedule_watch_unavailable",
				logging.Error(err),
				logging.String(logging.FieldImpact, "edits are picked up on the next check interval"),
			)
		}
	}()

	<-signalCtx.Done()
	logger.Info("clipcaster daemon shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))
	return nil
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := logs.CurrentPath(logDir)
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

// startInstance takes the daemon lock, then writes the PID file and prunes
// stale scratch files. Both steps belong to the lock holder; an instance that
// loses the lock leaves them alone.
func startInstance(ctx context.Context, cfg *config.Config, d *daemon.Daemon, logger *slog.Logger) (func(), error) {
	if err := d.Start(ctx); err != nil {
		return nil, err
	}

	pidPath := filepath.Join(cfg.Paths.DataDir, "clipcaster.pid")
	if err := writePIDFile(pidPath); err != nil {
		d.Stop()
		return nil, fmt.Errorf("write pid file: %w", err)
	}

	if pruned := workdir.Prune(ctx, cfg.Paths.WorkDir, workdir.PruneOptions{
		MaxAge: scratchMaxAge,
		Kinds:  []workdir.Kind{workdir.KindScratch},
	}, logger); len(pruned.Removed) > 0 {
		logger.Info("removed stale scratch files",
			logging.String(logging.FieldEventType, "workdir_scratch_pruned"),
			logging.Int("count", len(pruned.Removed)),
			logging.Int64("bytes", pruned.Freed),
		)
	}

	return func() {
		_ = os.Remove(pidPath)
		d.Stop()
	}, nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.Int("proxies", len(cfg.Proxies.URLs)),
		logging.Int("daily_cap", cfg.Publish.DailyCap),
	}
	for _, status := range deps.CheckBinaries(deps.Requirements(cfg)) {
		attrs = append(attrs,
			logging.Bool(status.Name+"_available", status.Available),
			logging.String(status.Name+"_binary", status.Command),
		)
	}
	logger.LogAttrs(context.Background(), slog.LevelInfo, "dependency snapshot", attrs...)
}
