package daemonrun

import (
	"fmt"
	"log/slog"

	"clipcaster/internal/accounts"
	"clipcaster/internal/config"
	"clipcaster/internal/history"
	"clipcaster/internal/media"
	"clipcaster/internal/media/ffprobe"
	"clipcaster/internal/notifications"
	"clipcaster/internal/pipeline"
	"clipcaster/internal/proxypool"
	"clipcaster/internal/publish"
	"clipcaster/internal/ratelimit"
	"clipcaster/internal/schedule"
	"clipcaster/internal/scheduler"
	"clipcaster/internal/services/whisperx"
)

// Services is the wired object graph shared by the daemon and one-off
// CLI commands.
type Services struct {
	Config     *config.Config
	Store      *schedule.Store
	Limiter    *ratelimit.Limiter
	Notifier   notifications.Service
	Accounts   *accounts.Registry
	Dispatcher *publish.Dispatcher
	Executor   *pipeline.Executor
	Scheduler  *scheduler.Scheduler
	History    *history.Store
}

// Build wires every collaborator from cfg. hist may be nil when run
// history is not wanted.
func Build(cfg *config.Config, logger *slog.Logger, hist *history.Store) (*Services, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	notifier := notifications.NewService(cfg)
	limiter := ratelimit.New(cfg.Paths.DataDir, cfg.Publish.DailyCap)
	registry := accounts.NewRegistry(cfg.Paths.AccountsDir)
	resolver := accounts.NewResolver(registry, accounts.Endpoints{APIVersion: cfg.Publish.GraphAPIVersion}, cfg.RequestTimeout())

	dispatcher := &publish.Dispatcher{
		Resolver: resolver,
		Machine: &publish.Machine{
			Gate:         limiter,
			Notifier:     notifier,
			PollInterval: cfg.PollInterval(),
			PollAttempts: cfg.Publish.PollAttempts,
			Logger:       logger,
		},
		Concurrent: cfg.Publish.Concurrent,
		Logger:     logger,
	}

	executor := &pipeline.Executor{
		Extractor: media.NewExtractor(cfg.Encoder.YTDLP, cfg.Paths.CookiesFile),
		Encoder:   media.NewEncoder(cfg.Encoder.FFmpeg, cfg.Encoder.CRF, cfg.Encoder.Preset),
		Transcriber: whisperx.NewService(whisperx.Config{
			Command:     cfg.Transcription.Command,
			Device:      cfg.Transcription.Device,
			ComputeType: cfg.Transcription.ComputeType,
			Language:    cfg.Transcription.Language,
		}),
		Dispatcher: dispatcher,
		Prober:     ffprobe.New(cfg.Encoder.FFprobe),
		WorkDir:    cfg.Paths.WorkDir,
		FillerDir:  cfg.Paths.FillerDir,
		Logger:     logger,
	}

	store := schedule.NewStore(cfg.Paths.ScheduleFile)
	sched := &scheduler.Scheduler{
		Store:    store,
		Runner:   executor,
		Proxies:  proxypool.New(cfg.Proxies.URLs),
		Notifier: notifier,
		Options:  scheduler.OptionsFromConfig(cfg),
		Logger:   logger,
	}
	if hist != nil {
		sched.History = hist
	}

	return &Services{
		Config:     cfg,
		Store:      store,
		Limiter:    limiter,
		Notifier:   notifier,
		Accounts:   registry,
		Dispatcher: dispatcher,
		Executor:   executor,
		Scheduler:  sched,
		History:    hist,
	}, nil
}
