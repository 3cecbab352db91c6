package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"clipcaster/internal/fileutil"
	"clipcaster/internal/logging"
	"clipcaster/internal/media"
	"clipcaster/internal/media/ffprobe"
	"clipcaster/internal/publish"
	"clipcaster/internal/schedule"
	"clipcaster/internal/services"
	"clipcaster/internal/services/whisperx"
	"clipcaster/internal/subtitles"
	"clipcaster/internal/textutil"
)

// Step names used in logs and errors.
const (
	StepResolve    = "resolve"
	StepAudio      = "extract_audio"
	StepTranscribe = "transcribe"
	StepCues       = "build_cues"
	StepRender     = "render"
	StepDispatch   = "dispatch"
)

// LocalSource is the source citation for clips cut from local files.
const LocalSource = "Local"

// Extractor resolves a remote page URL to a direct stream.
type Extractor interface {
	Resolve(ctx context.Context, url, proxy string) (media.Stream, error)
}

// Encoder runs the audio slice and final render.
type Encoder interface {
	ExtractAudio(ctx context.Context, in media.Input, output string) error
	Render(ctx context.Context, req media.RenderRequest) error
}

// Transcriber produces word-timed segments for an audio file.
type Transcriber interface {
	Transcribe(ctx context.Context, audio, model, outputDir string) ([]whisperx.Segment, error)
}

// Prober inspects local sources before any work is spent on them.
type Prober interface {
	Probe(ctx context.Context, path string) (ffprobe.Info, error)
}

// Dispatcher publishes a rendered clip to an account's platforms.
type Dispatcher interface {
	Dispatch(ctx context.Context, req publish.Request) publish.Report
}

// Executor runs the clip pipeline for one job.
type Executor struct {
	Extractor   Extractor
	Encoder     Encoder
	Transcriber Transcriber
	Dispatcher  Dispatcher
	// Prober is optional; without it local ranges are not checked.
	Prober    Prober
	WorkDir   string
	FillerDir string
	Logger    *slog.Logger
	// Rand drives filler and palette choice; nil uses the global source.
	Rand *rand.Rand
	// NewID names scratch files; nil uses a uuid prefix.
	NewID func() string
}

// Result describes a finished run.
type Result struct {
	// Artifact is the rendered clip path.
	Artifact string
	// Retained reports whether Artifact is still on disk.
	Retained bool
	Title    string
	Cues     int
	Report   publish.Report
}

// Execute runs every step for job. proxy is used for remote sources and
// may be empty.
func (e *Executor) Execute(ctx context.Context, job schedule.Job, proxy string) (Result, error) {
	if err := os.MkdirAll(e.WorkDir, 0o755); err != nil {
		return Result{}, services.Wrap(services.ErrConfiguration, "pipeline", "prepare", "create work dir", err)
	}
	ctx = services.WithAccount(ctx, job.Account)
	logger := logging.WithContext(ctx, logging.NewComponentLogger(e.Logger, "pipeline")).With(
		logging.String(logging.FieldJobTitle, job.Title),
	)
	id := e.newID()
	started := time.Now()
	var res Result

	var scratch []string
	defer func() {
		for _, path := range scratch {
			if rmErr := fileutil.RemoveIfExists(path); rmErr != nil {
				logging.WarnWithContext(logger, "scratch cleanup failed", "scratch_cleanup_failed",
					logging.String("path", path),
					logging.Error(rmErr),
					logging.String(logging.FieldImpact, "stale scratch file left in work dir"),
				)
			}
		}
	}()

	// 1. Source.
	input := media.Input{Start: job.Start, End: job.End}
	title := strings.TrimSpace(job.Title)
	source := LocalSource
	if err := e.step(ctx, logger, StepResolve, func(ctx context.Context) error {
		if !job.Source.Remote() {
			path, absErr := filepath.Abs(job.Source.Local)
			if absErr != nil {
				path = job.Source.Local
			}
			if _, statErr := os.Stat(path); statErr != nil {
				return services.Wrap(services.ErrValidation, "pipeline", StepResolve, "local source unreadable", statErr)
			}
			if err := e.checkLocal(ctx, logger, path, job); err != nil {
				return err
			}
			input.Location = path
			if title == "" {
				title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			}
			return nil
		}
		stream, resolveErr := e.Extractor.Resolve(ctx, job.Source.URL, proxy)
		if resolveErr != nil {
			return resolveErr
		}
		input.Location = stream.URL
		input.Remote = true
		input.Proxy = proxy
		source = job.Source.URL
		if title == "" {
			title = stream.Title
		}
		return nil
	}); err != nil {
		return Result{}, err
	}
	res.Title = title
	res.Artifact = filepath.Join(e.WorkDir, textutil.SanitizeFileNameOr(title, "video")+".mp4")

	// 2. Audio slice.
	audio := filepath.Join(e.WorkDir, "temp_audio_"+id+".wav")
	scratch = append(scratch, audio)
	if err := e.step(ctx, logger, StepAudio, func(ctx context.Context) error {
		return e.Encoder.ExtractAudio(ctx, input, audio)
	}); err != nil {
		return res, err
	}

	// 3. Cues.
	var cues string
	if job.Subtitles {
		var segments []whisperx.Segment
		if err := e.step(ctx, logger, StepTranscribe, func(ctx context.Context) error {
			var tErr error
			segments, tErr = e.Transcriber.Transcribe(ctx, audio, job.Model, e.WorkDir)
			return tErr
		}); err != nil {
			return res, err
		}
		cues = filepath.Join(e.WorkDir, textutil.SanitizeFileNameOr(title, "video")+"_"+id+".ass")
		scratch = append(scratch, cues)
		if err := e.step(ctx, logger, StepCues, func(context.Context) error {
			n, wErr := subtitles.WriteFile(cues, segments, subtitles.Options{Watermark: job.Account, Rand: e.Rand})
			res.Cues = n
			return wErr
		}); err != nil {
			return res, err
		}
	}

	// 4. Render.
	if err := e.step(ctx, logger, StepRender, func(ctx context.Context) error {
		req := media.RenderRequest{
			Input:  input,
			Crop:   job.Crop,
			Anchor: string(job.Position),
			Cues:   cues,
			Output: res.Artifact,
		}
		if job.Stacked {
			filler, fErr := media.PickFiller(e.FillerDir, e.Rand)
			if fErr != nil {
				return fErr
			}
			req.Filler = filler
		}
		return e.Encoder.Render(ctx, req)
	}); err != nil {
		return res, err
	}
	res.Retained = true

	// 5. Dispatch.
	if job.DryRun {
		logger.Info("dry run; clip kept",
			logging.String(logging.FieldEventType, "dry_run"),
			logging.String("artifact", res.Artifact),
		)
		return res, nil
	}
	dispatchErr := e.step(ctx, logger, StepDispatch, func(ctx context.Context) error {
		res.Report = e.Dispatcher.Dispatch(ctx, publish.Request{
			Account: job.Account,
			Content: publish.Content{
				Path:        res.Artifact,
				Title:       title,
				Description: job.Description,
				Source:      source,
			},
		})
		if res.Report.Published() {
			return nil
		}
		if failures := res.Report.Err(); failures != nil {
			return failures
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return nil
	})

	// 6. Artifact cleanup.
	if dispatchErr == nil && res.Report.Published() {
		if rmErr := fileutil.RemoveIfExists(res.Artifact); rmErr != nil {
			logging.WarnWithContext(logger, "artifact cleanup failed", "artifact_cleanup_failed",
				logging.String("artifact", res.Artifact),
				logging.Error(rmErr),
			)
		} else {
			res.Retained = false
		}
	}
	if res.Retained {
		logger.Info("clip kept on disk",
			logging.String(logging.FieldEventType, "artifact_retained"),
			logging.String("artifact", res.Artifact),
		)
	}
	logger.Info("pipeline finished",
		logging.String(logging.FieldEventType, "pipeline_finished"),
		logging.Duration("elapsed", time.Since(started)),
		logging.Bool("published", res.Report.Published()),
	)
	return res, dispatchErr
}

// checkLocal rejects local sources that cannot yield the requested clip.
// A probe that cannot run is logged and ignored.
func (e *Executor) checkLocal(ctx context.Context, logger *slog.Logger, path string, job schedule.Job) error {
	if e.Prober == nil {
		return nil
	}
	info, err := e.Prober.Probe(ctx, path)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logging.WarnWithContext(logger, "source probe failed", "probe_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "clip range not checked against source duration"),
		)
		return nil
	}
	if info.VideoStreams == 0 {
		return services.Wrap(services.ErrValidation, "pipeline", StepResolve, "local source has no video stream", nil)
	}
	if info.Duration > 0 && job.End > info.Duration {
		return services.Wrap(services.ErrValidation, "pipeline", StepResolve,
			fmt.Sprintf("clip end %s is past source duration %s", schedule.FormatOffset(job.End), schedule.FormatOffset(info.Duration)), nil)
	}
	return nil
}

func (e *Executor) step(ctx context.Context, logger *slog.Logger, name string, fn func(context.Context) error) error {
	ctx = services.WithStep(ctx, name)
	stepLogger := logger.With(logging.String(logging.FieldStep, name))
	stepLogger.Info("step started", logging.String(logging.FieldEventType, "step_start"))
	began := time.Now()
	if err := fn(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		logging.ErrorWithContext(stepLogger, "step failed", "step_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorKind, services.Kind(err)),
			logging.Duration("elapsed", time.Since(began)),
		)
		return fmt.Errorf("%s: %w", name, err)
	}
	stepLogger.Info("step finished",
		logging.String(logging.FieldEventType, "step_complete"),
		logging.Duration("elapsed", time.Since(began)),
	)
	return nil
}

func (e *Executor) newID() string {
	if e.NewID != nil {
		return e.NewID()
	}
	return uuid.NewString()[:8]
}
