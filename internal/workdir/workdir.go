package workdir

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"clipcaster/internal/logging"
)

// Kind classifies a work directory file.
type Kind string

const (
	KindArtifact Kind = "artifact"
	KindScratch  Kind = "scratch"
	KindOther    Kind = "other"
)

// ScratchPrefix starts every audio slice and transcription output name.
const ScratchPrefix = "temp_audio_"

// Classify reports what kind of file name is.
func Classify(name string) Kind {
	lower := strings.ToLower(name)
	switch {
	case strings.HasPrefix(lower, ScratchPrefix):
		return KindScratch
	case strings.HasSuffix(lower, ".ass"):
		return KindScratch
	case strings.HasSuffix(lower, ".mp4"):
		return KindArtifact
	default:
		return KindOther
	}
}

// Entry is one file in the work directory.
type Entry struct {
	Name    string
	Path    string
	Kind    Kind
	ModTime time.Time
	Size    int64
}

// List returns the regular files in dir, oldest first. A missing dir is
// empty.
func List(dir string) ([]Entry, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, nil
	}
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var out []Entry
	for _, de := range dirEntries {
		if !de.Type().IsRegular() {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		out = append(out, Entry{
			Name:    de.Name(),
			Path:    filepath.Join(dir, de.Name()),
			Kind:    Classify(de.Name()),
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ModTime.Before(out[j].ModTime) })
	return out, nil
}

// PruneOptions selects what Prune removes.
type PruneOptions struct {
	// MaxAge keeps entries modified more recently than this.
	MaxAge time.Duration
	// Kinds limits pruning to these kinds; empty means artifacts and scratch.
	Kinds  []Kind
	DryRun bool
	Now    func() time.Time
}

// PruneError pairs a path with its removal error.
type PruneError struct {
	Path string
	Err  error
}

// PruneResult lists what was (or, for a dry run, would be) removed.
type PruneResult struct {
	Removed []Entry
	Freed   int64
	Errors  []PruneError
}

// Prune removes entries older than opts.MaxAge. Files of KindOther are
// never touched.
func Prune(ctx context.Context, dir string, opts PruneOptions, logger *slog.Logger) PruneResult {
	var result PruneResult
	entries, err := List(dir)
	if err != nil {
		result.Errors = append(result.Errors, PruneError{Path: dir, Err: err})
		return result
	}
	kinds := opts.Kinds
	if len(kinds) == 0 {
		kinds = []Kind{KindArtifact, KindScratch}
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	cutoff := now().Add(-opts.MaxAge)
	logger = logging.NewComponentLogger(logger, "workdir")

	for _, e := range entries {
		if ctx.Err() != nil {
			break
		}
		if e.Kind == KindOther || !slices.Contains(kinds, e.Kind) || !e.ModTime.Before(cutoff) {
			continue
		}
		if !opts.DryRun {
			if err := os.Remove(e.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
				result.Errors = append(result.Errors, PruneError{Path: e.Path, Err: err})
				logging.WarnWithContext(logger, "failed to prune work file", "workdir_prune_failed",
					logging.String("path", e.Path),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check work_dir permissions"),
					logging.String(logging.FieldImpact, "disk space not reclaimed"),
				)
				continue
			}
			logger.Info("pruned work file",
				logging.String(logging.FieldEventType, "workdir_prune"),
				logging.String("path", e.Path),
				logging.String("kind", string(e.Kind)),
				logging.Duration("age", now().Sub(e.ModTime)),
			)
		}
		result.Removed = append(result.Removed, e)
		result.Freed += e.Size
	}
	return result
}
