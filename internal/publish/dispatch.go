package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"clipcaster/internal/logging"
	"clipcaster/internal/services"
)

// Target is one platform the account resolves to. Err marks a platform that
// is configured but unusable, such as missing credential keys.
type Target struct {
	Platform  Platform
	Publisher Publisher
	Err       error
}

// Resolver maps an account key to its configured platforms. An error means
// the account itself is unusable.
type Resolver interface {
	Targets(ctx context.Context, account string) ([]Target, error)
}

// Request is one dispatch of a clip to an account.
type Request struct {
	Account string
	Content Content
}

// Report collects per-platform outcomes in dispatch order.
type Report struct {
	Results []Result
}

// Published reports whether any platform reached OutcomePublished.
func (r Report) Published() bool {
	for _, res := range r.Results {
		if res.Outcome == OutcomePublished {
			return true
		}
	}
	return false
}

// Failures returns results that ended Failed or TimedOut.
func (r Report) Failures() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Outcome == OutcomeFailed || res.Outcome == OutcomeTimedOut {
			out = append(out, res)
		}
	}
	return out
}

// Err returns a *DispatchError over every platform failure, or nil.
func (r Report) Err() error {
	failures := r.Failures()
	if len(failures) == 0 {
		return nil
	}
	return &DispatchError{Failures: failures}
}

// DispatchError is the aggregate of per-platform failures for one dispatch.
type DispatchError struct {
	Failures []Result
}

func (e *DispatchError) Error() string {
	return e.join().Error()
}

// Unwrap exposes each platform's error to errors.Is and errors.As.
func (e *DispatchError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, res := range e.Failures {
		errs = append(errs, resultErr(res))
	}
	return errs
}

// Retryable reports whether any platform failed in a way another attempt
// could fix. A configuration failure on one platform does not veto a retry
// for a transient failure on another.
func (e *DispatchError) Retryable() bool {
	return slices.ContainsFunc(e.Failures, func(res Result) bool {
		return services.Retryable(resultErr(res))
	})
}

func (e *DispatchError) join() error {
	errs := make([]error, 0, len(e.Failures))
	for _, res := range e.Failures {
		errs = append(errs, fmt.Errorf("%s: %w", res.Platform, resultErr(res)))
	}
	return errors.Join(errs...)
}

func resultErr(res Result) error {
	if res.Err != nil {
		return res.Err
	}
	return errors.New(string(res.Outcome))
}

// Count returns how many results ended in outcome.
func (r Report) Count(outcome Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == outcome {
			n++
		}
	}
	return n
}

// Dispatcher fans a clip out to every configured platform of an account.
type Dispatcher struct {
	Resolver   Resolver
	Machine    *Machine
	Concurrent bool
	Logger     *slog.Logger
}

// Dispatch attempts every platform independently.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) Report {
	logger := logging.WithContext(ctx, logging.NewComponentLogger(d.Logger, "dispatch")).With(
		logging.Account(req.Account),
		logging.String(logging.FieldJobTitle, req.Content.Title),
	)
	content := req.Content
	content.Description = content.Caption()

	targets, err := d.Resolver.Targets(ctx, req.Account)
	if err != nil {
		logging.ErrorWithContext(logger, "account unusable", "account_unusable",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the accounts directory"),
		)
		report := Report{}
		for _, platform := range Platforms {
			report.Results = append(report.Results, Result{Platform: platform, Outcome: OutcomeFailed, Err: err})
		}
		return report
	}
	if len(targets) == 0 {
		logger.Info("account has no configured platforms", logging.String(logging.FieldEventType, "dispatch_empty"))
		return Report{}
	}

	results := make([]Result, len(targets))
	run := func(i int, target Target) {
		if target.Err != nil || target.Publisher == nil {
			err := target.Err
			if err == nil {
				err = errors.New("no publisher")
			}
			results[i] = d.Machine.fail(logger.With(logging.Platform(string(target.Platform))),
				Result{Platform: target.Platform}, "resolve", err)
			return
		}
		results[i] = d.Machine.Run(ctx, target.Publisher, req.Account, content)
	}

	if d.Concurrent && len(targets) > 1 {
		var wg sync.WaitGroup
		for i, target := range targets {
			wg.Add(1)
			go func() {
				defer wg.Done()
				run(i, target)
			}()
		}
		wg.Wait()
	} else {
		for i, target := range targets {
			run(i, target)
		}
	}

	report := Report{Results: results}
	logger.Info("dispatch finished",
		logging.String(logging.FieldEventType, "dispatch_finished"),
		logging.Int("published", report.Count(OutcomePublished)),
		logging.Int("skipped", report.Count(OutcomeSkipped)),
		logging.Int("failed", report.Count(OutcomeFailed)+report.Count(OutcomeTimedOut)),
	)
	return report
}
