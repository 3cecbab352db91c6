package preflight

import (
	"context"

	"clipcaster/internal/accounts"
	"clipcaster/internal/config"
	"clipcaster/internal/deps"
)

// MinFreeBytes is the free space the work directory should keep for renders.
const MinFreeBytes = 2 << 30

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every check for cfg in display order.
func RunAll(_ context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("Data directory", cfg.Paths.DataDir))
	results = append(results, CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir))
	results = append(results, CheckFreeSpace("Work directory space", cfg.Paths.WorkDir, MinFreeBytes))
	results = append(results, CheckFillers("Filler clips", cfg.Paths.FillerDir))
	results = append(results, CheckAccounts("Accounts", accounts.NewRegistry(cfg.Paths.AccountsDir)))
	for _, status := range deps.CheckBinaries(deps.Requirements(cfg)) {
		results = append(results, FromDependency(status))
	}
	return results
}

// Failed returns the failing results.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
