package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"clipcaster/internal/daemonrun"
	"clipcaster/internal/history"
	"clipcaster/internal/proxypool"
	"clipcaster/internal/publish"
	"clipcaster/internal/schedule"
)

type processFlags struct {
	url         string
	local       string
	start       string
	end         string
	position    string
	title       string
	description string
	account     string
	model       string
	proxy       string
	noSubs      bool
	noCrop      bool
	dryRun      bool
	stacked     bool
	noHistory   bool
	verbose     bool
}

// record maps flags onto a job record. Unset optional flags stay absent so
// configured defaults apply.
func (f processFlags) record() schedule.JobRecord {
	opt := func(v string) *string {
		v = strings.TrimSpace(v)
		if v == "" {
			return nil
		}
		return &v
	}
	flag := func(v bool) *bool { return &v }

	return schedule.JobRecord{
		URL:         opt(f.url),
		Local:       opt(f.local),
		Start:       opt(f.start),
		End:         opt(f.end),
		Position:    opt(f.position),
		Title:       opt(f.title),
		Description: opt(f.description),
		Account:     opt(f.account),
		Model:       opt(f.model),
		Subs:        flag(!f.noSubs),
		Crop:        flag(!f.noCrop),
		Tests:       flag(f.dryRun),
		Brainrot:    flag(f.stacked),
	}
}

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var flags processFlags

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Clip, render and publish a single job now",
		Long: "Run one job through the full pipeline immediately, outside the schedule.\n" +
			"Retries, publish caps, history and notifications behave exactly as for scheduled jobs.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			record := flags.record()
			if _, err := record.Resolve(schedule.Defaults{Account: cfg.Scheduler.DefaultAccount}); err != nil {
				return err
			}

			var hist *history.Store
			if !flags.noHistory {
				hist, err = history.Open(cfg.HistoryDBPath())
				if err != nil {
					return fmt.Errorf("open history: %w", err)
				}
				defer hist.Close()
			}

			svc, err := daemonrun.Build(cfg, ctx.commandLogger(flags.verbose), hist)
			if err != nil {
				return err
			}
			if flags.proxy != "" {
				svc.Scheduler.Proxies = proxypool.New([]string{flags.proxy})
			}

			run := svc.Scheduler.RunJob(cmd.Context(), record)
			renderRun(cmd, run)
			if run.Status != history.StatusCompleted {
				return fmt.Errorf("job %s: %s", run.Status, run.Error)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.url, "url", "", "Remote video URL (mutually exclusive with --local)")
	f.StringVar(&flags.local, "local", "", "Local video path")
	f.StringVar(&flags.start, "start", "", "Clip start offset (SS, MM:SS or HH:MM:SS)")
	f.StringVar(&flags.end, "end", "", "Clip end offset")
	f.StringVar(&flags.position, "position", "", "Crop anchor: l, c or r")
	f.StringVar(&flags.title, "title", "", "Title used for captions and the output file")
	f.StringVar(&flags.description, "description", "", "Description appended to captions")
	f.StringVar(&flags.account, "account", "", "Account key under the accounts directory")
	f.StringVar(&flags.model, "model", "", "Transcription model")
	f.StringVar(&flags.proxy, "proxy", "", "Proxy for remote downloads (overrides configured pool)")
	f.BoolVar(&flags.noSubs, "no-subs", false, "Skip transcription and burned-in subtitles")
	f.BoolVar(&flags.noCrop, "no-crop", false, "Letterbox instead of cropping to 9:16")
	f.BoolVar(&flags.dryRun, "dry-run", false, "Render only; do not publish")
	f.BoolVar(&flags.stacked, "stacked", false, "Stack a filler clip under the main video")
	f.BoolVar(&flags.noHistory, "no-history", false, "Do not record the run in history")
	f.BoolVarP(&flags.verbose, "verbose", "v", false, "Log at debug level")
	return cmd
}

func renderRun(cmd *cobra.Command, run history.Run) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s: %s (%d attempt(s), %s)\n", run.ID, run.Status, run.Attempts, run.Duration().Round(time.Millisecond))
	if run.Artifact != "" {
		state := "deleted"
		if run.Retained {
			state = "kept"
		}
		fmt.Fprintf(out, "Artifact: %s (%s)\n", run.Artifact, state)
	}
	if run.Error != "" {
		fmt.Fprintf(out, "Error: %s\n", run.Error)
	}
	if len(run.Results) == 0 {
		return
	}
	rows := make([][]string, 0, len(run.Results))
	for _, r := range run.Results {
		rows = append(rows, []string{publish.DisplayName(publish.Platform(r.Platform)), r.Outcome, r.Link, r.Error})
	}
	printTableSpec(cmd, tableSpec{headers: []string{"Platform", "Outcome", "Link", "Detail"}, rows: rows, wrap: []int{3}})
}
