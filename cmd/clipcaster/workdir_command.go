package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"clipcaster/internal/workdir"
)

func newWorkdirCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workdir",
		Short: "Inspect or prune rendered clips and scratch files",
	}
	cmd.AddCommand(newWorkdirListCommand(ctx))
	cmd.AddCommand(newWorkdirPruneCommand(ctx))
	return cmd
}

func newWorkdirListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List files in the work directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			entries, err := workdir.List(cfg.Paths.WorkDir)
			if err != nil {
				return fmt.Errorf("list work dir: %w", err)
			}
			if len(entries) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is empty\n", cfg.Paths.WorkDir)
				return nil
			}
			now := time.Now()
			rows := make([][]string, 0, len(entries))
			var total int64
			for _, e := range entries {
				total += e.Size
				rows = append(rows, []string{
					e.Name,
					string(e.Kind),
					formatBytes(e.Size),
					now.Sub(e.ModTime).Truncate(time.Minute).String(),
				})
			}
			printTableSpec(cmd, tableSpec{
				headers: []string{"File", "Kind", "Size", "Age"},
				rows:    rows,
				aligns:  []columnAlignment{alignLeft, alignLeft, alignRight, alignRight},
				wrap:    []int{0},
				footer:  []string{fmt.Sprintf("%d file(s)", len(entries)), "", formatBytes(total)},
			})
			return nil
		},
	}
}

func newWorkdirPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration
	var scratchOnly bool
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old rendered clips and scratch files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if olderThan < 0 {
				return fmt.Errorf("--older-than must not be negative")
			}
			opts := workdir.PruneOptions{MaxAge: olderThan, DryRun: dryRun}
			if scratchOnly {
				opts.Kinds = []workdir.Kind{workdir.KindScratch}
			}
			result := workdir.Prune(cmd.Context(), cfg.Paths.WorkDir, opts, ctx.commandLogger(false))

			verb := "Removed"
			if dryRun {
				verb = "Would remove"
			}
			out := cmd.OutOrStdout()
			for _, e := range result.Removed {
				fmt.Fprintf(out, "  %s (%s)\n", e.Name, formatBytes(e.Size))
			}
			fmt.Fprintf(out, "%s %d file(s), %s\n", verb, len(result.Removed), formatBytes(result.Freed))
			if len(result.Errors) > 0 {
				for _, pe := range result.Errors {
					fmt.Fprintf(cmd.ErrOrStderr(), "failed: %s: %v\n", pe.Path, pe.Err)
				}
				return fmt.Errorf("%d file(s) could not be removed", len(result.Errors))
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 72*time.Hour, "Only remove files older than this")
	cmd.Flags().BoolVar(&scratchOnly, "scratch-only", false, "Keep rendered clips; remove only scratch files")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be removed")
	return cmd
}

func formatBytes(value int64) string {
	return humanize.IBytes(uint64(max(value, 0)))
}
