package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"clipcaster/internal/daemon"
	"clipcaster/internal/daemonrun"
	"clipcaster/internal/schedule"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var verbose bool
	var development bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the scheduler daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			opts := daemonrun.Options{Development: development}
			if verbose {
				opts.LogLevel = "debug"
			}
			return daemonrun.Run(cmd.Context(), cfg, opts)
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level")
	cmd.Flags().BoolVar(&development, "dev", false, "Enable development logging (source locations)")
	return cmd
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and schedule status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			for _, line := range renderSectionHeader("clipcaster", colorize) {
				fmt.Fprintln(out, line)
			}

			st, err := daemon.Probe(cfg)
			switch {
			case err != nil:
				fmt.Fprintln(out, renderStatusLine("Daemon", statusWarn, err.Error(), colorize))
			case st.Running:
				fmt.Fprintln(out, renderStatusLine("Daemon", statusOK, "Running", colorize))
			default:
				fmt.Fprintln(out, renderStatusLine("Daemon", statusInfo, "Not running", colorize))
			}

			sched, err := schedule.NewStore(cfg.Paths.ScheduleFile).Load()
			if err != nil {
				fmt.Fprintln(out, renderStatusLine("Schedule", statusError, err.Error(), colorize))
				return nil
			}
			pending, completed := sched.Counts()
			fmt.Fprintln(out, renderStatusLine("Schedule", statusInfo, fmt.Sprintf("%d pending, %d completed", pending, completed), colorize))

			now := time.Now()
			due, malformed := sched.Due(now)
			if len(due) > 0 {
				fmt.Fprintln(out, renderStatusLine("Due now", statusWarn, fmt.Sprintf("%d slot(s)", len(due)), colorize))
			}
			if len(malformed) > 0 {
				keys := make([]string, 0, len(malformed))
				for _, m := range malformed {
					keys = append(keys, sched[m.Index].Due)
				}
				fmt.Fprintln(out, renderStatusLine("Malformed slots", statusError, strings.Join(keys, ", "), colorize))
			}
			today := sched.PendingOn(now)
			fmt.Fprintln(out, renderStatusLine("Today", statusInfo, fmt.Sprintf("%d pending slot(s)", len(today)), colorize))
			fmt.Fprintln(out, renderStatusLine("Schedule file", statusInfo, cfg.Paths.ScheduleFile, colorize))
			return nil
		},
	}
}
