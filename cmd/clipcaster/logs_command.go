package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"clipcaster/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var match string
	var file string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the daemon log",
		Long:  "Print the tail of the current daemon log. Use --match with a run id, slot or account to narrow the output.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := strings.TrimSpace(file)
			if path == "" {
				path = logs.CurrentPath(cfg.Paths.LogDir)
			}
			out := cmd.OutOrStdout()
			tail, cursor, err := logs.Last(path, lines, match)
			if err != nil {
				return err
			}
			for _, line := range tail {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}
			return logs.Follow(cmd.Context(), path, cursor, match, 0, func(line string) {
				fmt.Fprintln(out, line)
			})
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	cmd.Flags().StringVarP(&match, "match", "m", "", "Only show lines containing this text")
	cmd.Flags().StringVar(&file, "file", "", "Read this log file instead of the current daemon log")
	return cmd
}
