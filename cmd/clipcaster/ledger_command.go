package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"clipcaster/internal/publish"
	"clipcaster/internal/ratelimit"
)

var ledgerPlatforms = []ratelimit.Platform{ratelimit.YouTube, ratelimit.Facebook, ratelimit.Instagram}

type ledgerRow struct {
	Platform  string `json:"platform"`
	Account   string `json:"account"`
	Date      string `json:"date"`
	Count     int    `json:"count"`
	Remaining int    `json:"remaining"`
}

func newLedgerCommand(ctx *commandContext) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect daily publish counters",
	}

	var asJSON bool
	var platformFlag string
	show := &cobra.Command{
		Use:   "show",
		Short: "Show today's publish counts per platform and account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			platforms := ledgerPlatforms
			if p := strings.ToLower(strings.TrimSpace(platformFlag)); p != "" {
				platforms = nil
				for _, known := range ledgerPlatforms {
					if string(known) == p {
						platforms = []ratelimit.Platform{known}
					}
				}
				if platforms == nil {
					return fmt.Errorf("unknown platform %q (want youtube, facebook or instagram)", platformFlag)
				}
			}

			limiter := ratelimit.New(cfg.Paths.DataDir, cfg.Publish.DailyCap)
			var rows []ledgerRow
			for _, platform := range platforms {
				entries, err := limiter.Snapshot(platform)
				if err != nil {
					return err
				}
				for _, e := range entries {
					count := 0
					if e.Today {
						count = e.Count
					}
					rows = append(rows, ledgerRow{
						Platform:  string(platform),
						Account:   e.Account,
						Date:      e.Date,
						Count:     count,
						Remaining: max(limiter.Cap()-count, 0),
					})
				}
			}

			if asJSON {
				return writeJSON(cmd, rows)
			}
			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No publishes recorded")
				return nil
			}
			table := make([][]string, 0, len(rows))
			for _, r := range rows {
				table = append(table, []string{
					publish.DisplayName(ratelimit.Platform(r.Platform)),
					r.Account,
					r.Date,
					strconv.Itoa(r.Count),
					strconv.Itoa(r.Remaining),
				})
			}
			printTable(cmd, []string{"Platform", "Account", "Last publish day", "Today", "Remaining"}, table,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight})
			return nil
		},
	}
	addJSONFlag(show, &asJSON)
	show.Flags().StringVarP(&platformFlag, "platform", "p", "", "Limit to one platform")
	ledgerCmd.AddCommand(show)
	return ledgerCmd
}
