package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"clipcaster/internal/accounts"
)

func newAccountsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "List accounts and the platforms each can publish to",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			registry := accounts.NewRegistry(cfg.Paths.AccountsDir)
			names, err := registry.List()
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No accounts under %s\n", cfg.Paths.AccountsDir)
				return nil
			}
			rows := make([][]string, 0, len(names))
			for _, name := range names {
				acct, err := registry.Resolve(name)
				if err != nil {
					rows = append(rows, []string{name, err.Error(), "", ""})
					continue
				}
				yt, fb, ig := accountPlatforms(acct)
				rows = append(rows, []string{name, yt, fb, ig})
			}
			printTable(cmd, []string{"Account", "YouTube", "Facebook", "Instagram"}, rows, nil)
			return nil
		},
	}
}

func accountPlatforms(acct *accounts.Account) (youtube, facebook, instagram string) {
	youtube, facebook, instagram = "-", "-", "-"
	switch {
	case acct.YouTubeErr != nil:
		youtube = "error: " + acct.YouTubeErr.Error()
	case acct.YouTube != nil:
		youtube = "ready"
		if !acct.YouTube.Expiry.IsZero() {
			youtube += " (expires " + acct.YouTube.Expiry.Local().Format("2006-01-02 15:04") + ")"
		}
	}
	switch {
	case acct.MetaErr != nil:
		facebook = "error: " + acct.MetaErr.Error()
		instagram = facebook
	case acct.Meta != nil:
		facebook = readyIf(acct.Meta.PageID != "" && acct.Meta.PageToken != "")
		instagram = readyIf(acct.Meta.IGUserID != "" && acct.Meta.IGToken != "")
	}
	return youtube, facebook, instagram
}

func readyIf(ok bool) string {
	if ok {
		return "ready"
	}
	return "incomplete"
}
