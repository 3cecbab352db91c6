package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"clipcaster/internal/schedule"
)

func newScheduleCommand(ctx *commandContext) *cobra.Command {
	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Inspect and extend the job schedule",
	}
	scheduleCmd.AddCommand(newScheduleListCommand(ctx))
	scheduleCmd.AddCommand(newScheduleDueCommand(ctx))
	scheduleCmd.AddCommand(newScheduleSummaryCommand(ctx))
	scheduleCmd.AddCommand(newScheduleGenerateCommand(ctx))
	return scheduleCmd
}

func (c *commandContext) scheduleStore() (*schedule.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return schedule.NewStore(cfg.Paths.ScheduleFile), nil
}

type slotView struct {
	Due      string   `json:"date"`
	Status   string   `json:"status"`
	Jobs     int      `json:"jobs"`
	Titles   []string `json:"titles"`
	Accounts []string `json:"accounts"`
}

func viewSlot(slot schedule.Slot) slotView {
	status := string(slot.Status)
	if status == "" {
		status = string(schedule.StatusPending)
	}
	v := slotView{Due: slot.Due, Status: status, Jobs: len(slot.Items)}
	for _, item := range slot.Items {
		v.Titles = append(v.Titles, strValue(item.Title))
		v.Accounts = append(v.Accounts, strValue(item.Account))
	}
	return v
}

func strValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func renderSlots(cmd *cobra.Command, views []slotView, asJSON bool) error {
	if asJSON {
		return writeJSON(cmd, views)
	}
	if len(views) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No slots")
		return nil
	}
	rows := make([][]string, 0, len(views))
	for _, v := range views {
		rows = append(rows, []string{
			v.Due,
			v.Status,
			strconv.Itoa(v.Jobs),
			strings.Join(v.Titles, ", "),
			strings.Join(uniq(v.Accounts), ", "),
		})
	}
	printTableSpec(cmd, tableSpec{
		headers: []string{"Due", "Status", "Jobs", "Titles", "Accounts"},
		rows:    rows,
		aligns:  []columnAlignment{alignLeft, alignLeft, alignRight},
		wrap:    []int{3},
	})
	return nil
}

func newScheduleListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var pendingOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List schedule slots",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.scheduleStore()
			if err != nil {
				return err
			}
			sched, err := store.Load()
			if err != nil {
				return err
			}
			views := make([]slotView, 0, len(sched))
			for _, slot := range sched {
				if pendingOnly && !slot.Pending() {
					continue
				}
				views = append(views, viewSlot(slot))
			}
			return renderSlots(cmd, views, asJSON)
		},
	}
	addJSONFlag(cmd, &asJSON)
	cmd.Flags().BoolVar(&pendingOnly, "pending", false, "Only show pending slots")
	return cmd
}

func newScheduleDueCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "due",
		Short: "List pending slots that are due now",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.scheduleStore()
			if err != nil {
				return err
			}
			sched, err := store.Load()
			if err != nil {
				return err
			}
			due, malformed := sched.Due(time.Now())
			for _, m := range malformed {
				fmt.Fprintf(cmd.ErrOrStderr(), "warn: slot %q: %v\n", sched[m.Index].Due, m.Err)
			}
			views := make([]slotView, 0, len(due))
			for _, idx := range due {
				views = append(views, viewSlot(sched[idx]))
			}
			return renderSlots(cmd, views, asJSON)
		},
	}
	addJSONFlag(cmd, &asJSON)
	return cmd
}

func newScheduleSummaryCommand(ctx *commandContext) *cobra.Command {
	var dateFlag string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Summarize pending slots for a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			day := time.Now()
			if strings.TrimSpace(dateFlag) != "" {
				parsed, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(dateFlag), time.Local)
				if err != nil {
					return fmt.Errorf("invalid --date: %w", err)
				}
				day = parsed
			}
			store, err := ctx.scheduleStore()
			if err != nil {
				return err
			}
			sched, err := store.Load()
			if err != nil {
				return err
			}
			slots := sched.PendingOn(day)
			out := cmd.OutOrStdout()
			date := day.Format("2006-01-02")
			if len(slots) == 0 {
				fmt.Fprintf(out, "No pending slots on %s\n", date)
				return nil
			}
			items := 0
			rows := make([][]string, 0, len(slots))
			for _, s := range slots {
				items += s.Items
				rows = append(rows, []string{s.Time, strconv.Itoa(s.Items)})
			}
			fmt.Fprintf(out, "%s: %d slot(s), %d job(s)\n", date, len(slots), items)
			printTable(cmd, []string{"Time", "Jobs"}, rows, []columnAlignment{alignLeft, alignRight})
			return nil
		},
	}
	cmd.Flags().StringVar(&dateFlag, "date", "", "Day to summarize (YYYY-MM-DD, default today)")
	return cmd
}

func newScheduleGenerateCommand(ctx *commandContext) *cobra.Command {
	var fromFlag, toFlag, account string
	var times []string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Append placeholder slots for a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(fromFlag), time.Local)
			if err != nil {
				return fmt.Errorf("invalid --from: %w", err)
			}
			to := from
			if strings.TrimSpace(toFlag) != "" {
				to, err = time.ParseInLocation("2006-01-02", strings.TrimSpace(toFlag), time.Local)
				if err != nil {
					return fmt.Errorf("invalid --to: %w", err)
				}
			}
			if to.Before(from) {
				return fmt.Errorf("--to %s is before --from %s", toFlag, fromFlag)
			}
			if len(times) == 0 {
				return fmt.Errorf("at least one --time is required")
			}
			if strings.TrimSpace(account) == "" {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				account = cfg.Scheduler.DefaultAccount
			}

			store, err := ctx.scheduleStore()
			if err != nil {
				return err
			}
			sched, err := store.Load()
			if err != nil {
				return err
			}
			added, err := sched.Generate(from, to, times, schedule.PlaceholderJob(account))
			if err != nil {
				return err
			}
			if added > 0 {
				if err := store.Save(sched); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %d slot(s) to %s\n", added, ctx.config.Paths.ScheduleFile)
			return nil
		},
	}
	cmd.Flags().StringVar(&fromFlag, "from", "", "First day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&toFlag, "to", "", "Last day (YYYY-MM-DD, default --from)")
	cmd.Flags().StringSliceVar(&times, "time", nil, "Slot clock time HH:MM (repeatable or comma separated)")
	cmd.Flags().StringVar(&account, "account", "", "Account for placeholder jobs (default scheduler.default_account)")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "…"
}

func uniq(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
