package main

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"clipcaster/internal/schedule"
)

func TestScheduleGenerateAndList(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"schedule", "generate", "--from", "2025-03-01", "--to", "2025-03-02", "--time", "09:00,18:30", "--account", "acctX"}, env.configPath)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	requireContains(t, out, "Added 4 slot(s)")

	out, _, err = runCLI(t, []string{"schedule", "generate", "--from", "2025-03-01", "--time", "09:00"}, env.configPath)
	if err != nil {
		t.Fatalf("second generate: %v", err)
	}
	requireContains(t, out, "Added 0 slot(s)")

	out, _, err = runCLI(t, []string{"schedule", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	requireContains(t, out, "2025-03-01,09:00")
	requireContains(t, out, "2025-03-02,18:30")
	requireContains(t, out, "acctX")

	out, _, err = runCLI(t, []string{"schedule", "list", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("list --json: %v", err)
	}
	var views []slotView
	if err := json.Unmarshal([]byte(out), &views); err != nil {
		t.Fatalf("decode json: %v\n%s", err, out)
	}
	if len(views) != 4 || views[0].Status != "pending" || views[0].Jobs != 1 {
		t.Fatalf("unexpected views %+v", views)
	}
}

func TestScheduleGenerateRejectsBadInput(t *testing.T) {
	env := setupCLITestEnv(t)

	cases := []struct {
		name string
		args []string
		want string
	}{
		{name: "missing time", args: []string{"--from", "2025-03-01"}, want: "--time"},
		{name: "bad time", args: []string{"--from", "2025-03-01", "--time", "25:99"}, want: "invalid slot time"},
		{name: "reversed range", args: []string{"--from", "2025-03-02", "--to", "2025-03-01", "--time", "09:00"}, want: "before"},
		{name: "bad date", args: []string{"--from", "03/01/2025", "--time", "09:00"}, want: "invalid --from"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := runCLI(t, append([]string{"schedule", "generate"}, tc.args...), env.configPath)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
	if _, err := os.Stat(env.cfg.Paths.ScheduleFile); !os.IsNotExist(err) {
		t.Fatalf("schedule file should not be written on bad input: %v", err)
	}
}

func TestScheduleDueAndSummary(t *testing.T) {
	env := setupCLITestEnv(t)
	doc := `[
  {"date": "2000-01-01,08:00", "status": "pending", "items": [{"local": "/v/a.mp4", "start": "0", "end": "10", "title": "Old", "account": "acctX"}]},
  {"date": "2000-01-01,09:00", "status": "completed", "items": [{"local": "/v/b.mp4", "start": "0", "end": "10", "title": "Done"}]},
  {"date": "2099-06-01,10:00", "items": [{"local": "/v/c.mp4", "start": "0", "end": "10", "title": "Later"}, {"local": "/v/d.mp4", "start": "0", "end": "10"}]},
  {"date": "not a date", "items": []}
]`
	sched, err := schedule.Decode([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	if err := schedule.NewStore(env.cfg.Paths.ScheduleFile).Save(sched); err != nil {
		t.Fatal(err)
	}

	out, stderr, err := runCLI(t, []string{"schedule", "due"}, env.configPath)
	if err != nil {
		t.Fatalf("due: %v", err)
	}
	requireContains(t, out, "2000-01-01,08:00")
	if strings.Contains(out, "2000-01-01,09:00") || strings.Contains(out, "2099-06-01") {
		t.Fatalf("due listed a completed or future slot:\n%s", out)
	}
	requireContains(t, stderr, "not a date")

	out, _, err = runCLI(t, []string{"schedule", "summary", "--date", "2099-06-01"}, env.configPath)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	requireContains(t, out, "2099-06-01: 1 slot(s), 2 job(s)")

	out, _, err = runCLI(t, []string{"schedule", "summary", "--date", "2000-01-01"}, env.configPath)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	requireContains(t, out, "2000-01-01: 1 slot(s), 1 job(s)")

	out, _, err = runCLI(t, []string{"schedule", "list", "--pending"}, env.configPath)
	if err != nil {
		t.Fatalf("list --pending: %v", err)
	}
	if strings.Contains(out, "2000-01-01,09:00") {
		t.Fatalf("--pending listed a completed slot:\n%s", out)
	}
}

func TestScheduleListEmpty(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"schedule", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	requireContains(t, out, "No slots")
}
