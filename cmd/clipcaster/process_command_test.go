package main

import (
	"errors"
	"strings"
	"testing"

	"clipcaster/internal/schedule"
	"clipcaster/internal/services"
)

func TestProcessFlagsRecord(t *testing.T) {
	flags := processFlags{url: " https://example.com/v ", start: "1:00", end: "1:30", position: "l", noSubs: true, dryRun: true}
	rec := flags.record()
	if rec.Local != nil || rec.Title != nil || rec.Account != nil {
		t.Fatalf("unset flags must stay absent: %+v", rec)
	}
	job, err := rec.Resolve(schedule.Defaults{Account: "acctX"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if job.Source.URL != "https://example.com/v" || job.Position != schedule.PositionLeft {
		t.Fatalf("unexpected job %+v", job)
	}
	if job.Subtitles || !job.Crop || !job.DryRun || job.Stacked || job.Account != "acctX" {
		t.Fatalf("unexpected toggles %+v", job)
	}
}

func TestProcessRejectsInvalidJobBeforeRunning(t *testing.T) {
	env := setupCLITestEnv(t)

	cases := []struct {
		name string
		args []string
		want string
	}{
		{name: "no source", args: []string{"--start", "0", "--end", "10"}, want: "neither url nor local"},
		{name: "both sources", args: []string{"--url", "https://x", "--local", "/v.mp4", "--start", "0", "--end", "10"}, want: "both url and local"},
		{name: "end before start", args: []string{"--local", "/v.mp4", "--start", "20", "--end", "10"}, want: "not after start"},
		{name: "bad position", args: []string{"--local", "/v.mp4", "--start", "0", "--end", "10", "--position", "top"}, want: "unknown position"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := runCLI(t, append([]string{"process"}, tc.args...), env.configPath)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}
