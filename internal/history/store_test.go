package history_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"clipcaster/internal/history"
	"clipcaster/internal/testsupport"
)

func TestRecordRunAndRecent(t *testing.T) {
	store := testsupport.MustOpenHistory(t, testsupport.NewConfig(t))
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 6, 0, 0, 0, time.UTC)

	older := history.Run{
		ID: "run-1", Slot: "2025-01-01,06:00", Title: "First", Account: "acctX",
		Attempts: 1, Status: history.StatusCompleted,
		StartedAt: base, FinishedAt: base.Add(2 * time.Minute),
		Results: []history.PlatformResult{
			{Platform: "yt", Outcome: "published", RemoteID: "abc", Link: "https://youtu.be/abc"},
			{Platform: "fb", Outcome: "failed", Error: "graph api 400"},
		},
	}
	newer := history.Run{
		ID: "run-2", Slot: "2025-01-01,06:00", JobIndex: 1, Title: "Second", Account: "acctX",
		Attempts: 4, Status: history.StatusFailed, Error: "ffmpeg exited 1",
		Artifact: "/work/Second.mp4", Retained: true,
		StartedAt: base.Add(3 * time.Minute), FinishedAt: base.Add(9 * time.Minute),
	}
	for _, run := range []history.Run{older, newer} {
		if err := store.RecordRun(ctx, run); err != nil {
			t.Fatalf("RecordRun %s: %v", run.ID, err)
		}
	}

	runs, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != "run-2" || runs[1].ID != "run-1" {
		t.Fatalf("expected newest first, got %s, %s", runs[0].ID, runs[1].ID)
	}
	if !runs[0].Retained || runs[0].Status != history.StatusFailed || runs[0].Attempts != 4 {
		t.Fatalf("unexpected failed run: %+v", runs[0])
	}
	if runs[0].Duration() != 6*time.Minute {
		t.Fatalf("duration = %s", runs[0].Duration())
	}
	if got := runs[1].Results; len(got) != 2 || got[0].Platform != "yt" || got[1].Error != "graph api 400" {
		t.Fatalf("unexpected results: %+v", got)
	}
	if !runs[1].FinishedAt.Equal(older.FinishedAt) {
		t.Fatalf("finished_at = %s, want %s", runs[1].FinishedAt, older.FinishedAt)
	}

	limited, err := store.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("Recent limit: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != "run-2" {
		t.Fatalf("unexpected limited result: %+v", limited)
	}
}

func TestRecordRunReplacesResults(t *testing.T) {
	store := testsupport.MustOpenHistory(t, testsupport.NewConfig(t))
	ctx := context.Background()
	now := time.Now()

	run := history.Run{ID: "r", Status: history.StatusFailed, StartedAt: now, FinishedAt: now,
		Results: []history.PlatformResult{{Platform: "ig", Outcome: "timed_out"}}}
	if err := store.RecordRun(ctx, run); err != nil {
		t.Fatal(err)
	}
	run.Status = history.StatusCompleted
	run.Results = []history.PlatformResult{{Platform: "ig", Outcome: "published"}}
	if err := store.RecordRun(ctx, run); err != nil {
		t.Fatal(err)
	}

	runs, err := store.Recent(ctx, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Status != history.StatusCompleted {
		t.Fatalf("unexpected runs: %+v", runs)
	}
	if len(runs[0].Results) != 1 || runs[0].Results[0].Outcome != "published" {
		t.Fatalf("results not replaced: %+v", runs[0].Results)
	}
}

func TestRecordRunRequiresID(t *testing.T) {
	store := testsupport.MustOpenHistory(t, testsupport.NewConfig(t))
	if err := store.RecordRun(context.Background(), history.Run{}); err == nil {
		t.Fatal("expected error for missing run id")
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	now := time.Now()
	if err := store.RecordRun(context.Background(), history.Run{ID: "keep", Status: history.StatusCompleted, StartedAt: now, FinishedAt: now}); err != nil {
		t.Fatal(err)
	}
	_ = store.Close()

	reopened, err := history.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	runs, err := reopened.Recent(context.Background(), 5)
	if err != nil || len(runs) != 1 {
		t.Fatalf("expected persisted run, got %v %v", runs, err)
	}
}
