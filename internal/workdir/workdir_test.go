package workdir_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"clipcaster/internal/workdir"
)

func touch(t *testing.T, dir, name string, size int, age time.Duration) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	mod := time.Now().Add(-age)
	if err := os.Chtimes(path, mod, mod); err != nil {
		t.Fatalf("chtimes %s: %v", name, err)
	}
	return path
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestClassify(t *testing.T) {
	tests := map[string]workdir.Kind{
		"Obrolan_Seru.mp4":          workdir.KindArtifact,
		"temp_audio_abcd1234.wav":   workdir.KindScratch,
		"temp_audio_abcd1234.json":  workdir.KindScratch,
		"Obrolan_Seru_abcd1234.ass": workdir.KindScratch,
		"notes.txt":                 workdir.KindOther,
	}
	for name, want := range tests {
		if got := workdir.Classify(name); got != want {
			t.Errorf("Classify(%q) = %s, want %s", name, got, want)
		}
	}
}

func TestListOldestFirstAndMissingDir(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "new.mp4", 1, time.Hour)
	touch(t, dir, "old.mp4", 1, 48*time.Hour)
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	entries, err := workdir.List(dir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 || entries[0].Name != "old.mp4" || entries[1].Name != "new.mp4" {
		t.Fatalf("unexpected entries %+v", entries)
	}

	entries, err = workdir.List(filepath.Join(dir, "absent"))
	if err != nil || entries != nil {
		t.Fatalf("missing dir: %v %v", entries, err)
	}
}

func TestPrune(t *testing.T) {
	dir := t.TempDir()
	oldClip := touch(t, dir, "old.mp4", 100, 96*time.Hour)
	newClip := touch(t, dir, "new.mp4", 100, time.Hour)
	oldScratch := touch(t, dir, "temp_audio_x.wav", 10, 30*time.Hour)
	other := touch(t, dir, "keep.txt", 5, 500*time.Hour)

	dry := workdir.Prune(context.Background(), dir, workdir.PruneOptions{MaxAge: 24 * time.Hour, DryRun: true}, nil)
	if len(dry.Removed) != 2 || dry.Freed != 110 || !exists(oldClip) || !exists(oldScratch) {
		t.Fatalf("dry run removed files or miscounted: %+v", dry)
	}

	scratchOnly := workdir.Prune(context.Background(), dir, workdir.PruneOptions{MaxAge: 24 * time.Hour, Kinds: []workdir.Kind{workdir.KindScratch}}, nil)
	if len(scratchOnly.Removed) != 1 || exists(oldScratch) || !exists(oldClip) {
		t.Fatalf("scratch-only prune: %+v", scratchOnly)
	}

	res := workdir.Prune(context.Background(), dir, workdir.PruneOptions{MaxAge: 72 * time.Hour}, nil)
	if len(res.Removed) != 1 || res.Removed[0].Path != oldClip || exists(oldClip) {
		t.Fatalf("artifact prune: %+v", res)
	}
	if !exists(newClip) || !exists(other) {
		t.Fatal("recent clip and unrelated files must survive")
	}
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors %+v", res.Errors)
	}
}
