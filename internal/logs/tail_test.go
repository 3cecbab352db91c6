package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"clipcaster/internal/logs"
)

func writeLog(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
}

func appendLog(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("append: %v", err)
	}
}

func TestLast(t *testing.T) {
	path := filepath.Join(t.TempDir(), logs.CurrentFile)
	writeLog(t, path, "run=a one\nrun=b two\nrun=a three\nrun=a four\n")

	tests := []struct {
		name  string
		n     int
		match string
		want  []string
	}{
		{name: "last two", n: 2, want: []string{"run=a three", "run=a four"}},
		{name: "more than file", n: 10, want: []string{"run=a one", "run=b two", "run=a three", "run=a four"}},
		{name: "filtered", n: 2, match: "run=a", want: []string{"run=a three", "run=a four"}},
		{name: "filtered wraps", n: 3, match: "run=a", want: []string{"run=a one", "run=a three", "run=a four"}},
		{name: "none", n: 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			lines, cursor, err := logs.Last(path, tc.n, tc.match)
			if err != nil {
				t.Fatalf("Last: %v", err)
			}
			if !slices.Equal(lines, tc.want) {
				t.Fatalf("lines = %#v, want %#v", lines, tc.want)
			}
			info, _ := os.Stat(path)
			if int64(cursor) != info.Size() {
				t.Fatalf("cursor = %d, want %d", cursor, info.Size())
			}
		})
	}
}

func TestMissingFileIsEmpty(t *testing.T) {
	lines, cursor, err := logs.Last(filepath.Join(t.TempDir(), "absent.log"), 5, "")
	if err != nil || lines != nil || cursor != 0 {
		t.Fatalf("got %v %d %v", lines, cursor, err)
	}
}

func TestSinceLeavesPartialLineAndRestartsAfterTruncate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.log")
	writeLog(t, path, "first\n")
	_, cursor, err := logs.Last(path, 1, "")
	if err != nil {
		t.Fatal(err)
	}

	appendLog(t, path, "second\nthi")
	lines, cursor, err := logs.Since(path, cursor, "")
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(lines, []string{"second"}) {
		t.Fatalf("lines = %#v", lines)
	}
	appendLog(t, path, "rd\n")
	lines, _, err = logs.Since(path, cursor, "")
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(lines, []string{"third"}) {
		t.Fatalf("lines = %#v", lines)
	}

	writeLog(t, path, "new\n")
	lines, _, err = logs.Since(path, cursor, "")
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(lines, []string{"new"}) {
		t.Fatalf("after truncate lines = %#v", lines)
	}
}

func TestFollowEmitsAppendedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.log")
	writeLog(t, path, "old\n")
	_, cursor, err := logs.Last(path, 0, "")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var (
		mu  sync.Mutex
		got []string
	)
	done := make(chan error, 1)
	go func() {
		done <- logs.Follow(ctx, path, cursor, "keep", 10*time.Millisecond, func(line string) {
			mu.Lock()
			got = append(got, line)
			mu.Unlock()
		})
	}()

	appendLog(t, path, "drop me\nkeep me\n")
	deadline := time.Now().Add(5 * time.Second)
	for {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n > 0 || time.Now().After(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Follow: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if !slices.Equal(got, []string{"keep me"}) {
		t.Fatalf("got %#v", got)
	}
}
