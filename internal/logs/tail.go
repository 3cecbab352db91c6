package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// CurrentFile is the name of the pointer to the running daemon's log.
const CurrentFile = "clipcaster.log"

const (
	defaultPoll  = 250 * time.Millisecond
	maxLineBytes = 1 << 20
)

// CurrentPath returns the log pointer inside logDir.
func CurrentPath(logDir string) string {
	return filepath.Join(logDir, CurrentFile)
}

// Cursor is a byte offset into a log file.
type Cursor int64

// Last returns up to n trailing lines containing match and a cursor after
// the last complete line. A missing file yields no lines and a zero cursor.
func Last(path string, n int, match string) ([]string, Cursor, error) {
	file, err := open(path)
	if file == nil {
		return nil, 0, err
	}
	defer file.Close()

	if n <= 0 {
		end, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, 0, fmt.Errorf("seek log file: %w", err)
		}
		return nil, Cursor(end), nil
	}

	ring := make([]string, n)
	kept := 0
	end, err := scan(file, match, func(line string) {
		ring[kept%n] = line
		kept++
	})
	if err != nil {
		return nil, 0, err
	}
	if kept <= n {
		return ring[:kept], Cursor(end), nil
	}
	start := kept % n
	return append(ring[start:], ring[:start]...), Cursor(end), nil
}

// Since returns lines containing match appended after c. A file shorter
// than c was truncated or replaced and is read from the start.
func Since(path string, c Cursor, match string) ([]string, Cursor, error) {
	file, err := open(path)
	if file == nil {
		return nil, 0, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, c, fmt.Errorf("stat log file: %w", err)
	}
	if c < 0 || int64(c) > info.Size() {
		c = 0
	}
	if _, err := file.Seek(int64(c), io.SeekStart); err != nil {
		return nil, c, fmt.Errorf("seek log file: %w", err)
	}
	var lines []string
	end, err := scan(file, match, func(line string) { lines = append(lines, line) })
	if err != nil {
		return nil, c, err
	}
	return lines, Cursor(int64(c) + end), nil
}

// Follow calls emit for each matching line appended after c until ctx is
// cancelled. poll <= 0 uses a quarter second.
func Follow(ctx context.Context, path string, c Cursor, match string, poll time.Duration, emit func(string)) error {
	if poll <= 0 {
		poll = defaultPoll
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		lines, next, err := Since(path, c, match)
		if err != nil {
			return err
		}
		for _, line := range lines {
			emit(line)
		}
		c = next
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func open(path string) (*os.File, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		file.Close()
		return nil, fmt.Errorf("log path %q is a directory", path)
	}
	return file, nil
}

// scan feeds complete lines containing match to keep and returns the number
// of bytes consumed. A trailing partial line is left for the next read.
func scan(r io.Reader, match string, keep func(string)) (int64, error) {
	reader := bufio.NewReaderSize(r, 64*1024)
	var consumed int64
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return consumed, nil
			}
			return consumed, fmt.Errorf("read log file: %w", err)
		}
		consumed += int64(len(line))
		if len(line) > maxLineBytes {
			line = line[:maxLineBytes]
		}
		line = strings.TrimRight(line, "\r\n")
		if match == "" || strings.Contains(line, match) {
			keep(line)
		}
	}
}
