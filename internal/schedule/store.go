package schedule

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"clipcaster/internal/fileutil"
)

// Store reads and rewrites the schedule document at Path.
type Store struct {
	Path string
}

// NewStore returns a store bound to path.
func NewStore(path string) *Store {
	return &Store{Path: path}
}

func (s *Store) lock() *flock.Flock {
	return flock.New(s.Path + ".lock")
}

// Load reads the whole document. A missing file yields an empty schedule.
func (s *Store) Load() (Schedule, error) {
	if s == nil || s.Path == "" {
		return nil, errors.New("schedule store path not set")
	}
	if _, err := os.Stat(s.Path); errors.Is(err, os.ErrNotExist) {
		return Schedule{}, nil
	}
	lock := s.lock()
	if err := lock.RLock(); err != nil {
		return nil, fmt.Errorf("lock schedule: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Schedule{}, nil
		}
		return nil, fmt.Errorf("read schedule: %w", err)
	}
	return Decode(data)
}

// Save rewrites the whole document atomically.
func (s *Store) Save(sched Schedule) error {
	if s == nil || s.Path == "" {
		return errors.New("schedule store path not set")
	}
	data, err := Encode(sched)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return fmt.Errorf("create schedule dir: %w", err)
	}
	lock := s.lock()
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock schedule: %w", err)
	}
	defer func() { _ = lock.Unlock() }()
	if err := fileutil.WriteFileAtomic(s.Path, data, 0o644); err != nil {
		return fmt.Errorf("write schedule: %w", err)
	}
	return nil
}

// Decode parses a schedule document.
func Decode(data []byte) (Schedule, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Schedule{}, nil
	}
	var sched Schedule
	if err := json.Unmarshal(data, &sched); err != nil {
		return nil, fmt.Errorf("parse schedule: %w", err)
	}
	if sched == nil {
		sched = Schedule{}
	}
	return sched, nil
}

// Encode renders the document with two-space indentation and raw UTF-8.
func Encode(sched Schedule) ([]byte, error) {
	if sched == nil {
		sched = Schedule{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sched); err != nil {
		return nil, fmt.Errorf("encode schedule: %w", err)
	}
	return buf.Bytes(), nil
}
