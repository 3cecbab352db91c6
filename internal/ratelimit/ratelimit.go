// Package ratelimit enforces the per-platform, per-account daily publish cap.
//
// Each platform has its own JSON ledger mapping account -> {date, count}. A
// record whose date differs from today counts as zero. The ledger is
// rewritten wholesale on every increment, serialized in-process by a mutex and
// across processes by an flock beside the ledger file. Hold adds a per-account
// flock so a rate check and its increment cannot interleave with another
// process publishing for the same account.
package ratelimit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"clipcaster/internal/fileutil"
	"clipcaster/internal/textutil"
)

// Platform names a publish target.
type Platform string

const (
	YouTube   Platform = "youtube"
	Facebook  Platform = "facebook"
	Instagram Platform = "instagram"
)

// DefaultCap is the reference daily publish cap.
const DefaultCap = 10

const dateLayout = "2006-01-02"

// holdRetryDelay spaces attempts to take a hold another process owns.
const holdRetryDelay = 250 * time.Millisecond

var ledgerFiles = map[Platform]string{
	YouTube:   "_upload_stats_yt.json",
	Facebook:  "_upload_stats_fb.json",
	Instagram: "_upload_stats_ig.json",
}

// LedgerFile returns the ledger file name for platform.
func LedgerFile(platform Platform) string {
	if name, ok := ledgerFiles[platform]; ok {
		return name
	}
	return "_upload_stats_" + string(platform) + ".json"
}

// Record is one account's counter.
type Record struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Ledger is the on-disk document for one platform.
type Ledger map[string]Record

// Entry is a flattened ledger row for display.
type Entry struct {
	Account string
	Date    string
	Count   int
	Today   bool
}

// Limiter guards the ledgers stored under Dir.
type Limiter struct {
	dir   string
	cap   int
	clock func() time.Time

	mu    sync.Mutex
	holds map[string]*sync.Mutex
}

// Option customizes a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(l *Limiter) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// New returns a limiter that stores ledgers in dir. A cap below one falls
// back to DefaultCap.
func New(dir string, dailyCap int, opts ...Option) *Limiter {
	if dailyCap < 1 {
		dailyCap = DefaultCap
	}
	l := &Limiter{
		dir:   dir,
		cap:   dailyCap,
		clock: time.Now,
		holds: make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Cap returns the configured daily cap.
func (l *Limiter) Cap() int { return l.cap }

// Path returns the ledger path for platform.
func (l *Limiter) Path(platform Platform) string {
	return filepath.Join(l.dir, LedgerFile(platform))
}

// Hold serializes check-then-increment for one (platform, account) key,
// within this process and across processes sharing the ledger directory.
// It blocks until the key is free or ctx is done. The returned func
// releases the hold.
func (l *Limiter) Hold(ctx context.Context, platform Platform, account string) (func(), error) {
	key := string(platform) + "/" + account
	l.mu.Lock()
	m, ok := l.holds[key]
	if !ok {
		m = &sync.Mutex{}
		l.holds[key] = m
	}
	l.mu.Unlock()
	m.Lock()

	holdDir := filepath.Join(l.dir, "holds")
	if err := os.MkdirAll(holdDir, 0o755); err != nil {
		m.Unlock()
		return nil, fmt.Errorf("ensure hold dir: %w", err)
	}
	name := string(platform) + "-" + textutil.SanitizeFileNameOr(account, "account") + ".lock"
	lock := flock.New(filepath.Join(holdDir, name))
	locked, err := lock.TryLockContext(ctx, holdRetryDelay)
	if err != nil || !locked {
		m.Unlock()
		if err == nil {
			err = ctx.Err()
		}
		return nil, fmt.Errorf("hold %s: %w", key, err)
	}
	return func() {
		_ = lock.Unlock()
		m.Unlock()
	}, nil
}

// Count returns today's publish count for (platform, account).
func (l *Limiter) Count(platform Platform, account string) (int, error) {
	ledger, err := l.read(platform)
	if err != nil {
		return 0, err
	}
	rec, ok := ledger[account]
	if !ok || rec.Date != l.today() {
		return 0, nil
	}
	return rec.Count, nil
}

// CanPublish reports whether another publish fits under today's cap.
func (l *Limiter) CanPublish(platform Platform, account string) (bool, error) {
	count, err := l.Count(platform, account)
	if err != nil {
		return false, err
	}
	return count < l.cap, nil
}

// RecordPublish bumps today's counter and persists the ledger. It returns
// the new count.
func (l *Limiter) RecordPublish(platform Platform, account string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock := flock.New(l.Path(platform) + ".lock")
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return 0, fmt.Errorf("ensure ledger dir: %w", err)
	}
	if err := lock.Lock(); err != nil {
		return 0, fmt.Errorf("lock ledger: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	ledger, err := l.readUnlocked(platform)
	if err != nil {
		return 0, err
	}
	today := l.today()
	rec := ledger[account]
	if rec.Date != today {
		rec = Record{Date: today}
	}
	rec.Count++
	ledger[account] = rec

	data, err := encode(ledger)
	if err != nil {
		return 0, err
	}
	if err := fileutil.WriteFileAtomic(l.Path(platform), data, 0o644); err != nil {
		return 0, fmt.Errorf("write ledger: %w", err)
	}
	return rec.Count, nil
}

// Snapshot lists every account in the platform ledger, sorted by account.
func (l *Limiter) Snapshot(platform Platform) ([]Entry, error) {
	ledger, err := l.read(platform)
	if err != nil {
		return nil, err
	}
	today := l.today()
	out := make([]Entry, 0, len(ledger))
	for account, rec := range ledger {
		out = append(out, Entry{Account: account, Date: rec.Date, Count: rec.Count, Today: rec.Date == today})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Account < out[j].Account })
	return out, nil
}

func (l *Limiter) today() string {
	return l.clock().Format(dateLayout)
}

func (l *Limiter) read(platform Platform) (Ledger, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.readUnlocked(platform)
}

func (l *Limiter) readUnlocked(platform Platform) (Ledger, error) {
	data, err := os.ReadFile(l.Path(platform))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Ledger{}, nil
		}
		return nil, fmt.Errorf("read %s ledger: %w", platform, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return Ledger{}, nil
	}
	var ledger Ledger
	if err := json.Unmarshal(data, &ledger); err != nil {
		return nil, fmt.Errorf("parse %s ledger: %w", platform, err)
	}
	if ledger == nil {
		ledger = Ledger{}
	}
	return ledger, nil
}

func encode(ledger Ledger) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ledger); err != nil {
		return nil, fmt.Errorf("encode ledger: %w", err)
	}
	return buf.Bytes(), nil
}
