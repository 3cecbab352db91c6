package schedule

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DueLayout is the on-disk due timestamp format.
const DueLayout = "2006-01-02,15:04"

// Status is a slot's lifecycle state. Slots only move pending -> completed.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Slot is one scheduled batch of jobs. Keys the slot does not model are
// carried through a rewrite unchanged.
type Slot struct {
	Due    string      `json:"date"`
	Status Status      `json:"status,omitempty"`
	Items  []JobRecord `json:"items"`

	doc       object
	raw       json.RawMessage
	decodeErr error
}

// Pending reports whether the slot still needs to run. A missing status
// counts as pending.
func (s Slot) Pending() bool {
	return s.Status == "" || s.Status == StatusPending
}

// Complete marks the slot as done.
func (s *Slot) Complete() { s.Status = StatusCompleted }

// DueAt parses the due timestamp in loc. A slot that did not decode
// cleanly has no due time.
func (s Slot) DueAt(loc *time.Location) (time.Time, error) {
	if s.decodeErr != nil {
		return time.Time{}, fmt.Errorf("slot %q: %w", s.Due, s.decodeErr)
	}
	if loc == nil {
		loc = time.Local
	}
	due, err := time.ParseInLocation(DueLayout, strings.TrimSpace(s.Due), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("slot due %q: %w", s.Due, err)
	}
	return due, nil
}

// Schedule is the ordered slot list.
type Schedule []Slot

// Malformed describes a slot whose due timestamp could not be parsed.
type Malformed struct {
	Index int
	Err   error
}

// Due returns the indices of pending slots whose due time is at or before
// now truncated to the minute, in document order. Slots with unparsable due
// strings are returned separately and never selected.
func (s Schedule) Due(now time.Time) ([]int, []Malformed) {
	cutoff := now.Truncate(time.Minute)
	var due []int
	var bad []Malformed
	for i, slot := range s {
		if !slot.Pending() {
			continue
		}
		at, err := slot.DueAt(now.Location())
		if err != nil {
			bad = append(bad, Malformed{Index: i, Err: err})
			continue
		}
		if !at.After(cutoff) {
			due = append(due, i)
		}
	}
	return due, bad
}

// DaySummary is one pending slot on a given day.
type DaySummary struct {
	Time  string
	Items int
}

// PendingOn lists pending slots whose due date falls on day.
func (s Schedule) PendingOn(day time.Time) []DaySummary {
	date := day.Format("2006-01-02")
	var out []DaySummary
	for _, slot := range s {
		if !slot.Pending() {
			continue
		}
		slotDate, slotTime, ok := strings.Cut(strings.TrimSpace(slot.Due), ",")
		if !ok || slotDate != date {
			continue
		}
		out = append(out, DaySummary{Time: slotTime, Items: len(slot.Items)})
	}
	return out
}

// Counts tallies slots by status.
func (s Schedule) Counts() (pending, completed int) {
	for _, slot := range s {
		if slot.Pending() {
			pending++
		} else {
			completed++
		}
	}
	return pending, completed
}

// Generate appends a pending placeholder slot for every date in [from, to]
// and every clock time in times whose key is not already present. It returns
// the number of slots added.
func (s *Schedule) Generate(from, to time.Time, times []string, template JobRecord) (int, error) {
	for _, t := range times {
		if _, err := time.Parse("15:04", t); err != nil {
			return 0, fmt.Errorf("invalid slot time %q: %w", t, err)
		}
	}
	existing := make(map[string]struct{}, len(*s))
	for _, slot := range *s {
		existing[strings.TrimSpace(slot.Due)] = struct{}{}
	}

	added := 0
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	end := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, from.Location())
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		for _, t := range times {
			key := day.Format("2006-01-02") + "," + t
			if _, ok := existing[key]; ok {
				continue
			}
			existing[key] = struct{}{}
			*s = append(*s, Slot{Due: key, Status: StatusPending, Items: []JobRecord{template.clone()}})
			added++
		}
	}
	return added, nil
}

// PlaceholderJob is the template Generate fills slots with.
func PlaceholderJob(account string) JobRecord {
	return JobRecord{
		URL:         ptr(""),
		Start:       ptr("00:00:00"),
		End:         ptr("00:00:00"),
		Position:    ptr(string(PositionCenter)),
		Account:     ptr(account),
		Title:       ptr(""),
		Description: ptr(""),
	}
}

func (r JobRecord) clone() JobRecord {
	out := r
	out.URL = clonePtr(r.URL)
	out.Local = clonePtr(r.Local)
	out.Start = clonePtr(r.Start)
	out.End = clonePtr(r.End)
	out.Position = clonePtr(r.Position)
	out.Title = clonePtr(r.Title)
	out.Description = clonePtr(r.Description)
	out.Account = clonePtr(r.Account)
	out.Model = clonePtr(r.Model)
	out.Subs = clonePtr(r.Subs)
	out.Crop = clonePtr(r.Crop)
	out.Tests = clonePtr(r.Tests)
	out.Brainrot = clonePtr(r.Brainrot)
	return out
}

func ptr[T any](v T) *T { return &v }

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
