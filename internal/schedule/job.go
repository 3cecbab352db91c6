package schedule

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"clipcaster/internal/services"
)

// Position anchors the horizontal crop window.
type Position string

const (
	PositionLeft   Position = "l"
	PositionCenter Position = "c"
	PositionRight  Position = "r"
)

// JobRecord is the on-disk representation of a job. Optional keys are
// pointers so absent keys stay absent after a rewrite. Keys the record does
// not model are carried through unchanged.
type JobRecord struct {
	URL         *string `json:"url,omitempty"`
	Local       *string `json:"local,omitempty"`
	Start       *string `json:"start,omitempty"`
	End         *string `json:"end,omitempty"`
	Position    *string `json:"position,omitempty"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Account     *string `json:"account,omitempty"`
	Model       *string `json:"model,omitempty"`
	Subs        *bool   `json:"subs,omitempty"`
	Crop        *bool   `json:"crop,omitempty"`
	Tests       *bool   `json:"tests,omitempty"`
	Brainrot    *bool   `json:"brainrot,omitempty"`

	doc       object
	raw       json.RawMessage
	decodeErr error
}

// Source identifies the media input. Exactly one field is set.
type Source struct {
	URL   string
	Local string
}

// Remote reports whether the source must be fetched over the network.
func (s Source) Remote() bool { return s.URL != "" }

// Location returns the URL or local path, whichever is set.
func (s Source) Location() string {
	if s.URL != "" {
		return s.URL
	}
	return s.Local
}

// Job is a fully resolved, immutable unit of work.
type Job struct {
	Source      Source
	Start       time.Duration
	End         time.Duration
	Position    Position
	Title       string
	Description string
	Account     string
	Model       string
	Subtitles   bool
	Crop        bool
	DryRun      bool
	Stacked     bool
}

// Duration is the clip length.
func (j Job) Duration() time.Duration { return j.End - j.Start }

// Defaults supplies values for keys a record leaves out.
type Defaults struct {
	Account string
	Model   string
}

const (
	defaultAccount = "random"
	defaultModel   = "small"
)

// Resolve validates the record and applies defaults.
func (r JobRecord) Resolve(defaults Defaults) (Job, error) {
	if r.decodeErr != nil {
		return Job{}, invalid(fmt.Sprintf("malformed job: %v", r.decodeErr))
	}
	job := Job{
		Position:    PositionCenter,
		Title:       deref(r.Title),
		Description: deref(r.Description),
		Account:     firstNonEmpty(deref(r.Account), defaults.Account, defaultAccount),
		Model:       firstNonEmpty(deref(r.Model), defaults.Model, defaultModel),
		Subtitles:   derefBool(r.Subs, true),
		Crop:        derefBool(r.Crop, true),
		DryRun:      derefBool(r.Tests, false),
		Stacked:     derefBool(r.Brainrot, false),
	}

	url := strings.TrimSpace(deref(r.URL))
	local := strings.TrimSpace(deref(r.Local))
	switch {
	case url != "" && local != "":
		return Job{}, invalid("job sets both url and local")
	case url == "" && local == "":
		return Job{}, invalid("job sets neither url nor local")
	}
	job.Source = Source{URL: url, Local: local}

	if r.Start == nil || strings.TrimSpace(*r.Start) == "" {
		return Job{}, invalid("job is missing start")
	}
	if r.End == nil || strings.TrimSpace(*r.End) == "" {
		return Job{}, invalid("job is missing end")
	}
	start, err := ParseOffset(*r.Start)
	if err != nil {
		return Job{}, invalid(fmt.Sprintf("start: %v", err))
	}
	end, err := ParseOffset(*r.End)
	if err != nil {
		return Job{}, invalid(fmt.Sprintf("end: %v", err))
	}
	if end <= start {
		return Job{}, invalid(fmt.Sprintf("end %s is not after start %s", *r.End, *r.Start))
	}
	job.Start, job.End = start, end

	if r.Position != nil {
		switch pos := Position(strings.ToLower(strings.TrimSpace(*r.Position))); pos {
		case "":
		case PositionLeft, PositionCenter, PositionRight:
			job.Position = pos
		default:
			return Job{}, invalid(fmt.Sprintf("unknown position %q (want l, c or r)", *r.Position))
		}
	}
	return job, nil
}

// ParseOffset accepts SS, MM:SS or HH:MM:SS with optional fractional seconds.
func ParseOffset(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty offset")
	}
	parts := strings.Split(value, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("offset %q has too many fields", value)
	}
	var total float64
	for i, part := range parts {
		last := i == len(parts)-1
		var n float64
		if last {
			f, err := strconv.ParseFloat(part, 64)
			if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
				return 0, fmt.Errorf("offset %q: bad seconds %q", value, part)
			}
			n = f
		} else {
			v, err := strconv.Atoi(part)
			if err != nil {
				return 0, fmt.Errorf("offset %q: bad field %q", value, part)
			}
			n = float64(v)
		}
		if n < 0 {
			return 0, fmt.Errorf("offset %q is negative", value)
		}
		if i > 0 && n >= 60 {
			return 0, fmt.Errorf("offset %q: field %q out of range", value, part)
		}
		total = total*60 + n
	}
	return time.Duration(total * float64(time.Second)), nil
}

// FormatOffset renders d as HH:MM:SS.mmm for encoder arguments.
func FormatOffset(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	h := ms / 3_600_000
	m := (ms / 60_000) % 60
	s := (ms / 1000) % 60
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms%1000)
}

func invalid(msg string) error {
	return services.Wrap(services.ErrValidation, "schedule", "resolve job", msg, nil)
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func derefBool(p *bool, fallback bool) bool {
	if p == nil {
		return fallback
	}
	return *p
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
