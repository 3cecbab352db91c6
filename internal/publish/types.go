package publish

import (
	"context"
	"strings"

	"clipcaster/internal/ratelimit"
)

// Platform names a publish target.
type Platform = ratelimit.Platform

const (
	YouTube   = ratelimit.YouTube
	Facebook  = ratelimit.Facebook
	Instagram = ratelimit.Instagram
)

// Platforms lists every supported platform in dispatch order.
var Platforms = []Platform{YouTube, Facebook, Instagram}

// DisplayName returns the operator-facing platform label.
func DisplayName(p Platform) string {
	switch p {
	case YouTube:
		return "YouTube"
	case Facebook:
		return "Facebook"
	case Instagram:
		return "Instagram"
	default:
		return string(p)
	}
}

// Outcome is a terminal publish state.
type Outcome string

const (
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
	OutcomeTimedOut  Outcome = "timed_out"
	OutcomePublished Outcome = "published"
)

// Content is the clip and its metadata.
type Content struct {
	Path        string
	Title       string
	Description string
	Source      string
}

// Caption returns the description with the source citation appended.
func (c Content) Caption() string {
	source := strings.TrimSpace(c.Source)
	if source == "" {
		return c.Description
	}
	return c.Description + "\n\nSource:\n" + source + "\n"
}

// Session identifies a remote upload target between steps.
type Session struct {
	ID        string
	UploadURL string
}

// State is the remote processing state reported by PollStatus.
type State int

const (
	StateProcessing State = iota
	StateReady
	StateFailed
)

// Status is one processing poll result.
type Status struct {
	State  State
	Detail string
}

// Published is the remote identity of a finished post.
type Published struct {
	ID   string
	Link string
}

// Publisher is one platform's remote publish capability.
type Publisher interface {
	Platform() Platform
	// Create initializes a remote upload target.
	Create(ctx context.Context, content Content) (Session, error)
	// Upload transfers the artifact bytes. Platforms that assign the remote
	// id on upload return the updated session.
	Upload(ctx context.Context, session Session, content Content) (Session, error)
	// PollStatus reports remote processing progress.
	PollStatus(ctx context.Context, session Session) (Status, error)
	// Publish finalizes visibility.
	Publish(ctx context.Context, session Session, content Content) (Published, error)
}

// Event is emitted after a confirmed publish.
type Event struct {
	Title    string
	Account  string
	Platform Platform
	Link     string
}

// Notifier receives publish events. Errors are logged and otherwise ignored.
type Notifier interface {
	NotifyPublished(ctx context.Context, event Event) error
}

// RateGate is the rate limiter surface the machine needs.
type RateGate interface {
	Hold(ctx context.Context, platform Platform, account string) (func(), error)
	CanPublish(platform Platform, account string) (bool, error)
	RecordPublish(platform Platform, account string) (int, error)
	Cap() int
}
