package notifications

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"clipcaster/internal/config"
	"clipcaster/internal/publish"
)

const userAgent = "clipcaster/0.1"

// Service defines the notification surface used by the scheduler and the
// publish machine.
type Service interface {
	NotifyPublished(ctx context.Context, event publish.Event) error
	NotifyJobCompleted(ctx context.Context, title, account string) error
	NotifyJobFailed(ctx context.Context, title, account string, attempts int, err error) error
	NotifyDailySummary(ctx context.Context, date string, slots, items int) error
	TestNotification(ctx context.Context) error
}

// Options configures a Service directly.
type Options struct {
	TelegramToken   string
	TelegramChatID  string
	TelegramBaseURL string
	NtfyEndpoint    string
	Timeout         time.Duration
	JobEvents       bool
	// Every is the minimum spacing between sends; zero uses DefaultEvery.
	Every time.Duration
	HTTP  *http.Client
}

// DefaultEvery spaces sends to stay under Telegram's one message per second
// per chat guideline.
const DefaultEvery = time.Second

// NewService builds a notification service from configuration.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	n := cfg.Notifications
	return New(Options{
		TelegramToken:  n.TelegramToken,
		TelegramChatID: n.TelegramChatID,
		NtfyEndpoint:   n.NtfyTopic,
		Timeout:        time.Duration(n.RequestTimeout) * time.Second,
		JobEvents:      n.JobEvents,
	})
}

// New builds a service from explicit options. It returns a no-op service
// when no transport is configured.
func New(opts Options) Service {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 24 * time.Second
	}
	client := opts.HTTP
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	var transports []transport
	if token, chat := strings.TrimSpace(opts.TelegramToken), strings.TrimSpace(opts.TelegramChatID); token != "" && chat != "" {
		transports = append(transports, &telegramTransport{
			baseURL: strings.TrimRight(defaultString(opts.TelegramBaseURL, telegramAPI), "/"),
			token:   token,
			chatID:  chat,
			client:  client,
		})
	}
	if endpoint := strings.TrimSpace(opts.NtfyEndpoint); endpoint != "" {
		transports = append(transports, &ntfyTransport{endpoint: endpoint, client: client})
	}
	if len(transports) == 0 {
		return noopService{}
	}

	every := opts.Every
	if every <= 0 {
		every = DefaultEvery
	}
	return &fanoutService{
		transports: transports,
		limiter:    rate.NewLimiter(rate.Every(every), 1),
		jobEvents:  opts.JobEvents,
	}
}

// Enabled reports whether svc delivers anywhere.
func Enabled(svc Service) bool {
	_, noop := svc.(noopService)
	return svc != nil && !noop
}

// message is one event rendered for every transport.
type message struct {
	title    string
	lines    []field
	tags     []string
	priority string
}

type field struct {
	label string
	value string
}

func (m message) plain() string {
	var b strings.Builder
	for i, f := range m.lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(f.label)
		b.WriteString(": ")
		b.WriteString(f.value)
	}
	return b.String()
}

func (m message) html() string {
	var b strings.Builder
	for i, f := range m.lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "<b>%s:</b> %s", html.EscapeString(f.label), html.EscapeString(f.value))
	}
	return b.String()
}

type transport interface {
	name() string
	send(ctx context.Context, msg message) error
}

type fanoutService struct {
	transports []transport
	limiter    *rate.Limiter
	jobEvents  bool
}

func (s *fanoutService) NotifyPublished(ctx context.Context, event publish.Event) error {
	lines := []field{
		{"Title", event.Title},
		{"Account", event.Account},
		{"Platform", publish.DisplayName(event.Platform)},
	}
	if event.Link != "" {
		lines = append(lines, field{"Link", event.Link})
	}
	return s.send(ctx, message{
		title: "clipcaster - Published",
		lines: lines,
		tags:  []string{"clipcaster", string(event.Platform), "published"},
	})
}

func (s *fanoutService) NotifyJobCompleted(ctx context.Context, title, account string) error {
	if !s.jobEvents {
		return nil
	}
	return s.send(ctx, message{
		title: "clipcaster - Job Complete",
		lines: []field{{"Title", title}, {"Account", account}, {"Platform", "Video Processing"}},
		tags:  []string{"clipcaster", "job", "completed"},
	})
}

func (s *fanoutService) NotifyJobFailed(ctx context.Context, title, account string, attempts int, err error) error {
	if !s.jobEvents {
		return nil
	}
	reason := "unknown"
	if err != nil {
		reason = strings.TrimSpace(err.Error())
	}
	return s.send(ctx, message{
		title: "clipcaster - Job Failed",
		lines: []field{
			{"Title", title},
			{"Account", account},
			{"Attempts", fmt.Sprintf("%d", attempts)},
			{"Error", reason},
		},
		tags:     []string{"clipcaster", "job", "error"},
		priority: "high",
	})
}

func (s *fanoutService) NotifyDailySummary(ctx context.Context, date string, slots, items int) error {
	return s.send(ctx, message{
		title: "clipcaster - Daily Summary",
		lines: []field{
			{"Date", date},
			{"Pending slots", fmt.Sprintf("%d", slots)},
			{"Pending jobs", fmt.Sprintf("%d", items)},
		},
		tags:     []string{"clipcaster", "summary"},
		priority: "low",
	})
}

func (s *fanoutService) TestNotification(ctx context.Context) error {
	return s.send(ctx, message{
		title:    "clipcaster - Test",
		lines:    []field{{"Status", "Notification system test"}},
		tags:     []string{"clipcaster", "test"},
		priority: "low",
	})
}

func (s *fanoutService) send(ctx context.Context, msg message) error {
	var errs []error
	for _, t := range s.transports {
		if err := s.limiter.Wait(ctx); err != nil {
			return errors.Join(append(errs, fmt.Errorf("%s: %w", t.name(), err))...)
		}
		if err := t.send(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", t.name(), err))
		}
	}
	return errors.Join(errs...)
}

type noopService struct{}

func (noopService) NotifyPublished(context.Context, publish.Event) error              { return nil }
func (noopService) NotifyJobCompleted(context.Context, string, string) error          { return nil }
func (noopService) NotifyJobFailed(context.Context, string, string, int, error) error { return nil }
func (noopService) NotifyDailySummary(context.Context, string, int, int) error        { return nil }
func (noopService) TestNotification(context.Context) error                            { return nil }

func defaultString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
