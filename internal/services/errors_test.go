package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"clipcaster/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "encoder", "render", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"encoder", "render", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

type verdictErr struct {
	err   error
	retry bool
}

func (v verdictErr) Error() string   { return v.err.Error() }
func (v verdictErr) Unwrap() error   { return v.err }
func (v verdictErr) Retryable() bool { return v.retry }

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "validation", err: services.Wrap(services.ErrValidation, "schedule", "resolve", "missing start", nil), want: false},
		{name: "configuration", err: fmt.Errorf("outer: %w", services.Wrap(services.ErrConfiguration, "accounts", "", "", nil)), want: false},
		{name: "transient", err: services.Wrap(services.ErrTransient, "youtube", "upload", "reset", errors.New("eof")), want: true},
		{name: "plain", err: errors.New("exit status 1"), want: true},
		{name: "retrier overrides marker", err: fmt.Errorf("dispatch: %w", verdictErr{err: services.ErrConfiguration, retry: true}), want: true},
		{name: "retrier declines", err: verdictErr{err: services.ErrTransient, retry: false}, want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.Retryable(tc.err); got != tc.want {
				t.Fatalf("Retryable(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestKind(t *testing.T) {
	if got := services.Kind(services.Wrap(services.ErrRemoteProcessing, "instagram", "poll", "ERROR", nil)); got != "remote_processing" {
		t.Fatalf("unexpected kind %q", got)
	}
	if got := services.Kind(errors.New("x")); got != "transient" {
		t.Fatalf("unexpected kind %q", got)
	}
	if got := services.Kind(nil); got != "" {
		t.Fatalf("expected empty kind for nil, got %q", got)
	}
}
