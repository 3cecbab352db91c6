package schedule

import (
	"errors"
	"testing"
	"time"

	"clipcaster/internal/services"
)

func TestResolveAppliesDefaults(t *testing.T) {
	rec := JobRecord{
		Local: ptr("/videos/a.mp4"),
		Start: ptr("00:00:05"),
		End:   ptr("00:00:15"),
	}
	job, err := rec.Resolve(Defaults{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if job.Position != PositionCenter || job.Model != "small" || job.Account != "random" {
		t.Fatalf("unexpected defaults: %+v", job)
	}
	if !job.Subtitles || !job.Crop || job.DryRun || job.Stacked {
		t.Fatalf("unexpected flag defaults: %+v", job)
	}
	if job.Source.Remote() || job.Source.Location() != "/videos/a.mp4" {
		t.Fatalf("unexpected source: %+v", job.Source)
	}
	if job.Duration() != 10*time.Second {
		t.Fatalf("duration = %s", job.Duration())
	}
}

func TestResolveUsesConfiguredDefaults(t *testing.T) {
	rec := JobRecord{URL: ptr("https://example.com/v"), Start: ptr("5"), End: ptr("1:00")}
	job, err := rec.Resolve(Defaults{Account: "acctX", Model: "medium"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if job.Account != "acctX" || job.Model != "medium" {
		t.Fatalf("configured defaults ignored: %+v", job)
	}
	if !job.Source.Remote() {
		t.Fatal("expected remote source")
	}
}

func TestResolveRejectsInvalidRecords(t *testing.T) {
	tests := []struct {
		name string
		rec  JobRecord
	}{
		{"no source", JobRecord{Start: ptr("0"), End: ptr("5")}},
		{"both sources", JobRecord{URL: ptr("u"), Local: ptr("l"), Start: ptr("0"), End: ptr("5")}},
		{"missing start", JobRecord{Local: ptr("l"), End: ptr("5")}},
		{"missing end", JobRecord{Local: ptr("l"), Start: ptr("0")}},
		{"end before start", JobRecord{Local: ptr("l"), Start: ptr("00:00:10"), End: ptr("00:00:05")}},
		{"zero length", JobRecord{URL: ptr("u"), Start: ptr("00:00:00"), End: ptr("00:00:00")}},
		{"bad offset", JobRecord{Local: ptr("l"), Start: ptr("abc"), End: ptr("5")}},
		{"bad position", JobRecord{Local: ptr("l"), Start: ptr("0"), End: ptr("5"), Position: ptr("x")}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.rec.Resolve(Defaults{})
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if services.Retryable(err) {
				t.Fatal("validation errors must not be retryable")
			}
		})
	}
}

func TestParseOffset(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"15", 15 * time.Second, true},
		{"1:05", 65 * time.Second, true},
		{"01:02:03", time.Hour + 2*time.Minute + 3*time.Second, true},
		{"00:00:05.5", 5500 * time.Millisecond, true},
		{"00:61", 0, false},
		{"1:2:3:4", 0, false},
		{"-5", 0, false},
		{"", 0, false},
	}
	for _, tc := range tests {
		got, err := ParseOffset(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("ParseOffset(%q): %v", tc.in, err)
		}
		if !tc.ok {
			if err == nil {
				t.Fatalf("ParseOffset(%q) expected error", tc.in)
			}
			continue
		}
		if got != tc.want {
			t.Fatalf("ParseOffset(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestFormatOffset(t *testing.T) {
	if got := FormatOffset(time.Hour + 2*time.Minute + 3500*time.Millisecond); got != "01:02:03.500" {
		t.Fatalf("FormatOffset = %q", got)
	}
	if got := FormatOffset(-time.Second); got != "00:00:00.000" {
		t.Fatalf("negative offset = %q", got)
	}
}
