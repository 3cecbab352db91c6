package media

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"clipcaster/internal/services"
)

// StreamFormat is the yt-dlp format selector for a single progressive file.
const StreamFormat = "best[ext=mp4]/best"

// Stream is a resolved remote media stream.
type Stream struct {
	Title    string
	URL      string
	Duration float64
}

// Extractor resolves page URLs to direct stream URLs with yt-dlp.
type Extractor struct {
	Binary      string
	CookiesFile string
	Runner      Runner
}

// NewExtractor returns an extractor for binary.
func NewExtractor(binary, cookiesFile string) *Extractor {
	if binary == "" {
		binary = "yt-dlp"
	}
	return &Extractor{Binary: binary, CookiesFile: cookiesFile}
}

// Args builds the yt-dlp invocation for url.
func (e *Extractor) Args(url, proxy string) []string {
	args := []string{"-f", StreamFormat, "--dump-single-json", "--no-warnings", "--no-playlist"}
	if proxy = strings.TrimSpace(proxy); proxy != "" {
		args = append(args, "--proxy", proxy)
	}
	if e.CookiesFile != "" {
		if _, err := os.Stat(e.CookiesFile); err == nil {
			args = append(args, "--cookies", e.CookiesFile)
		}
	}
	return append(args, url)
}

// Resolve asks yt-dlp for the stream URL and title of url.
func (e *Extractor) Resolve(ctx context.Context, url, proxy string) (Stream, error) {
	out, err := runOrDefault(e.Runner)(ctx, e.Binary, e.Args(url, proxy)...)
	if err != nil {
		return Stream{}, wrapToolErr("yt-dlp", "resolve", err)
	}
	var info struct {
		Title    string  `json:"title"`
		URL      string  `json:"url"`
		Duration float64 `json:"duration"`
	}
	if err := json.Unmarshal(out, &info); err != nil {
		return Stream{}, services.Wrap(services.ErrExternalTool, "yt-dlp", "resolve", "parse json", err)
	}
	if info.URL == "" {
		return Stream{}, services.Wrap(services.ErrExternalTool, "yt-dlp", "resolve", "no stream url for "+url, nil)
	}
	if info.Title == "" {
		info.Title = "video"
	}
	return Stream{Title: info.Title, URL: info.URL, Duration: info.Duration}, nil
}
