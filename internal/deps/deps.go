package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/kballard/go-shellquote"

	"clipcaster/internal/config"
)

// Requirement defines an external binary clipcaster shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements lists the media tools the pipeline runs for cfg.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.Encoder.FFmpeg,
			Description: "Required for audio slicing and rendering",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Encoder.FFprobe,
			Description: "Validates local clip ranges before rendering",
			Optional:    true,
		},
		{
			Name:        "yt-dlp",
			Command:     cfg.Encoder.YTDLP,
			Description: "Required for url sources",
		},
		{
			Name:        "WhisperX",
			Command:     cfg.Transcription.Command,
			Description: "Required for jobs with subtitles enabled",
		},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := Executable(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		resolved, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Command = resolved
		status.Available = true
		results = append(results, status)
	}
	return results
}

// Executable returns the program a configured command line starts, so
// "uvx whisperx" is checked as uvx.
func Executable(command string) string {
	parts, err := shellquote.Split(command)
	if err != nil || len(parts) == 0 {
		return strings.TrimSpace(command)
	}
	return parts[0]
}

// Missing returns the required statuses that are unavailable.
func Missing(statuses []Status) []Status {
	var out []Status
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			out = append(out, s)
		}
	}
	return out
}
