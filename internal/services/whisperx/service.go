package whisperx

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/kballard/go-shellquote"

	"clipcaster/internal/services"
)

// Service provides WhisperX transcription.
type Service struct {
	cfg           Config
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates a WhisperX service with the given configuration.
func NewService(cfg Config) *Service {
	if cfg.Command == "" {
		cfg.Command = DefaultCommand
	}
	if cfg.Device == "" {
		cfg.Device = DefaultDevice
	}
	if cfg.ComputeType == "" {
		cfg.ComputeType = DefaultComputeType
	}
	return &Service{cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// Command returns the configured executable for dependency checks.
func (s *Service) Command() string {
	name, _, err := s.commandLine()
	if err != nil {
		return s.cfg.Command
	}
	return name
}

func (s *Service) commandLine() (string, []string, error) {
	parts, err := shellquote.Split(s.cfg.Command)
	if err != nil {
		return "", nil, err
	}
	if len(parts) == 0 {
		return DefaultCommand, nil, nil
	}
	return parts[0], parts[1:], nil
}

func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec

	// Torch 2.6 changed torch.load default to weights_only=true, breaking WhisperX/pyannote.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Transcribe runs WhisperX on audio with the given model size and returns
// the segments from its JSON output. Failures are transient so the whole
// job can be retried.
func (s *Service) Transcribe(ctx context.Context, audio, model, outputDir string) ([]Segment, error) {
	if audio == "" {
		return nil, services.Wrap(services.ErrValidation, "whisperx", "transcribe", "audio path required", nil)
	}
	if outputDir == "" {
		outputDir = filepath.Dir(audio)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("transcribe: ensure output dir: %w", err)
	}

	name, prefix, err := s.commandLine()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "whisperx", "transcribe", "parse command "+s.cfg.Command, err)
	}
	args := append(prefix, s.buildArgs(audio, model, outputDir)...)
	if err := s.run(ctx, name, args...); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, services.Wrap(services.ErrTransient, "whisperx", "transcribe", "", err)
	}

	jsonPath := OutputPath(audio, outputDir)
	defer func() { _ = os.Remove(jsonPath) }()
	segments, err := LoadSegments(jsonPath)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "whisperx", "transcribe", "load output", err)
	}
	return segments, nil
}

// OutputPath is where WhisperX writes the JSON for audio.
func OutputPath(audio, outputDir string) string {
	base := strings.TrimSuffix(filepath.Base(audio), filepath.Ext(audio))
	return filepath.Join(outputDir, base+".json")
}

func (s *Service) buildArgs(audio, model, outputDir string) []string {
	if model = strings.TrimSpace(model); model == "" {
		model = DefaultModel
	}
	args := []string{
		audio,
		"--model", model,
		"--output_dir", outputDir,
		"--output_format", OutputFormat,
		"--beam_size", BeamSize,
		"--device", s.cfg.Device,
		"--compute_type", s.cfg.ComputeType,
	}
	if s.cfg.Language != "" {
		args = append(args, "--language", s.cfg.Language)
	}
	return args
}

// Word represents a single word with timing from WhisperX output.
type Word struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Segment represents a transcribed segment from WhisperX JSON output.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Words []Word  `json:"words"`
}

// LoadSegments loads segments from a WhisperX JSON file. Words WhisperX
// could not align carry no timestamps and are dropped.
func LoadSegments(jsonPath string) ([]Segment, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, err
	}
	var raw struct {
		Segments []struct {
			Text  string  `json:"text"`
			Start float64 `json:"start"`
			End   float64 `json:"end"`
			Words []struct {
				Word  string   `json:"word"`
				Start *float64 `json:"start"`
				End   *float64 `json:"end"`
			} `json:"words"`
		} `json:"segments"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse whisperx json: %w", err)
	}
	segments := make([]Segment, 0, len(raw.Segments))
	for _, seg := range raw.Segments {
		out := Segment{Text: strings.TrimSpace(seg.Text), Start: seg.Start, End: seg.End}
		for _, w := range seg.Words {
			if w.Start == nil || w.End == nil {
				continue
			}
			out.Words = append(out.Words, Word{Word: w.Word, Start: *w.Start, End: *w.End})
		}
		segments = append(segments, out)
	}
	return segments, nil
}
