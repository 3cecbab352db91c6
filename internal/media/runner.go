package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"clipcaster/internal/services"
)

// Runner executes an external command and returns its stdout.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

const stderrTail = 2048

// ExecRunner runs commands with os/exec, folding stderr into errors.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > stderrTail {
			msg = "..." + msg[len(msg)-stderrTail:]
		}
		return nil, services.Wrap(services.ErrExternalTool, name, "run", msg, err)
	}
	return stdout.Bytes(), nil
}

func runOrDefault(r Runner) Runner {
	if r == nil {
		return ExecRunner
	}
	return r
}

func wrapToolErr(tool, op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s %s: %w", tool, op, err)
}
