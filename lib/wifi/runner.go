package wifi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/wavecrack/wavecrackd/coordstate"
)

const (
	shortToolTimeout = 10 * time.Second
	scanToolTimeout  = 30 * time.Second
)

// runTool executes an external binary with an argument vector and a bounded
// timeout. Arguments are never passed through a shell, so caller-supplied
// values (SSIDs, BSSIDs) cannot be interpreted as shell syntax.
func runTool(ctx context.Context, timeout time.Duration, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	coordstate.Logger.Debug("Running tool", "command", cmd.String())

	err := cmd.Run()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return stdout.String(), fmt.Errorf("%w: %s after %s", ErrToolTimeout, name, timeout)
		}

		coordstate.Logger.Debug("Tool failed", "tool", name, "error", err, "stderr", stderr.String())

		return stdout.String(), fmt.Errorf("%w: %s: %w", ErrToolFailed, name, err)
	}

	return stdout.String(), nil
}
