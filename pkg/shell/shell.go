// Package shell runs external commands through the system shell.
package shell

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/cperrin88/zipline/internal/logger"
	zlerrors "github.com/cperrin88/zipline/pkg/errors"
)

// Shell is the interpreter commands are passed to with -c.
var Shell = "/bin/sh"

// Run executes command and returns its stdout. A non-zero exit or any output on
// stderr is reported as ErrCommandFailed.
func Run(ctx context.Context, command string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, Shell, "-c", command)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debug("Running command", logger.Fields{"command": command})
	err := cmd.Run()

	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		if err != nil {
			return stdout.String(), fmt.Errorf("%w: %s: %w", zlerrors.ErrCommandFailed, msg, err)
		}
		return stdout.String(), fmt.Errorf("%w: %s", zlerrors.ErrCommandFailed, msg)
	}
	if err != nil {
		return stdout.String(), zlerrors.Tag(zlerrors.ErrCommandFailed, err, command)
	}
	return stdout.String(), nil
}
