// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/preview/capture.go
// Summary: Runs a short command in a pseudo terminal and captures its output.
// Notes: Commands see a terminal on stdout, so tools that only print colour
//   or progress to a tty behave as they would for the user. Escape
//   sequences are stripped from the result.

package preview

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"syscall"

	"github.com/creack/pty"
)

// Output is the result of Capture.
type Output struct {
	Text     string
	ExitCode int
}

// FirstLine returns the first non-blank output line.
func (o Output) FirstLine() string {
	for _, line := range strings.Split(o.Text, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			return s
		}
	}
	return ""
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]|\x1b\][^\a]*\a`)

// Capture runs commandLine with /bin/sh -c in a pty sized 80x24 and returns
// everything it printed. A non-zero exit is reported in Output.ExitCode and
// as an *exec.ExitError.
func Capture(ctx context.Context, commandLine string, env ...string) (Output, error) {
	if commandLine == "" {
		return Output{}, ErrEmptyCommand
	}
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", commandLine)
	cmd.Env = append(os.Environ(), env...)
	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: 24, Cols: 80})
	if err != nil {
		return Output{}, fmt.Errorf("preview: start in pty: %w", err)
	}
	defer ptmx.Close()

	var buf bytes.Buffer
	_, copyErr := io.Copy(&buf, ptmx)
	waitErr := cmd.Wait()

	// Linux reports EIO on the master once the slave side is closed.
	if copyErr != nil && !errors.Is(copyErr, syscall.EIO) && !errors.Is(copyErr, os.ErrClosed) {
		return Output{}, fmt.Errorf("preview: read pty: %w", copyErr)
	}
	out := Output{Text: clean(buf.String())}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			out.ExitCode = exitErr.ExitCode()
		}
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		return out, waitErr
	}
	return out, nil
}

func clean(s string) string {
	s = ansiPattern.ReplaceAllString(s, "")
	return strings.ReplaceAll(s, "\r\n", "\n")
}
