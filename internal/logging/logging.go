// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/logging/logging.go
// Summary: Builds the application logger and its log file.
// Notes: While a menu owns the terminal nothing may be printed to it, so
//   interactive runs log to $XDG_STATE_HOME/texelmenu/texelmenu.log.

package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/framegrace/texelmenu/config"
)

// Stderr is the --log-file value that selects standard error.
const Stderr = "-"

// Options selects the destination and verbosity.
type Options struct {
	// Path is the log file. Empty selects the default file; Stderr logs to
	// standard error.
	Path    string
	Verbose bool
}

// DefaultPath returns the log file used when no path is given.
func DefaultPath() (string, error) {
	dir, err := config.StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "texelmenu.log"), nil
}

// New builds a logger per opts and installs it as the charm default. The
// returned closer releases the log file.
func New(opts Options) (*log.Logger, io.Closer, error) {
	var (
		w      io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)
	if opts.Path != Stderr {
		path := opts.Path
		if path == "" {
			p, err := DefaultPath()
			if err != nil {
				return nil, nil, err
			}
			path = p
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w, closer = f, f
	}

	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Level:           log.InfoLevel,
	})
	if opts.Verbose {
		logger.SetLevel(log.DebugLevel)
	}
	log.SetDefault(logger)
	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
