// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/texelmenu/root.go
// Summary: Root cobra command and shared flags.

package main

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/framegrace/texelmenu/internal/logging"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	verbose bool
	logFile string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:   "texelmenu",
		Short: "texelmenu – terminal menus for config files",
		Long: "texelmenu shows a keyboard driven menu over a key/value config file, " +
			"previews changes live and saves them without disturbing the rest of the file.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&flags.logFile, "log-file", "", `log file ("-" for stderr, default in $XDG_STATE_HOME/texelmenu)`)

	root.AddCommand(
		newRunCmd(flags),
		newCheckCmd(),
		newConfigCmd(),
		newExampleCmd(),
		newVersionCmd(),
	)
	return root
}

// openLog builds the session logger and returns it with its cleanup.
// Failing to open the log file is not fatal; logging is discarded instead.
func (f *rootFlags) openLog(stderr io.Writer) (*log.Logger, func()) {
	logger, closer, err := logging.New(logging.Options{Path: f.logFile, Verbose: f.verbose})
	if err != nil {
		log.New(stderr).Warn("logging disabled", "err", err)
		quiet := log.New(io.Discard)
		log.SetDefault(quiet)
		return quiet, func() {}
	}
	return logger, func() { _ = closer.Close() }
}
