// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/texelmenu/config.go
// Summary: The config command locates, prints and rewrites the system config.
// Notes: Loading the store writes the defaults when the file is missing.

package main

import (
	"errors"
	"fmt"

	"github.com/framegrace/texelmenu/config"
	"github.com/spf13/cobra"
)

type configFlags struct {
	show  bool
	write bool
	reset bool
	state string
}

func newConfigCmd() *cobra.Command {
	var f configFlags
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the system config location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.write && f.reset {
				return errors.New("--write and --reset are exclusive")
			}
			if f.state != "" {
				path, err := config.AppPath(f.state)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
				return err
			}
			path, err := config.SystemPath()
			if err != nil {
				return err
			}
			sys := config.System()
			switch {
			case f.reset:
				// A file that fails to parse can still be reset.
				config.SetSystem(config.Defaults())
				sys = config.System()
				if err := config.SaveSystem(); err != nil {
					return err
				}
			case config.Err() != nil:
				return fmt.Errorf("load %s: %w", path, config.Err())
			case f.write:
				if err := config.SaveSystem(); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if !f.show {
				_, err := fmt.Fprintln(out, path)
				return err
			}
			data, err := config.Marshal(sys)
			if err != nil {
				return err
			}
			_, err = out.Write(data)
			return err
		},
	}
	cmd.Flags().BoolVar(&f.show, "show", false, "print the effective settings instead of the path")
	cmd.Flags().BoolVar(&f.write, "write", false, "write the effective settings, adding missing defaults")
	cmd.Flags().BoolVar(&f.reset, "reset", false, "replace the file with the defaults")
	cmd.Flags().StringVar(&f.state, "state", "", "print the state file of the named menu")
	return cmd
}
