// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/texelmenu/example.go
// Summary: The example command prints or installs a bundled menu definition.

package main

import (
	"fmt"
	"strings"

	"github.com/framegrace/texelmenu/defaults"
	"github.com/framegrace/texelmenu/internal/atomicfile"
	"github.com/spf13/cobra"
)

func newExampleCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "example [name]",
		Short: "List bundled example menus or print one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				_, err := fmt.Fprintln(out, strings.Join(defaults.Examples(), "\n"))
				return err
			}
			data, err := defaults.Example(args[0])
			if err != nil {
				return err
			}
			if output == "" {
				_, err = out.Write(data)
				return err
			}
			if err := atomicfile.Write(output, data, atomicfile.WithMode(0o644)); err != nil {
				return err
			}
			_, err = fmt.Fprintf(out, "wrote %s\n", output)
			return err
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the definition to a file")
	return cmd
}
