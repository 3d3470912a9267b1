// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/texelmenu/check.go
// Summary: The check command validates menu definitions without a terminal.

package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/framegrace/texelmenu/apps/settings"
	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <menu.yaml>...",
		Short: "Validate menu definitions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range args {
				def, err := settings.Load(path)
				if err != nil {
					fmt.Fprintf(out, "✗ %v\n", err)
					failed++
					continue
				}
				if err := describe(out, path, def); err != nil {
					return err
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d definitions invalid", failed, len(args))
			}
			return nil
		},
	}
}

func describe(w io.Writer, path string, def *settings.Definition) error {
	target, err := def.TargetPath()
	if err != nil {
		return err
	}
	title := def.Title
	if title == "" {
		title = def.Name
	}
	var errs []error
	write := func(format string, args ...any) {
		_, err := fmt.Fprintf(w, format, args...)
		errs = append(errs, err)
	}
	write("✓ %s: %s\n", path, title)
	write("  file: %s\n", target)
	for _, tab := range def.Tabs {
		write("  %s: %d items\n", tab.Name, countItems(tab.Items))
	}
	return errors.Join(errs...)
}

func countItems(items []settings.ItemDef) int {
	n := len(items)
	for _, it := range items {
		n += len(it.Items)
	}
	return n
}
