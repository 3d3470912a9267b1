// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/texelmenu/main.go
// Summary: Entry point of the texelmenu command.
// Usage: texelmenu run ~/.config/texelmenu/menus/waybar.yaml

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/framegrace/texelmenu/menu"
)

func main() {
	os.Exit(execute(context.Background(), os.Args[1:]))
}

// execute runs the command line and maps the result to an exit status.
// A session ended by a signal exits with 128 + the signal number.
func execute(ctx context.Context, args []string) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var sigErr *menu.SignalError
	if errors.As(err, &sigErr) {
		return sigErr.ExitCode()
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	return 1
}
