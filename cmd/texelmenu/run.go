// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/texelmenu/run.go
// Summary: The run command: one interactive menu session over a definition.
// Notes: Navigation state is saved on every exit path, including signals.

package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/framegrace/texelmenu/apps/settings"
	"github.com/framegrace/texelmenu/config"
	"github.com/framegrace/texelmenu/internal/favorites"
	"github.com/framegrace/texelmenu/internal/highlight"
	"github.com/framegrace/texelmenu/internal/logging"
	"github.com/framegrace/texelmenu/internal/preview"
	"github.com/framegrace/texelmenu/internal/watch"
	"github.com/framegrace/texelmenu/menu"
	"github.com/framegrace/texelmenu/menu/frame"
	"github.com/spf13/cobra"
)

// errStderrLog rejects logging to the terminal the menu draws on.
var errStderrLog = errors.New(`--log-file "-" cannot be used with run: the menu owns the terminal`)

func newRunCmd(flags *rootFlags) *cobra.Command {
	var fresh bool
	cmd := &cobra.Command{
		Use:   "run <menu.yaml>",
		Short: "Open a menu definition in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.logFile == logging.Stderr {
				return errStderrLog
			}
			logger, closeLog := flags.openLog(cmd.ErrOrStderr())
			defer closeLog()
			return runMenu(cmd.Context(), logger, args[0], fresh)
		},
	}
	cmd.Flags().BoolVar(&fresh, "fresh", false, "ignore the saved tab and selection")
	return cmd
}

func runMenu(parent context.Context, logger *log.Logger, path string, fresh bool) error {
	def, err := settings.Load(path)
	if err != nil {
		return err
	}
	sys := config.System()
	if err := config.Err(); err != nil {
		logger.Warn("using default settings", "err", err)
	}
	opts, err := engineOptions(sys)
	if err != nil {
		return err
	}
	opts.Logger = logger
	if !fresh {
		st := config.LoadState(def.Name)
		opts.Initial = &menu.Snapshot{Tab: st.Tab, Rows: st.Rows}
	}

	store := openFavorites(logger)
	if store != nil {
		defer store.Close()
	}
	runner := preview.NewRunner(logger)
	runner.SetGrace(sys.GetDuration("preview", "grace_ms", preview.DefaultGrace))
	defer runner.Stop()

	m, err := settings.New(def, settings.Options{
		Logger:    logger,
		Runner:    runner,
		Favorites: store,
		Style:     sys.GetString("viewer", "style", highlight.DefaultStyle),
	})
	if err != nil {
		return err
	}
	eng := menu.New(m, opts)

	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	if def.Watching() {
		stop := followTarget(ctx, logger, m, eng, sys.GetDuration("watch", "settle_ms", watch.DefaultSettle))
		defer stop()
	}

	logger.Info("menu started", "menu", def.Name, "file", m.Path())
	runErr := eng.Run(ctx)
	snap := eng.Snapshot()
	if err := config.SaveState(def.Name, config.MenuState{Tab: snap.Tab, Rows: snap.Rows}); err != nil {
		logger.Warn("failed to save menu state", "menu", def.Name, "err", err)
	}
	logger.Info("menu stopped", "menu", def.Name, "err", runErr)
	return runErr
}

// engineOptions maps the system config onto engine options.
func engineOptions(sys config.Config) (menu.Options, error) {
	opts := menu.DefaultOptions()
	opts.Debounce = sys.GetDuration("engine", "debounce_ms", opts.Debounce)
	opts.Poll = sys.GetDuration("engine", "poll_ms", opts.Poll)
	opts.EscapeTimeout = sys.GetDuration("engine", "escape_timeout_ms", opts.EscapeTimeout)
	opts.MinWidth = sys.GetInt("engine", "min_width", opts.MinWidth)
	opts.MinHeight = sys.GetInt("engine", "min_height", opts.MinHeight)
	opts.Mouse = sys.GetBool("engine", "mouse", opts.Mouse)
	opts.BoxWidth = sys.GetInt("layout", "box_width", opts.BoxWidth)
	opts.LabelWidth = sys.GetInt("layout", "label_width", opts.LabelWidth)
	opts.Ellipsis = sys.GetString("layout", "ellipsis", opts.Ellipsis)
	theme, err := frame.ThemeFromMap(sys.GetStrings("theme"))
	if err != nil {
		return opts, fmt.Errorf("invalid theme: %w", err)
	}
	opts.Theme = theme
	return opts, nil
}

// openFavorites opens the shared favorites database. Favorites are
// optional; a failure is logged and the menu runs without them.
func openFavorites(logger *log.Logger) *favorites.Store {
	dir, err := config.StateDir()
	if err != nil {
		logger.Warn("favorites disabled", "err", err)
		return nil
	}
	store, err := favorites.Open(filepath.Join(dir, "favorites.db"))
	if err != nil {
		logger.Warn("favorites disabled", "err", err)
		return nil
	}
	return store
}

// followTarget reloads the menu when its file changes on disk. The returned
// function stops watching and waits for the watcher goroutine.
func followTarget(ctx context.Context, logger *log.Logger, m *settings.Menu, eng *menu.Engine, settle time.Duration) func() {
	w, err := watch.New(settle, logger)
	if err != nil {
		logger.Warn("file watching disabled", "err", err)
		return func() {}
	}
	if err := w.Add(m.Path()); err != nil {
		logger.Warn("file watching disabled", "file", m.Path(), "err", err)
		_ = w.Close()
		return func() {}
	}
	m.OnWrite(w.Ignore)
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx, func(string) {
			if err := m.Reload(); err != nil {
				logger.Warn("failed to reload target", "err", err)
				return
			}
			eng.RequestRedraw()
		})
	}()
	return func() {
		_ = w.Close()
		<-done
	}
}
