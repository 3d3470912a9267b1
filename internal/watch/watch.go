// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/watch/watch.go
// Summary: Notifies a callback when a watched file changes on disk.
// Notes: The parent directory is watched so editors that replace the file
//   by rename keep being seen. A symlinked file is also watched at its
//   resolved location. Bursts of events are coalesced.

package watch

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultSettle is the quiet time after the last event before notifying.
const DefaultSettle = 120 * time.Millisecond

// Watcher watches a set of files.
type Watcher struct {
	w      *fsnotify.Watcher
	settle time.Duration
	log    *log.Logger

	mu      sync.Mutex
	files   map[string]string // event path -> path reported to the callback
	ignored map[string]time.Time
	done    chan struct{}
}

// New creates a watcher. settle <= 0 selects DefaultSettle.
func New(settle time.Duration, logger *log.Logger) (*Watcher, error) {
	if settle <= 0 {
		settle = DefaultSettle
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	return &Watcher{
		w:       w,
		settle:  settle,
		log:     logger.WithPrefix("watch"),
		files:   make(map[string]string),
		ignored: make(map[string]time.Time),
		done:    make(chan struct{}),
	}, nil
}

// Add starts watching path. Changes are reported under path made
// absolute, whether they hit the link or the file it points to.
func (w *Watcher) Add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	targets := []string{abs}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil && resolved != abs {
		targets = append(targets, resolved)
	}
	for _, t := range targets {
		if err := w.w.Add(filepath.Dir(t)); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
	}
	w.mu.Lock()
	for _, t := range targets {
		w.files[t] = abs
	}
	w.mu.Unlock()
	return nil
}

// Ignore suppresses notifications for path until the next settle window
// passes. Callers use it around their own writes.
func (w *Watcher) Ignore(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}
	w.mu.Lock()
	if reported, ok := w.files[abs]; ok {
		abs = reported
	}
	w.ignored[abs] = time.Now().Add(2 * w.settle)
	w.mu.Unlock()
}

// Run delivers changes to onChange until ctx is done or Close is called.
// onChange receives the changed path and runs on Run's goroutine.
func (w *Watcher) Run(ctx context.Context, onChange func(path string)) {
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	pending := make(map[string]bool)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case ev, ok := <-w.w.Events:
			if !ok {
				return
			}
			path, ok := w.relevant(ev)
			if !ok {
				continue
			}
			pending[path] = true
			timer.Reset(w.settle)
		case err, ok := <-w.w.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", "err", err)
		case <-timer.C:
			for path := range pending {
				delete(pending, path)
				if w.suppressed(path) {
					continue
				}
				w.log.Debug("changed", "path", path)
				onChange(path)
			}
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) (string, bool) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return "", false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	path, ok := w.files[filepath.Clean(ev.Name)]
	return path, ok
}

func (w *Watcher) suppressed(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	until, ok := w.ignored[path]
	if !ok {
		return false
	}
	if time.Now().After(until) {
		delete(w.ignored, path)
		return false
	}
	return true
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	select {
	case <-w.done:
	default:
		close(w.done)
	}
	return w.w.Close()
}
