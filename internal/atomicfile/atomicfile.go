// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/atomicfile/atomicfile.go
// Summary: Temp-file-then-copy-in-place writer for configuration targets.
// Usage: Called by the config store and menu collaborators on explicit save.
// Notes: The target inode (and any symlink pointing at it) is never replaced.

package atomicfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

var (
	// ErrEmpty is returned when the staged content is empty.
	ErrEmpty = errors.New("atomicfile: refusing to write empty content")
	// ErrTrivial is returned when the staged content fails the non-trivial check.
	ErrTrivial = errors.New("atomicfile: content rejected by check")
)

// Option customizes a single write.
type Option func(*options)

type options struct {
	mode       os.FileMode
	allowEmpty bool
	check      func([]byte) error
}

// WithMode sets the permission bits used when the target does not exist yet.
func WithMode(mode os.FileMode) Option {
	return func(o *options) { o.mode = mode }
}

// AllowEmpty disables the non-empty verification.
func AllowEmpty() Option {
	return func(o *options) { o.allowEmpty = true }
}

// WithCheck installs an additional verification run against the staged bytes
// before the target is touched. A non-nil error aborts the write.
func WithCheck(check func([]byte) error) Option {
	return func(o *options) { o.check = check }
}

// Writer performs staged writes and remembers temp files that are still in
// flight so a signal handler can remove them.
type Writer struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewWriter returns an empty writer.
func NewWriter() *Writer {
	return &Writer{inFlight: make(map[string]struct{})}
}

var defaultWriter = NewWriter()

// Write stages content next to target and copies it over target with the
// package-level writer.
func Write(target string, content []byte, opts ...Option) error {
	return defaultWriter.Write(target, content, opts...)
}

// CleanupInFlight removes temp files of writes still in progress on the
// package-level writer.
func CleanupInFlight() int {
	return defaultWriter.CleanupInFlight()
}

// Write stages content in a temp file in target's directory, verifies it and
// copies the bytes onto target. On any failure target is left as it was and
// the temp file is removed.
func (w *Writer) Write(target string, content []byte, opts ...Option) error {
	o := options{mode: 0o644}
	for _, opt := range opts {
		opt(&o)
	}
	if target == "" {
		return fmt.Errorf("atomicfile: empty target path")
	}

	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("atomicfile: create dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".tmp-*")
	if err != nil {
		return fmt.Errorf("atomicfile: create temp: %w", err)
	}
	tmpPath := tmp.Name()
	w.track(tmpPath)
	defer func() {
		os.Remove(tmpPath)
		w.untrack(tmpPath)
	}()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("atomicfile: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("atomicfile: sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("atomicfile: close temp: %w", err)
	}

	staged, err := os.ReadFile(tmpPath)
	if err != nil {
		return fmt.Errorf("atomicfile: reread temp: %w", err)
	}
	if len(staged) == 0 && !o.allowEmpty {
		return ErrEmpty
	}
	if !bytes.Equal(staged, content) {
		return fmt.Errorf("atomicfile: staged content mismatch (%d of %d bytes)", len(staged), len(content))
	}
	if o.check != nil {
		if err := o.check(staged); err != nil {
			return fmt.Errorf("%w: %v", ErrTrivial, err)
		}
	}

	return copyInPlace(tmpPath, target, o.mode)
}

// copyInPlace overwrites target's bytes with src's. Opening target follows
// symlinks, so a linked target keeps its link and the destination keeps its
// inode. If the copy fails half-way the previous content is written back.
func copyInPlace(src, target string, mode os.FileMode) error {
	previous, err := os.ReadFile(target)
	existed := err == nil
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("atomicfile: read target: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("atomicfile: open temp: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE, mode)
	if err != nil {
		return fmt.Errorf("atomicfile: open target: %w", err)
	}

	restore := func(cause error) error {
		if existed {
			out.Truncate(0)
			out.WriteAt(previous, 0)
			out.Sync()
		} else {
			os.Remove(target)
		}
		out.Close()
		return cause
	}

	if err := out.Truncate(0); err != nil {
		return restore(fmt.Errorf("atomicfile: truncate target: %w", err))
	}
	if _, err := io.Copy(out, in); err != nil {
		return restore(fmt.Errorf("atomicfile: copy to target: %w", err))
	}
	if err := out.Sync(); err != nil {
		return restore(fmt.Errorf("atomicfile: sync target: %w", err))
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("atomicfile: close target: %w", err)
	}
	return nil
}

// CleanupInFlight removes every temp file whose write has not finished and
// returns how many were removed.
func (w *Writer) CleanupInFlight() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	removed := 0
	for path := range w.inFlight {
		if err := os.Remove(path); err == nil {
			removed++
		}
		delete(w.inFlight, path)
	}
	return removed
}

// InFlight reports the number of writes currently staged.
func (w *Writer) InFlight() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.inFlight)
}

func (w *Writer) track(path string) {
	w.mu.Lock()
	w.inFlight[path] = struct{}{}
	w.mu.Unlock()
}

func (w *Writer) untrack(path string) {
	w.mu.Lock()
	delete(w.inFlight, path)
	w.mu.Unlock()
}
