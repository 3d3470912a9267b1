// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: menu/debounce/scheduler.go
// Summary: Defers the preview commit until navigation has been quiet for a threshold.
// Usage: The engine calls OnNavigate on every highlight change, reads with
//   ReadTimeout, and calls Fire after each read timeout.
// Notes: The scheduler never runs on its own goroutine; it only answers
//   questions asked by the engine loop, so input is always serviced first.

package debounce

import (
	"sync"
	"time"
)

const (
	// DefaultThreshold is the quiet interval before a commit fires.
	DefaultThreshold = 150 * time.Millisecond
	// DefaultPoll is the read timeout used while a commit is pending.
	DefaultPoll = 30 * time.Millisecond
)

// Block is returned by ReadTimeout when nothing is pending.
const Block time.Duration = -1

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

// Pending describes a deferred preview.
type Pending struct {
	Target    int
	Dirty     bool
	LastInput time.Time
}

// CommitFunc performs the expensive preview action for the target index.
type CommitFunc func(target int)

// Scheduler tracks at most one pending preview.
type Scheduler struct {
	mu        sync.Mutex
	clock     Clock
	threshold time.Duration
	poll      time.Duration
	commit    CommitFunc
	pending   Pending
	commits   int
}

// New creates a scheduler. Non-positive durations select the defaults and a
// nil clock selects SystemClock.
func New(threshold, poll time.Duration, clock Clock, commit CommitFunc) *Scheduler {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if poll <= 0 {
		poll = DefaultPoll
	}
	if clock == nil {
		clock = SystemClock
	}
	return &Scheduler{clock: clock, threshold: threshold, poll: poll, commit: commit}
}

// OnNavigate arms (or re-arms) the timer for target.
func (s *Scheduler) OnNavigate(target int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = Pending{Target: target, Dirty: true, LastInput: s.clock.Now()}
}

// Pending returns a copy of the pending state.
func (s *Scheduler) Pending() Pending {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Dirty reports whether a commit is pending.
func (s *Scheduler) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending.Dirty
}

// ReadTimeout is the timeout for the next input read: Block when clean,
// the poll interval while dirty.
func (s *Scheduler) ReadTimeout() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.pending.Dirty {
		return Block
	}
	return s.poll
}

// Due reports whether the quiet interval has strictly elapsed.
func (s *Scheduler) Due() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dueLocked()
}

func (s *Scheduler) dueLocked() bool {
	return s.pending.Dirty && s.clock.Now().Sub(s.pending.LastInput) > s.threshold
}

// Fire commits when due and reports whether it did.
func (s *Scheduler) Fire() bool {
	s.mu.Lock()
	if !s.dueLocked() {
		s.mu.Unlock()
		return false
	}
	target := s.take()
	s.mu.Unlock()
	s.run(target)
	return true
}

// Finalize commits a pending preview immediately. It reports whether there
// was one.
func (s *Scheduler) Finalize() bool {
	s.mu.Lock()
	if !s.pending.Dirty {
		s.mu.Unlock()
		return false
	}
	target := s.take()
	s.mu.Unlock()
	s.run(target)
	return true
}

// Cancel discards a pending preview without committing.
func (s *Scheduler) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	was := s.pending.Dirty
	s.pending = Pending{}
	return was
}

// Commits returns how many commits have run.
func (s *Scheduler) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}

func (s *Scheduler) take() int {
	target := s.pending.Target
	s.pending = Pending{}
	s.commits++
	return target
}

func (s *Scheduler) run(target int) {
	if s.commit != nil {
		s.commit(target)
	}
}
