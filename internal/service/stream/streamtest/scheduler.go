// Package streamtest provides a hand-driven stream.Scheduler for tests.
package streamtest

import (
	"sync"
	"time"

	"github.com/haiintel/dashboard/internal/service/stream"
)

// Scheduler queues callbacks until Fire is called.
type Scheduler struct {
	mu      sync.Mutex
	pending []*timer
}

type timer struct {
	s       *Scheduler
	f       func()
	stopped bool
	fired   bool
}

func (t *timer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// AfterFunc implements stream.Scheduler. The delay is ignored.
func (s *Scheduler) AfterFunc(_ time.Duration, f func()) stream.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &timer{s: s, f: f}
	s.pending = append(s.pending, t)
	return t
}

// Pending reports how many timers are scheduled and not stopped.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.pending {
		if !t.stopped {
			n++
		}
	}
	return n
}

// Fire runs every live timer queued so far, in scheduling order, and returns how many ran.
func (s *Scheduler) Fire() int {
	s.mu.Lock()
	batch := s.pending
	s.pending = nil
	s.mu.Unlock()

	n := 0
	for _, t := range batch {
		s.mu.Lock()
		run := !t.stopped
		t.fired = true
		s.mu.Unlock()
		if run {
			t.f()
			n++
		}
	}
	return n
}
