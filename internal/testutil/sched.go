// Package testutil provides deterministic test doubles for the
// scheduler and clock used by the game engine.
package testutil

import (
	"sort"
	"sync"
	"time"

	"github.com/roach88/minesweep/internal/sched"
)

// ManualScheduler is a sched.Scheduler driven by a virtual clock.
//
// Nothing fires on its own; tests call Advance to move virtual time
// forward, and due callbacks run synchronously inside Advance in due
// order (ties broken by scheduling order). This makes timer-dependent
// scenarios fully deterministic and repeatable.
//
// Thread-safety: all methods are safe for concurrent use, but the
// usual pattern is single-goroutine test code.
type ManualScheduler struct {
	mu    sync.Mutex
	now   time.Duration
	seq   int64
	tasks []*manualTask
}

// NewManualScheduler creates a manual scheduler at virtual time zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

type manualTask struct {
	owner   *ManualScheduler
	id      int64
	due     time.Duration
	period  time.Duration // 0 for one-shot tasks
	fn      func()
	stopped bool
}

// After implements sched.Scheduler.
func (s *ManualScheduler) After(d time.Duration, fn func()) sched.Task {
	return s.add(d, 0, fn)
}

// Every implements sched.Scheduler.
func (s *ManualScheduler) Every(d time.Duration, fn func()) sched.Task {
	return s.add(d, d, fn)
}

// StopAll implements sched.Scheduler.
func (s *ManualScheduler) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		t.stopped = true
	}
	s.tasks = nil
}

// Now returns the current virtual time.
func (s *ManualScheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Pending returns the number of scheduled tasks.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Advance moves virtual time forward by d, running every task that
// comes due, in due order. Callbacks may schedule further tasks; those
// also run if they come due within the same Advance window.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	for {
		t := s.popDueLocked(target)
		if t == nil {
			s.now = target
			s.mu.Unlock()
			return
		}
		s.now = t.due
		if t.period > 0 && !t.stopped {
			t.due += t.period
			s.insertLocked(t)
		}
		// Run outside the lock: the callback may schedule or stop
		// tasks on this scheduler.
		s.mu.Unlock()
		t.fn()
		s.mu.Lock()
	}
}

func (s *ManualScheduler) add(d, period time.Duration, fn func()) *manualTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	t := &manualTask{
		owner:  s,
		id:     s.seq,
		due:    s.now + d,
		period: period,
		fn:     fn,
	}
	s.insertLocked(t)
	return t
}

func (s *ManualScheduler) insertLocked(t *manualTask) {
	s.tasks = append(s.tasks, t)
	sort.SliceStable(s.tasks, func(i, j int) bool {
		if s.tasks[i].due != s.tasks[j].due {
			return s.tasks[i].due < s.tasks[j].due
		}
		return s.tasks[i].id < s.tasks[j].id
	})
}

// popDueLocked removes and returns the earliest task due at or before
// target, or nil when none is due.
func (s *ManualScheduler) popDueLocked(target time.Duration) *manualTask {
	if len(s.tasks) == 0 || s.tasks[0].due > target {
		return nil
	}
	t := s.tasks[0]
	s.tasks = append(s.tasks[:0:0], s.tasks[1:]...)
	return t
}

// Stop implements sched.Task.
func (t *manualTask) Stop() bool {
	s := t.owner
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.stopped {
		return false
	}
	t.stopped = true
	for i, pending := range s.tasks {
		if pending == t {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return true
		}
	}
	return false
}
