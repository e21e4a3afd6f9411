// Package sched provides the cancellable scheduled-task abstraction
// shared by the game timer and the guided-play scheduler.
//
// Exactly one mode (normal play or guided demo) owns the active game
// session at a time; that single-owner rule is enforced by cancelling
// every pending task of the outgoing mode before the incoming mode
// schedules anything. StopAll gives each owner a synchronous way to do
// that: once it returns, no previously scheduled callback will fire.
package sched

import (
	"sync"
	"time"
)

// Task is a handle to one scheduled callback.
type Task interface {
	// Stop cancels the task. It returns true if the task was still
	// pending, false if it already fired or was already stopped.
	// Stop does not wait for a running callback to finish.
	Stop() bool
}

// Scheduler schedules callbacks to run after a delay.
//
// Implementations must be safe for concurrent use and must guarantee
// that after StopAll returns, no callback scheduled before the call
// will fire. Callbacks may schedule further tasks.
type Scheduler interface {
	// After runs fn once after d has elapsed.
	After(d time.Duration, fn func()) Task

	// Every runs fn repeatedly with period d until its task is stopped.
	Every(d time.Duration, fn func()) Task

	// StopAll cancels every pending task.
	StopAll()
}

// Timers is the wall-clock Scheduler used in production. Pending tasks
// are tracked in a set so StopAll can cancel all of them.
type Timers struct {
	mu   sync.Mutex
	seq  int64
	live map[int64]*timerTask
}

// NewTimers returns an empty wall-clock scheduler.
func NewTimers() *Timers {
	return &Timers{live: map[int64]*timerTask{}}
}

type timerTask struct {
	owner *Timers
	id    int64

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

// After implements Scheduler.
func (s *Timers) After(d time.Duration, fn func()) Task {
	t := s.register()
	t.mu.Lock()
	t.timer = time.AfterFunc(d, func() {
		if !t.finish() {
			return
		}
		fn()
	})
	t.mu.Unlock()
	return t
}

// Every implements Scheduler. The period is measured between callback
// starts of consecutive runs; a slow callback delays the next run.
func (s *Timers) Every(d time.Duration, fn func()) Task {
	t := s.register()
	var arm func()
	arm = func() {
		t.mu.Lock()
		if t.stopped {
			t.mu.Unlock()
			return
		}
		t.timer = time.AfterFunc(d, func() {
			t.mu.Lock()
			stopped := t.stopped
			t.mu.Unlock()
			if stopped {
				return
			}
			fn()
			arm()
		})
		t.mu.Unlock()
	}
	arm()
	return t
}

// StopAll implements Scheduler.
func (s *Timers) StopAll() {
	s.mu.Lock()
	tasks := make([]*timerTask, 0, len(s.live))
	for _, t := range s.live {
		tasks = append(tasks, t)
	}
	s.mu.Unlock()

	for _, t := range tasks {
		t.Stop()
	}
}

// Pending returns the number of live tasks. Diagnostic use only.
func (s *Timers) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

func (s *Timers) register() *timerTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	t := &timerTask{owner: s, id: s.seq}
	s.live[s.seq] = t
	return t
}

func (s *Timers) unregister(id int64) {
	s.mu.Lock()
	delete(s.live, id)
	s.mu.Unlock()
}

// Stop implements Task.
func (t *timerTask) Stop() bool {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return false
	}
	t.stopped = true
	timer := t.timer
	t.mu.Unlock()

	t.owner.unregister(t.id)
	if timer != nil {
		return timer.Stop()
	}
	return true
}

// finish marks a one-shot task as fired. Returns false if the task was
// stopped between the timer firing and the callback running.
func (t *timerTask) finish() bool {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return false
	}
	t.stopped = true
	t.mu.Unlock()
	t.owner.unregister(t.id)
	return true
}
