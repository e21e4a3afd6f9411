package sched

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAfter_FiresOnce(t *testing.T) {
	s := NewTimers()
	done := make(chan struct{})

	s.After(10*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("callback never fired")
	}

	// The fired task unregisters itself.
	assert.Eventually(t, func() bool { return s.Pending() == 0 },
		time.Second, 5*time.Millisecond)
}

func TestAfter_StopPreventsCallback(t *testing.T) {
	s := NewTimers()
	var fired atomic.Bool

	task := s.After(20*time.Millisecond, func() { fired.Store(true) })
	require.True(t, task.Stop())

	time.Sleep(60 * time.Millisecond)
	assert.False(t, fired.Load())
	assert.Equal(t, 0, s.Pending())
}

func TestStop_ReturnsFalseWhenAlreadyDone(t *testing.T) {
	s := NewTimers()
	done := make(chan struct{})

	task := s.After(5*time.Millisecond, func() { close(done) })
	<-done

	assert.False(t, task.Stop(), "fired task reports not-pending")

	stopped := s.After(time.Hour, func() {})
	require.True(t, stopped.Stop())
	assert.False(t, stopped.Stop(), "second Stop is a no-op")
}

func TestEvery_RepeatsUntilStopped(t *testing.T) {
	s := NewTimers()
	var count atomic.Int64

	task := s.Every(10*time.Millisecond, func() { count.Add(1) })

	assert.Eventually(t, func() bool { return count.Load() >= 3 },
		time.Second, 5*time.Millisecond)

	task.Stop()
	settled := count.Load()
	time.Sleep(50 * time.Millisecond)
	assert.LessOrEqual(t, count.Load(), settled+1, "at most one in-flight run after Stop")
	assert.Equal(t, 0, s.Pending())
}

func TestStopAll_CancelsEveryPendingTask(t *testing.T) {
	s := NewTimers()
	var fired atomic.Int64

	for i := 0; i < 5; i++ {
		s.After(30*time.Millisecond, func() { fired.Add(1) })
	}
	s.Every(30*time.Millisecond, func() { fired.Add(1) })
	require.Equal(t, 6, s.Pending())

	s.StopAll()
	assert.Equal(t, 0, s.Pending())

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, int64(0), fired.Load())
}

func TestAfter_CallbackMayScheduleMore(t *testing.T) {
	s := NewTimers()
	done := make(chan struct{})

	s.After(5*time.Millisecond, func() {
		s.After(5*time.Millisecond, func() { close(done) })
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("chained callback never fired")
	}
}
