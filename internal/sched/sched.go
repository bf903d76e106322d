// Package sched abstracts the animation-frame scheduler. Animations are
// pure functions of elapsed time, so swapping the timer-driven scheduler
// for a manual one makes them testable without faking wall clocks.
package sched

import (
	"sync"
	"time"

	"slippymap/internal/ident"
)

// Handle identifies one scheduled frame callback
type Handle uint64

// Scheduler schedules a callback for the next frame. Cancel is a no-op
// for handles already fired or canceled. Now is the clock frames are
// stamped with, so animation progress and frame delivery agree.
type Scheduler interface {
	ScheduleFrame(fn func(now time.Time)) Handle
	Cancel(h Handle)
	Now() time.Time
}

// DefaultFrameInterval approximates a 60Hz frame clock
const DefaultFrameInterval = 16 * time.Millisecond

// Timer is the production scheduler, driving frames off the wall clock
type Timer struct {
	Interval time.Duration

	mu     sync.Mutex
	timers map[Handle]*time.Timer
}

// NewTimer creates a timer scheduler; a zero interval means
// DefaultFrameInterval
func NewTimer(interval time.Duration) *Timer {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &Timer{Interval: interval, timers: make(map[Handle]*time.Timer)}
}

// ScheduleFrame runs fn once after the frame interval
func (t *Timer) ScheduleFrame(fn func(now time.Time)) Handle {
	h := Handle(ident.Next())
	t.mu.Lock()
	t.timers[h] = time.AfterFunc(t.Interval, func() {
		t.mu.Lock()
		delete(t.timers, h)
		t.mu.Unlock()
		fn(time.Now())
	})
	t.mu.Unlock()
	return h
}

// Now returns the wall clock
func (t *Timer) Now() time.Time { return time.Now() }

// Cancel stops a pending frame
func (t *Timer) Cancel(h Handle) {
	t.mu.Lock()
	if timer, ok := t.timers[h]; ok {
		timer.Stop()
		delete(t.timers, h)
	}
	t.mu.Unlock()
}

// Manual is a test scheduler; frames run only when the test advances the
// clock
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	pending map[Handle]func(time.Time)
	order   []Handle
}

// NewManual creates a manual scheduler starting at the given instant
func NewManual(start time.Time) *Manual {
	return &Manual{now: start, pending: make(map[Handle]func(time.Time))}
}

// ScheduleFrame queues fn for the next Advance call
func (m *Manual) ScheduleFrame(fn func(now time.Time)) Handle {
	h := Handle(ident.Next())
	m.mu.Lock()
	m.pending[h] = fn
	m.order = append(m.order, h)
	m.mu.Unlock()
	return h
}

// Cancel drops a queued frame
func (m *Manual) Cancel(h Handle) {
	m.mu.Lock()
	delete(m.pending, h)
	m.mu.Unlock()
}

// Now returns the manual clock's current instant
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the clock forward and fires every frame queued before the
// call, in schedule order. Frames scheduled by the fired callbacks wait
// for the next Advance.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	now := m.now
	handles := m.order
	m.order = nil
	fns := make([]func(time.Time), 0, len(handles))
	for _, h := range handles {
		if fn, ok := m.pending[h]; ok {
			delete(m.pending, h)
			fns = append(fns, fn)
		}
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(now)
	}
}

// Pending returns the number of queued frames
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}
