package utils

import (
	"sort"
	"sync"
	"time"
)

// Clock abstracts time so that auto-dismiss timers can be driven by tests.
type Clock interface {
	NowUtc() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is the part of *time.Timer the view-state holders rely on.
type Timer interface {
	// Stop prevents the timer from firing. It returns false if the timer
	// already fired or was stopped.
	Stop() bool
}

type RealClock struct{}

func NewRealClock() *RealClock {
	return &RealClock{}
}

func (c *RealClock) NowUtc() time.Time {
	return time.Now().UTC()
}

func (c *RealClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// StubClock only moves when told to. Timers registered through AfterFunc fire
// synchronously inside Advance, in deadline order.
type StubClock struct {
	now    time.Time
	timers []*stubTimer
	lock   sync.Mutex
}

type stubTimer struct {
	clock    *StubClock
	deadline time.Time
	f        func()
	done     bool
}

func NewStubClock() *StubClock {
	clock := &StubClock{}
	clock.UpdateNow()
	return clock
}

func (c *StubClock) NowUtc() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now
}

func (c *StubClock) SetNow(now time.Time) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now = now.UTC()
}

func (c *StubClock) UpdateNow() time.Time {
	now := time.Now().UTC()
	c.SetNow(now)
	return now
}

func (c *StubClock) AfterFunc(d time.Duration, f func()) Timer {
	c.lock.Lock()
	defer c.lock.Unlock()
	t := &stubTimer{clock: c, deadline: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

// PendingTimers returns the number of timers that neither fired nor stopped.
func (c *StubClock) PendingTimers() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	count := 0
	for _, t := range c.timers {
		if !t.done {
			count++
		}
	}
	return count
}

// Advance moves the clock forward by d and runs every timer that became due.
// Callbacks run without the clock lock held so they may register new timers.
func (c *StubClock) Advance(d time.Duration) {
	c.lock.Lock()
	c.now = c.now.Add(d)
	due := []*stubTimer{}
	pending := []*stubTimer{}
	for _, t := range c.timers {
		if t.done {
			continue
		}
		if !t.deadline.After(c.now) {
			t.done = true
			due = append(due, t)
		} else {
			pending = append(pending, t)
		}
	}
	c.timers = pending
	c.lock.Unlock()

	sort.SliceStable(due, func(i, j int) bool {
		return due[i].deadline.Before(due[j].deadline)
	})
	for _, t := range due {
		t.f()
	}
}

func (t *stubTimer) Stop() bool {
	t.clock.lock.Lock()
	defer t.clock.lock.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}
