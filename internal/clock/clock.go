// Package clock provides the time source shared by tick-driven components.
package clock

import (
	"sync"
	"time"
)

// Clock reports the current wall time.
type Clock interface {
	Now() time.Time
}

// Real is the process wall clock.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

// NowMS returns c's current time as unix milliseconds.
func NowMS(c Clock) uint64 {
	return uint64(c.Now().UnixMilli())
}

// Manual is a clock that only moves when told to. Safe for concurrent use.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

// NewManual returns a manual clock frozen at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

// OrReal returns c, or Real when c is nil.
func OrReal(c Clock) Clock {
	if c == nil {
		return Real{}
	}
	return c
}
