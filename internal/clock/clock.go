// Package clock supplies the time source for streak day-boundary decisions.
// One timezone policy applies per deployment; days are UTC calendar days.
package clock

import (
	"sync"
	"time"
)

// Clock provides the current instant and the current calendar day.
type Clock interface {
	Now() time.Time
	// Today returns the current day truncated to midnight UTC.
	Today() time.Time
}

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// System is the wall-clock implementation.
type System struct{}

func (System) Now() time.Time   { return time.Now().UTC() }
func (System) Today() time.Time { return Day(time.Now()) }

// Fake is a controllable clock for tests.
type Fake struct {
	mu      sync.Mutex
	current time.Time
}

// NewFake returns a fake clock initialised to start.
func NewFake(start time.Time) *Fake {
	return &Fake{current: start.UTC()}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *Fake) Today() time.Time {
	return Day(f.Now())
}

// Set moves the clock to the provided time.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	f.current = t.UTC()
	f.mu.Unlock()
}

// Advance moves the clock forward by d and returns the updated time.
func (f *Fake) Advance(d time.Duration) time.Time {
	f.mu.Lock()
	f.current = f.current.Add(d)
	updated := f.current
	f.mu.Unlock()
	return updated
}
