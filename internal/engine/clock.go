package engine

import "time"

// Clock abstracts wall time and deferred callbacks so escalation ladder
// timing is testable without sleeping. The engine never busy-waits; ladder
// steps are independently scheduled callbacks cancellable in O(1).
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a cancellable deferred callback.
type Timer interface {
	// Stop cancels the timer. Returns false if it already fired or was
	// stopped.
	Stop() bool
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// NewClock returns the wall clock.
func NewClock() Clock { return realClock{} }
