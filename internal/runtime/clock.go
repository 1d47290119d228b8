package runtime

import "time"

// Clock abstracts timer creation so debounce behavior is testable without
// real sleeps.
type Clock interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is the subset of *time.Timer the form needs.
type Timer interface {
	Stop() bool
	Reset(d time.Duration) bool
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// RealClock returns the wall-clock implementation.
func RealClock() Clock { return realClock{} }
