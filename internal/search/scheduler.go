package search

import "time"

// Timer is a pending deferred action
type Timer interface {
	Stop() bool
}

// Scheduler runs f after d. Tests substitute a manual implementation.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
