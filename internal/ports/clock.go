package ports

import "time"

// Clock abstracts the time source so debounce and status-window behavior can
// be tested without real waits.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc schedules f to run after d and returns a handle to cancel it.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a cancellable scheduled callback.
type Timer interface {
	// Stop cancels the timer. It returns false if the callback already
	// fired or the timer was already stopped.
	Stop() bool
}
