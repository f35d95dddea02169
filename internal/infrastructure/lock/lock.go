// Package lock serializes print actions so that only one of them owns the
// QZ Tray connection at a time.
package lock

import "context"

// Release gives the lock back. Calling it more than once is a no-op.
type Release func()

// ActionLock is held for the whole duration of a print action
type ActionLock interface {
	// Acquire blocks until the lock is obtained, the acquire timeout
	// elapses (printing.ErrBridgeBusy) or ctx is done.
	Acquire(ctx context.Context) (Release, error)
}

