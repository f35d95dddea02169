package lock

import (
	"context"
	"sync"
	"time"

	"github.com/nfce/danfe/internal/domain/printing"
)

// MemoryLock is an in-process ActionLock backed by a one-slot semaphore
type MemoryLock struct {
	slot    chan struct{}
	timeout time.Duration
}

// NewMemoryLock creates an in-process lock. A zero timeout waits until ctx
// is done.
func NewMemoryLock(acquireTimeout time.Duration) *MemoryLock {
	return &MemoryLock{
		slot:    make(chan struct{}, 1),
		timeout: acquireTimeout,
	}
}

// Acquire implements ActionLock
func (l *MemoryLock) Acquire(ctx context.Context) (Release, error) {
	var timeout <-chan time.Time
	if l.timeout > 0 {
		timer := time.NewTimer(l.timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case l.slot <- struct{}{}:
	case <-timeout:
		return nil, printing.ErrBridgeBusy
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() { <-l.slot })
	}, nil
}

var _ ActionLock = (*MemoryLock)(nil)
