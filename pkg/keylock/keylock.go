// Package keylock provides mutual exclusion scoped to a string key, so that
// work on one key never waits on work for another.
package keylock

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var ErrLockTimeout = errors.New("keylock: lock not acquired")

type Locker interface {
	// Lock blocks until the key is held or ctx ends. The returned func
	// releases the key and is safe to call more than once.
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

type entry struct {
	ch   chan struct{}
	refs int
}

// MemoryLocker serializes holders of the same key inside one process.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]*entry
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locks: make(map[string]*entry)}
}

func (l *MemoryLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-e.ch
				l.release(key, e)
			})
		}, nil
	case <-ctx.Done():
		l.release(key, e)
		return nil, fmt.Errorf("%w: %s: %w", ErrLockTimeout, key, ctx.Err())
	}
}

func (l *MemoryLocker) release(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}

// Len reports how many keys are held or waited on.
func (l *MemoryLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
