// Package locks implements a table of reader/writer locks keyed
// by record key. Unlike sync.RWMutex an acquisition can give up
// after a timeout or when its context is cancelled.
package locks

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTimeout is returned when a lock could not be acquired
// before the timeout expired
var ErrTimeout = errors.New("timed out waiting for lock")

// Release releases a held lock. Calling it more than once
// has no effect.
type Release func()

// Table is a set of reader/writer locks. Locks are created on
// first use and discarded once nobody holds or waits for them.
// The zero value is not usable, use NewTable.
type Table struct {
	mu    sync.Mutex
	locks map[string]*lock
}

type lock struct {
	readers  int
	writer   bool
	waiters  int
	released chan struct{}
}

// NewTable creates an empty lock table
func NewTable() *Table {
	return &Table{locks: map[string]*lock{}}
}

// RLock acquires a shared lock on key. Any number of readers may
// hold the lock at once as long as there is no writer. timeout <= 0
// waits until ctx is done.
func (table *Table) RLock(ctx context.Context, key string, timeout time.Duration) (Release, error) {
	return table.acquire(ctx, key, timeout, false)
}

// Lock acquires an exclusive lock on key.
func (table *Table) Lock(ctx context.Context, key string, timeout time.Duration) (Release, error) {
	return table.acquire(ctx, key, timeout, true)
}

// Len returns the number of locks currently held or waited for
func (table *Table) Len() int {
	table.mu.Lock()
	defer table.mu.Unlock()

	return len(table.locks)
}

func (table *Table) acquire(ctx context.Context, key string, timeout time.Duration, exclusive bool) (Release, error) {
	var expired <-chan time.Time

	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	waiting := false

	for {
		table.mu.Lock()
		l := table.get(key)

		if waiting {
			l.waiters--
			waiting = false
		}

		if l.available(exclusive) {
			if exclusive {
				l.writer = true
			} else {
				l.readers++
			}

			table.mu.Unlock()

			var once sync.Once

			return func() { once.Do(func() { table.release(key, exclusive) }) }, nil
		}

		released := l.released
		l.waiters++
		waiting = true
		table.mu.Unlock()

		select {
		case <-released:
		case <-expired:
			table.abandon(key)

			return nil, ErrTimeout
		case <-ctx.Done():
			table.abandon(key)

			return nil, ctx.Err()
		}
	}
}

// get must be called with table.mu held
func (table *Table) get(key string) *lock {
	l, ok := table.locks[key]

	if !ok {
		l = &lock{released: make(chan struct{})}
		table.locks[key] = l
	}

	return l
}

func (l *lock) available(exclusive bool) bool {
	if l.writer {
		return false
	}

	return !exclusive || l.readers == 0
}

func (l *lock) idle() bool {
	return !l.writer && l.readers == 0 && l.waiters == 0
}

func (table *Table) release(key string, exclusive bool) {
	table.mu.Lock()
	defer table.mu.Unlock()

	l := table.locks[key]

	if exclusive {
		l.writer = false
	} else {
		l.readers--
	}

	close(l.released)
	l.released = make(chan struct{})

	if l.idle() {
		delete(table.locks, key)
	}
}

func (table *Table) abandon(key string) {
	table.mu.Lock()
	defer table.mu.Unlock()

	l := table.locks[key]
	l.waiters--

	if l.idle() {
		delete(table.locks, key)
	}
}
