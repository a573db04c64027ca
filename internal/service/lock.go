package service

import "sync"

// orderLocks serializes mutating operations on the same order. Two concurrent
// edits or an edit racing a delete on one orderID would otherwise interleave
// their stock restore/consume steps.
type orderLocks struct {
	mu    sync.Mutex
	locks map[string]*orderLock
}

type orderLock struct {
	mu   sync.Mutex
	refs int
}

func newOrderLocks() *orderLocks {
	return &orderLocks{locks: make(map[string]*orderLock)}
}

// Lock acquires the lock for the given order ID and returns the release
// function. Entries are reference-counted so the map does not grow without
// bound.
func (l *orderLocks) Lock(id string) func() {
	l.mu.Lock()
	entry, ok := l.locks[id]
	if !ok {
		entry = &orderLock{}
		l.locks[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
