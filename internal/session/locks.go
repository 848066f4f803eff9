package session

import "sync"

// Locks serializes requests per session ID so a user's own turns are always
// processed in arrival order, while unrelated sessions proceed concurrently.
// This deliberately avoids a global lock: a slow warehouse query for one
// session must never delay another session's response.
//
// Lock entries are reference-counted and removed once the last holder
// releases them, so the map does not grow with the number of sessions ever
// seen.
type Locks struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// NewLocks creates an empty lock table.
func NewLocks() *Locks {
	return &Locks{locks: make(map[string]*sessionLock)}
}

// Acquire blocks until the caller holds the lock for id and returns the
// release function. Callers must release exactly once, typically via defer.
func (l *Locks) Acquire(id string) (release func()) {
	l.mu.Lock()
	entry, ok := l.locks[id]
	if !ok {
		entry = &sessionLock{}
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
