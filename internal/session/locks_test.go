package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocks_SerializesSameSession(t *testing.T) {
	t.Parallel()

	locks := NewLocks()

	var (
		mu       sync.Mutex
		inFlight int
		maxSeen  int
	)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := locks.Acquire("same-session")
			defer release()

			mu.Lock()
			inFlight++
			if inFlight > maxSeen {
				maxSeen = inFlight
			}
			mu.Unlock()

			mu.Lock()
			inFlight--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen, "at most one request per session may run at a time")
}

func TestLocks_IndependentSessionsDoNotBlock(t *testing.T) {
	t.Parallel()

	locks := NewLocks()

	releaseA := locks.Acquire("session-a")
	defer releaseA()

	done := make(chan struct{})
	go func() {
		release := locks.Acquire("session-b")
		release()
		close(done)
	}()

	// session-b must proceed while session-a's lock is held.
	<-done
}

func TestLocks_EntryRemovedAfterRelease(t *testing.T) {
	t.Parallel()

	locks := NewLocks()

	release := locks.Acquire("sid")
	release()

	locks.mu.Lock()
	defer locks.mu.Unlock()
	assert.Empty(t, locks.locks, "released locks should not accumulate")
}
