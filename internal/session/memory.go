package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/admetric/admetric/internal/log"
)

// janitorInterval is how often the in-memory store sweeps expired entries.
const janitorInterval = time.Minute

// MemoryStore is an in-process Store backed by a map. Entries expire after
// the configured TTL; a background janitor reclaims them, and Load also
// checks the deadline so an expired session is never served even between
// sweeps.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	logger  log.Logger

	// now is swappable for expiry tests.
	now func() time.Time
}

type memoryEntry struct {
	data     []byte
	deadline time.Time
}

// NewMemoryStore creates a MemoryStore with the given TTL.
// A non-positive ttl falls back to DefaultTTL.
func NewMemoryStore(ttl time.Duration, logger log.Logger) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
	}
}

// Load returns the state for id, treating expired entries as absent.
func (s *MemoryStore) Load(_ context.Context, id string) (*State, error) {
	s.mu.RLock()
	entry, ok := s.entries[id]
	s.mu.RUnlock()

	if !ok || s.now().After(entry.deadline) {
		return nil, ErrNotFound
	}

	var state State
	if err := json.Unmarshal(entry.data, &state); err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", id, err)
	}
	return &state, nil
}

// Save replaces the state for id and restarts its TTL.
//
// State is stored as serialized JSON rather than a pointer so that the
// in-memory and Redis backends have identical semantics: callers never
// share mutable state with the store.
func (s *MemoryStore) Save(_ context.Context, id string, state *State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", id, err)
	}

	s.mu.Lock()
	s.entries[id] = memoryEntry{data: data, deadline: s.now().Add(s.ttl)}
	s.mu.Unlock()

	return nil
}

// Delete removes the state for id.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
	return nil
}

// Run sweeps expired entries until ctx is cancelled. Intended to be started
// as a goroutine alongside the HTTP server.
func (s *MemoryStore) Run(ctx context.Context) {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.sweep(); n > 0 {
				s.logger.Debug("expired sessions reclaimed", "count", n)
			}
		}
	}
}

// sweep removes all expired entries and reports how many were dropped.
func (s *MemoryStore) sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, entry := range s.entries {
		if now.After(entry.deadline) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}
