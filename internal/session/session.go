// Package session provides per-session conversation state with expiry.
//
// The Store interface is the single source of truth for a session's state
// across HTTP requests. Two implementations exist: an in-memory map for
// development and tests, and a Redis-backed store for deployments where
// state must survive process restarts. The backend is selected by
// configuration, never by import-availability detection.
package session

import (
	"context"
	"errors"
	"time"
)

// DefaultTTL is how long an idle session survives before expiring.
const DefaultTTL = 30 * time.Minute

// ErrNotFound indicates no live state exists for a session ID. A missing
// session is the normal first-request case, not a failure.
var ErrNotFound = errors.New("session not found")

// State is the persisted snapshot of one session. It is a flat mapping of
// primitives plus a plain-string history projection; handler-internal
// state (model buffers, connections) must never end up in here.
//
// State is fully replaced on every completed request.
type State struct {
	Branch   string   `json:"branch"`
	Answer   string   `json:"answer"`
	Question string   `json:"question"`
	History  []string `json:"history"`
}

// Store persists session state keyed by session ID.
//
// Implementations must be safe for concurrent use. Save fully replaces any
// existing state and resets the expiry clock.
type Store interface {
	// Load returns the state for id, or ErrNotFound if the session does not
	// exist or has expired.
	Load(ctx context.Context, id string) (*State, error)

	// Save replaces the state for id and restarts its TTL.
	Save(ctx context.Context, id string, state *State) error

	// Delete removes the state for id. Deleting an absent session is a no-op.
	Delete(ctx context.Context, id string) error
}
