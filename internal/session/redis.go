package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/admetric/admetric/internal/log"
)

// keyPrefix namespaces session keys in a shared Redis instance.
const keyPrefix = "admetric:session:"

// RedisStore is a Store backed by a TTL-capable key-value store. Expiry is
// delegated to Redis via SET ... EX, so no janitor is needed.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger log.Logger
}

// NewRedisStore creates a RedisStore using the given client.
// A non-positive ttl falls back to DefaultTTL.
func NewRedisStore(client *redis.Client, ttl time.Duration, logger log.Logger) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &RedisStore{client: client, ttl: ttl, logger: logger}
}

// Load returns the state for id, mapping redis.Nil to ErrNotFound.
func (s *RedisStore) Load(ctx context.Context, id string) (*State, error) {
	data, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", id, err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", id, err)
	}
	return &state, nil
}

// Save replaces the state for id; the SET's expiry restarts the TTL.
func (s *RedisStore) Save(ctx context.Context, id string, state *State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", id, err)
	}

	if err := s.client.Set(ctx, keyPrefix+id, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("saving session %s: %w", id, err)
	}

	s.logger.Debug("session saved", "id", id, "ttl", s.ttl)
	return nil
}

// Delete removes the state for id.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	return nil
}
