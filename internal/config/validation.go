package config

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidProvider indicates the AI provider is not supported.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidSessionBackend indicates an unknown session store backend.
	ErrInvalidSessionBackend = errors.New("invalid session backend")

	// ErrInvalidSessionTTL indicates a non-positive session TTL.
	ErrInvalidSessionTTL = errors.New("invalid session TTL")

	// ErrInvalidHistoryCapacity indicates a non-positive history capacity.
	ErrInvalidHistoryCapacity = errors.New("invalid history capacity")

	// ErrInvalidPostgresHost indicates an empty PostgreSQL host.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates a PostgreSQL port out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidRedisAddr indicates an empty Redis address for the redis backend.
	ErrInvalidRedisAddr = errors.New("invalid Redis address")
)

// Validate checks the configuration for the serve command.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	switch c.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderOllama:
	default:
		return fmt.Errorf("%w: %q (want %s, %s or %s)",
			ErrInvalidProvider, c.Provider, ProviderGemini, ProviderOpenAI, ProviderOllama)
	}

	switch c.SessionBackend {
	case SessionBackendMemory:
	case SessionBackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("%w: redis_addr must be set for the redis backend", ErrInvalidRedisAddr)
		}
	default:
		return fmt.Errorf("%w: %q (want %s or %s)",
			ErrInvalidSessionBackend, c.SessionBackend, SessionBackendMemory, SessionBackendRedis)
	}

	if c.SessionTTLMinutes <= 0 {
		return fmt.Errorf("%w: %d minutes", ErrInvalidSessionTTL, c.SessionTTLMinutes)
	}
	if c.HistoryCapacity <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidHistoryCapacity, c.HistoryCapacity)
	}

	if c.PostgresHost == "" {
		return fmt.Errorf("%w: host is empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: %d (want 1-65535)", ErrInvalidPostgresPort, c.PostgresPort)
	}

	return nil
}
