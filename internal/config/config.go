// Package config provides application configuration with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (ADMETRIC_* runtime override)
//  2. Config file (~/.admetric/config.yaml or ./config.yaml)
//  3. Default values
//
// Security: sensitive fields (passwords) are masked in MarshalJSON and never
// logged. Validation uses sentinel errors so callers can branch with
// errors.Is().
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AI provider identifiers used in Config.Provider.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Session store backends used in Config.SessionBackend.
const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
)

// Config stores application configuration.
//
// SECURITY: sensitive fields are explicitly masked in MarshalJSON. When
// adding new secrets, update MarshalJSON.
type Config struct {
	// HTTP server
	ListenAddr string `mapstructure:"listen_addr" json:"listen_addr"`

	// AI provider and model configuration
	Provider   string `mapstructure:"provider" json:"provider"`     // "gemini" (default), "openai", "ollama"
	ModelName  string `mapstructure:"model_name" json:"model_name"` // e.g. "gemini-2.5-flash", "gpt-4o"
	OllamaHost string `mapstructure:"ollama_host" json:"ollama_host"`

	// Router / conversation configuration
	HistoryCapacity int `mapstructure:"history_capacity" json:"history_capacity"`
	OracleTimeoutMs int `mapstructure:"oracle_timeout_ms" json:"oracle_timeout_ms"`

	// Session store configuration
	SessionBackend    string `mapstructure:"session_backend" json:"session_backend"` // "memory" (default) or "redis"
	SessionTTLMinutes int    `mapstructure:"session_ttl_minutes" json:"session_ttl_minutes"`
	RedisAddr         string `mapstructure:"redis_addr" json:"redis_addr"`
	RedisPassword     string `mapstructure:"redis_password" json:"redis_password"` // SENSITIVE: masked in MarshalJSON
	RedisDB           int    `mapstructure:"redis_db" json:"redis_db"`

	// Metrics warehouse (PostgreSQL)
	PostgresHost       string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort       int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser       string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword   string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName     string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode    string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`
	WarehouseTimeoutMs int    `mapstructure:"warehouse_timeout_ms" json:"warehouse_timeout_ms"`

	// Web search (SearXNG)
	SearXNG SearXNGConfig `mapstructure:"searxng" json:"searxng"`
}

// SearXNGConfig holds SearXNG service configuration for the web_search branch.
type SearXNGConfig struct {
	// BaseURL is the SearXNG instance URL (e.g. http://searxng:8080).
	BaseURL string `mapstructure:"base_url" json:"base_url"`
	// TimeoutMs is the per-search request timeout in milliseconds.
	TimeoutMs int `mapstructure:"timeout_ms" json:"timeout_ms"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".admetric")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	setDefaults(v)

	v.SetEnvPrefix("ADMETRIC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// A missing config file is fine; defaults and env vars apply.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults registers the default value for every key.
func setDefaults(v *viper.Viper) {
	v.SetDefault("listen_addr", "127.0.0.1:8000")

	v.SetDefault("provider", ProviderGemini)
	v.SetDefault("model_name", "gemini-2.5-flash")
	v.SetDefault("ollama_host", "http://localhost:11434")

	v.SetDefault("history_capacity", 20)
	v.SetDefault("oracle_timeout_ms", 15000)

	v.SetDefault("session_backend", SessionBackendMemory)
	v.SetDefault("session_ttl_minutes", 30)
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_db", 0)

	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "admetric")
	v.SetDefault("postgres_db_name", "admetric")
	v.SetDefault("postgres_ssl_mode", "disable")
	v.SetDefault("warehouse_timeout_ms", 10000)

	v.SetDefault("searxng.base_url", "")
	v.SetDefault("searxng.timeout_ms", 10000)
}

// SessionTTL returns the session expiry as a duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

// OracleTimeout returns the per-call oracle timeout as a duration.
func (c *Config) OracleTimeout() time.Duration {
	return time.Duration(c.OracleTimeoutMs) * time.Millisecond
}

// WarehouseTimeout returns the per-query warehouse timeout as a duration.
func (c *Config) WarehouseTimeout() time.Duration {
	return time.Duration(c.WarehouseTimeoutMs) * time.Millisecond
}

// MarshalJSON implements json.Marshaler with sensitive field masking.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.PostgresPassword = maskSecret(a.PostgresPassword)
	a.RedisPassword = maskSecret(a.RedisPassword)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// maskSecret replaces a secret with a fixed placeholder, keeping emptiness
// visible for debugging.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	return "****"
}
