package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/compat_oai/openai"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/firebase/genkit/go/plugins/ollama"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/admetric/admetric/db"
	"github.com/admetric/admetric/internal/agents"
	"github.com/admetric/admetric/internal/config"
	"github.com/admetric/admetric/internal/history"
	"github.com/admetric/admetric/internal/log"
	"github.com/admetric/admetric/internal/oracle"
	"github.com/admetric/admetric/internal/router"
	"github.com/admetric/admetric/internal/session"
	"github.com/admetric/admetric/internal/toolhub"
	"github.com/admetric/admetric/internal/warehouse"
	"github.com/admetric/admetric/internal/websearch"
)

// Setup creates and initializes the application.
// Returns an App with embedded cleanup. Call Close() to release.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (_ *App, retErr error) {
	if logger == nil {
		logger = log.NewNop()
	}
	a := &App{Config: cfg, Logger: logger}

	// On error, clean up everything already initialized.
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	pool, dbCleanup, err := provideDBPool(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.dbCleanup = dbCleanup
	a.DBPool = pool

	g, err := provideGenkit(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	a.SessionStore = provideSessionStore(runCtx, cfg, logger)
	a.Locks = session.NewLocks()
	a.Buffer = history.NewBuffer(cfg.HistoryCapacity)

	a.Oracle = oracle.New(g, cfg.ModelName, cfg.OracleTimeout(), logger)
	a.Warehouse = warehouse.NewStore(pool, cfg.WarehouseTimeout(), logger)

	hub, err := toolhub.New(a.Warehouse, logger)
	if err != nil {
		return nil, fmt.Errorf("building tool registry: %w", err)
	}
	a.Hub = hub

	a.Router = provideRouter(cfg, a, logger)

	return a, nil
}

// provideDBPool runs migrations and creates the warehouse connection pool.
func provideDBPool(ctx context.Context, cfg *config.Config, logger log.Logger) (*pgxpool.Pool, func(), error) {
	if err := db.Migrate(cfg.PostgresURL(), logger); err != nil {
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, pool.Close, nil
}

// provideGenkit initializes Genkit with the configured AI provider.
// Supports gemini (default), ollama, and openai.
func provideGenkit(ctx context.Context, cfg *config.Config, logger log.Logger) (*genkit.Genkit, error) {
	provider := cfg.Provider
	if provider == "" {
		provider = config.ProviderGemini
	}

	var g *genkit.Genkit

	switch provider {
	case config.ProviderOllama:
		ollamaPlugin := &ollama.Ollama{ServerAddress: cfg.OllamaHost}
		g = genkit.Init(ctx, genkit.WithPlugins(ollamaPlugin))
		if g == nil {
			return nil, errors.New("initializing genkit with ollama provider")
		}
		// Ollama requires explicit model registration (no auto-discovery).
		ollamaPlugin.DefineModel(g, ollama.ModelDefinition{
			Name: cfg.ModelName,
			Type: "chat",
		}, nil)
		logger.Info("initialized Genkit with ollama provider",
			"model", cfg.ModelName, "host", cfg.OllamaHost)

	case config.ProviderOpenAI:
		g = genkit.Init(ctx, genkit.WithPlugins(&openai.OpenAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with openai provider")
		}
		logger.Info("initialized Genkit with openai provider", "model", cfg.ModelName)

	default: // gemini
		g = genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with gemini provider")
		}
		logger.Info("initialized Genkit with gemini provider", "model", cfg.ModelName)
	}

	return g, nil
}

// provideSessionStore creates the configured session store. The memory
// backend gets its expiry janitor started on ctx; the redis backend leaves
// expiry to the server.
func provideSessionStore(ctx context.Context, cfg *config.Config, logger log.Logger) session.Store {
	ttl := cfg.SessionTTL()

	if cfg.SessionBackend == config.SessionBackendRedis {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		logger.Info("using redis session store", "addr", cfg.RedisAddr, "ttl", ttl)
		return session.NewRedisStore(client, ttl, logger)
	}

	store := session.NewMemoryStore(ttl, logger)
	go store.Run(ctx)
	logger.Info("using in-memory session store", "ttl", ttl)
	return store
}

// provideRouter builds the branch handlers, the dispatch table, and the
// router on top of them.
func provideRouter(cfg *config.Config, a *App, logger log.Logger) *router.Router {
	searcher := websearch.New(
		cfg.SearXNG.BaseURL,
		time.Duration(cfg.SearXNG.TimeoutMs)*time.Millisecond,
		logger,
	)

	registry := router.NewRegistry()
	registry.Register(router.BranchBudget, agents.NewBudget(a.Oracle, a.Warehouse, a.Buffer, logger))
	registry.Register(router.BranchSearch, agents.NewSearch(a.Oracle, searcher, a.Buffer, logger))
	registry.Register(router.BranchGeneric, agents.NewGeneric(a.Oracle, a.Buffer, logger))

	return router.New(a.Oracle, registry, a.Buffer, cfg.OracleTimeout(), logger)
}
