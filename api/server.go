// Package api provides the HTTP surface of the admetric service.
//
// Endpoints:
//
//	POST /chat                  conversational entry point (router dispatch)
//	GET  /tools                 tool manifest
//	GET  /tools/{tool}/schema   argument schema for one tool
//	POST /tools/{tool}/invoke   programmatic tool invocation
//	GET  /health                liveness probe
//	GET  /ready                 readiness probe
//
// File structure:
//   - server.go: HTTP server setup and lifecycle
//   - middleware.go: HTTP middleware (recovery, logging, rate limit)
//   - chat.go: chat endpoint (session load, route, session save)
//   - tools.go: tool sub-protocol endpoints
//   - health.go: health check endpoints
//   - response.go: JSON response helpers
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/admetric/admetric/internal/history"
	"github.com/admetric/admetric/internal/log"
	"github.com/admetric/admetric/internal/session"
	"github.com/admetric/admetric/internal/toolhub"
)

const (
	// DefaultAddr is the default address for the HTTP server.
	DefaultAddr = "127.0.0.1:8000"

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout is the timeout for reading request headers.
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout is the maximum duration for writing the response.
	// Generous because a chat turn may wait on the model.
	WriteTimeout = 120 * time.Second

	// IdleTimeout is the maximum time to wait for the next request on
	// keep-alive connections.
	IdleTimeout = 120 * time.Second
)

// Server is the admetric HTTP server.
type Server struct {
	mux    *http.ServeMux
	logger log.Logger

	chat   *ChatHandler
	tools  *ToolsHandler
	health *HealthHandler
}

// NewServer creates a server with all routes registered.
func NewServer(
	rt Router,
	store session.Store,
	locks *session.Locks,
	buffer *history.Buffer,
	hub *toolhub.Hub,
	pool *pgxpool.Pool,
	logger log.Logger,
) *Server {
	if logger == nil {
		logger = log.NewNop()
	}

	mux := http.NewServeMux()
	s := &Server{
		mux:    mux,
		logger: logger,
		chat:   NewChatHandler(rt, store, locks, buffer, logger),
		tools:  NewToolsHandler(hub, logger),
		health: NewHealthHandler(pool, logger),
	}

	s.chat.RegisterRoutes(mux)
	s.tools.RegisterRoutes(mux)
	s.health.RegisterRoutes(mux)

	return s
}

// Handler returns the HTTP handler with middleware applied.
// Middleware order: recovery → logging → rate limit → handler.
func (s *Server) Handler() http.Handler {
	return chain(s.mux,
		recoveryMiddleware(s.logger),
		loggingMiddleware(s.logger),
		rateLimitMiddleware(defaultRequestsPerSecond, defaultBurst),
	)
}

// Run starts the HTTP server and blocks until the context is cancelled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
