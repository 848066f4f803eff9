// Package app wires the application together: config in, a running set of
// collaborators out.
//
// Setup builds every component with explicit provider functions; there is no
// service locator and no globals. Call Close to release resources.
package app

import (
	"context"

	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/admetric/admetric/internal/config"
	"github.com/admetric/admetric/internal/history"
	"github.com/admetric/admetric/internal/log"
	"github.com/admetric/admetric/internal/oracle"
	"github.com/admetric/admetric/internal/router"
	"github.com/admetric/admetric/internal/session"
	"github.com/admetric/admetric/internal/toolhub"
	"github.com/admetric/admetric/internal/warehouse"
)

// App is the application container.
type App struct {
	Config *config.Config
	Logger log.Logger

	Genkit *genkit.Genkit
	DBPool *pgxpool.Pool

	Buffer       *history.Buffer
	SessionStore session.Store
	Locks        *session.Locks
	Oracle       *oracle.Client
	Warehouse    *warehouse.Store
	Router       *router.Router
	Hub          *toolhub.Hub

	// Lifecycle
	cancel    context.CancelFunc
	dbCleanup func()
}

// Close gracefully shuts down all resources. Safe to call after a partial
// Setup failure.
func (a *App) Close() error {
	if a.Logger != nil {
		a.Logger.Info("shutting down application")
	}

	if a.cancel != nil {
		a.cancel()
	}
	if a.dbCleanup != nil {
		a.dbCleanup()
	}
	return nil
}
