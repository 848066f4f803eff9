// Package agents holds the branch handlers the router dispatches to: budget
// insights, web search, and generic chat.
//
// Handlers share one conversation buffer and one oracle. A handler owns its
// full turn: it produces the answer and appends the question/answer exchange
// to the shared buffer before returning. On error nothing is appended.
package agents

import (
	"context"

	"github.com/admetric/admetric/internal/warehouse"
	"github.com/admetric/admetric/internal/websearch"
)

// Oracle produces text completions. *oracle.Client satisfies it.
type Oracle interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Warehouse is the budget data surface. *warehouse.Store satisfies it.
type Warehouse interface {
	FetchMetrics(ctx context.Context, day string) ([]warehouse.MetricsRow, error)
	SaveProposal(ctx context.Context, day, markdown string) (bool, error)
}

// Searcher runs web searches. *websearch.Client satisfies it.
type Searcher interface {
	Search(ctx context.Context, query string) ([]websearch.Result, error)
}
