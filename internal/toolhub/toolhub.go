// Package toolhub exposes the warehouse operations as named, schema-described
// tools for programmatic callers.
//
// The registry is a static table built at startup. There is no directory
// scanning or dynamic registration: a tool exists because the code below
// says so, which keeps the invocation surface auditable.
package toolhub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/admetric/admetric/internal/log"
	"github.com/admetric/admetric/internal/warehouse"
)

// ErrUnknownTool is returned when a caller names a tool the registry does
// not carry.
var ErrUnknownTool = errors.New("unknown tool")

// Warehouse is the data surface the tools delegate to. *warehouse.Store
// satisfies it.
type Warehouse interface {
	FetchMetrics(ctx context.Context, day string) ([]warehouse.MetricsRow, error)
	SaveProposal(ctx context.Context, day, markdown string) (bool, error)
}

// GetBudgetInput names the arguments of the get_budget tool.
type GetBudgetInput struct {
	Day string `json:"day" jsonschema_description:"ISO date (YYYY-MM-DD) to fetch channel metrics for. Empty means today."`
}

// SaveProposalInput names the arguments of the save_proposal tool.
type SaveProposalInput struct {
	BudgetDate    string `json:"budget_date" jsonschema_description:"ISO date (YYYY-MM-DD) the proposal applies to. Empty means today."`
	TableMarkdown string `json:"table_markdown" jsonschema_description:"Markdown table with columns channel, current_spend, proposed_spend, delta percent, rationale."`
}

// Tool is one registry entry.
type Tool struct {
	Name        string
	Description string
	Schema      *jsonschema.Schema
	invoke      func(ctx context.Context, args json.RawMessage) (any, error)
}

// Info is the manifest projection of a tool.
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Hub is the static tool registry.
type Hub struct {
	tools  map[string]Tool
	order  []string
	logger log.Logger
}

// New builds the registry over the given warehouse.
func New(wh Warehouse, logger log.Logger) (*Hub, error) {
	if logger == nil {
		logger = log.NewNop()
	}
	h := &Hub{tools: make(map[string]Tool), logger: logger}

	getBudgetSchema, err := jsonschema.For[GetBudgetInput](nil)
	if err != nil {
		return nil, fmt.Errorf("schema for get_budget: %w", err)
	}
	h.register(Tool{
		Name:        "get_budget",
		Description: "Return channel metrics (spend, clicks, sales) for the given ISO date.",
		Schema:      getBudgetSchema,
		invoke: func(ctx context.Context, args json.RawMessage) (any, error) {
			var in GetBudgetInput
			if err := json.Unmarshal(args, &in); err != nil {
				return nil, fmt.Errorf("decoding get_budget arguments: %w", err)
			}
			day := in.Day
			if day == "" {
				day = time.Now().Format("2006-01-02")
			}
			return wh.FetchMetrics(ctx, day)
		},
	})

	saveProposalSchema, err := jsonschema.For[SaveProposalInput](nil)
	if err != nil {
		return nil, fmt.Errorf("schema for save_proposal: %w", err)
	}
	h.register(Tool{
		Name:        "save_proposal",
		Description: "Persist a proposed budget split given as a Markdown table.",
		Schema:      saveProposalSchema,
		invoke: func(ctx context.Context, args json.RawMessage) (any, error) {
			var in SaveProposalInput
			if err := json.Unmarshal(args, &in); err != nil {
				return nil, fmt.Errorf("decoding save_proposal arguments: %w", err)
			}
			day := in.BudgetDate
			if day == "" {
				day = time.Now().Format("2006-01-02")
			}
			written, err := wh.SaveProposal(ctx, day, in.TableMarkdown)
			if err != nil {
				return nil, err
			}
			if !written {
				return "Nothing written", nil
			}
			return "Saved", nil
		},
	})

	return h, nil
}

func (h *Hub) register(t Tool) {
	h.tools[t.Name] = t
	h.order = append(h.order, t.Name)
}

// Get returns the named tool.
func (h *Hub) Get(name string) (Tool, error) {
	t, ok := h.tools[name]
	if !ok {
		return Tool{}, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return t, nil
}

// Invoke runs the named tool with raw JSON arguments.
func (h *Hub) Invoke(ctx context.Context, name string, args json.RawMessage) (any, error) {
	t, err := h.Get(name)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := t.invoke(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("invoking %s: %w", name, err)
	}

	h.logger.Debug("tool invoked", "tool", name, "duration", time.Since(start))
	return result, nil
}

// Manifest lists the registered tools in registration order.
func (h *Hub) Manifest() []Info {
	out := make([]Info, 0, len(h.order))
	for _, name := range h.order {
		t := h.tools[name]
		out = append(out, Info{Name: t.Name, Description: t.Description})
	}
	return out
}
