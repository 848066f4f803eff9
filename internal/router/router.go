// Package router implements the request state machine: classify an incoming
// question into exactly one branch, dispatch it to that branch's handler,
// and hand the answer back.
//
// Classification is layered: a deterministic keyword fast path first, then
// the language-model oracle, then a hard fallback to the generic branch.
// Classification can degrade but never fail: every request leaves the
// router with a resolved branch.
package router

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/admetric/admetric/internal/history"
	"github.com/admetric/admetric/internal/jsonfix"
	"github.com/admetric/admetric/internal/log"
)

// Branch is the single handler category selected for a request.
type Branch string

// The fixed set of valid branches.
const (
	BranchBudget  Branch = "budget_insights"
	BranchSearch  Branch = "web_search"
	BranchGeneric Branch = "generic"
)

// budgetKeywords short-circuits classification: any of these in the
// lower-cased question selects the budget branch without an oracle call.
var budgetKeywords = []string{"spend", "budget", "roas", "channel", "metrics"}

// phase tracks a request through the router's state machine.
type phase string

const (
	phaseReceived    phase = "received"
	phaseClassifying phase = "classifying"
	phaseDispatched  phase = "dispatched"
	phaseCompleted   phase = "completed"
)

// Oracle produces a text completion for a prompt. The router treats it as
// untrusted: output may be malformed, and calls may time out or fail.
type Oracle interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Result is the outcome of routing one request.
type Result struct {
	Branch Branch
	Answer string
}

// Router classifies questions and dispatches them to branch handlers.
type Router struct {
	oracle   Oracle
	registry *Registry
	buffer   *history.Buffer
	timeout  time.Duration
	logger   log.Logger
}

// New creates a Router.
func New(oracle Oracle, registry *Registry, buffer *history.Buffer, timeout time.Duration, logger log.Logger) *Router {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Router{
		oracle:   oracle,
		registry: registry,
		buffer:   buffer,
		timeout:  timeout,
		logger:   logger,
	}
}

// Route runs one request through the full state machine and returns the
// branch and answer. An error here is always a handler execution failure;
// classification problems have already degraded to the generic branch.
func (r *Router) Route(ctx context.Context, question string) (Result, error) {
	current := phaseReceived
	r.logger.Debug("request received", "phase", current)

	current = phaseClassifying
	r.logger.Debug("classifying", "phase", current)
	branch := r.Classify(ctx, question)

	current = phaseDispatched
	r.logger.Debug("request dispatched", "phase", current, "branch", branch)

	answer, err := r.registry.Dispatch(ctx, branch, question)
	if err != nil {
		return Result{Branch: branch}, fmt.Errorf("handler %s: %w", branch, err)
	}

	current = phaseCompleted
	r.logger.Debug("request completed", "phase", current, "branch", branch)

	return Result{Branch: branch, Answer: answer}, nil
}

// Classify resolves the question to exactly one branch. It never returns an
// error: oracle failures, malformed output and unknown labels all degrade
// to the generic branch.
func (r *Router) Classify(ctx context.Context, question string) Branch {
	// Fast path: budget intent is recognisable without spending an oracle
	// call. This check always takes precedence.
	if containsBudgetKeyword(question) {
		r.logger.Debug("keyword shortcut", "branch", BranchBudget)
		return BranchBudget
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	raw, err := r.oracle.Complete(ctx, routingPrompt(question, r.buffer.Strings()))
	if err != nil {
		r.logger.Warn("oracle classification failed, falling back to generic", "error", err)
		return BranchGeneric
	}

	repaired := jsonfix.Repair(raw)

	var decision struct {
		Next string `json:"next"`
	}
	if err := json.Unmarshal([]byte(repaired), &decision); err != nil {
		r.logger.Warn("unparseable oracle decision, falling back to generic",
			"raw", truncate(raw, 200), "error", err)
		return BranchGeneric
	}

	return parseBranch(decision.Next, r.logger)
}

// containsBudgetKeyword reports whether the lower-cased question contains
// any budget keyword.
func containsBudgetKeyword(question string) bool {
	q := strings.ToLower(question)
	for _, kw := range budgetKeywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}

// parseBranch maps an oracle label to a known branch, defaulting to generic
// for anything unrecognised.
func parseBranch(label string, logger log.Logger) Branch {
	switch Branch(strings.TrimSpace(label)) {
	case BranchBudget:
		return BranchBudget
	case BranchSearch:
		return BranchSearch
	case BranchGeneric:
		return BranchGeneric
	default:
		logger.Warn("unknown branch label, falling back to generic", "label", label)
		return BranchGeneric
	}
}

// routingPrompt builds the classification prompt, enumerating the valid
// branches and passing recent shared history for context.
func routingPrompt(question string, historyLines []string) string {
	var sb strings.Builder
	sb.WriteString(`Route the user query to one of these branches:

  - budget_insights  - questions about the company's current budget, marketing spend, ROAS, channels, reallocating budget, daily metrics, proposing a new budget
  - web_search       - factual or open-ended questions answerable via the web
  - generic          - greetings or off-topic

Respond ONLY with JSON like:
{"next": "<branch>"}

`)
	if len(historyLines) > 0 {
		sb.WriteString("Recent conversation:\n")
		sb.WriteString(strings.Join(historyLines, "\n"))
		sb.WriteString("\n\n")
	}
	sb.WriteString("User Query: ")
	sb.WriteString(question)
	return sb.String()
}

// truncate shortens s for log output.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
