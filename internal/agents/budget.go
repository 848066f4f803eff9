package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/admetric/admetric/internal/history"
	"github.com/admetric/admetric/internal/log"
	"github.com/admetric/admetric/internal/warehouse"
)

const budgetAnalysisPrompt = `You are a paid-media budget analyst.

Task:
1. Review the channel-level metrics below for %s.
2. Re-allocate that day's spend so the total stays within plus or minus 5%% of the current total.
3. Optimise for highest overall ROAS.
4. Reply with only a Markdown table with the columns:
   | channel | current_spend | proposed_spend | Δ%% | brief_rationale |
5. Close by asking whether the user wants to apply the new split.

Metrics (channel, spend, clicks, sales):
%s`

// Budget answers budget_insights questions. Two modes, picked per question:
// an analysis turn fetches the day's metrics and asks the oracle for a
// reallocation table, and an apply turn persists the most recent table the
// assistant proposed.
type Budget struct {
	oracle    Oracle
	warehouse Warehouse
	buffer    *history.Buffer
	now       func() time.Time
	logger    log.Logger
}

// NewBudget creates the budget handler.
func NewBudget(oracle Oracle, wh Warehouse, buffer *history.Buffer, logger log.Logger) *Budget {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Budget{
		oracle:    oracle,
		warehouse: wh,
		buffer:    buffer,
		now:       time.Now,
		logger:    logger,
	}
}

// Handle produces the budget answer and records the exchange in the shared
// buffer.
func (b *Budget) Handle(ctx context.Context, question string) (string, error) {
	day := ExtractDay(question, b.now())

	var (
		answer string
		err    error
	)
	if isApplyIntent(question) {
		answer, err = b.apply(ctx, day)
	} else {
		answer, err = b.analyse(ctx, day)
	}
	if err != nil {
		return "", err
	}

	b.buffer.AppendExchange(question, answer)
	return answer, nil
}

// apply persists the last proposed table from the shared conversation.
func (b *Budget) apply(ctx context.Context, day string) (string, error) {
	table, ok := lastProposedTable(b.buffer)
	if !ok {
		return "I don't see a proposed budget table in the recent conversation. Ask me for a reallocation first, then say apply.", nil
	}

	written, err := b.warehouse.SaveProposal(ctx, day, table)
	if err != nil {
		return "", fmt.Errorf("saving proposal for %s: %w", day, err)
	}
	if !written {
		return "The proposed table could not be parsed, so nothing was stored.", nil
	}

	b.logger.Info("budget proposal applied", "day", day)
	return "New budget split stored.", nil
}

// analyse fetches the day's metrics and asks the oracle for a reallocation.
func (b *Budget) analyse(ctx context.Context, day string) (string, error) {
	rows, err := b.warehouse.FetchMetrics(ctx, day)
	if err != nil {
		return "", fmt.Errorf("fetching metrics for %s: %w", day, err)
	}
	if len(rows) == 0 {
		return fmt.Sprintf("No metrics found for %s.", day), nil
	}

	prompt := fmt.Sprintf(budgetAnalysisPrompt, day, formatMetrics(rows))
	answer, err := b.oracle.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generating budget analysis for %s: %w", day, err)
	}
	return answer, nil
}

// isApplyIntent reports whether the user is confirming a previously proposed
// split rather than asking for a new one.
func isApplyIntent(question string) bool {
	q := strings.ToLower(question)
	return strings.Contains(q, "apply") || strings.Contains(q, "commit")
}

// lastProposedTable scans the buffer newest-first for an assistant turn that
// contains a parseable proposal table.
func lastProposedTable(buffer *history.Buffer) (string, bool) {
	turns := buffer.Turns()
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role != history.RoleAssistant {
			continue
		}
		if len(warehouse.ParseProposalTable(turns[i].Text)) > 0 {
			return turns[i].Text, true
		}
	}
	return "", false
}

// formatMetrics renders rows in the stable channel order they arrive in.
func formatMetrics(rows []warehouse.MetricsRow) string {
	var sb strings.Builder
	for _, r := range rows {
		fmt.Fprintf(&sb, "%s, %.2f, %d, %.2f\n", r.Channel, r.Spend, r.Clicks, r.Sales)
	}
	return strings.TrimRight(sb.String(), "\n")
}
