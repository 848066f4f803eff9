// Package warehouse is the budget data tool: it reads daily channel metrics
// from the Postgres warehouse and appends proposed budget reallocations.
//
// The metrics table is read-only for this system; proposed_budgets is
// append-only. Nothing here updates or deletes rows.
package warehouse

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/admetric/admetric/internal/log"
)

// MetricsRow is one channel's performance for a day, as stored in the
// external warehouse.
type MetricsRow struct {
	Channel string  `json:"channel"`
	Spend   float64 `json:"spend"`
	Clicks  int64   `json:"clicks"`
	Sales   float64 `json:"sales"`
}

// ProposalRow is one parsed line of a proposed budget reallocation, pending
// persistence.
type ProposalRow struct {
	ProposalDate  string  `json:"proposal_date"`
	Channel       string  `json:"channel"`
	CurrentSpend  float64 `json:"current_spend"`
	ProposedSpend float64 `json:"proposed_spend"`
	Rationale     string  `json:"rationale"`
}

// DB is the database surface the Store needs. *pgxpool.Pool satisfies it.
// Defined here, by the consumer, so tests can substitute a mock.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store executes warehouse queries with a bounded per-call timeout.
type Store struct {
	db      DB
	timeout time.Duration
	logger  log.Logger
}

// NewStore creates a Store. A non-positive timeout disables the per-call
// deadline (the caller's context still applies).
func NewStore(db DB, timeout time.Duration, logger log.Logger) *Store {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store{db: db, timeout: timeout, logger: logger}
}

// FetchMetrics returns the metrics rows for day (ISO date, YYYY-MM-DD),
// ordered by channel ascending so prompts and tests are reproducible.
// A day with no rows yields an empty slice, not an error.
func (s *Store) FetchMetrics(ctx context.Context, day string) ([]MetricsRow, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.Query(ctx,
		`SELECT channel, spend, clicks, sales FROM metrics WHERE date = $1 ORDER BY channel`,
		day,
	)
	if err != nil {
		return nil, fmt.Errorf("querying metrics for %s: %w", day, err)
	}
	defer rows.Close()

	out := make([]MetricsRow, 0, 8)
	for rows.Next() {
		var m MetricsRow
		if err := rows.Scan(&m.Channel, &m.Spend, &m.Clicks, &m.Sales); err != nil {
			return nil, fmt.Errorf("scanning metrics row: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading metrics rows: %w", err)
	}

	s.logger.Debug("metrics fetched", "day", day, "rows", len(out))
	return out, nil
}

// SaveProposal parses the Markdown table and persists all rows for day as a
// single batch insert. It returns false (and issues no database call) when
// the table yields zero rows; malformed input is treated as a benign no-op
// rather than an error.
//
// Saving is not deduplicated: a caller that proposes the same table twice
// inserts it twice. Retry policy is the caller's concern.
func (s *Store) SaveProposal(ctx context.Context, day, markdown string) (bool, error) {
	proposalRows := ParseProposalTable(markdown)
	if len(proposalRows) == 0 {
		s.logger.Debug("no parseable proposal rows, nothing written", "day", day)
		return false, nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	// One multi-VALUES INSERT keeps the whole proposal atomic.
	sql, args := buildProposalInsert(day, proposalRows)
	if _, err := s.db.Exec(ctx, sql, args...); err != nil {
		return false, fmt.Errorf("inserting %d proposal rows for %s: %w", len(proposalRows), day, err)
	}

	s.logger.Info("proposal saved", "day", day, "rows", len(proposalRows))
	return true, nil
}

// buildProposalInsert renders the batch INSERT statement and its arguments.
func buildProposalInsert(day string, rows []ProposalRow) (string, []any) {
	const cols = 5

	sql := `INSERT INTO proposed_budgets (proposal_date, channel, current_spend, proposed_spend, rationale) VALUES `
	args := make([]any, 0, len(rows)*cols)

	for i, row := range rows {
		if i > 0 {
			sql += ", "
		}
		base := i * cols
		sql += fmt.Sprintf("($%d, $%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4, base+5)
		args = append(args, day, row.Channel, row.CurrentSpend, row.ProposedSpend, row.Rationale)
	}

	return sql, args
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}
