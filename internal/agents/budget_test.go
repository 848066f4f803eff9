package agents

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/admetric/admetric/internal/history"
	"github.com/admetric/admetric/internal/log"
	"github.com/admetric/admetric/internal/warehouse"
)

const proposedTable = `| channel | current_spend | proposed_spend | Δ% | brief_rationale |
|---------|---------------|----------------|----|-----------------|
| google  | 100           | 108            | 8% | strong ROAS     |
| meta    | 200           | 192            | -4% | rising CPA     |`

// mockOracle returns a scripted reply and records the last prompt.
type mockOracle struct {
	reply      string
	err        error
	lastPrompt string
	calls      int
}

func (m *mockOracle) Complete(_ context.Context, prompt string) (string, error) {
	m.calls++
	m.lastPrompt = prompt
	return m.reply, m.err
}

// mockWarehouse scripts both store operations and records their arguments.
type mockWarehouse struct {
	metrics    []warehouse.MetricsRow
	metricsErr error

	saveWritten bool
	saveErr     error

	fetchDay      string
	savedDay      string
	savedMarkdown string
	saveCalls     int
}

func (m *mockWarehouse) FetchMetrics(_ context.Context, day string) ([]warehouse.MetricsRow, error) {
	m.fetchDay = day
	return m.metrics, m.metricsErr
}

func (m *mockWarehouse) SaveProposal(_ context.Context, day, markdown string) (bool, error) {
	m.saveCalls++
	m.savedDay = day
	m.savedMarkdown = markdown
	return m.saveWritten, m.saveErr
}

func fixedClock() time.Time {
	return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
}

func TestBudgetHandle_Analysis(t *testing.T) {
	t.Parallel()

	oracle := &mockOracle{reply: proposedTable}
	wh := &mockWarehouse{metrics: []warehouse.MetricsRow{
		{Channel: "google", Spend: 100, Clicks: 2500, Sales: 480},
		{Channel: "meta", Spend: 200, Clicks: 4100, Sales: 910},
	}}
	buffer := history.NewBuffer(10)

	b := NewBudget(oracle, wh, buffer, log.NewNop())
	b.now = fixedClock

	answer, err := b.Handle(context.Background(), "how should we split spend for 2026-08-15?")
	require.NoError(t, err)
	assert.Equal(t, proposedTable, answer)

	assert.Equal(t, "2026-08-15", wh.fetchDay)
	assert.Contains(t, oracle.lastPrompt, "2026-08-15")
	assert.Contains(t, oracle.lastPrompt, "google, 100.00, 2500, 480.00")
	assert.Contains(t, oracle.lastPrompt, "meta, 200.00, 4100, 910.00")

	// The exchange lands in the shared buffer.
	turns := buffer.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, history.RoleUser, turns[0].Role)
	assert.Equal(t, history.RoleAssistant, turns[1].Role)
	assert.Equal(t, proposedTable, turns[1].Text)
}

func TestBudgetHandle_AnalysisDefaultsToToday(t *testing.T) {
	t.Parallel()

	wh := &mockWarehouse{metrics: []warehouse.MetricsRow{{Channel: "google", Spend: 1}}}
	b := NewBudget(&mockOracle{reply: "table"}, wh, history.NewBuffer(10), log.NewNop())
	b.now = fixedClock

	_, err := b.Handle(context.Background(), "reallocate today's budget")
	require.NoError(t, err)
	assert.Equal(t, "2026-09-01", wh.fetchDay)
}

func TestBudgetHandle_NoMetricsForDay(t *testing.T) {
	t.Parallel()

	oracle := &mockOracle{}
	b := NewBudget(oracle, &mockWarehouse{}, history.NewBuffer(10), log.NewNop())
	b.now = fixedClock

	answer, err := b.Handle(context.Background(), "budget for 2030-01-01?")
	require.NoError(t, err)
	assert.Equal(t, "No metrics found for 2030-01-01.", answer)
	assert.Zero(t, oracle.calls, "no metrics means no oracle call")
}

func TestBudgetHandle_ApplyPersistsLastProposedTable(t *testing.T) {
	t.Parallel()

	wh := &mockWarehouse{saveWritten: true}
	buffer := history.NewBuffer(10)
	buffer.AppendExchange("split the budget", proposedTable)
	buffer.AppendExchange("thanks", "You're welcome. Want me to apply it?")

	b := NewBudget(&mockOracle{}, wh, buffer, log.NewNop())
	b.now = fixedClock

	answer, err := b.Handle(context.Background(), "yes, apply it")
	require.NoError(t, err)
	assert.Equal(t, "New budget split stored.", answer)

	assert.Equal(t, 1, wh.saveCalls)
	assert.Equal(t, "2026-09-01", wh.savedDay)
	assert.Equal(t, proposedTable, wh.savedMarkdown)
}

func TestBudgetHandle_ApplyPicksNewestTable(t *testing.T) {
	t.Parallel()

	older := "| google | 1 | 2 | 100% | old plan |"
	newer := "| google | 3 | 4 | 33% | new plan |"

	wh := &mockWarehouse{saveWritten: true}
	buffer := history.NewBuffer(10)
	buffer.AppendExchange("plan one", older)
	buffer.AppendExchange("plan two", newer)

	b := NewBudget(&mockOracle{}, wh, buffer, log.NewNop())
	b.now = fixedClock

	_, err := b.Handle(context.Background(), "commit that")
	require.NoError(t, err)
	assert.Equal(t, newer, wh.savedMarkdown)
}

func TestBudgetHandle_ApplyWithoutProposal(t *testing.T) {
	t.Parallel()

	wh := &mockWarehouse{}
	b := NewBudget(&mockOracle{}, wh, history.NewBuffer(10), log.NewNop())
	b.now = fixedClock

	answer, err := b.Handle(context.Background(), "apply the budget")
	require.NoError(t, err)
	assert.Contains(t, answer, "don't see a proposed budget table")
	assert.Zero(t, wh.saveCalls)
}

func TestBudgetHandle_ApplyNothingWritten(t *testing.T) {
	t.Parallel()

	wh := &mockWarehouse{saveWritten: false}
	buffer := history.NewBuffer(10)
	buffer.AppendExchange("plan", proposedTable)

	b := NewBudget(&mockOracle{}, wh, buffer, log.NewNop())
	b.now = fixedClock

	answer, err := b.Handle(context.Background(), "apply")
	require.NoError(t, err)
	assert.Contains(t, answer, "nothing was stored")
}

func TestBudgetHandle_ErrorsLeaveBufferUntouched(t *testing.T) {
	t.Parallel()

	t.Run("fetch failure", func(t *testing.T) {
		t.Parallel()

		buffer := history.NewBuffer(10)
		wh := &mockWarehouse{metricsErr: errors.New("warehouse down")}
		b := NewBudget(&mockOracle{}, wh, buffer, log.NewNop())
		b.now = fixedClock

		_, err := b.Handle(context.Background(), "budget insights please")
		assert.ErrorContains(t, err, "warehouse down")
		assert.Zero(t, buffer.Len())
	})

	t.Run("oracle failure", func(t *testing.T) {
		t.Parallel()

		buffer := history.NewBuffer(10)
		wh := &mockWarehouse{metrics: []warehouse.MetricsRow{{Channel: "google"}}}
		b := NewBudget(&mockOracle{err: errors.New("model unavailable")}, wh, buffer, log.NewNop())
		b.now = fixedClock

		_, err := b.Handle(context.Background(), "budget insights please")
		assert.ErrorContains(t, err, "model unavailable")
		assert.Zero(t, buffer.Len())
	})

	t.Run("save failure", func(t *testing.T) {
		t.Parallel()

		buffer := history.NewBuffer(10)
		buffer.AppendExchange("plan", proposedTable)
		wh := &mockWarehouse{saveErr: errors.New("insert failed")}
		b := NewBudget(&mockOracle{}, wh, buffer, log.NewNop())
		b.now = fixedClock

		_, err := b.Handle(context.Background(), "apply")
		assert.ErrorContains(t, err, "insert failed")
		assert.Equal(t, 2, buffer.Len(), "failed turn must not be appended")
	})
}
