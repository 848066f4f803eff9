package agents

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/admetric/admetric/internal/history"
	"github.com/admetric/admetric/internal/log"
	"github.com/admetric/admetric/internal/websearch"
)

// mockSearcher scripts search results and records the query.
type mockSearcher struct {
	results   []websearch.Result
	err       error
	lastQuery string
}

func (m *mockSearcher) Search(_ context.Context, query string) ([]websearch.Result, error) {
	m.lastQuery = query
	return m.results, m.err
}

func TestSearchHandle(t *testing.T) {
	t.Parallel()

	oracle := &mockOracle{reply: "- CPC is up across the industry\n- Competitors shift to video"}
	searcher := &mockSearcher{results: []websearch.Result{
		{Title: "Ad costs 2026", URL: "https://example.com/a", Content: "CPC rose 12%"},
		{Title: "Video trend", URL: "https://example.com/b", Content: "Short video dominates"},
	}}
	buffer := history.NewBuffer(10)

	s := NewSearch(oracle, searcher, buffer, log.NewNop())

	answer, err := s.Handle(context.Background(), "what are ad costs doing this year?")
	require.NoError(t, err)
	assert.Equal(t, oracle.reply, answer)

	assert.Equal(t, "what are ad costs doing this year?", searcher.lastQuery)
	assert.Contains(t, oracle.lastPrompt, "Summarise these search snippets")
	assert.Contains(t, oracle.lastPrompt, "CPC rose 12%")
	assert.Contains(t, oracle.lastPrompt, "https://example.com/b")

	turns := buffer.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, answer, turns[1].Text)
}

func TestSearchHandle_NoResults(t *testing.T) {
	t.Parallel()

	oracle := &mockOracle{}
	buffer := history.NewBuffer(10)
	s := NewSearch(oracle, &mockSearcher{}, buffer, log.NewNop())

	answer, err := s.Handle(context.Background(), "obscure query")
	require.NoError(t, err)
	assert.Contains(t, answer, "couldn't find")
	assert.Zero(t, oracle.calls)
	assert.Equal(t, 2, buffer.Len())
}

func TestSearchHandle_SnippetsTruncated(t *testing.T) {
	t.Parallel()

	oracle := &mockOracle{reply: "summary"}
	searcher := &mockSearcher{results: []websearch.Result{
		{Title: "Long", URL: "https://example.com", Content: strings.Repeat("x", 5000)},
	}}
	s := NewSearch(oracle, searcher, history.NewBuffer(10), log.NewNop())

	_, err := s.Handle(context.Background(), "anything")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(oracle.lastPrompt), maxSnippetBytes+len(searchSummaryPrompt))
}

func TestSearchHandle_Errors(t *testing.T) {
	t.Parallel()

	t.Run("search failure", func(t *testing.T) {
		t.Parallel()

		buffer := history.NewBuffer(10)
		s := NewSearch(&mockOracle{}, &mockSearcher{err: errors.New("instance down")}, buffer, log.NewNop())

		_, err := s.Handle(context.Background(), "anything")
		assert.ErrorContains(t, err, "instance down")
		assert.Zero(t, buffer.Len())
	})

	t.Run("summary failure", func(t *testing.T) {
		t.Parallel()

		buffer := history.NewBuffer(10)
		searcher := &mockSearcher{results: []websearch.Result{{Title: "hit", Content: "text"}}}
		s := NewSearch(&mockOracle{err: errors.New("model unavailable")}, searcher, buffer, log.NewNop())

		_, err := s.Handle(context.Background(), "anything")
		assert.ErrorContains(t, err, "model unavailable")
		assert.Zero(t, buffer.Len())
	})
}
