package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/admetric/admetric/internal/history"
	"github.com/admetric/admetric/internal/log"
	"github.com/admetric/admetric/internal/websearch"
)

// maxSnippetBytes bounds how much raw search text goes into the summary
// prompt.
const maxSnippetBytes = 1500

const searchSummaryPrompt = `Summarise these search snippets in 3-4 bullet points, marketing-focused:

%s`

// Search answers web_search questions: run the query against the metasearch
// instance, then have the oracle compress the snippets into a few bullets.
type Search struct {
	oracle   Oracle
	searcher Searcher
	buffer   *history.Buffer
	logger   log.Logger
}

// NewSearch creates the web search handler.
func NewSearch(oracle Oracle, searcher Searcher, buffer *history.Buffer, logger log.Logger) *Search {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Search{oracle: oracle, searcher: searcher, buffer: buffer, logger: logger}
}

// Handle searches, summarises, and records the exchange.
func (s *Search) Handle(ctx context.Context, question string) (string, error) {
	results, err := s.searcher.Search(ctx, question)
	if err != nil {
		return "", fmt.Errorf("searching the web: %w", err)
	}
	if len(results) == 0 {
		answer := "I couldn't find any web results for that."
		s.buffer.AppendExchange(question, answer)
		return answer, nil
	}

	snippets := formatSnippets(results)
	answer, err := s.oracle.Complete(ctx, fmt.Sprintf(searchSummaryPrompt, snippets))
	if err != nil {
		return "", fmt.Errorf("summarising search results: %w", err)
	}

	s.buffer.AppendExchange(question, answer)
	return answer, nil
}

// formatSnippets flattens results into prompt text, truncated to keep the
// prompt bounded.
func formatSnippets(results []websearch.Result) string {
	var sb strings.Builder
	for _, r := range results {
		fmt.Fprintf(&sb, "%s (%s): %s\n", r.Title, r.URL, r.Content)
	}
	text := sb.String()
	if len(text) > maxSnippetBytes {
		text = text[:maxSnippetBytes]
	}
	return strings.TrimSpace(text)
}
