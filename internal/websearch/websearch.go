// Package websearch is a client for a SearXNG metasearch instance.
//
// SearXNG exposes JSON results on GET /search?q=...&format=json; the
// client fetches a query and returns the top results for the caller to
// summarize. The instance is expected to run nearby (same host or
// network), so there is no retry logic.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/admetric/admetric/internal/log"
)

// DefaultMaxResults caps how many results Search returns regardless of
// how many the instance sends back.
const DefaultMaxResults = 5

// maxBodyBytes bounds how much of a response body is read. SearXNG
// replies are small; anything larger is suspect.
const maxBodyBytes = 1 << 20

// Result is one search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// searchResponse mirrors the fields we need from the SearXNG JSON shape.
type searchResponse struct {
	Results []Result `json:"results"`
}

// Client queries a single SearXNG instance.
type Client struct {
	baseURL    string
	maxResults int
	httpClient *http.Client
	logger     log.Logger
}

// New creates a Client for the instance at baseURL (e.g.
// "http://localhost:8080"). A non-positive timeout falls back to 10s.
func New(baseURL string, timeout time.Duration, logger log.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Client{
		baseURL:    baseURL,
		maxResults: DefaultMaxResults,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Search runs query against the instance and returns at most
// DefaultMaxResults hits, in the instance's relevance order.
func (c *Client) Search(ctx context.Context, query string) ([]Result, error) {
	endpoint := fmt.Sprintf("%s/search?q=%s&format=json", c.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("searching %q: %w", query, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading search response: %w", err)
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	results := parsed.Results
	if len(results) > c.maxResults {
		results = results[:c.maxResults]
	}

	c.logger.Debug("search completed",
		"query", query,
		"results", len(results),
		"duration", time.Since(start),
	)
	return results, nil
}
