// Package oracle wraps the Genkit language-model client behind a narrow
// text-in/text-out interface.
//
// Everything downstream (router classification, handler generation) treats
// the model as an unreliable external collaborator: calls carry a bounded
// timeout and callers are expected to handle failure gracefully.
package oracle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/admetric/admetric/internal/log"
)

// DefaultTimeout bounds a single completion call when no timeout is
// configured.
const DefaultTimeout = 15 * time.Second

// Client produces text completions via Genkit.
type Client struct {
	g         *genkit.Genkit
	modelName string
	timeout   time.Duration
	logger    log.Logger
}

// New creates a Client. modelName may be empty to use the provider default.
func New(g *genkit.Genkit, modelName string, timeout time.Duration, logger log.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Client{g: g, modelName: modelName, timeout: timeout, logger: logger}
}

// Complete generates a completion for prompt. The call is bounded by the
// client's timeout; a timeout surfaces as an ordinary error for the caller
// to degrade on.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	opts := []ai.GenerateOption{ai.WithPrompt(prompt)}
	if c.modelName != "" {
		opts = append(opts, ai.WithModelName(c.modelName))
	}

	start := time.Now()
	resp, err := genkit.Generate(ctx, c.g, opts...)
	if err != nil {
		return "", fmt.Errorf("generating completion: %w", err)
	}

	c.logger.Debug("completion generated",
		"model", c.modelName,
		"prompt_length", len(prompt),
		"duration", time.Since(start),
	)

	return strings.TrimSpace(resp.Text()), nil
}
