package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/admetric/admetric/internal/history"
	"github.com/admetric/admetric/internal/log"
)

// capabilities tells users what the specialist branches can do, so the
// generic handler doubles as a front door.
const capabilities = `I can also hand off your request to specialists if you ask for:

- "reallocate budget", "spend split", "ROAS by channel" -> budget insights
- "look up", "latest news", "what are competitors doing" -> web search

Just describe what you need in plain English.`

const genericPromptFormat = `You are a friendly marketing-assistant chatbot.
%s

Chat history (oldest to newest):
%s

User: %s
Assistant:`

// Generic is the fallback chat handler: plain oracle conversation with the
// shared history in the prompt.
type Generic struct {
	oracle Oracle
	buffer *history.Buffer
	logger log.Logger
}

// NewGeneric creates the fallback handler.
func NewGeneric(oracle Oracle, buffer *history.Buffer, logger log.Logger) *Generic {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Generic{oracle: oracle, buffer: buffer, logger: logger}
}

// Handle chats with the oracle and records the exchange.
func (g *Generic) Handle(ctx context.Context, question string) (string, error) {
	historyText := strings.Join(g.buffer.Strings(), "\n")

	prompt := fmt.Sprintf(genericPromptFormat, capabilities, historyText, question)
	answer, err := g.oracle.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generating chat reply: %w", err)
	}

	g.buffer.AppendExchange(question, answer)
	return answer, nil
}
