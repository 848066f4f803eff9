package router

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnknownBranch indicates a dispatch against a branch with no registered
// handler. The classifier's total fallback makes this unreachable through
// Route, but direct Dispatch calls must fail loudly rather than no-op.
var ErrUnknownBranch = errors.New("unknown branch")

// Handler answers a question for one branch. Handlers append the completed
// question/answer pair to the shared history buffer as a side effect and
// must be invocable independently of the router.
type Handler interface {
	Handle(ctx context.Context, question string) (string, error)
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, question string) (string, error)

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, question string) (string, error) {
	return f(ctx, question)
}

// Registry is the static dispatch table mapping each branch to its handler.
// It is built once at process start; there is no runtime discovery.
type Registry struct {
	handlers map[Branch]Handler
}

// NewRegistry creates an empty dispatch table.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[Branch]Handler)}
}

// Register binds a handler to a branch, replacing any previous binding.
func (r *Registry) Register(branch Branch, h Handler) {
	r.handlers[branch] = h
}

// Dispatch invokes the handler registered for branch.
func (r *Registry) Dispatch(ctx context.Context, branch Branch, question string) (string, error) {
	h, ok := r.handlers[branch]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownBranch, branch)
	}
	return h.Handle(ctx, question)
}

// Branches returns the registered branch labels.
func (r *Registry) Branches() []Branch {
	out := make([]Branch, 0, len(r.handlers))
	for b := range r.handlers {
		out = append(out, b)
	}
	return out
}
