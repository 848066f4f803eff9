package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/admetric/admetric/internal/history"
	"github.com/admetric/admetric/internal/log"
	"github.com/admetric/admetric/internal/router"
	"github.com/admetric/admetric/internal/session"
)

// Router routes one chat question to a branch handler. *router.Router
// satisfies it.
type Router interface {
	Route(ctx context.Context, question string) (router.Result, error)
}

// ChatRequest is the POST /chat request body.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// ChatResponse is the POST /chat response body.
type ChatResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
	Branch    string `json:"branch"`
}

// ChatHandler handles the conversational entry point.
//
// One request is one turn: load (or create) the session, route the message
// to a branch handler, persist the replaced session state, reply. Turns of
// the same session are serialised through the keyed locks; different
// sessions proceed concurrently.
type ChatHandler struct {
	router Router
	store  session.Store
	locks  *session.Locks
	buffer *history.Buffer
	logger log.Logger
}

// NewChatHandler creates the chat handler.
func NewChatHandler(rt Router, store session.Store, locks *session.Locks, buffer *history.Buffer, logger log.Logger) *ChatHandler {
	return &ChatHandler{router: rt, store: store, locks: locks, buffer: buffer, logger: logger}
}

// RegisterRoutes registers chat routes on the given mux.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /chat", h.handleChat)
}

func (h *ChatHandler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be JSON")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "message is required")
		return
	}

	// A fresh conversation gets a server-minted session id.
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	release := h.locks.Acquire(sessionID)
	defer release()

	ctx := r.Context()
	if _, err := h.store.Load(ctx, sessionID); err != nil && !errors.Is(err, session.ErrNotFound) {
		h.logger.Error("session load failed", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "session_error", "failed to load session")
		return
	}

	result, err := h.router.Route(ctx, req.Message)
	if err != nil {
		// Nothing is persisted for a failed turn.
		h.logger.Error("chat turn failed",
			"session_id", sessionID,
			"branch", result.Branch,
			"error", err)
		writeError(w, http.StatusInternalServerError, "handler_error", "failed to answer the message")
		return
	}

	state := &session.State{
		Branch:   string(result.Branch),
		Answer:   result.Answer,
		Question: req.Message,
		History:  h.buffer.Strings(),
	}
	if err := h.store.Save(ctx, sessionID, state); err != nil {
		h.logger.Error("session save failed", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "session_error", "failed to save session")
		return
	}

	h.logger.Info("chat turn completed",
		"session_id", sessionID,
		"branch", result.Branch)

	writeJSON(w, http.StatusOK, ChatResponse{
		SessionID: sessionID,
		Reply:     result.Answer,
		Branch:    string(result.Branch),
	})
}
