package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/admetric/admetric/internal/log"
	"github.com/admetric/admetric/internal/toolhub"
)

// InvokeRequest is the POST /tools/{tool}/invoke request body. The
// arguments key must be present; its absence is a protocol violation, not
// an empty call.
type InvokeRequest struct {
	Arguments json.RawMessage `json:"arguments"`
}

// InvokeResponse wraps a tool result.
type InvokeResponse struct {
	Result any `json:"result"`
}

// ToolsHandler exposes the tool registry over HTTP.
type ToolsHandler struct {
	hub    *toolhub.Hub
	logger log.Logger
}

// NewToolsHandler creates the tools handler.
func NewToolsHandler(hub *toolhub.Hub, logger log.Logger) *ToolsHandler {
	return &ToolsHandler{hub: hub, logger: logger}
}

// RegisterRoutes registers tool routes on the given mux.
func (h *ToolsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /tools", h.handleManifest)
	mux.HandleFunc("GET /tools/{tool}/schema", h.handleSchema)
	mux.HandleFunc("POST /tools/{tool}/invoke", h.handleInvoke)
}

// handleManifest lists the registered tools.
func (h *ToolsHandler) handleManifest(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.hub.Manifest())
}

// handleSchema returns the argument schema of one tool.
func (h *ToolsHandler) handleSchema(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("tool")

	tool, err := h.hub.Get(name)
	if errors.Is(err, toolhub.ErrUnknownTool) {
		writeError(w, http.StatusNotFound, "unknown_tool", name)
		return
	}

	writeJSON(w, http.StatusOK, tool.Schema)
}

// handleInvoke runs one tool with the supplied arguments.
func (h *ToolsHandler) handleInvoke(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("tool")

	var req InvokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be JSON")
		return
	}
	if req.Arguments == nil {
		writeError(w, http.StatusUnprocessableEntity, "missing_arguments", "arguments key is required")
		return
	}

	result, err := h.hub.Invoke(r.Context(), name, req.Arguments)
	if errors.Is(err, toolhub.ErrUnknownTool) {
		writeError(w, http.StatusNotFound, "unknown_tool", name)
		return
	}
	if err != nil {
		h.logger.Error("tool invocation failed", "tool", name, "error", err)
		writeError(w, http.StatusInternalServerError, "invoke_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, InvokeResponse{Result: result})
}
