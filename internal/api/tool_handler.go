package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tamshai/hr-gateway/internal/api/respond"
	"github.com/tamshai/hr-gateway/internal/model"
	"github.com/tamshai/hr-gateway/internal/tools"
)

// ToolHandler provides HTTP transport for the tool registry. Every tool
// result ships as an envelope with HTTP 200: the envelope's status field is
// authoritative, not the transport status. Only malformed or unauthenticated
// requests use 4xx.
type ToolHandler struct {
	registry *tools.Registry
}

func NewToolHandler(registry *tools.Registry) *ToolHandler {
	return &ToolHandler{registry: registry}
}

type toolRequest struct {
	Input          json.RawMessage      `json:"input"`
	CallerIdentity model.CallerIdentity `json:"callerIdentity"`
}

type executeRequest struct {
	Action         string               `json:"action"`
	ConfirmationID string               `json:"confirmationId"`
	CallerIdentity model.CallerIdentity `json:"callerIdentity"`
}

// InvokeTool POST /api/tools/{tool}
func (h *ToolHandler) InvokeTool(w http.ResponseWriter, r *http.Request) {
	tool := mux.Vars(r)["tool"]

	var req toolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if req.CallerIdentity.ID == "" {
		respond.WriteBadRequest(w, "callerIdentity.id is required")
		return
	}

	resp := h.registry.Dispatch(r.Context(), tool, req.Input, req.CallerIdentity)
	respond.WriteJSON(w, http.StatusOK, resp)
}

// ExecuteAction POST /api/tools/execute
func (h *ToolHandler) ExecuteAction(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if req.CallerIdentity.ID == "" {
		respond.WriteBadRequest(w, "callerIdentity.id is required")
		return
	}

	resp := h.registry.Execute(r.Context(), req.Action, req.ConfirmationID, req.CallerIdentity)
	respond.WriteJSON(w, http.StatusOK, resp)
}

// ListTools GET /api/tools
func (h *ToolHandler) ListTools(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, http.StatusOK, map[string]any{"tools": h.registry.Names()})
}
