package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/matiasleandrokruk/healthassist/internal/domain/tool"
)

type ToolHandler struct {
	registry *tool.ToolRegistry
}

func NewToolHandler(registry *tool.ToolRegistry) *ToolHandler {
	return &ToolHandler{registry: registry}
}

type callToolRequest struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

type callToolResponse struct {
	Tool   string          `json:"tool"`
	Result json.RawMessage `json:"result"`
}

func (h *ToolHandler) ListTools(w http.ResponseWriter, _ *http.Request) {
	writeList(w, h.registry.Definitions())
}

func (h *ToolHandler) CallTool(w http.ResponseWriter, r *http.Request) {
	var req callToolRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	out, err := h.registry.Call(r.Context(), req.Name, req.Arguments)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeData(w, callToolResponse{Tool: req.Name, Result: out})
}
