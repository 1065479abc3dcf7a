package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/matiasleandrokruk/healthassist/internal/domain/insurance"
	"github.com/matiasleandrokruk/healthassist/internal/domain/tool"
)

const maxRequestBodyBytes = 1 << 20

type listMeta struct {
	Total int `json:"total"`
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

// writeData wraps a single resource in {"data": ...}.
func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, map[string]any{"data": data})
}

// writeList wraps a collection in {"data": [...], "meta": {"total": n}}.
func writeList[T any](w http.ResponseWriter, items []T) {
	if items == nil {
		items = []T{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": items, "meta": listMeta{Total: len(items)}})
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		http.Error(w, `{"error":"failed to encode error response"}`, http.StatusInternalServerError)
	}
}

// writeDomainError maps lookup and tool errors onto HTTP statuses. Unexpected
// failures are reported without their internal detail.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, insurance.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, tool.ErrToolExecutorNotRegistered):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, tool.ErrToolValidationFailed):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
