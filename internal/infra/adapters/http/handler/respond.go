package httphandler

import (
	"encoding/json"
	"net/http"
)

// errorResponse is the error envelope every endpoint returns.
type errorResponse struct {
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Details *map[string]any `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusInternalServerError, errorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
		Details: &map[string]any{"error": err.Error()},
	})
}
