package httpx

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the error body every endpoint emits: a snake_case code in
// Error plus, for validation failures, a field name -> failed-rule map in the
// shape Decode produces.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

// JSON writes payload with the given status. The payload is marshalled before
// any byte hits the wire, so an encoding failure still produces a clean 500
// instead of truncated JSON.
func JSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, `{"error":"encode_error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// JSONError writes an ErrorResponse. details is nil for everything except
// per-field validation errors.
func JSONError(w http.ResponseWriter, status int, code string, details map[string]string) {
	JSON(w, status, ErrorResponse{Error: code, Details: details})
}
