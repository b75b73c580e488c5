// Package api implements the JSON HTTP handlers.
package api

import (
	"encoding/json"
	"net/http"
)

// meta carries the status portion of every response.
type meta struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Errors  any    `json:"errors,omitempty"`
}

// envelope is the uniform response shape: {meta: {...}, result: ...}.
type envelope struct {
	Meta   meta `json:"meta"`
	Result any  `json:"result,omitempty"`
}

// writeSuccess writes a success envelope with the given payload.
func writeSuccess(w http.ResponseWriter, status int, message string, result any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{
		Meta:   meta{Success: true, Message: message},
		Result: result,
	})
}

// writeError writes a failure envelope with no result.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{
		Meta: meta{Success: false, Message: message},
	})
}
