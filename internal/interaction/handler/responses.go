package handler

import (
	"encoding/json"
	"net/http"

	pkgerrors "grantor/pkg/errors"
)

// errorResponse is the JSON error envelope: the wire code only, never
// internal detail.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError centralizes protocol error translation to HTTP responses so
// every endpoint returns a consistent envelope.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, pkgerrors.StatusOf(err), errorResponse{Error: string(pkgerrors.CodeOf(err))})
}
