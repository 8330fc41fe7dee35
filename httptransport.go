package spt

import (
	"encoding/json"
	"errors"
	"net/http"
)

// errorEnvelope wraps error payloads the way the shared payment token API
// returns them: {"error": {"type": ..., "code": ..., "message": ...}}.
type errorEnvelope struct {
	Error *Error `json:"error"`
}

func writeServiceError(w http.ResponseWriter, err error) {
	var httpErr *Error
	if errors.As(err, &httpErr) {
		writeJSONError(w, httpErr)
		return
	}
	writeJSONError(w, NewProcessingError("internal server error"))
}

func writeJSONError(w http.ResponseWriter, payload *Error) {
	if payload == nil {
		payload = NewProcessingError("internal server error")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(payload.status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Error: payload})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}
