// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/quizwire/quizwire/internal/quiz"
	"github.com/quizwire/quizwire/internal/session"
)

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a generic error response
func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]any{"success": false, "error": message})
}

// writeForbidden writes a 403 Forbidden response
func writeForbidden(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusForbidden, map[string]any{"success": false, "error": message})
}

// writeNotFound writes a 404 Not Found response
func writeNotFound(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": message})
}

// writeInternalError writes a 500 response without leaking details
func writeInternalError(w http.ResponseWriter) {
	writeJSON(w, http.StatusInternalServerError, map[string]any{
		"success": false,
		"error":   "internal server error",
	})
}

// writeStoreError maps store and quiz errors to HTTP responses.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		writeNotFound(w, "Session not found")
	case errors.Is(err, quiz.ErrNotFound):
		writeNotFound(w, "Quiz not found")
	case errors.Is(err, session.ErrSessionClosed):
		writeError(w, http.StatusBadRequest, "Session is already active")
	case errors.Is(err, session.ErrSessionFull):
		writeError(w, http.StatusBadRequest, "Session is full")
	case errors.Is(err, session.ErrIsHost):
		writeError(w, http.StatusBadRequest, "Host cannot join as participant")
	case errors.Is(err, session.ErrInvalidTransition):
		writeError(w, http.StatusBadRequest, "Invalid session state transition")
	default:
		writeInternalError(w)
	}
}
