// internal/app/features/errors/errors.go
package errors

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dalemusser/verihub/internal/app/system/hierarchy"
	"go.uber.org/zap"
)

// body is the JSON error envelope every failed API call returns.
type body struct {
	Error string `json:"error"`
}

// Render writes a JSON error response with the given status and message.
func Render(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body{Error: msg})
}

// RenderUnauthorized writes a 401 "sign in required" response.
func RenderUnauthorized(w http.ResponseWriter) {
	Render(w, http.StatusUnauthorized, "sign in required")
}

// RenderForbidden writes a 403 with the given message.
func RenderForbidden(w http.ResponseWriter, msg string) {
	Render(w, http.StatusForbidden, msg)
}

// RenderNotFound writes a 404 with the given message.
func RenderNotFound(w http.ResponseWriter, msg string) {
	Render(w, http.StatusNotFound, msg)
}

// RenderBadRequest writes a 400 with the given message.
func RenderBadRequest(w http.ResponseWriter, msg string) {
	Render(w, http.StatusBadRequest, msg)
}

// RenderInternal logs the underlying error and writes a generic 500.
// The message sent to the client never includes err.
func RenderInternal(w http.ResponseWriter, log *zap.Logger, context string, err error) {
	if log != nil {
		log.Error(context, zap.Error(err))
	}
	Render(w, http.StatusInternalServerError, "internal error")
}

// RenderHierarchyError maps hierarchy resolution failures to HTTP responses.
// An unknown user is the caller's mistake and surfaces as 404; every other
// failure is a server-side data problem and fails closed with a 500.
func RenderHierarchyError(w http.ResponseWriter, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, hierarchy.ErrUnknownUser):
		RenderNotFound(w, "no hierarchy entry for user")
	case errors.Is(err, hierarchy.ErrMalformedHierarchy),
		errors.Is(err, hierarchy.ErrMissingAnchor),
		errors.Is(err, hierarchy.ErrUnsupportedRole):
		RenderInternal(w, log, "hierarchy resolution failed", err)
	default:
		RenderInternal(w, log, "hierarchy resolution failed", err)
	}
}
