package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/remyxai/remyxai-cli/internal/deploy"
	"github.com/remyxai/remyxai-cli/internal/inference"
	"github.com/remyxai/remyxai-cli/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case inference.IsInvalidRequest(err), deploy.IsInvalidModelName(err):
		return http.StatusBadRequest
	case deploy.IsModelNotFound(err):
		return http.StatusNotFound
	case deploy.IsConflictingOperation(err):
		return http.StatusConflict
	case deploy.IsUnsupportedModelKind(err):
		return http.StatusUnprocessableEntity
	case deploy.IsNotReady(err):
		return http.StatusServiceUnavailable
	}
	if he, ok := err.(HTTPError); ok {
		return he.StatusCode()
	}
	return http.StatusInternalServerError
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, types.ErrorResponse{Error: msg, Code: status})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
