package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"driveindex/internal/contextutil"
	"driveindex/internal/indexer"
	"driveindex/internal/jobs"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	writeJSON(ctx, w, status, ErrorResponse{Error: message})
}

// internalErrorMessage is the only text a 500 response carries; the cause
// goes to the log.
const internalErrorMessage = "Internal server error"

// writeDomainError answers with the status for err. Known domain errors carry
// their own message; anything else is reported as an internal error.
func writeDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	status := statusFor(err)
	writeError(ctx, w, status, publicMessage(err, status))
}

func publicMessage(err error, status int) string {
	for _, known := range []error{indexer.ErrMissingRoot, jobs.ErrRootBusy, jobs.ErrClosed} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	if status == http.StatusInternalServerError {
		return internalErrorMessage
	}
	return http.StatusText(status)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, indexer.ErrMissingRoot):
		return http.StatusBadRequest
	case errors.Is(err, jobs.ErrRootBusy):
		return http.StatusConflict
	case errors.Is(err, jobs.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
