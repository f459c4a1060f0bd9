package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/odyssey-erp/odyssey-iam/internal/shared"
)

// StatusFor maps domain errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrInvalidBody),
		errors.Is(err, shared.ErrMissingField),
		errors.Is(err, shared.ErrInvalidParameter),
		errors.Is(err, shared.ErrInvalidRelation):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrIdempotencyInFlight):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes err as {"error": message}. Unexpected errors are logged
// and reported without internal detail.
func RespondError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError && logger != nil {
		logger.Error("request failed", slog.Any("error", err))
	}
	Error(w, status, shared.UserSafeMessage(err))
}
