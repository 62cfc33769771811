// Package respond writes JSON bodies and maps service errors to status codes.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MrJamesThe3rd/grantledger/internal/attachment"
	"github.com/MrJamesThe3rd/grantledger/internal/budget"
	"github.com/MrJamesThe3rd/grantledger/internal/importer"
	"github.com/MrJamesThe3rd/grantledger/internal/logger"
	"github.com/MrJamesThe3rd/grantledger/internal/matching"
)

func JSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.FromContext(r.Context()).Error().Err(err).Msg("failed to encode response")
	}
}

// Error writes err with the status its sentinel maps to. Unknown errors are
// logged and reported as a bare internal error.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status := Status(err)
	if status == http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		http.Error(w, "internal error", status)

		return
	}

	http.Error(w, err.Error(), status)
}

func Status(err error) int {
	switch {
	case errors.Is(err, budget.ErrNotFound), errors.Is(err, attachment.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, budget.ErrInvalidAmount),
		errors.Is(err, budget.ErrAmountOverflow),
		errors.Is(err, budget.ErrInvalidPrice),
		errors.Is(err, budget.ErrEmptyDescription),
		errors.Is(err, budget.ErrNothingToImport),
		errors.Is(err, importer.ErrUnknownFormat),
		errors.Is(err, matching.ErrEmptyPattern):
		return http.StatusBadRequest
	case errors.Is(err, importer.ErrNoItems), errors.Is(err, budget.ErrNothingImported):
		return http.StatusUnprocessableEntity
	case errors.Is(err, budget.ErrAttachmentsDisabled):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
