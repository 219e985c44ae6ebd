package handlers

import (
	"errors"
	"ticket-ledger/internal/status"

	"github.com/pocketbase/pocketbase/apis"
)

// apiError maps core error kinds onto API responses so callers can act on
// the failure instead of parsing strings.
func apiError(message string, err error) error {
	switch {
	case errors.Is(err, status.ErrUnauthorized):
		return apis.NewForbiddenError(message, err)
	case errors.Is(err, status.ErrNotFound):
		return apis.NewNotFoundError(message, err)
	case errors.Is(err, status.ErrScannerKeyInvalid):
		return apis.NewUnauthorizedError(message, err)
	default:
		return apis.NewBadRequestError(message, err)
	}
}
