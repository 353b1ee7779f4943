package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/phrazzld/photogallery/internal/api/shared"
	"github.com/phrazzld/photogallery/internal/domain"
	"github.com/phrazzld/photogallery/internal/gallery"
	"github.com/phrazzld/photogallery/internal/platform/fivehundredpx"
	"github.com/phrazzld/photogallery/internal/poll"
	"github.com/phrazzld/photogallery/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// leaking internal error types to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Bad request errors
	case errors.Is(err, domain.ErrEmptyQuery),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, gallery.ErrPositionOutOfRange),
		errors.Is(err, gallery.ErrInvalidSlot),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Not found errors
	case errors.Is(err, gallery.ErrUnknownSlot),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Shutting down
	case errors.Is(err, gallery.ErrClosed),
		errors.Is(err, poll.ErrStopped):
		return http.StatusServiceUnavailable

	// Upstream photo service errors
	case errors.Is(err, gallery.ErrFetchFailed),
		errors.Is(err, fivehundredpx.ErrNotFound),
		errors.Is(err, fivehundredpx.ErrForbidden),
		errors.Is(err, fivehundredpx.ErrUnauthorized),
		errors.Is(err, fivehundredpx.ErrServerError),
		errors.Is(err, fivehundredpx.ErrUnexpectedStatus),
		errors.Is(err, fivehundredpx.ErrMalformedBody),
		errors.Is(err, fivehundredpx.ErrBodyTooLarge):
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a user-friendly message for err.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, domain.ErrEmptyQuery):
		return "Search query is required"

	case errors.Is(err, gallery.ErrPositionOutOfRange):
		return "Position is out of range"

	case errors.Is(err, gallery.ErrInvalidSlot):
		return "Invalid slot"

	case errors.Is(err, gallery.ErrUnknownSlot):
		return "Slot is not bound"

	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrValidation):
		return "Invalid data"

	case errors.Is(err, store.ErrNotFound):
		return "Not found"

	case errors.Is(err, gallery.ErrClosed),
		errors.Is(err, poll.ErrStopped):
		return "Service is shutting down"

	case errors.Is(err, fivehundredpx.ErrUnauthorized),
		errors.Is(err, fivehundredpx.ErrForbidden):
		return "Photo service rejected the request"

	case errors.Is(err, gallery.ErrFetchFailed),
		errors.Is(err, fivehundredpx.ErrNotFound),
		errors.Is(err, fivehundredpx.ErrServerError),
		errors.Is(err, fivehundredpx.ErrUnexpectedStatus),
		errors.Is(err, fivehundredpx.ErrMalformedBody),
		errors.Is(err, fivehundredpx.ErrBodyTooLarge):
		return "Photo service unavailable"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError responds with the status and safe message for err and logs
// the details. fallback replaces the generic message for unmapped errors.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallback != "" {
		message = fallback
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Example format: "Key: 'SearchRequest.Query' Error:Field validation for 'Query' failed on the 'required' tag"
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}

				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min", "gte":
		return "too small"
	case "max", "lte":
		return "too large"
	case "notblank":
		return "must not be blank"
	default:
		return "validation failed"
	}
}
