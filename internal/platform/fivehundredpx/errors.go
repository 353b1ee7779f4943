package fivehundredpx

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors.
var (
	ErrNotFound         = errors.New("fivehundredpx: resource not found")
	ErrForbidden        = errors.New("fivehundredpx: access forbidden")
	ErrUnauthorized     = errors.New("fivehundredpx: unauthorized")
	ErrServerError      = errors.New("fivehundredpx: server error")
	ErrUnexpectedStatus = errors.New("fivehundredpx: unexpected status")
	ErrMalformedBody    = errors.New("fivehundredpx: malformed response body")
	ErrBodyTooLarge     = errors.New("fivehundredpx: response body too large")
)

// checkStatusCode returns an appropriate error for anything but 200 OK.
func checkStatusCode(code int, status string) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusForbidden:
		return ErrForbidden
	case code == http.StatusUnauthorized:
		return ErrUnauthorized
	case code >= 500:
		return fmt.Errorf("%w: %s", ErrServerError, status)
	default:
		return fmt.Errorf("%w: %s", ErrUnexpectedStatus, status)
	}
}
