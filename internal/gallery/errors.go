package gallery

import "errors"

var (
	// ErrClosed is returned once Close has been called or the main loop has quit.
	ErrClosed = errors.New("gallery: closed")

	// ErrPositionOutOfRange is returned by Bind for a position past the current items.
	ErrPositionOutOfRange = errors.New("gallery: position out of range")

	// ErrUnknownSlot is returned for a slot that is not bound.
	ErrUnknownSlot = errors.New("gallery: slot not bound")

	// ErrInvalidSlot is returned for a negative slot id.
	ErrInvalidSlot = errors.New("gallery: invalid slot")

	// ErrFetchFailed wraps the error of a failed item listing fetch.
	ErrFetchFailed = errors.New("gallery: fetching items failed")

	// ErrInvalidColor is returned by ParseHexColor.
	ErrInvalidColor = errors.New("gallery: invalid hex color")
)
