package domain

import (
	"errors"
	"net/url"
)

// Common validation errors for GalleryItem
var (
	ErrEmptyItemID  = errors.New("gallery item ID cannot be empty")
	ErrEmptyItemURL = errors.New("gallery item URL cannot be empty")
	ErrInvalidURL   = errors.New("gallery item URL must be an absolute http(s) URL")
)

// GalleryItem is a single photo returned by the listing API.
// Caption is optional; items without an image URL never make it into a listing.
type GalleryItem struct {
	ID      string `json:"id"`
	Caption string `json:"caption,omitempty"`
	URL     string `json:"url"`
}

// Validate checks if the GalleryItem has valid data.
func (g GalleryItem) Validate() error {
	if g.ID == "" {
		return ErrEmptyItemID
	}

	if g.URL == "" {
		return ErrEmptyItemURL
	}

	u, err := url.Parse(g.URL)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidURL
	}

	return nil
}
