package domain

import "time"

// NewResults describes a poll that found a newer first result than the last one seen.
type NewResults struct {
	// Query is the stored search query, empty for the popular feed.
	Query string `json:"query,omitempty"`

	// ResultID is the ID of the newest item in the listing.
	ResultID string `json:"result_id"`

	// ItemCount is the number of items in the listing.
	ItemCount int `json:"item_count"`

	// PolledAt is when the listing was fetched.
	PolledAt time.Time `json:"polled_at"`
}

// Notification title and text shown for new results
const (
	NewPicturesTitle = "New Pictures"
	NewPicturesText  = "You have new pictures in PhotoGallery."
)
