package notify

import (
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/photogallery/internal/domain"
	"github.com/phrazzld/photogallery/internal/events"
)

// Notification is the message handed to a user-facing sink.
type Notification struct {
	EventID   uuid.UUID `json:"event_id"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	Query     string    `json:"query,omitempty"`
	ResultID  string    `json:"result_id"`
	ItemCount int       `json:"item_count"`
	CreatedAt time.Time `json:"created_at"`
}

// FromEvent builds the notification announcing event.
func FromEvent(event *events.NewResultsEvent) (Notification, error) {
	results, err := event.Results()
	if err != nil {
		return Notification{}, err
	}
	return Notification{
		EventID:   event.ID,
		Title:     domain.NewPicturesTitle,
		Text:      domain.NewPicturesText,
		Query:     results.Query,
		ResultID:  results.ResultID,
		ItemCount: results.ItemCount,
		CreatedAt: event.CreatedAt,
	}, nil
}
