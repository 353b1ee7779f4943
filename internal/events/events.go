package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/photogallery/internal/domain"
)

// EventTypeNewResults is the type of events announcing a newer poll result.
const EventTypeNewResults = "photogallery.new_results"

// ErrConsumed is returned by a handler that has fully dealt with an event.
// The emitter stops delivering the event to later handlers; it is not reported
// as a failure.
var ErrConsumed = errors.New("event consumed")

// NewResultsEvent announces that a poll found results the user has not seen.
type NewResultsEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type is always EventTypeNewResults
	Type string `json:"type"`

	// Payload is the JSON encoded domain.NewResults
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// NewNewResultsEvent wraps results in a new event.
func NewNewResultsEvent(results domain.NewResults) (*NewResultsEvent, error) {
	payload, err := json.Marshal(results)
	if err != nil {
		return nil, fmt.Errorf("encode new results payload: %w", err)
	}

	return &NewResultsEvent{
		ID:        uuid.New(),
		Type:      EventTypeNewResults,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Results decodes the event payload.
func (e *NewResultsEvent) Results() (domain.NewResults, error) {
	var results domain.NewResults
	if err := json.Unmarshal(e.Payload, &results); err != nil {
		return domain.NewResults{}, fmt.Errorf("decode new results payload: %w", err)
	}
	return results, nil
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event. Returning ErrConsumed stops
	// delivery to handlers registered after this one.
	HandleEvent(ctx context.Context, event *NewResultsEvent) error
}

// EventHandlerFunc adapts a function to EventHandler.
type EventHandlerFunc func(ctx context.Context, event *NewResultsEvent) error

// HandleEvent implements EventHandler.
func (f EventHandlerFunc) HandleEvent(ctx context.Context, event *NewResultsEvent) error {
	return f(ctx, event)
}

// EventEmitter defines an interface for components that can emit events.
type EventEmitter interface {
	// EmitEvent publishes the given event to the registered handlers in order.
	EmitEvent(ctx context.Context, event *NewResultsEvent) error
}
