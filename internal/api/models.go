package api

import (
	"time"

	"github.com/phrazzld/photogallery/internal/domain"
	"github.com/phrazzld/photogallery/internal/gallery"
	"github.com/phrazzld/photogallery/internal/poll"
)

// SearchRequest defines the payload for starting a search.
type SearchRequest struct {
	Query string `json:"query" validate:"required,max=256"`
}

// BindRequest defines the payload for binding a slot to a position.
// Position is a pointer so a missing field is told apart from zero.
type BindRequest struct {
	Position *int `json:"position" validate:"required,gte=0"`
}

// VisibilityRequest defines the payload for showing or hiding the gallery.
type VisibilityRequest struct {
	Visible *bool `json:"visible" validate:"required"`
}

// PollRequest defines the payload for switching background polling.
type PollRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// GalleryResponse describes the gallery state.
type GalleryResponse struct {
	Query       string               `json:"query"`
	Items       []domain.GalleryItem `json:"items"`
	BoundSlots  int                  `json:"bound_slots"`
	LoadedSlots int                  `json:"loaded_slots"`
	Visible     bool                 `json:"visible"`
}

// PollResultResponse describes a single poll.
type PollResultResponse struct {
	Outcome  string    `json:"outcome"`
	Query    string    `json:"query"`
	ResultID string    `json:"result_id,omitempty"`
	PolledAt time.Time `json:"polled_at"`
}

// PollStatusResponse describes the background poller.
type PollStatusResponse struct {
	Enabled  bool                `json:"enabled"`
	Interval string              `json:"interval"`
	Last     *PollResultResponse `json:"last,omitempty"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}

func galleryToResponse(snap gallery.Snapshot) GalleryResponse {
	items := snap.Items
	if items == nil {
		items = []domain.GalleryItem{}
	}
	return GalleryResponse{
		Query:       snap.Query,
		Items:       items,
		BoundSlots:  snap.BoundSlots,
		LoadedSlots: snap.LoadedSlots,
		Visible:     snap.Visible,
	}
}

func pollResultToResponse(result poll.Result) PollResultResponse {
	return PollResultResponse{
		Outcome:  string(result.Outcome),
		Query:    result.Query,
		ResultID: result.ResultID,
		PolledAt: result.PolledAt,
	}
}

func pollStatusToResponse(status poll.Status) PollStatusResponse {
	resp := PollStatusResponse{
		Enabled:  status.AlarmOn,
		Interval: status.Interval.String(),
	}
	if status.Last != nil {
		last := pollResultToResponse(*status.Last)
		resp.Last = &last
	}
	return resp
}
