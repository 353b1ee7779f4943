package api

import (
	"context"
	"net/http"

	"github.com/phrazzld/photogallery/internal/api/shared"
	"github.com/phrazzld/photogallery/internal/poll"
)

// Poller is the part of *poll.Poller the handlers drive.
type Poller interface {
	Status() poll.Status
	SetAlarm(ctx context.Context, on bool) error
	PollOnce(ctx context.Context) (poll.Result, error)
}

// PollHandler handles background polling HTTP requests
type PollHandler struct {
	poller Poller
}

// NewPollHandler creates a new PollHandler
func NewPollHandler(p Poller) *PollHandler {
	return &PollHandler{poller: p}
}

// GetStatus handles GET /api/poll requests
func (h *PollHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, pollStatusToResponse(h.poller.Status()))
}

// SetEnabled handles PUT /api/poll requests
func (h *PollHandler) SetEnabled(w http.ResponseWriter, r *http.Request) {
	var req PollRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.poller.SetAlarm(r.Context(), *req.Enabled); err != nil {
		HandleAPIError(w, r, err, "Failed to update polling")
		return
	}
	h.GetStatus(w, r)
}

// RunNow handles POST /api/poll/run requests
func (h *PollHandler) RunNow(w http.ResponseWriter, r *http.Request) {
	result, err := h.poller.PollOnce(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to poll")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, pollResultToResponse(result))
}
