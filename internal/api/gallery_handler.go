package api

import (
	"context"
	"image"
	"net/http"

	"github.com/phrazzld/photogallery/internal/api/shared"
	"github.com/phrazzld/photogallery/internal/gallery"
)

// Gallery is the part of *gallery.Presenter the handlers drive.
type Gallery interface {
	Snapshot(ctx context.Context) (gallery.Snapshot, error)
	Refresh(ctx context.Context) error
	Search(ctx context.Context, query string) error
	ClearSearch(ctx context.Context) error
	Bind(ctx context.Context, id gallery.SlotID, position int) error
	Unbind(ctx context.Context, id gallery.SlotID) error
	Thumbnail(ctx context.Context, id gallery.SlotID) (image.Image, bool, error)
	Show(ctx context.Context) error
	Hide(ctx context.Context) error
}

// GalleryHandler handles gallery HTTP requests
type GalleryHandler struct {
	gallery Gallery
}

// NewGalleryHandler creates a new GalleryHandler
func NewGalleryHandler(g Gallery) *GalleryHandler {
	return &GalleryHandler{gallery: g}
}

// GetPhotos handles GET /api/photos requests
func (h *GalleryHandler) GetPhotos(w http.ResponseWriter, r *http.Request) {
	snap, err := h.gallery.Snapshot(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to read gallery")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, galleryToResponse(snap))
}

// RefreshPhotos handles POST /api/photos/refresh requests
func (h *GalleryHandler) RefreshPhotos(w http.ResponseWriter, r *http.Request) {
	if err := h.gallery.Refresh(r.Context()); err != nil {
		HandleAPIError(w, r, err, "Failed to refresh gallery")
		return
	}
	h.GetPhotos(w, r)
}

// Search handles POST /api/search requests
func (h *GalleryHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.gallery.Search(r.Context(), req.Query); err != nil {
		HandleAPIError(w, r, err, "Failed to search")
		return
	}
	h.GetPhotos(w, r)
}

// ClearSearch handles DELETE /api/search requests
func (h *GalleryHandler) ClearSearch(w http.ResponseWriter, r *http.Request) {
	if err := h.gallery.ClearSearch(r.Context()); err != nil {
		HandleAPIError(w, r, err, "Failed to clear search")
		return
	}
	h.GetPhotos(w, r)
}

// BindSlot handles PUT /api/slots/{slot} requests
func (h *GalleryHandler) BindSlot(w http.ResponseWriter, r *http.Request) {
	id, err := getPathSlot(r, "slot")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req BindRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.gallery.Bind(r.Context(), id, *req.Position); err != nil {
		HandleAPIError(w, r, err, "Failed to bind slot")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UnbindSlot handles DELETE /api/slots/{slot} requests
func (h *GalleryHandler) UnbindSlot(w http.ResponseWriter, r *http.Request) {
	id, err := getPathSlot(r, "slot")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.gallery.Unbind(r.Context(), id); err != nil {
		HandleAPIError(w, r, err, "Failed to unbind slot")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetThumbnail handles GET /api/slots/{slot}/thumbnail requests.
// A slot still showing its placeholder answers 404.
func (h *GalleryHandler) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	id, err := getPathSlot(r, "slot")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	img, loaded, err := h.gallery.Thumbnail(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to read thumbnail")
		return
	}
	if !loaded {
		shared.RespondWithError(w, r, http.StatusNotFound, "Thumbnail not loaded yet")
		return
	}
	shared.RespondWithPNG(w, r, img)
}

// SetVisibility handles POST /api/gallery/visibility requests
func (h *GalleryHandler) SetVisibility(w http.ResponseWriter, r *http.Request) {
	var req VisibilityRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	var err error
	if *req.Visible {
		err = h.gallery.Show(r.Context())
	} else {
		err = h.gallery.Hide(r.Context())
	}
	if err != nil {
		HandleAPIError(w, r, err, "Failed to change visibility")
		return
	}
	h.GetPhotos(w, r)
}
