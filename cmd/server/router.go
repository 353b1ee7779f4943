package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/phrazzld/photogallery/internal/api"
	apiMiddleware "github.com/phrazzld/photogallery/internal/api/middleware"
)

// setupRouter creates the router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	galleryHandler := api.NewGalleryHandler(app.gallery)
	pollHandler := api.NewPollHandler(app.poller)

	r.Route("/api", func(r chi.Router) {
		r.Get("/photos", galleryHandler.GetPhotos)
		r.Post("/photos/refresh", galleryHandler.RefreshPhotos)

		r.Post("/search", galleryHandler.Search)
		r.Delete("/search", galleryHandler.ClearSearch)

		r.Put("/slots/{slot}", galleryHandler.BindSlot)
		r.Delete("/slots/{slot}", galleryHandler.UnbindSlot)
		r.Get("/slots/{slot}/thumbnail", galleryHandler.GetThumbnail)

		r.Post("/gallery/visibility", galleryHandler.SetVisibility)

		r.Get("/poll", pollHandler.GetStatus)
		r.Put("/poll", pollHandler.SetEnabled)
		r.Post("/poll/run", pollHandler.RunNow)
	})

	r.Get("/health", api.HealthCheck)

	return r
}
