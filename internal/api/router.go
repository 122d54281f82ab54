package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/vibenotes/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *noteservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Collection.
	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Route("/notes/{id}", func(r chi.Router) {
		r.Get("/", h.GetNote)
		r.Delete("/", h.DeleteNote)
		r.Post("/duplicate", h.DuplicateNote)
		r.Put("/active", h.ActivateNote)
		r.Get("/segments", h.Segments)
		r.Get("/html", h.RenderHTML)
		r.Post("/export", h.ExportPDF)
	})

	// Live editor.
	r.Get("/editor", h.GetEditor)
	r.Put("/editor", h.Edit)
	r.Post("/editor/commands", h.ApplyCommand)
	r.Post("/editor/images", h.UploadImage)

	// Preferences.
	r.Get("/preferences", h.GetPreferences)
	r.Put("/preferences", h.SetPreferences)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
