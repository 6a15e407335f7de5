// internal/app/features/listings/routes.go
package listings

import (
	"github.com/ufarent/ufarent/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes serves the HTML form pages and media upload under /listings.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/new", h.ServeNew)
		pr.Post("/new", h.HandleCreate)
		pr.Get("/{id}/edit", h.ServeEdit)
		pr.Post("/{id}/edit", h.HandleEdit)
		pr.Post("/{id}/media", h.HandleMediaUpload)
	})

	return r
}

// APIRoutes serves the JSON mutation endpoints under /api/listings.
// Authorization happens inside the handlers via the Guard, so the table in
// one place decides who may do what.
func APIRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/{id}/archive", h.HandleArchive)
	r.Post("/{id}/restore", h.HandleRestore)
	r.Post("/{id}/delete", h.HandleDelete)
	r.Post("/{id}/status", h.HandleSetStatus)
	return r
}
