// internal/app/features/catalog/routes.go
package catalog

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/fresh", h.ServeFresh)
	r.Get("/{id}", h.ServeDetail)
	return r
}
