// internal/app/features/admin/routes.go
package admin

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeConsole)
	r.Get("/archive", h.ServeArchive)
	return r
}
