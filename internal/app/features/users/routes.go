// internal/app/features/users/routes.go
package users

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	r.Post("/{id}/role", h.HandleSetRole)
	r.Post("/{id}/phones", h.HandleSetPhoneGrant)
	r.Post("/{id}/delete", h.HandleDelete)
	return r
}
