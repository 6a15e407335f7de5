// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/ufarent/ufarent/internal/app/system/authz"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
)

// pageData is the basic view model for error pages.
type pageData struct {
	Title      string
	IsLoggedIn bool
	Role       string
	UserName   string
	Message    string
	BackURL    string
}

// Handler is the errors feature handler.
// No DB needed; it just renders templates.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Routes mounts the standalone error pages.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/forbidden", h.Forbidden)
	r.Get("/unauthorized", h.Unauthorized)
	return r
}

// Forbidden renders a friendly "access denied" page.
// GET /forbidden
func (h *Handler) Forbidden(w http.ResponseWriter, r *http.Request) {
	role, name, _, signedIn := authz.UserCtx(r)

	data := pageData{
		Title:      "Доступ запрещён",
		IsLoggedIn: signedIn,
		Role:       role,
		UserName:   name,
		Message:    "У вас нет прав для просмотра этой страницы.",
		BackURL:    "/",
	}

	w.WriteHeader(http.StatusForbidden)
	templates.Render(w, r, "error_page", data)
}

// Unauthorized renders a friendly "sign in required" page.
// GET /unauthorized
func (h *Handler) Unauthorized(w http.ResponseWriter, r *http.Request) {
	role, name, _, signedIn := authz.UserCtx(r)

	data := pageData{
		Title:      "Требуется вход",
		IsLoggedIn: signedIn,
		Role:       role,
		UserName:   name,
		Message:    "Пожалуйста, войдите, чтобы продолжить.",
		BackURL:    "/login",
	}

	w.WriteHeader(http.StatusUnauthorized)
	templates.Render(w, r, "error_page", data)
}
