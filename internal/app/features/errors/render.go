// internal/app/features/errors/render.go
package errors

import (
	"net/http"
	"strings"

	"github.com/ufarent/ufarent/internal/app/system/auth"
	"github.com/dalemusser/waffle/pantry/templates"
)

// renderError writes status and the shared error page. JSON/API callers get
// a plain error body with the same status instead of HTML.
func renderError(w http.ResponseWriter, r *http.Request, status int, title, msg, backURL string) {
	if !wantsHTML(r) {
		http.Error(w, msg, status)
		return
	}

	u, signed := auth.CurrentUser(r)
	role, name := "", ""
	if signed && u != nil {
		role, name = u.Role, u.Name
	}

	data := pageData{
		Title:      title,
		IsLoggedIn: signed,
		Role:       role,
		UserName:   name,
		Message:    msg,
		BackURL:    backURL,
	}

	w.WriteHeader(status)
	templates.Render(w, r, "error_page", data)
}

// RenderUnauthorized shows a friendly "sign in required" page.
// If backURL is empty, it will default to /login.
func RenderUnauthorized(w http.ResponseWriter, r *http.Request, backURL string) {
	if backURL == "" {
		backURL = "/login"
	}
	renderError(w, r, http.StatusUnauthorized,
		"Требуется вход", "Пожалуйста, войдите, чтобы продолжить.", backURL)
}

// RenderForbidden shows a friendly access error page with a message.
// If backURL is empty, it falls back to the site root.
func RenderForbidden(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	if backURL == "" {
		backURL = "/"
	}
	if msg == "" {
		msg = "У вас нет прав для этого действия."
	}
	renderError(w, r, http.StatusForbidden, "Доступ запрещён", msg, backURL)
}

// RenderNotFound shows a friendly "not found" page with a message.
func RenderNotFound(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	if backURL == "" {
		backURL = "/"
	}
	if msg == "" {
		msg = "Страница не найдена."
	}
	renderError(w, r, http.StatusNotFound, "Не найдено", msg, backURL)
}

// RenderBadRequest shows a friendly validation error page with a message.
func RenderBadRequest(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	if backURL == "" {
		backURL = "/"
	}
	renderError(w, r, http.StatusBadRequest, "Некорректный запрос", msg, backURL)
}

// RenderServerError shows a friendly server error page with a message.
// The technical cause should already be logged by the caller.
func RenderServerError(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	if backURL == "" {
		backURL = "/"
	}
	if msg == "" {
		msg = "Произошла ошибка на сервере. Попробуйте ещё раз."
	}
	renderError(w, r, http.StatusInternalServerError, "Ошибка сервера", msg, backURL)
}

func wantsHTML(r *http.Request) bool {
	if r.Header.Get("HX-Request") == "true" {
		return true
	}
	accept := r.Header.Get("Accept")
	// Browsers send text/html first; API clients ask for JSON or anything.
	return accept == "" || strings.Contains(accept, "text/html")
}
