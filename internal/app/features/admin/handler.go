// internal/app/features/admin/handler.go
package admin

import (
	"context"
	"net/http"

	uierrors "github.com/ufarent/ufarent/internal/app/features/errors"
	listingstore "github.com/ufarent/ufarent/internal/app/store/listings"
	"github.com/ufarent/ufarent/internal/app/system/authz"
	"github.com/ufarent/ufarent/internal/app/system/timeouts"
	"github.com/ufarent/ufarent/internal/app/system/viewdata"
	"github.com/ufarent/ufarent/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// Handler serves the admin console: every listing with status controls, and
// the archive view. Access is decided by the Guard; the handlers only render.
type Handler struct {
	Listings *listingstore.Store
	Guard    *authz.Guard
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
}

func NewHandler(listings *listingstore.Store, guard *authz.Guard, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Listings: listings,
		Guard:    guard,
		Log:      logger,
		ErrLog:   errLog,
	}
}

type consolePageData struct {
	viewdata.BaseVM
	Listings      []models.Listing
	ActiveCount   int64
	DraftCount    int64
	ArchivedCount int64
	IsSuper       bool
}

type archivePageData struct {
	viewdata.BaseVM
	Listings []models.Listing
	IsSuper  bool
}

// requireConsole runs the admin-console guard check and renders the error
// page on denial. Returns false when the request is already handled.
func (h *Handler) requireConsole(w http.ResponseWriter, r *http.Request) bool {
	viewer := authz.ViewerFromRequest(r)
	if err := h.Guard.Can(viewer, authz.ActionViewAdminConsole); err != nil {
		if err == authz.ErrUnauthenticated {
			uierrors.RenderUnauthorized(w, r, "/login")
		} else {
			uierrors.RenderForbidden(w, r, "Требуются права администратора.", "/")
		}
		return false
	}
	return true
}

// ServeConsole handles GET /admin.
func (h *Handler) ServeConsole(w http.ResponseWriter, r *http.Request) {
	if !h.requireConsole(w, r) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	listings, err := h.Listings.All(ctx, 500, 0, true)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load admin console", err, "Произошла ошибка сервера.", "/")
		return
	}

	data := consolePageData{
		BaseVM:   viewdata.NewBaseVM(r, "Администрирование", "/"),
		Listings: listings,
		IsSuper:  authz.IsSuperAdmin(r),
	}
	if n, err := h.Listings.CountByStatus(ctx, models.StatusActive); err == nil {
		data.ActiveCount = n
	}
	if n, err := h.Listings.CountByStatus(ctx, models.StatusDraft); err == nil {
		data.DraftCount = n
	}
	if n, err := h.Listings.CountByStatus(ctx, models.StatusArchived); err == nil {
		data.ArchivedCount = n
	}

	templates.Render(w, r, "admin_console", data)
}

// ServeArchive handles GET /admin/archive: archived listings with restore
// and delete controls. Restore and delete themselves require superadmin, so
// for plain admins the page is read-only.
func (h *Handler) ServeArchive(w http.ResponseWriter, r *http.Request) {
	if !h.requireConsole(w, r) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	listings, err := h.Listings.Archived(ctx, 500, 0, true)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load archive", err, "Произошла ошибка сервера.", "/admin")
		return
	}

	templates.Render(w, r, "admin_archive", archivePageData{
		BaseVM:   viewdata.NewBaseVM(r, "Архив объявлений", "/admin"),
		Listings: listings,
		IsSuper:  authz.IsSuperAdmin(r),
	})
}
