// internal/app/features/catalog/handler.go
package catalog

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/ufarent/ufarent/internal/app/features/errors"
	listingstore "github.com/ufarent/ufarent/internal/app/store/listings"
	"github.com/ufarent/ufarent/internal/app/system/authz"
	"github.com/ufarent/ufarent/internal/app/system/inputval"
	"github.com/ufarent/ufarent/internal/app/system/timeouts"
	"github.com/ufarent/ufarent/internal/app/system/viewdata"
	"github.com/ufarent/ufarent/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

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

type detailPageData struct {
	viewdata.BaseVM
	Listing   models.Listing
	ShowPhone bool
	CanEdit   bool
}

type freshPageData struct {
	viewdata.BaseVM
	Listings []models.Listing
}

// ServeDetail handles GET /catalog/{id}.
//
// The phone decision happens before the store read: for viewers without the
// grant the listing is fetched without its phone field, so the number never
// reaches the handler at all.
func (h *Handler) ServeDetail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !inputval.IsValidUUID(id) {
		uierrors.RenderNotFound(w, r, "Объявление не найдено.", "/")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	viewer := authz.ViewerFromRequest(r)
	showPhone, err := h.Guard.CanViewPhone(ctx, viewer)
	if err != nil {
		if errors.Is(err, authz.ErrStoreUnavailable) {
			h.ErrLog.LogServerError(w, r, "phone grant lookup", err, "Произошла ошибка сервера.", "/")
			return
		}
		showPhone = false
	}

	l, err := h.Listings.GetByID(ctx, id, showPhone)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load listing", err, "Произошла ошибка сервера.", "/")
		return
	}
	if l == nil {
		uierrors.RenderNotFound(w, r, "Объявление не найдено.", "/")
		return
	}

	// Archived and draft listings are visible only to their owner and admins.
	if l.Status != models.StatusActive {
		isOwner := viewer.SignedIn && l.OwnerID == viewer.ID.Hex()
		if !isOwner && !models.RoleAtLeast(viewer.Role, models.RoleAdmin) {
			uierrors.RenderNotFound(w, r, "Объявление не найдено.", "/")
			return
		}
	}

	canEdit := viewer.SignedIn &&
		(l.OwnerID == viewer.ID.Hex() || models.RoleAtLeast(viewer.Role, models.RoleAdmin))

	templates.Render(w, r, "catalog_detail", detailPageData{
		BaseVM:    viewdata.NewBaseVM(r, l.Title, "/"),
		Listing:   *l,
		ShowPhone: showPhone && l.Phone != "",
		CanEdit:   canEdit,
	})
}

// ServeFresh handles GET /catalog/fresh: listings added in the last day.
func (h *Handler) ServeFresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	listings, err := h.Listings.Fresh(ctx, 100, false)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load fresh listings", err, "Произошла ошибка сервера.", "/")
		return
	}

	templates.Render(w, r, "catalog_fresh", freshPageData{
		BaseVM:   viewdata.NewBaseVM(r, "Свежие объявления", "/"),
		Listings: listings,
	})
}
