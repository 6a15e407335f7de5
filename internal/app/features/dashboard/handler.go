// internal/app/features/dashboard/handler.go
package dashboard

import (
	"context"
	"net/http"

	uierrors "github.com/ufarent/ufarent/internal/app/features/errors"
	listingstore "github.com/ufarent/ufarent/internal/app/store/listings"
	"github.com/ufarent/ufarent/internal/app/system/authz"
	"github.com/ufarent/ufarent/internal/app/system/gates"
	"github.com/ufarent/ufarent/internal/app/system/timeouts"
	"github.com/ufarent/ufarent/internal/app/system/viewdata"
	"github.com/ufarent/ufarent/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

type Handler struct {
	Listings *listingstore.Store
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
}

func NewHandler(listings *listingstore.Store, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Listings: listings,
		Log:      logger,
		ErrLog:   errLog,
	}
}

type dashboardPageData struct {
	viewdata.BaseVM
	Listings    []models.Listing
	ActiveCount int
	DraftCount  int
	ArchCount   int
	ShowsAll    bool
}

// ServeDashboard handles GET /dashboard. Regular users see their own
// listings in any status; admins see every listing.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	info := gates.RequireAuth(w, r, "/login")
	if !info.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	showsAll := authz.IsAdmin(r)

	var (
		listings []models.Listing
		err      error
	)
	if showsAll {
		listings, err = h.Listings.All(ctx, 500, 0, true)
	} else {
		listings, err = h.Listings.ByOwner(ctx, info.UserID.Hex(), true)
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load dashboard listings", err, "Произошла ошибка сервера.", "/")
		return
	}

	data := dashboardPageData{
		BaseVM:   viewdata.NewBaseVM(r, "Мои объявления", "/"),
		Listings: listings,
		ShowsAll: showsAll,
	}
	for _, l := range listings {
		switch l.Status {
		case models.StatusActive:
			data.ActiveCount++
		case models.StatusDraft:
			data.DraftCount++
		case models.StatusArchived:
			data.ArchCount++
		}
	}

	templates.Render(w, r, "dashboard", data)
}
