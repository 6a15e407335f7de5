// internal/app/features/home/handler.go
package home

import (
	"context"
	"net/http"
	"strconv"

	uierrors "github.com/ufarent/ufarent/internal/app/features/errors"
	listingstore "github.com/ufarent/ufarent/internal/app/store/listings"
	"github.com/ufarent/ufarent/internal/app/system/timeouts"
	"github.com/ufarent/ufarent/internal/app/system/viewdata"
	"github.com/ufarent/ufarent/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

const pageSize = 24

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

type catalogPageData struct {
	viewdata.BaseVM
	Listings      []models.Listing
	Districts     []string
	PropertyTypes []string

	// Echoed filter values
	Query        string
	District     string
	PropertyType string
	MinPrice     string
	MaxPrice     string
	FreshOnly    bool

	Page     int64
	HasMore  bool
	NextPage int64
	PrevPage int64
}

// ServeHome handles GET /: the public catalog with filters. Phones are never
// shown on the list page, so the store read skips them outright.
func (h *Handler) ServeHome(w http.ResponseWriter, r *http.Request) {
	filter, page := filterFromQuery(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	// Fetch one extra row to know whether a next page exists.
	filter.Limit = pageSize + 1
	filter.Offset = (page - 1) * pageSize

	listings, err := h.Listings.Catalog(ctx, filter, false)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load catalog", err, "Произошла ошибка сервера.", "/")
		return
	}

	hasMore := int64(len(listings)) > pageSize
	if hasMore {
		listings = listings[:pageSize]
	}

	templates.Render(w, r, "home", catalogPageData{
		BaseVM:        viewdata.NewBaseVM(r, "Аренда жилья в Уфе", "/"),
		Listings:      listings,
		Districts:     models.Districts,
		PropertyTypes: models.PropertyTypes,
		Query:         filter.Query,
		District:      filter.District,
		PropertyType:  filter.PropertyType,
		MinPrice:      echoPrice(filter.MinPrice),
		MaxPrice:      echoPrice(filter.MaxPrice),
		FreshOnly:     filter.FreshOnly,
		Page:          page,
		HasMore:       hasMore,
		NextPage:      page + 1,
		PrevPage:      page - 1,
	})
}

// filterFromQuery builds a catalog filter from the request query string.
// Unknown district/type values are dropped rather than rejected.
func filterFromQuery(r *http.Request) (listingstore.CatalogFilter, int64) {
	f := listingstore.CatalogFilter{
		Query:     query.Get(r, "q"),
		FreshOnly: query.Get(r, "fresh") == "1",
	}

	if d := query.Get(r, "district"); models.IsValidDistrict(d) {
		f.District = d
	}
	if t := query.Get(r, "type"); models.IsValidPropertyType(t) {
		f.PropertyType = t
	}
	if min, err := strconv.ParseInt(query.Get(r, "min"), 10, 64); err == nil && min > 0 {
		f.MinPrice = min
	}
	if max, err := strconv.ParseInt(query.Get(r, "max"), 10, 64); err == nil && max > 0 {
		f.MaxPrice = max
	}

	page := int64(1)
	if p, err := strconv.ParseInt(query.Get(r, "page"), 10, 64); err == nil && p > 1 {
		page = p
	}

	return f, page
}

func echoPrice(v int64) string {
	if v <= 0 {
		return ""
	}
	return strconv.FormatInt(v, 10)
}
