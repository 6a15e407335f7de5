// internal/app/features/listings/forms.go
package listings

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	uierrors "github.com/ufarent/ufarent/internal/app/features/errors"
	"github.com/ufarent/ufarent/internal/app/lifecycle"
	"github.com/ufarent/ufarent/internal/app/system/authz"
	"github.com/ufarent/ufarent/internal/app/system/gates"
	"github.com/ufarent/ufarent/internal/app/system/navigation"
	"github.com/ufarent/ufarent/internal/app/system/timeouts"
	"github.com/ufarent/ufarent/internal/app/system/viewdata"
	"github.com/ufarent/ufarent/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type formPageData struct {
	viewdata.BaseVM
	Listing       models.Listing
	Districts     []string
	PropertyTypes []string
	IsNew         bool
	Error         string
}

// ServeNew handles GET /listings/new. A fresh UUID is issued here so media
// uploaded from the form can reference the listing before it is saved.
func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	if info := gates.RequireAuth(w, r, "/login"); !info.OK {
		return
	}

	templates.Render(w, r, "listing_form", formPageData{
		BaseVM:        viewdata.NewBaseVM(r, "Новое объявление", "/dashboard"),
		Listing:       models.Listing{ID: uuid.NewString()},
		Districts:     models.Districts,
		PropertyTypes: models.PropertyTypes,
		IsNew:         true,
	})
}

// HandleCreate handles POST /listings/new.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	info := gates.RequireAuth(w, r, "/login")
	if !info.OK {
		return
	}

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse listing form", err, "Некорректные данные формы.", "/listings/new")
		return
	}

	id := strings.TrimSpace(r.FormValue("id"))
	in := inputFromForm(r, nil)
	draft := r.FormValue("draft") == "1"

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	created, err := h.Lifecycle.Create(ctx, id, in, info.UserID.Hex(), draft)
	if err != nil {
		if ve, ok := lifecycle.IsValidation(err); ok {
			h.renderForm(w, r, models.Listing{ID: id}, true, fieldMessage(ve))
			return
		}
		h.ErrLog.LogServerError(w, r, "create listing", err, "Произошла ошибка сервера.", "/dashboard")
		return
	}

	h.AuditLog.ListingCreated(ctx, r, info.UserID, created.ID, created.Title)
	http.Redirect(w, r, "/catalog/"+created.ID, http.StatusSeeOther)
}

// ServeEdit handles GET /listings/{id}/edit.
func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
	info := gates.RequireAuth(w, r, "/login")
	if !info.OK {
		return
	}

	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	l, err := h.Listings.GetByID(ctx, id, true)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load listing for edit", err, "Произошла ошибка сервера.", "/dashboard")
		return
	}
	if l == nil {
		uierrors.RenderNotFound(w, r, "Объявление не найдено.", "/dashboard")
		return
	}
	if l.OwnerID != info.UserID.Hex() && !authz.IsAdmin(r) {
		uierrors.RenderForbidden(w, r, "Это объявление принадлежит другому пользователю.", "/dashboard")
		return
	}

	h.renderForm(w, r, *l, false, "")
}

// HandleEdit handles POST /listings/{id}/edit. All form fields are submitted
// together, so every editable key is marked as set.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	info := gates.RequireAuth(w, r, "/login")
	if !info.OK {
		return
	}

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse listing edit form", err, "Некорректные данные формы.", "/dashboard")
		return
	}

	id := chi.URLParam(r, "id")
	in := inputFromForm(r, allFormKeys)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	caller := lifecycle.Caller{UserID: info.UserID.Hex(), Elevated: authz.IsAdmin(r)}
	edited, err := h.Lifecycle.Edit(ctx, id, in, caller)
	if err != nil {
		h.handleMutationError(w, r, err, id, in)
		return
	}

	h.AuditLog.ListingUpdated(ctx, r, info.UserID, edited.ID, strings.Join(in.SetKeys, ","))
	http.Redirect(w, r, "/catalog/"+edited.ID, http.StatusSeeOther)
}

func (h *Handler) handleMutationError(w http.ResponseWriter, r *http.Request, err error, id string, in lifecycle.Input) {
	back := navigation.SafeBackURL(r, navigation.DashboardBackURL)
	switch {
	case isValidation(err):
		ve, _ := lifecycle.IsValidation(err)
		l := models.Listing{
			ID: id, Title: in.Title, Description: in.Description,
			Address: in.Address, District: in.District,
			PropertyType: in.PropertyType, Price: in.Price, Phone: in.Phone,
		}
		h.renderForm(w, r, l, false, fieldMessage(ve))
	case errors.Is(err, authz.ErrNotFound):
		uierrors.RenderNotFound(w, r, "Объявление не найдено.", back)
	case errors.Is(err, authz.ErrForbidden):
		uierrors.RenderForbidden(w, r, "Это объявление принадлежит другому пользователю.", back)
	default:
		h.ErrLog.LogServerError(w, r, "edit listing", err, "Произошла ошибка сервера.", back)
	}
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, l models.Listing, isNew bool, errMsg string) {
	title := "Редактирование объявления"
	if isNew {
		title = "Новое объявление"
	}
	templates.Render(w, r, "listing_form", formPageData{
		BaseVM:        viewdata.NewBaseVM(r, title, "/dashboard"),
		Listing:       l,
		Districts:     models.Districts,
		PropertyTypes: models.PropertyTypes,
		IsNew:         isNew,
		Error:         errMsg,
	})
}

// allFormKeys marks every editable field as supplied, matching the full-form
// POST the edit page sends.
var allFormKeys = []string{
	"title", "description", "address", "district", "property_type",
	"price", "rooms", "area_m2", "floor", "phone", "lat", "lng",
}

// inputFromForm reads listing fields out of a parsed form. setKeys nil means
// "create" (no merge semantics needed).
func inputFromForm(r *http.Request, setKeys []string) lifecycle.Input {
	in := lifecycle.Input{
		Title:        r.FormValue("title"),
		Description:  r.FormValue("description"),
		Address:      r.FormValue("address"),
		District:     r.FormValue("district"),
		PropertyType: r.FormValue("property_type"),
		Phone:        r.FormValue("phone"),
		SetKeys:      setKeys,
	}
	if price, err := strconv.ParseInt(r.FormValue("price"), 10, 64); err == nil {
		in.Price = price
	}
	if rooms, err := strconv.Atoi(r.FormValue("rooms")); err == nil {
		in.Rooms = &rooms
	}
	if area, err := strconv.ParseFloat(r.FormValue("area_m2"), 64); err == nil {
		in.AreaM2 = &area
	}
	if floor, err := strconv.Atoi(r.FormValue("floor")); err == nil {
		in.Floor = &floor
	}
	if lat, err := strconv.ParseFloat(r.FormValue("lat"), 64); err == nil {
		in.Lat = &lat
	}
	if lng, err := strconv.ParseFloat(r.FormValue("lng"), 64); err == nil {
		in.Lng = &lng
	}
	return in
}

// fieldMessage maps a validation failure to a user-facing Russian message.
func fieldMessage(ve *lifecycle.ValidationError) string {
	switch ve.Field {
	case "title":
		return "Укажите название объявления."
	case "price":
		return "Цена должна быть больше нуля."
	case "district":
		return "Выберите район из списка."
	case "property_type":
		return "Выберите тип жилья из списка."
	case "id":
		return "Некорректный идентификатор объявления."
	case "status":
		return "Неизвестный статус."
	}
	return "Проверьте заполнение формы."
}

func isValidation(err error) bool {
	_, ok := lifecycle.IsValidation(err)
	return ok
}
