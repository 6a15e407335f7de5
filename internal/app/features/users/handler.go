// internal/app/features/users/handler.go
package users

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	uierrors "github.com/ufarent/ufarent/internal/app/features/errors"
	adminstore "github.com/ufarent/ufarent/internal/app/store/admins"
	listingstore "github.com/ufarent/ufarent/internal/app/store/listings"
	profilestore "github.com/ufarent/ufarent/internal/app/store/profiles"
	"github.com/ufarent/ufarent/internal/app/system/auditlog"
	"github.com/ufarent/ufarent/internal/app/system/authz"
	"github.com/ufarent/ufarent/internal/app/system/normalize"
	"github.com/ufarent/ufarent/internal/app/system/timeouts"
	"github.com/ufarent/ufarent/internal/app/system/viewdata"
	"github.com/ufarent/ufarent/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves the user management console. Every mutation is checked by
// the Guard against the live profile store, not against the session role.
type Handler struct {
	Profiles *profilestore.Store
	Admins   *adminstore.Store
	Listings *listingstore.Store
	Guard    *authz.Guard
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger
}

func NewHandler(profiles *profilestore.Store, admins *adminstore.Store, listings *listingstore.Store, guard *authz.Guard, errLog *uierrors.ErrorLogger, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Profiles: profiles,
		Admins:   admins,
		Listings: listings,
		Guard:    guard,
		Log:      logger,
		ErrLog:   errLog,
		AuditLog: auditLog,
	}
}

type usersPageData struct {
	viewdata.BaseVM
	Profiles []models.Profile
	Search   string
	Total    int64
	SelfID   string
}

// ServeList handles GET /users.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	viewer := authz.ViewerFromRequest(r)
	if err := h.Guard.Can(viewer, authz.ActionMutateUser); err != nil {
		if errors.Is(err, authz.ErrUnauthenticated) {
			uierrors.RenderUnauthorized(w, r, "/login")
		} else {
			uierrors.RenderForbidden(w, r, "Требуются права суперадминистратора.", "/")
		}
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	search := r.URL.Query().Get("q")
	filter := profilestore.ListFilter{Search: search, Limit: 200}

	profiles, err := h.Profiles.List(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list profiles", err, "Произошла ошибка сервера.", "/")
		return
	}
	total, err := h.Profiles.Count(ctx, filter)
	if err != nil {
		total = int64(len(profiles))
	}

	templates.Render(w, r, "users_list", usersPageData{
		BaseVM:   viewdata.NewBaseVM(r, "Пользователи", "/admin"),
		Profiles: profiles,
		Search:   search,
		Total:    total,
		SelfID:   viewer.ID.Hex(),
	})
}

type mutationResponse struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

// HandleSetRole handles POST /users/{id}/role with form value "role".
// Only the user and admin tiers can be assigned; the superadmin tier is
// bootstrapped from configuration and never granted through this console.
func (h *Handler) HandleSetRole(w http.ResponseWriter, r *http.Request) {
	targetID, ok := h.parseTarget(w, r)
	if !ok {
		return
	}

	newRole := normalize.Role(r.FormValue("role"))
	if newRole != models.RoleUser && newRole != models.RoleAdmin {
		writeJSON(w, http.StatusBadRequest, mutationResponse{Reason: "недопустимая роль"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	viewer := authz.ViewerFromRequest(r)
	if err := h.Guard.CanMutateUser(ctx, viewer, targetID, newRole); err != nil {
		h.writeGuardError(w, r, err)
		return
	}

	target, err := h.Profiles.GetByID(ctx, targetID)
	if err != nil || target == nil {
		h.writeStoreError(w, r, "load target profile", err)
		return
	}
	oldRole := target.Role

	if err := h.Profiles.UpdateRole(ctx, targetID, newRole); err != nil {
		h.writeStoreError(w, r, "update role", err)
		return
	}
	if err := h.Admins.SyncRole(ctx, targetID, newRole); err != nil {
		h.Log.Error("sync admin marker", zap.String("user_id", targetID.Hex()), zap.Error(err))
	}

	h.AuditLog.RoleChanged(ctx, r, viewer.ID, targetID, oldRole, newRole)
	writeJSON(w, http.StatusOK, mutationResponse{OK: true})
}

// HandleSetPhoneGrant handles POST /users/{id}/phones with form value
// "granted" of "1" or "0".
func (h *Handler) HandleSetPhoneGrant(w http.ResponseWriter, r *http.Request) {
	targetID, ok := h.parseTarget(w, r)
	if !ok {
		return
	}

	granted := r.FormValue("granted") == "1"

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	viewer := authz.ViewerFromRequest(r)
	if err := h.Guard.CanMutateUser(ctx, viewer, targetID, ""); err != nil {
		h.writeGuardError(w, r, err)
		return
	}

	if err := h.Profiles.SetCanViewPhones(ctx, targetID, granted); err != nil {
		h.writeStoreError(w, r, "set phone grant", err)
		return
	}

	h.AuditLog.PhoneGrantChanged(ctx, r, viewer.ID, targetID, granted)
	writeJSON(w, http.StatusOK, mutationResponse{OK: true})
}

// HandleDelete handles POST /users/{id}/delete. The target's listings are
// removed along with the profile so the catalog never shows orphaned ads.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	targetID, ok := h.parseTarget(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	viewer := authz.ViewerFromRequest(r)
	if err := h.Guard.CanDeleteUser(ctx, viewer, targetID); err != nil {
		h.writeGuardError(w, r, err)
		return
	}

	target, err := h.Profiles.GetByID(ctx, targetID)
	if err != nil || target == nil {
		h.writeStoreError(w, r, "load target profile", err)
		return
	}

	removed, err := h.Listings.DeleteByOwner(ctx, targetID.Hex())
	if err != nil {
		h.writeStoreError(w, r, "delete owner listings", err)
		return
	}
	if err := h.Admins.Remove(ctx, targetID); err != nil {
		h.Log.Error("remove admin marker", zap.String("user_id", targetID.Hex()), zap.Error(err))
	}
	if _, err := h.Profiles.Delete(ctx, targetID); err != nil {
		h.writeStoreError(w, r, "delete profile", err)
		return
	}

	h.AuditLog.UserDeleted(ctx, r, viewer.ID, targetID, target.Role, removed)
	writeJSON(w, http.StatusOK, mutationResponse{OK: true})
}

func (h *Handler) parseTarget(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, mutationResponse{Reason: "пользователь не найден"})
		return primitive.NilObjectID, false
	}
	return id, true
}

func (h *Handler) writeGuardError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, authz.ErrUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, mutationResponse{Reason: "требуется вход"})
	case errors.Is(err, authz.ErrStoreUnavailable):
		h.Log.Error("guard store failure", zap.String("path", r.URL.Path), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, mutationResponse{Reason: "хранилище недоступно"})
	case errors.Is(err, authz.ErrNotFound):
		writeJSON(w, http.StatusNotFound, mutationResponse{Reason: "пользователь не найден"})
	default:
		writeJSON(w, http.StatusForbidden, mutationResponse{Reason: "доступ запрещён"})
	}
}

func (h *Handler) writeStoreError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if err == nil {
		writeJSON(w, http.StatusNotFound, mutationResponse{Reason: "пользователь не найден"})
		return
	}
	h.Log.Error(op, zap.String("path", r.URL.Path), zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, mutationResponse{Reason: "хранилище недоступно"})
}

func writeJSON(w http.ResponseWriter, status int, body mutationResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
