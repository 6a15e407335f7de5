// internal/app/features/listings/api.go
package listings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ufarent/ufarent/internal/app/lifecycle"
	"github.com/ufarent/ufarent/internal/app/system/authz"
	"github.com/ufarent/ufarent/internal/app/system/timeouts"
	"github.com/ufarent/ufarent/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// mutationResponse is the wire shape of every JSON mutation endpoint.
type mutationResponse struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

// HandleArchive handles POST /api/listings/{id}/archive. Requires admin.
func (h *Handler) HandleArchive(w http.ResponseWriter, r *http.Request) {
	h.runGuardedTransition(w, r, authz.ActionArchiveListing, "archive listing",
		func(ctx context.Context, id string) error { return h.Lifecycle.Archive(ctx, id) },
		func(ctx context.Context, r *http.Request, actor authz.Viewer, id string) {
			h.AuditLog.ListingArchived(ctx, r, actor.ID, id, actor.Role)
		})
}

// HandleRestore handles POST /api/listings/{id}/restore. Requires superadmin.
func (h *Handler) HandleRestore(w http.ResponseWriter, r *http.Request) {
	h.runGuardedTransition(w, r, authz.ActionRestoreListing, "restore listing",
		func(ctx context.Context, id string) error { return h.Lifecycle.Restore(ctx, id) },
		func(ctx context.Context, r *http.Request, actor authz.Viewer, id string) {
			h.AuditLog.ListingRestored(ctx, r, actor.ID, id)
		})
}

// HandleDelete handles POST /api/listings/{id}/delete. Requires superadmin.
// Deletion is permanent; stored media is not garbage collected.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	h.runGuardedTransition(w, r, authz.ActionDeleteListing, "delete listing",
		func(ctx context.Context, id string) error { return h.Lifecycle.Delete(ctx, id) },
		func(ctx context.Context, r *http.Request, actor authz.Viewer, id string) {
			h.AuditLog.ListingDeleted(ctx, r, actor.ID, id, actor.Role)
		})
}

// HandleSetStatus handles POST /api/listings/{id}/status with a JSON body
// {"status": "draft"|"active"|"archived"}. Requires admin; transitions into
// or out of the archive still go through the archive/restore role table.
func (h *Handler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, mutationResponse{OK: false, Reason: "invalid JSON body"})
		return
	}
	if !models.IsValidStatus(body.Status) {
		writeJSON(w, http.StatusBadRequest, mutationResponse{OK: false, Reason: "unknown status"})
		return
	}

	// Archiving and restoring have their own tiers in the role table.
	action := authz.ActionArchiveListing
	if body.Status == models.StatusActive {
		action = authz.ActionRestoreListing
	}

	h.runGuardedTransition(w, r, action, "set listing status",
		func(ctx context.Context, id string) error { return h.Lifecycle.SetStatus(ctx, id, body.Status) },
		func(ctx context.Context, r *http.Request, actor authz.Viewer, id string) {
			h.AuditLog.ListingUpdated(ctx, r, actor.ID, id, "status")
		})
}

// runGuardedTransition is the shared authorize-then-transition skeleton for
// the JSON mutation endpoints.
func (h *Handler) runGuardedTransition(
	w http.ResponseWriter,
	r *http.Request,
	action authz.Action,
	logMsg string,
	transition func(ctx context.Context, id string) error,
	logAudit func(ctx context.Context, r *http.Request, actor authz.Viewer, id string),
) {
	viewer := authz.ViewerFromRequest(r)
	if err := h.Guard.Can(viewer, action); err != nil {
		writeGuardError(w, err)
		return
	}

	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := transition(ctx, id); err != nil {
		h.writeLifecycleError(w, r, err, logMsg)
		return
	}

	logAudit(ctx, r, viewer, id)
	writeJSON(w, http.StatusOK, mutationResponse{OK: true})
}

// writeLifecycleError maps service errors onto the JSON error taxonomy.
// A store failure is always a 500, never a 403.
func (h *Handler) writeLifecycleError(w http.ResponseWriter, r *http.Request, err error, logMsg string) {
	switch {
	case errors.Is(err, authz.ErrStoreUnavailable):
		h.Log.Error(logMsg, zap.Error(err), zap.String("path", r.URL.Path))
		writeJSON(w, http.StatusInternalServerError, mutationResponse{OK: false, Reason: "store unavailable"})
	case errors.Is(err, authz.ErrNotFound):
		writeJSON(w, http.StatusNotFound, mutationResponse{OK: false, Reason: "listing not found"})
	case errors.Is(err, authz.ErrForbidden):
		writeJSON(w, http.StatusForbidden, mutationResponse{OK: false, Reason: "forbidden"})
	case isValidation(err):
		ve, _ := lifecycle.IsValidation(err)
		writeJSON(w, http.StatusBadRequest, mutationResponse{OK: false, Reason: ve.Field + ": " + ve.Reason})
	default:
		h.Log.Error(logMsg, zap.Error(err), zap.String("path", r.URL.Path))
		writeJSON(w, http.StatusInternalServerError, mutationResponse{OK: false, Reason: "internal error"})
	}
}

func writeGuardError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authz.ErrUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, mutationResponse{OK: false, Reason: "sign in required"})
	case errors.Is(err, authz.ErrStoreUnavailable):
		writeJSON(w, http.StatusInternalServerError, mutationResponse{OK: false, Reason: "store unavailable"})
	default:
		writeJSON(w, http.StatusForbidden, mutationResponse{OK: false, Reason: "forbidden"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
