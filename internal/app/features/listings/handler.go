// internal/app/features/listings/handler.go
package listings

import (
	uierrors "github.com/ufarent/ufarent/internal/app/features/errors"
	"github.com/ufarent/ufarent/internal/app/lifecycle"
	listingstore "github.com/ufarent/ufarent/internal/app/store/listings"
	"github.com/ufarent/ufarent/internal/app/system/auditlog"
	"github.com/ufarent/ufarent/internal/app/system/authz"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.uber.org/zap"
)

// Handler serves listing create/edit forms, the media upload endpoint, and
// the JSON mutation API.
type Handler struct {
	Lifecycle *lifecycle.Service
	Listings  *listingstore.Store
	Guard     *authz.Guard
	Storage   storage.Store
	Log       *zap.Logger
	ErrLog    *uierrors.ErrorLogger
	AuditLog  *auditlog.Logger
}

func NewHandler(
	svc *lifecycle.Service,
	listings *listingstore.Store,
	guard *authz.Guard,
	store storage.Store,
	errLog *uierrors.ErrorLogger,
	audit *auditlog.Logger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Lifecycle: svc,
		Listings:  listings,
		Guard:     guard,
		Storage:   store,
		Log:       logger,
		ErrLog:    errLog,
		AuditLog:  audit,
	}
}
