// internal/app/system/authz/guard.go
package authz

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ufarent/ufarent/internal/app/system/auth"
	"github.com/ufarent/ufarent/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Sentinel errors returned by Guard checks. Handlers map these to HTTP
// semantics: ErrUnauthenticated to 401/login redirect, ErrForbidden to 403,
// ErrNotFound to 404, ErrStoreUnavailable to 500.
//
// ErrStoreUnavailable is deliberately distinct from ErrForbidden: a failed
// profile lookup must surface as a server error, never as a denial the user
// could mistake for a policy decision.
var (
	ErrUnauthenticated  = errors.New("authz: not signed in")
	ErrForbidden        = errors.New("authz: forbidden")
	ErrNotFound         = errors.New("authz: target not found")
	ErrStoreUnavailable = errors.New("authz: store unavailable")
)

// Action names a privileged operation checked against the role table.
type Action string

const (
	ActionViewAdminConsole Action = "view-admin-console"
	ActionArchiveListing   Action = "archive-listing"
	ActionRestoreListing   Action = "restore-listing"
	ActionDeleteListing    Action = "delete-listing"
	ActionMutateUser       Action = "mutate-user"
	ActionDeleteUser       Action = "delete-user"
)

// minRoleFor is the single source of truth for which role tier each action
// requires. Target-specific rules (self checks, superadmin immunity) live in
// the dedicated Guard methods below.
var minRoleFor = map[Action]string{
	ActionViewAdminConsole: models.RoleAdmin,
	ActionArchiveListing:   models.RoleAdmin,
	ActionRestoreListing:   models.RoleSuperAdmin,
	ActionDeleteListing:    models.RoleSuperAdmin,
	ActionMutateUser:       models.RoleSuperAdmin,
	ActionDeleteUser:       models.RoleSuperAdmin,
}

// Viewer is the acting identity for a Guard check, extracted once from the
// request so checks are testable without HTTP plumbing.
type Viewer struct {
	ID            primitive.ObjectID
	Role          string
	CanViewPhones bool
	SignedIn      bool
}

// ViewerFromRequest builds a Viewer from the session user in the request
// context. An anonymous request yields a zero Viewer with SignedIn=false.
func ViewerFromRequest(r *http.Request) Viewer {
	role, _, uid, ok := UserCtx(r)
	if !ok {
		return Viewer{Role: "visitor"}
	}
	v := Viewer{ID: uid, Role: role, SignedIn: true}
	if u, has := auth.CurrentUser(r); has {
		v.CanViewPhones = u.CanViewPhones
	}
	return v
}

// ProfileReader is the profile lookup the Guard needs for target-aware
// checks. GetByID returns (nil, nil) when no profile exists; a non-nil error
// always means the store itself failed.
type ProfileReader interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Profile, error)
}

// Guard is the central authorization table. All privileged mutations go
// through it so the role rules live in exactly one place.
type Guard struct {
	profiles ProfileReader
}

// NewGuard builds a Guard backed by the given profile reader.
func NewGuard(profiles ProfileReader) *Guard {
	return &Guard{profiles: profiles}
}

// Can checks v against the role table for action. It returns nil,
// ErrUnauthenticated, or ErrForbidden. Unknown actions are denied.
func (g *Guard) Can(v Viewer, action Action) error {
	min, known := minRoleFor[action]
	if !known {
		return ErrForbidden
	}
	if !v.SignedIn {
		return ErrUnauthenticated
	}
	if !models.RoleAtLeast(v.Role, min) {
		return ErrForbidden
	}
	return nil
}

// CanMutateUser checks whether v may change the target profile's role or
// phone grant. Superadmin targets are immune, and a superadmin cannot change
// their own role. newRole may be "" when only the phone grant changes.
func (g *Guard) CanMutateUser(ctx context.Context, v Viewer, targetID primitive.ObjectID, newRole string) error {
	if err := g.Can(v, ActionMutateUser); err != nil {
		return err
	}
	if targetID == v.ID && newRole != "" && newRole != v.Role {
		return ErrForbidden
	}
	target, err := g.profiles.GetByID(ctx, targetID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if target == nil {
		return ErrNotFound
	}
	if target.Role == models.RoleSuperAdmin {
		return ErrForbidden
	}
	return nil
}

// CanDeleteUser checks whether v may delete the target account. Self-deletion
// and superadmin targets are denied.
func (g *Guard) CanDeleteUser(ctx context.Context, v Viewer, targetID primitive.ObjectID) error {
	if err := g.Can(v, ActionDeleteUser); err != nil {
		return err
	}
	if targetID == v.ID {
		return ErrForbidden
	}
	target, err := g.profiles.GetByID(ctx, targetID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if target == nil {
		return ErrNotFound
	}
	if target.Role == models.RoleSuperAdmin {
		return ErrForbidden
	}
	return nil
}

// CanViewPhone reports whether v may see listing contact phones. Superadmins
// always can; other signed-in users need the can_view_phones grant on their
// current profile. The profile is re-read so revoking the grant takes effect
// without waiting for the session to be re-issued.
//
// An anonymous or unknown viewer gets (false, nil). A store failure returns
// (false, ErrStoreUnavailable); callers must treat that as an error, not as
// "not granted".
func (g *Guard) CanViewPhone(ctx context.Context, v Viewer) (bool, error) {
	if !v.SignedIn {
		return false, nil
	}
	if v.Role == models.RoleSuperAdmin {
		return true, nil
	}
	p, err := g.profiles.GetByID(ctx, v.ID)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if p == nil {
		return false, nil
	}
	return p.Role == models.RoleSuperAdmin || p.CanViewPhones, nil
}
