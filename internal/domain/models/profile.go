// internal/domain/models/profile.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role tiers, ordered user < admin < superadmin.
const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superadmin"
)

// Auth methods supported for sign-in.
const (
	AuthMethodPassword = "password"
	AuthMethodGoogle   = "google"
)

// Profile represents a signed-up identity with its role and permission
// attributes. Profiles are created on registration (role=user) or lazily on
// first Google sign-in; role and phone visibility are mutated only through
// the superadmin user-management feature.
type Profile struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email      string             `bson:"email" json:"email"`
	EmailCI    string             `bson:"email_ci" json:"email_ci"` // lowercase, diacritics-stripped
	FullName   string             `bson:"full_name,omitempty" json:"full_name,omitempty"`
	AuthMethod string             `bson:"auth_method" json:"auth_method"` // password | google

	// PasswordHash is absent for Google accounts.
	PasswordHash *string `bson:"password_hash,omitempty" json:"-"`

	Role          string `bson:"role" json:"role"` // user | admin | superadmin
	CanViewPhones bool   `bson:"can_view_phones" json:"can_view_phones"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsValidRole reports whether role is one of the known tiers.
func IsValidRole(role string) bool {
	switch role {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// RoleAtLeast reports whether role meets the minimum tier.
func RoleAtLeast(role, minimum string) bool {
	return roleRank(role) >= roleRank(minimum)
}

func roleRank(role string) int {
	switch role {
	case RoleSuperAdmin:
		return 2
	case RoleAdmin:
		return 1
	case RoleUser:
		return 0
	}
	return -1
}

// AdminMarker is a secondary membership record in the admins collection,
// kept in sync with Profile.Role so "is at least admin" checks are a single
// indexed lookup.
type AdminMarker struct {
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
