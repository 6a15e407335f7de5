package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/ufarent/ufarent/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateProfile creates a test profile with the given role.
func (f *Fixtures) CreateProfile(ctx context.Context, fullName, email, role string) models.Profile {
	f.t.Helper()

	now := time.Now().UTC()
	hash := "$2a$10$testhashtesthashtesthashtesthashtesthashtesthashtest"
	p := models.Profile{
		ID:           primitive.NewObjectID(),
		Email:        email,
		EmailCI:      text.Fold(email),
		FullName:     fullName,
		AuthMethod:   models.AuthMethodPassword,
		PasswordHash: &hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := f.db.Collection("profiles").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test profile: %v", err)
	}

	if models.RoleAtLeast(role, models.RoleAdmin) {
		marker := models.AdminMarker{UserID: p.ID, CreatedAt: now}
		if _, err := f.db.Collection("admins").InsertOne(ctx, marker); err != nil {
			f.t.Fatalf("failed to create admin marker: %v", err)
		}
	}

	return p
}

// CreateUserProfile creates a test profile with the user role.
func (f *Fixtures) CreateUserProfile(ctx context.Context, fullName, email string) models.Profile {
	f.t.Helper()
	return f.CreateProfile(ctx, fullName, email, models.RoleUser)
}

// CreateAdminProfile creates a test profile with the admin role plus its
// admins marker record.
func (f *Fixtures) CreateAdminProfile(ctx context.Context, fullName, email string) models.Profile {
	f.t.Helper()
	return f.CreateProfile(ctx, fullName, email, models.RoleAdmin)
}

// CreateSuperAdminProfile creates a test profile with the superadmin role.
func (f *Fixtures) CreateSuperAdminProfile(ctx context.Context, fullName, email string) models.Profile {
	f.t.Helper()
	return f.CreateProfile(ctx, fullName, email, models.RoleSuperAdmin)
}

// CreatePhoneViewer creates a regular user profile with the phone grant.
func (f *Fixtures) CreatePhoneViewer(ctx context.Context, fullName, email string) models.Profile {
	f.t.Helper()
	p := f.CreateProfile(ctx, fullName, email, models.RoleUser)
	_, err := f.db.Collection("profiles").UpdateByID(ctx, p.ID,
		map[string]any{"$set": map[string]any{"can_view_phones": true}})
	if err != nil {
		f.t.Fatalf("failed to grant phone visibility: %v", err)
	}
	p.CanViewPhones = true
	return p
}

// CreateListing creates an active test listing owned by ownerID.
func (f *Fixtures) CreateListing(ctx context.Context, title, district string, price int64, ownerID primitive.ObjectID) models.Listing {
	f.t.Helper()
	return f.createListing(ctx, title, district, price, ownerID, models.StatusActive)
}

// CreateDraftListing creates a draft test listing owned by ownerID.
func (f *Fixtures) CreateDraftListing(ctx context.Context, title, district string, price int64, ownerID primitive.ObjectID) models.Listing {
	f.t.Helper()
	return f.createListing(ctx, title, district, price, ownerID, models.StatusDraft)
}

// CreateArchivedListing creates an archived test listing owned by ownerID.
func (f *Fixtures) CreateArchivedListing(ctx context.Context, title, district string, price int64, ownerID primitive.ObjectID) models.Listing {
	f.t.Helper()
	return f.createListing(ctx, title, district, price, ownerID, models.StatusArchived)
}

func (f *Fixtures) createListing(ctx context.Context, title, district string, price int64, ownerID primitive.ObjectID, status string) models.Listing {
	f.t.Helper()

	now := time.Now().UTC()
	l := models.Listing{
		ID:           uuid.NewString(),
		Title:        title,
		TitleCI:      text.Fold(title),
		District:     district,
		PropertyType: "Студия",
		Price:        price,
		Phone:        "+7 917 000-00-00",
		OwnerID:      ownerID.Hex(),
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if status == models.StatusArchived {
		archivedAt := now
		l.ArchivedAt = &archivedAt
	}

	if _, err := f.db.Collection("listings").InsertOne(ctx, l); err != nil {
		f.t.Fatalf("failed to create test listing: %v", err)
	}

	return l
}
