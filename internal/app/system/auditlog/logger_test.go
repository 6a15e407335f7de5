package auditlog_test

import (
	"net/http/httptest"
	"testing"

	"github.com/ufarent/ufarent/internal/app/store/audit"
	"github.com/ufarent/ufarent/internal/app/system/auditlog"
	"github.com/ufarent/ufarent/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestLogger_NilLogger(t *testing.T) {
	// nil logger should be a no-op (not panic)
	var logger *auditlog.Logger
	ctx, cancel := testutil.TestContext()
	defer cancel()
	req := httptest.NewRequest("GET", "/", nil)

	// These should all be no-ops, not panic
	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.LoginSuccess(ctx, req, primitive.NewObjectID(), "password", "test@example.com")
	logger.Logout(ctx, req, primitive.NewObjectID().Hex())
	logger.ListingArchived(ctx, req, primitive.NewObjectID(), "abc", "admin")
}

func TestLogger_Log_ConfigOff(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	zapLog := zap.NewNop()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zapLog, auditlog.Config{
		Auth:    "off",
		Admin:   "off",
		Listing: "off",
	})

	userID := primitive.NewObjectID()
	logger.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		Success:   true,
	})

	// Verify nothing was logged to DB
	events, err := store.GetByUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 0 {
		t.Error("expected no events when config is 'off'")
	}
}

func TestLogger_Log_ConfigDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	zapLog := zap.NewNop()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	logger := auditlog.New(store, zapLog, auditlog.Config{
		Auth:    "db",
		Admin:   "db",
		Listing: "db",
	})

	logger.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		Success:   true,
	})

	// Verify event was logged to DB
	events, err := store.GetByUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].EventType != audit.EventLoginSuccess {
		t.Errorf("EventType: got %q, want %q", events[0].EventType, audit.EventLoginSuccess)
	}
}

func TestLogger_Log_ConfigLogOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	zapLog := zap.NewNop()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	logger := auditlog.New(store, zapLog, auditlog.Config{
		Auth:    "log",
		Admin:   "log",
		Listing: "log",
	})

	logger.Log(ctx, audit.Event{
		Category:  audit.CategoryListing,
		EventType: audit.EventListingArchived,
		UserID:    &userID,
		Success:   true,
	})

	// Log-only config must not write to the DB
	events, err := store.GetByUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 0 {
		t.Error("expected no events in DB when config is 'log'")
	}
}

func TestLogger_ListingEvents_RoundTrip(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{
		Auth:    "db",
		Admin:   "db",
		Listing: "db",
	})

	actorID := primitive.NewObjectID()
	listingID := "4f6c2d1e-8a3b-4c5d-9e7f-0a1b2c3d4e5f"
	req := httptest.NewRequest("POST", "/admin/listings/"+listingID+"/archive", nil)

	logger.ListingArchived(ctx, req, actorID, listingID, "admin")
	logger.ListingRestored(ctx, req, actorID, listingID)

	events, err := store.GetByListing(ctx, listingID, 10)
	if err != nil {
		t.Fatalf("GetByListing failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	// Most recent first
	if events[0].EventType != audit.EventListingRestored {
		t.Errorf("events[0].EventType: got %q, want %q", events[0].EventType, audit.EventListingRestored)
	}
	if events[1].EventType != audit.EventListingArchived {
		t.Errorf("events[1].EventType: got %q, want %q", events[1].EventType, audit.EventListingArchived)
	}
	if events[1].Details["actor_role"] != "admin" {
		t.Errorf("actor_role detail: got %q, want %q", events[1].Details["actor_role"], "admin")
	}
}
