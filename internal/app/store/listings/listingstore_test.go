package listingstore_test

import (
	"testing"
	"time"

	listingstore "github.com/ufarent/ufarent/internal/app/store/listings"
	"github.com/ufarent/ufarent/internal/domain/models"
	"github.com/ufarent/ufarent/internal/testutil"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := listingstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	l := models.Listing{
		ID:           uuid.NewString(),
		Title:        "Студия у метро",
		District:     "Советский",
		PropertyType: "Студия",
		Price:        25000,
		Phone:        "+7 917 123-45-67",
		OwnerID:      primitive.NewObjectID().Hex(),
	}

	created, err := store.Create(ctx, l)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.TitleCI == "" {
		t.Error("expected TitleCI to be set")
	}
	if created.Status != models.StatusActive {
		t.Errorf("Status: got %q, want default %q", created.Status, models.StatusActive)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestStore_Create_BadDistrict(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := listingstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.Create(ctx, models.Listing{
		ID:           uuid.NewString(),
		Title:        "Где-то",
		District:     "Центральный",
		PropertyType: "Студия",
		Price:        10000,
		OwnerID:      primitive.NewObjectID().Hex(),
	})
	if err == nil {
		t.Fatal("expected error for unknown district")
	}
}

func TestStore_GetByID_PhoneProjection(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := listingstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	created := fixtures.CreateListing(ctx, "Квартира с телефоном", "Кировский", 30000, owner)

	withPhone, err := store.GetByID(ctx, created.ID, true)
	if err != nil {
		t.Fatalf("GetByID(includePhone) failed: %v", err)
	}
	if withPhone == nil {
		t.Fatal("expected listing, got nil")
	}
	if withPhone.Phone == "" {
		t.Error("expected phone for a granted viewer")
	}

	withoutPhone, err := store.GetByID(ctx, created.ID, false)
	if err != nil {
		t.Fatalf("GetByID(no phone) failed: %v", err)
	}
	if withoutPhone == nil {
		t.Fatal("expected listing, got nil")
	}
	if withoutPhone.Phone != "" {
		t.Error("phone must not be projected for an ungranted viewer")
	}
}

func TestStore_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := listingstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	l, err := store.GetByID(ctx, uuid.NewString(), true)
	if err != nil {
		t.Fatalf("GetByID returned error for missing listing: %v", err)
	}
	if l != nil {
		t.Error("expected nil listing for missing ID")
	}
}

func TestStore_SetStatus_ArchiveRestore(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := listingstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	l := fixtures.CreateListing(ctx, "Для архива", "Ленинский", 20000, owner)

	if err := store.SetStatus(ctx, l.ID, models.StatusArchived); err != nil {
		t.Fatalf("archive failed: %v", err)
	}
	got, _ := store.GetByID(ctx, l.ID, true)
	if got == nil || got.Status != models.StatusArchived {
		t.Fatal("expected archived status")
	}
	if got.ArchivedAt == nil {
		t.Fatal("expected archived_at to be set")
	}
	firstArchivedAt := *got.ArchivedAt

	// Archiving an archived listing is a no-op that does not churn archived_at.
	time.Sleep(10 * time.Millisecond)
	if err := store.SetStatus(ctx, l.ID, models.StatusArchived); err != nil {
		t.Fatalf("repeat archive failed: %v", err)
	}
	got, _ = store.GetByID(ctx, l.ID, true)
	if got.ArchivedAt == nil || !got.ArchivedAt.Equal(firstArchivedAt) {
		t.Error("repeat archive must not change archived_at")
	}

	if err := store.SetStatus(ctx, l.ID, models.StatusActive); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	got, _ = store.GetByID(ctx, l.ID, true)
	if got.Status != models.StatusActive {
		t.Error("expected active status after restore")
	}
	if got.ArchivedAt != nil {
		t.Error("expected archived_at cleared after restore")
	}

	// Restoring an active listing is a no-op.
	if err := store.SetStatus(ctx, l.ID, models.StatusActive); err != nil {
		t.Fatalf("repeat restore failed: %v", err)
	}
}

func TestStore_Catalog_Filters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := listingstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	fixtures.CreateListing(ctx, "Студия в Советском", "Советский", 20000, owner)
	fixtures.CreateListing(ctx, "Квартира в Кировском", "Кировский", 35000, owner)
	fixtures.CreateArchivedListing(ctx, "Архивная в Советском", "Советский", 15000, owner)

	t.Run("district", func(t *testing.T) {
		got, err := store.Catalog(ctx, listingstore.CatalogFilter{District: "Советский"}, false)
		if err != nil {
			t.Fatalf("Catalog failed: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("expected 1 listing, got %d", len(got))
		}
		if got[0].Title != "Студия в Советском" {
			t.Errorf("title: got %q", got[0].Title)
		}
	})

	t.Run("price range", func(t *testing.T) {
		got, err := store.Catalog(ctx, listingstore.CatalogFilter{MinPrice: 25000, MaxPrice: 40000}, false)
		if err != nil {
			t.Fatalf("Catalog failed: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("expected 1 listing, got %d", len(got))
		}
		if got[0].District != "Кировский" {
			t.Errorf("district: got %q", got[0].District)
		}
	})

	t.Run("text query folds case", func(t *testing.T) {
		got, err := store.Catalog(ctx, listingstore.CatalogFilter{Query: "студия"}, false)
		if err != nil {
			t.Fatalf("Catalog failed: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("expected 1 listing, got %d", len(got))
		}
	})

	t.Run("regex metacharacters match literally", func(t *testing.T) {
		got, err := store.Catalog(ctx, listingstore.CatalogFilter{Query: "студия ("}, false)
		if err != nil {
			t.Fatalf("Catalog with metacharacters failed: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected 0 listings, got %d", len(got))
		}
	})

	t.Run("archived excluded", func(t *testing.T) {
		got, err := store.Catalog(ctx, listingstore.CatalogFilter{}, false)
		if err != nil {
			t.Fatalf("Catalog failed: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 active listings, got %d", len(got))
		}
	})

	t.Run("phone hidden", func(t *testing.T) {
		got, err := store.Catalog(ctx, listingstore.CatalogFilter{}, false)
		if err != nil {
			t.Fatalf("Catalog failed: %v", err)
		}
		for _, l := range got {
			if l.Phone != "" {
				t.Errorf("listing %s: phone leaked into ungranted catalog read", l.ID)
			}
		}
	})
}

func TestStore_Fresh(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := listingstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	fixtures.CreateListing(ctx, "Свежая", "Советский", 18000, owner)

	// Backdate one listing past the fresh window via direct update.
	stale := fixtures.CreateListing(ctx, "Старая", "Ленинский", 22000, owner)
	old := time.Now().Add(-listingstore.FreshWindow - time.Hour)
	_, err := db.Collection("listings").UpdateByID(ctx, stale.ID,
		map[string]any{"$set": map[string]any{"created_at": old}})
	if err != nil {
		t.Fatalf("backdating failed: %v", err)
	}

	fresh, err := store.Fresh(ctx, 10, false)
	if err != nil {
		t.Fatalf("Fresh failed: %v", err)
	}
	if len(fresh) != 1 {
		t.Fatalf("expected 1 fresh listing, got %d", len(fresh))
	}
	if fresh[0].Title != "Свежая" {
		t.Errorf("title: got %q", fresh[0].Title)
	}
}

func TestStore_ByOwner(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := listingstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	other := primitive.NewObjectID()
	fixtures.CreateListing(ctx, "Моя активная", "Советский", 20000, owner)
	fixtures.CreateArchivedListing(ctx, "Моя архивная", "Кировский", 18000, owner)
	fixtures.CreateListing(ctx, "Чужая", "Ленинский", 25000, other)

	got, err := store.ByOwner(ctx, owner.Hex(), true)
	if err != nil {
		t.Fatalf("ByOwner failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 listings, got %d", len(got))
	}
}

func TestStore_Archived(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := listingstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	fixtures.CreateListing(ctx, "Активная", "Советский", 20000, owner)
	fixtures.CreateArchivedListing(ctx, "В архиве", "Кировский", 18000, owner)

	got, err := store.Archived(ctx, 10, 0, true)
	if err != nil {
		t.Fatalf("Archived failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 archived listing, got %d", len(got))
	}
	if got[0].Title != "В архиве" {
		t.Errorf("title: got %q", got[0].Title)
	}
}

func TestStore_All_IncludesEveryStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := listingstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	fixtures.CreateListing(ctx, "Активная", "Советский", 20000, owner)
	fixtures.CreateDraftListing(ctx, "Черновик", "Ленинский", 17000, owner)
	fixtures.CreateArchivedListing(ctx, "В архиве", "Кировский", 18000, owner)

	got, err := store.All(ctx, 10, 0, true)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 listings, got %d", len(got))
	}

	byStatus := map[string]bool{}
	for _, l := range got {
		byStatus[l.Status] = true
	}
	for _, status := range []string{models.StatusActive, models.StatusDraft, models.StatusArchived} {
		if !byStatus[status] {
			t.Errorf("status %q missing from All", status)
		}
	}
}

func TestStore_DeleteByOwner(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := listingstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	other := primitive.NewObjectID()
	fixtures.CreateListing(ctx, "Первая", "Советский", 20000, owner)
	fixtures.CreateArchivedListing(ctx, "Вторая", "Кировский", 18000, owner)
	kept := fixtures.CreateListing(ctx, "Чужая", "Ленинский", 25000, other)

	n, err := store.DeleteByOwner(ctx, owner.Hex())
	if err != nil {
		t.Fatalf("DeleteByOwner failed: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted count: got %d, want 2", n)
	}

	still, err := store.GetByID(ctx, kept.ID, true)
	if err != nil || still == nil {
		t.Error("other owner's listing must survive")
	}
}

func TestStore_AddMedia(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := listingstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	l := fixtures.CreateListing(ctx, "С медиа", "Советский", 20000, owner)

	photos1 := []string{"listings/" + l.ID + "/aaaa1111-room.jpg"}
	if err := store.AddMedia(ctx, l.ID, photos1, nil); err != nil {
		t.Fatalf("AddMedia failed: %v", err)
	}
	photos2 := []string{"listings/" + l.ID + "/bbbb2222-kitchen.jpg"}
	videos := []string{"listings/" + l.ID + "/cccc3333-tour.mp4"}
	if err := store.AddMedia(ctx, l.ID, photos2, videos); err != nil {
		t.Fatalf("second AddMedia failed: %v", err)
	}

	got, _ := store.GetByID(ctx, l.ID, true)
	if got == nil {
		t.Fatal("listing missing after AddMedia")
	}
	if len(got.Photos) != 2 {
		t.Fatalf("expected 2 photos, got %d", len(got.Photos))
	}
	// Upload order preserved
	if got.Photos[0] != photos1[0] || got.Photos[1] != photos2[0] {
		t.Errorf("photos out of order: %v", got.Photos)
	}
	if len(got.Videos) != 1 || got.Videos[0] != videos[0] {
		t.Errorf("videos: got %v", got.Videos)
	}
}

func TestStore_CountByStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := listingstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	fixtures.CreateListing(ctx, "Раз", "Советский", 20000, owner)
	fixtures.CreateListing(ctx, "Два", "Кировский", 21000, owner)
	fixtures.CreateArchivedListing(ctx, "Три", "Ленинский", 22000, owner)

	active, err := store.CountByStatus(ctx, models.StatusActive)
	if err != nil {
		t.Fatalf("CountByStatus failed: %v", err)
	}
	if active != 2 {
		t.Errorf("active count: got %d, want 2", active)
	}

	archived, _ := store.CountByStatus(ctx, models.StatusArchived)
	if archived != 1 {
		t.Errorf("archived count: got %d, want 1", archived)
	}
}
