// Package listingstore persists rental listings.
//
// Phone numbers are visibility-gated: every read method takes an includePhone
// flag and strips the phone field at the projection level when it is false,
// so an ungranted viewer's phone never leaves the database.
package listingstore

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/ufarent/ufarent/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	errBadStatus   = errors.New(`status must be "draft"|"active"|"archived"`)
	errBadDistrict = errors.New("district is not a known district")
	errBadType     = errors.New("property_type is not a known unit type")
)

// FreshWindow is how recently a listing must have been created to count as
// fresh in the catalog.
const FreshWindow = 24 * time.Hour

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("listings")}
}

// phoneProjection hides the phone field unless the caller may see it.
func phoneProjection(includePhone bool) bson.M {
	if includePhone {
		return nil
	}
	return bson.M{"phone": 0}
}

// GetByID loads a listing by UUID. Returns (nil, nil) when no listing with
// that ID exists; a non-nil error always means a store failure.
func (s *Store) GetByID(ctx context.Context, id string, includePhone bool) (*models.Listing, error) {
	opts := options.FindOne()
	if proj := phoneProjection(includePhone); proj != nil {
		opts.SetProjection(proj)
	}

	var l models.Listing
	if err := s.c.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&l); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

// Create inserts a new listing after normalizing and validating fields.
// The caller supplies the UUID so media uploaded against a draft id stays
// correlated.
func (s *Store) Create(ctx context.Context, l models.Listing) (models.Listing, error) {
	l.TitleCI = text.Fold(l.Title)
	l.AddressCI = text.Fold(l.Address)
	if l.Status == "" {
		l.Status = models.StatusActive
	}

	if !models.IsValidStatus(l.Status) {
		return models.Listing{}, errBadStatus
	}
	if !models.IsValidDistrict(l.District) {
		return models.Listing{}, errBadDistrict
	}
	if !models.IsValidPropertyType(l.PropertyType) {
		return models.Listing{}, errBadType
	}

	now := time.Now()
	l.CreatedAt = now
	l.UpdatedAt = now
	l.ArchivedAt = nil

	if _, err := s.c.InsertOne(ctx, l); err != nil {
		return models.Listing{}, err
	}
	return l, nil
}

// Update holds the fields an owner can edit on an existing listing.
type Update struct {
	Title        string
	Description  string
	Address      string
	District     string
	PropertyType string
	Price        int64
	Rooms        *int
	AreaM2       *float64
	Floor        *int
	Phone        string
	Lat          *float64
	Lng          *float64
}

// UpdateFields applies an edit to a listing. Status and ownership are not
// touched here; use SetStatus for lifecycle transitions.
func (s *Store) UpdateFields(ctx context.Context, id string, upd Update) error {
	if !models.IsValidDistrict(upd.District) {
		return errBadDistrict
	}
	if !models.IsValidPropertyType(upd.PropertyType) {
		return errBadType
	}

	set := bson.M{
		"title":         upd.Title,
		"title_ci":      text.Fold(upd.Title),
		"description":   upd.Description,
		"address":       upd.Address,
		"address_ci":    text.Fold(upd.Address),
		"district":      upd.District,
		"property_type": upd.PropertyType,
		"price":         upd.Price,
		"rooms":         upd.Rooms,
		"area_m2":       upd.AreaM2,
		"floor":         upd.Floor,
		"phone":         upd.Phone,
		"lat":           upd.Lat,
		"lng":           upd.Lng,
		"updated_at":    time.Now(),
	}

	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	return err
}

// SetStatus transitions a listing's status. Archiving sets archived_at;
// any transition out of archived clears it. Setting the status a listing
// already has is a no-op, so archive and restore are idempotent.
func (s *Store) SetStatus(ctx context.Context, id string, status string) error {
	if !models.IsValidStatus(status) {
		return errBadStatus
	}

	update := bson.M{
		"$set": bson.M{
			"status":     status,
			"updated_at": time.Now(),
		},
	}
	if status == models.StatusArchived {
		update["$set"].(bson.M)["archived_at"] = time.Now()
	} else {
		update["$unset"] = bson.M{"archived_at": ""}
	}

	// The status filter makes repeat transitions a no-op that does not
	// churn archived_at.
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id, "status": bson.M{"$ne": status}}, update)
	return err
}

// Delete removes a listing by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id string) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByOwner removes all listings owned by ownerID and returns how many
// were deleted. Used when a user account is removed.
func (s *Store) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"owner_id": ownerID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// AddMedia appends storage paths to the listing's photo or video list,
// preserving upload order.
func (s *Store) AddMedia(ctx context.Context, id string, photos, videos []string) error {
	push := bson.M{}
	if len(photos) > 0 {
		push["photos"] = bson.M{"$each": photos}
	}
	if len(videos) > 0 {
		push["videos"] = bson.M{"$each": videos}
	}
	if len(push) == 0 {
		return nil
	}

	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$push": push,
		"$set":  bson.M{"updated_at": time.Now()},
	})
	return err
}

// CatalogFilter narrows the public catalog query. Zero values mean
// "no constraint".
type CatalogFilter struct {
	Query        string // matches folded title or address
	District     string
	PropertyType string
	MinPrice     int64
	MaxPrice     int64
	FreshOnly    bool // created within FreshWindow
	Limit        int64
	Offset       int64
}

// Catalog returns active listings matching the filter, newest first.
func (s *Store) Catalog(ctx context.Context, f CatalogFilter, includePhone bool) ([]models.Listing, error) {
	filter := bson.M{"status": models.StatusActive}
	if f.Query != "" {
		// Quote so regex metacharacters in user input match literally
		// instead of erroring out the query.
		folded := regexp.QuoteMeta(text.Fold(f.Query))
		filter["$or"] = bson.A{
			bson.M{"title_ci": bson.M{"$regex": folded, "$options": ""}},
			bson.M{"address_ci": bson.M{"$regex": folded, "$options": ""}},
		}
	}
	if f.District != "" {
		filter["district"] = f.District
	}
	if f.PropertyType != "" {
		filter["property_type"] = f.PropertyType
	}

	price := bson.M{}
	if f.MinPrice > 0 {
		price["$gte"] = f.MinPrice
	}
	if f.MaxPrice > 0 {
		price["$lte"] = f.MaxPrice
	}
	if len(price) > 0 {
		filter["price"] = price
	}

	if f.FreshOnly {
		filter["created_at"] = bson.M{"$gte": time.Now().Add(-FreshWindow)}
	}

	return s.find(ctx, filter, includePhone, f.Limit, f.Offset)
}

// All returns listings in every status, newest first. Moderation surfaces
// use this so drafts stay reachable alongside active and archived listings.
func (s *Store) All(ctx context.Context, limit, offset int64, includePhone bool) ([]models.Listing, error) {
	return s.find(ctx, bson.M{}, includePhone, limit, offset)
}

// ByOwner returns every listing owned by ownerID, newest first. Owners see
// their own drafts and archived listings here.
func (s *Store) ByOwner(ctx context.Context, ownerID string, includePhone bool) ([]models.Listing, error) {
	return s.find(ctx, bson.M{"owner_id": ownerID}, includePhone, 0, 0)
}

// Archived returns archived listings, most recently archived first.
func (s *Store) Archived(ctx context.Context, limit, offset int64, includePhone bool) ([]models.Listing, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "archived_at", Value: -1}}).
		SetLimit(normalizeLimit(limit)).
		SetSkip(offset)
	if proj := phoneProjection(includePhone); proj != nil {
		opts.SetProjection(proj)
	}

	cur, err := s.c.Find(ctx, bson.M{"status": models.StatusArchived}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var listings []models.Listing
	if err := cur.All(ctx, &listings); err != nil {
		return nil, err
	}
	return listings, nil
}

// Fresh returns active listings created within FreshWindow, newest first.
func (s *Store) Fresh(ctx context.Context, limit int64, includePhone bool) ([]models.Listing, error) {
	filter := bson.M{
		"status":     models.StatusActive,
		"created_at": bson.M{"$gte": time.Now().Add(-FreshWindow)},
	}
	return s.find(ctx, filter, includePhone, limit, 0)
}

// CountByStatus returns how many listings have the given status.
func (s *Store) CountByStatus(ctx context.Context, status string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"status": status})
}

func (s *Store) find(ctx context.Context, filter bson.M, includePhone bool, limit, offset int64) ([]models.Listing, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(normalizeLimit(limit)).
		SetSkip(offset)
	if proj := phoneProjection(includePhone); proj != nil {
		opts.SetProjection(proj)
	}

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var listings []models.Listing
	if err := cur.All(ctx, &listings); err != nil {
		return nil, err
	}
	return listings, nil
}

func normalizeLimit(limit int64) int64 {
	if limit <= 0 || limit > 500 {
		return 100
	}
	return limit
}

// EnsureIndexes creates the indexes the listings collection needs.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "district", Value: 1}, {Key: "price", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "title_ci", Value: 1}},
		},
	})
	return err
}
