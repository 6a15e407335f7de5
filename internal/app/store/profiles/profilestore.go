package profilestore

import (
	"context"
	"errors"
	"regexp"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/ufarent/ufarent/internal/app/system/normalize"
	"github.com/ufarent/ufarent/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrDuplicateEmail is returned when attempting to create a profile with an email that already exists.
	ErrDuplicateEmail = errors.New("a profile with this email already exists")
	errBadRole        = errors.New(`role must be "user"|"admin"|"superadmin"`)
	errBadAuthMethod  = errors.New(`auth_method must be "password"|"google"`)
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("profiles")}
}

// GetByID loads a profile by ObjectID. Returns (nil, nil) when no profile
// with that ID exists; a non-nil error always means a store failure.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Profile, error) {
	var p models.Profile
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// GetByEmail looks up a profile by case-insensitive email. Returns (nil, nil)
// when no profile with that email exists.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	var p models.Profile
	if err := s.c.FindOne(ctx, bson.M{"email_ci": text.Fold(normalize.Email(email))}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// Create inserts a new profile after normalizing and validating fields.
func (s *Store) Create(ctx context.Context, p models.Profile) (models.Profile, error) {
	p.ID = primitive.NewObjectID()
	p.Email = normalize.Email(p.Email)
	p.EmailCI = text.Fold(p.Email)
	p.FullName = normalize.Name(p.FullName)
	if p.Role == "" {
		p.Role = models.RoleUser
	}

	if !models.IsValidRole(p.Role) {
		return models.Profile{}, errBadRole
	}

	switch p.AuthMethod {
	case models.AuthMethodPassword, models.AuthMethodGoogle:
		// ok
	default:
		return models.Profile{}, errBadAuthMethod
	}

	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Profile{}, ErrDuplicateEmail
		}
		return models.Profile{}, err
	}
	return p, nil
}

// UpsertOnLogin finds or lazily creates a profile for an external sign-in.
// An existing profile is returned untouched except for updated_at; a new one
// is created with role=user and no password hash.
func (s *Store) UpsertOnLogin(ctx context.Context, email, fullName, authMethod string) (*models.Profile, error) {
	existing, err := s.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		_, err := s.c.UpdateOne(ctx, bson.M{"_id": existing.ID},
			bson.M{"$set": bson.M{"updated_at": time.Now()}})
		return existing, err
	}

	created, err := s.Create(ctx, models.Profile{
		Email:      email,
		FullName:   fullName,
		AuthMethod: authMethod,
		Role:       models.RoleUser,
	})
	if err != nil {
		// Lost a race with a concurrent first sign-in; the winner's row serves.
		if errors.Is(err, ErrDuplicateEmail) {
			return s.GetByEmail(ctx, email)
		}
		return nil, err
	}
	return &created, nil
}

// UpdateRole changes a profile's role tier.
func (s *Store) UpdateRole(ctx context.Context, id primitive.ObjectID, role string) error {
	role = normalize.Role(role)
	if !models.IsValidRole(role) {
		return errBadRole
	}
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"role":       role,
		"updated_at": time.Now(),
	}})
	return err
}

// SetCanViewPhones grants or revokes the phone-visibility permission.
func (s *Store) SetCanViewPhones(ctx context.Context, id primitive.ObjectID, granted bool) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"can_view_phones": granted,
		"updated_at":      time.Now(),
	}})
	return err
}

// UpdatePassword replaces the stored password hash.
func (s *Store) UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"password_hash": passwordHash,
		"auth_method":   models.AuthMethodPassword,
		"updated_at":    time.Now(),
	}})
	return err
}

// Delete removes a profile by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ListFilter narrows the List query.
type ListFilter struct {
	Search string // matches folded email or full name
	Role   string
	Limit  int64
	Offset int64
}

// List returns profiles matching the filter, newest first.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.Profile, error) {
	filter := bson.M{}
	if f.Search != "" {
		// Quote so regex metacharacters in the search box match
		// literally instead of erroring out the query.
		folded := regexp.QuoteMeta(text.Fold(f.Search))
		filter["$or"] = bson.A{
			bson.M{"email_ci": bson.M{"$regex": folded, "$options": ""}},
			bson.M{"full_name": bson.M{"$regex": regexp.QuoteMeta(f.Search), "$options": "i"}},
		}
	}
	if f.Role != "" {
		filter["role"] = f.Role
	}

	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit).
		SetSkip(f.Offset)

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var profiles []models.Profile
	if err := cur.All(ctx, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// Count returns the number of profiles matching the filter.
func (s *Store) Count(ctx context.Context, f ListFilter) (int64, error) {
	filter := bson.M{}
	if f.Role != "" {
		filter["role"] = f.Role
	}
	return s.c.CountDocuments(ctx, filter)
}

// EnsureIndexes creates the indexes the profiles collection needs.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email_ci", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "role", Value: 1}},
		},
	})
	return err
}
