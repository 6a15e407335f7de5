// Package adminstore maintains the admins marker collection, a secondary
// record per admin-or-above profile so "is at least admin" checks are a
// single indexed lookup without scanning roles.
package adminstore

import (
	"context"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/ufarent/ufarent/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("admins")}
}

// Add inserts a marker for userID. Adding an existing marker is a no-op.
func (s *Store) Add(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.c.InsertOne(ctx, models.AdminMarker{
		UserID:    userID,
		CreatedAt: time.Now(),
	})
	if err != nil && !wafflemongo.IsDup(err) {
		return err
	}
	return nil
}

// Remove deletes the marker for userID, if present.
func (s *Store) Remove(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"user_id": userID})
	return err
}

// IsAdmin reports whether a marker exists for userID.
func (s *Store) IsAdmin(ctx context.Context, userID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"user_id": userID}).Err()
	if err == nil {
		return true, nil
	}
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	return false, err
}

// SyncRole reconciles the marker collection with a profile's role: roles at
// or above admin get a marker, everything else has the marker removed.
func (s *Store) SyncRole(ctx context.Context, userID primitive.ObjectID, role string) error {
	if models.RoleAtLeast(role, models.RoleAdmin) {
		return s.Add(ctx, userID)
	}
	return s.Remove(ctx, userID)
}

// ListUserIDs returns the user IDs of all marked admins.
func (s *Store) ListUserIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	cur, err := s.c.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var markers []models.AdminMarker
	if err := cur.All(ctx, &markers); err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(markers))
	for _, m := range markers {
		ids = append(ids, m.UserID)
	}
	return ids, nil
}

// EnsureIndexes creates the unique user_id index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
