// internal/app/store/ivrs/ivrstore.go
package ivrstore

import (
	"context"
	"time"

	"github.com/dalemusser/verihub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/verihub/internal/app/system/status"
	"github.com/dalemusser/verihub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("ivr_requests")}
}

// Create inserts a new IVR request. Free-text notes are sanitized; the
// rest of the record is stored as given.
func (s *Store) Create(ctx context.Context, rec models.IVRRecord) (models.IVRRecord, error) {
	now := time.Now().UTC()
	rec.ID = primitive.NewObjectID()
	rec.Notes = htmlsanitize.Sanitize(rec.Notes)
	if rec.Status == "" {
		rec.Status = status.IVRPending
	}
	rec.CreatedAt = now
	rec.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, rec); err != nil {
		return models.IVRRecord{}, err
	}
	return rec, nil
}

// GetByID loads one IVR request.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.IVRRecord, error) {
	var rec models.IVRRecord
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&rec); err != nil {
		return models.IVRRecord{}, err
	}
	return rec, nil
}

// ListAll returns every IVR request in stable creation order. The caller
// applies hierarchy filtering before anything leaves the server; nothing
// here is authorization-aware.
func (s *Store) ListAll(ctx context.Context) ([]models.IVRRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.IVRRecord
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByStatus returns IVR requests with the given status, in stable
// creation order.
func (s *Store) ListByStatus(ctx context.Context, stat string) ([]models.IVRRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"status": stat}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.IVRRecord
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateStatus moves a request through its lifecycle and refreshes
// UpdatedAt.
func (s *Store) UpdateStatus(ctx context.Context, id primitive.ObjectID, stat string) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"status":     stat,
		"updated_at": time.Now().UTC(),
	}})
	return err
}

// Count returns the number of IVR requests matching the filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}
