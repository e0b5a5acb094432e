// internal/app/store/salespeople/salespersonstore.go
package salespersonstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/verihub/internal/app/system/status"
	"github.com/dalemusser/verihub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var ErrDuplicateSalesperson = errors.New("a salesperson with this email already exists")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("salespeople")}
}

// Create inserts a salesperson record.
func (s *Store) Create(ctx context.Context, sp models.Salesperson) (models.Salesperson, error) {
	now := time.Now().UTC()
	sp.ID = primitive.NewObjectID()
	sp.FullNameCI = text.Fold(sp.FullName)
	if sp.Status == "" {
		sp.Status = status.Active
	}
	sp.CreatedAt = now
	sp.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, sp); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Salesperson{}, ErrDuplicateSalesperson
		}
		return models.Salesperson{}, err
	}
	return sp, nil
}

// GetByID loads one salesperson.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Salesperson, error) {
	var sp models.Salesperson
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&sp); err != nil {
		return models.Salesperson{}, err
	}
	return sp, nil
}

// ListAll returns every salesperson in stable name order. Hierarchy
// filtering happens in the policy layer, not here.
func (s *Store) ListAll(ctx context.Context) ([]models.Salesperson, error) {
	opts := options.Find().SetSort(bson.D{{Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Salesperson
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a salesperson by ID. Returns the number of documents
// deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
