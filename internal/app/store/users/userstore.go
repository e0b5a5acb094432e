// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/verihub/internal/app/system/normalize"
	"github.com/dalemusser/verihub/internal/app/system/status"
	"github.com/dalemusser/verihub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

var (
	// ErrDuplicateEmail is returned when creating a user with an email
	// that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	errBadRole        = errors.New(`role must be "admin"|"masterdistributor"|"distributor"|"salesrep"|"doctor"`)
	errBadStatus      = errors.New(`status must be "active"|"disabled"`)
	errAnchorNeeded   = errors.New("user is missing the hierarchy anchor its role requires")
)

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email.
// Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user after normalizing and validating fields,
// including the role/anchor invariant: each role carries exactly the
// hierarchy references it needs.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.FullName = normalize.Name(u.FullName)
	u.FullNameCI = text.Fold(u.FullName)
	u.Email = normalize.Email(u.Email)
	u.Role = normalize.Role(u.Role)
	if u.Status == "" {
		u.Status = status.Active
	}

	role, err := models.ParseRole(u.Role)
	if err != nil {
		return models.User{}, errBadRole
	}
	switch u.Status {
	case status.Active, status.Disabled:
	default:
		return models.User{}, errBadStatus
	}
	switch role {
	case models.RoleMasterDistributor:
		if len(u.TerritoryIDs) == 0 {
			return models.User{}, errAnchorNeeded
		}
	case models.RoleDistributor:
		if u.DistributorNodeID == nil {
			return models.User{}, errAnchorNeeded
		}
	case models.RoleSalesRep:
		if u.SalesRepNodeID == nil {
			return models.User{}, errAnchorNeeded
		}
	case models.RoleDoctor:
		if u.DoctorNodeID == nil {
			return models.User{}, errAnchorNeeded
		}
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// SetStatus enables or disables an account.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, stat string) error {
	switch normalize.Status(stat) {
	case status.Active, status.Disabled:
	default:
		return errBadStatus
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"status":     normalize.Status(stat),
		"updated_at": time.Now().UTC(),
	}})
	return err
}
