// internal/app/system/hierarchy/directory.go
package hierarchy

import (
	"context"

	"github.com/dalemusser/verihub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Directory is the read-only source of organizational relationships.
// The Mongo-backed implementation lives in store/hierarchy; tests use an
// in-memory fake.
//
// LookupUser returns ErrUnknownUser (possibly wrapped) when the directory
// has no entry for the id. Nodes returns every node in the hierarchy;
// the resolver validates the shape on each resolution.
type Directory interface {
	LookupUser(ctx context.Context, userID primitive.ObjectID) (models.User, error)
	Nodes(ctx context.Context) ([]models.HierarchyNode, error)
}
