// internal/app/store/hierarchy/hierarchystore.go
package hierarchystore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/verihub/internal/app/system/hierarchy"
	"github.com/dalemusser/verihub/internal/app/system/status"
	"github.com/dalemusser/verihub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store is the Mongo-backed Hierarchy Directory: hierarchy_nodes plus the
// users collection for position lookups. It satisfies hierarchy.Directory.
type Store struct {
	nodes *mongo.Collection
	users *mongo.Collection
}

var ErrDuplicateNode = errors.New("a hierarchy node with this id already exists")

func New(db *mongo.Database) *Store {
	return &Store{
		nodes: db.Collection("hierarchy_nodes"),
		users: db.Collection("users"),
	}
}

// LookupUser fetches the directory entry for a user id. Maps a missing
// document onto hierarchy.ErrUnknownUser so the resolver's taxonomy holds
// regardless of the backing store.
func (s *Store) LookupUser(ctx context.Context, userID primitive.ObjectID) (models.User, error) {
	var user models.User
	err := s.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return models.User{}, fmt.Errorf("%w: %s", hierarchy.ErrUnknownUser, userID.Hex())
	}
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// Nodes loads the entire hierarchy. The resolver validates the shape; the
// store does not.
func (s *Store) Nodes(ctx context.Context) ([]models.HierarchyNode, error) {
	cur, err := s.nodes.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.HierarchyNode
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateNode inserts a node. Callers signal the registry afterwards so
// cached resolutions pick up the new edge.
func (s *Store) CreateNode(ctx context.Context, node models.HierarchyNode) (models.HierarchyNode, error) {
	now := time.Now().UTC()
	if node.ID.IsZero() {
		node.ID = primitive.NewObjectID()
	}
	node.NameCI = text.Fold(node.Name)
	if node.Status == "" {
		node.Status = status.Active
	}
	node.CreatedAt = now
	node.UpdatedAt = now
	if _, err := s.nodes.InsertOne(ctx, node); err != nil {
		if wafflemongo.IsDup(err) {
			return models.HierarchyNode{}, ErrDuplicateNode
		}
		return models.HierarchyNode{}, err
	}
	return node, nil
}

// GetNode loads one node by id.
func (s *Store) GetNode(ctx context.Context, id primitive.ObjectID) (models.HierarchyNode, error) {
	var node models.HierarchyNode
	if err := s.nodes.FindOne(ctx, bson.M{"_id": id}).Decode(&node); err != nil {
		return models.HierarchyNode{}, err
	}
	return node, nil
}

// Reparent moves a node under a new parent (nil detaches it to a root).
// The caller is responsible for invalidating the hierarchy registry.
func (s *Store) Reparent(ctx context.Context, id primitive.ObjectID, parentID *primitive.ObjectID) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	update := bson.M{"$set": set}
	if parentID != nil {
		set["parent_id"] = *parentID
	} else {
		update["$unset"] = bson.M{"parent_id": ""}
	}
	_, err := s.nodes.UpdateByID(ctx, id, update)
	return err
}

// DeleteNode removes a node by id. Returns the number of documents
// deleted (0 or 1).
func (s *Store) DeleteNode(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.nodes.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ChildrenOf returns the direct children of a node.
func (s *Store) ChildrenOf(ctx context.Context, id primitive.ObjectID) ([]models.HierarchyNode, error) {
	cur, err := s.nodes.Find(ctx, bson.M{"parent_id": id})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.HierarchyNode
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountByKind returns how many nodes of each kind exist, for the admin
// stats endpoint.
func (s *Store) CountByKind(ctx context.Context) (map[models.NodeKind]int64, error) {
	cur, err := s.nodes.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$kind", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		Kind  models.NodeKind `bson:"_id"`
		Count int64           `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make(map[models.NodeKind]int64, len(rows))
	for _, row := range rows {
		out[row.Kind] = row.Count
	}
	return out, nil
}
