// internal/domain/models/hierarchynode.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NodeKind classifies an entity in the distribution hierarchy.
type NodeKind string

const (
	NodeTerritory   NodeKind = "territory"
	NodeDistributor NodeKind = "distributor"
	NodeSalesRep    NodeKind = "salesrep"
	NodeDoctor      NodeKind = "doctor"
)

// HierarchyNode is one entity in the org tree.
//
// Children are derived from ParentID pointers; the hierarchy resolver
// validates tree-ness (single parent, no cycles, no duplicate IDs) on
// every resolution rather than assuming it.
type HierarchyNode struct {
	ID       primitive.ObjectID  `bson:"_id" json:"id"`
	Kind     NodeKind            `bson:"kind" json:"kind"`
	ParentID *primitive.ObjectID `bson:"parent_id,omitempty" json:"parent_id,omitempty"`
	Name     string              `bson:"name" json:"name"`
	NameCI   string              `bson:"name_ci" json:"name_ci"`
	Status   string              `bson:"status" json:"status"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
