// internal/domain/models/salesperson.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Salesperson is the directory record for one sales representative.
// Kept separate from User: a salesperson exists in the network whether or
// not they have a portal login.
type Salesperson struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName   string             `bson:"full_name" json:"full_name"`
	FullNameCI string             `bson:"full_name_ci" json:"full_name_ci"`
	Email      string             `bson:"email" json:"email"`
	Phone      string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Status     string             `bson:"status" json:"status"`

	SalesRepNodeID    *primitive.ObjectID `bson:"sales_rep_node_id,omitempty" json:"sales_rep_node_id,omitempty"`
	DistributorNodeID *primitive.ObjectID `bson:"distributor_node_id,omitempty" json:"distributor_node_id,omitempty"`
	TerritoryID       *primitive.ObjectID `bson:"territory_id,omitempty" json:"territory_id,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
