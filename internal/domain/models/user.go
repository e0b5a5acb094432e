// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents any portal account: admins, master distributors,
// distributors, sales reps, and doctors.
//
// Each role carries exactly the hierarchy anchors meaningful to it:
//   - admin: none (synthetic root)
//   - masterdistributor: TerritoryIDs (the territory roots it owns; may be several)
//   - distributor: DistributorNodeID
//   - salesrep: SalesRepNodeID
//   - doctor: DoctorNodeID
//
// A missing required anchor is a data defect surfaced at hierarchy
// resolution time, never an empty visibility scope.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName   string             `bson:"full_name" json:"full_name"`
	FullNameCI string             `bson:"full_name_ci" json:"full_name_ci"` // lowercase, diacritics-stripped
	Email      string             `bson:"email" json:"email"`
	AuthMethod string             `bson:"auth_method,omitempty" json:"auth_method,omitempty"`
	Role       string             `bson:"role" json:"role"`
	Status     string             `bson:"status,omitempty" json:"status,omitempty"`

	PasswordHash string `bson:"password_hash,omitempty" json:"-"`

	TerritoryIDs      []primitive.ObjectID `bson:"territory_ids,omitempty" json:"territory_ids,omitempty"`
	DistributorNodeID *primitive.ObjectID  `bson:"distributor_node_id,omitempty" json:"distributor_node_id,omitempty"`
	SalesRepNodeID    *primitive.ObjectID  `bson:"sales_rep_node_id,omitempty" json:"sales_rep_node_id,omitempty"`
	DoctorNodeID      *primitive.ObjectID  `bson:"doctor_node_id,omitempty" json:"doctor_node_id,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
