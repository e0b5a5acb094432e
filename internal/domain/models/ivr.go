// internal/domain/models/ivr.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IVRRecord is one insurance-verification request.
//
// Ownership fields (doctor, sales rep, distributor, territory) tie the
// record into the distribution hierarchy and drive visibility filtering.
// Any of them may be absent on imported or legacy data; a record with no
// ownership fields at all is "unattributable" and is excluded from every
// non-global view.
type IVRRecord struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PatientName string             `bson:"patient_name" json:"patient_name"`
	Carrier     string             `bson:"carrier" json:"carrier"`
	PolicyNo    string             `bson:"policy_no" json:"policy_no"`
	Notes       string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Status      string             `bson:"status" json:"status"` // pending | in_review | verified | denied

	DoctorNodeID      *primitive.ObjectID `bson:"doctor_node_id,omitempty" json:"doctor_node_id,omitempty"`
	SalesRepNodeID    *primitive.ObjectID `bson:"sales_rep_node_id,omitempty" json:"sales_rep_node_id,omitempty"`
	DistributorNodeID *primitive.ObjectID `bson:"distributor_node_id,omitempty" json:"distributor_node_id,omitempty"`
	TerritoryID       *primitive.ObjectID `bson:"territory_id,omitempty" json:"territory_id,omitempty"`

	CreatedBy *primitive.ObjectID `bson:"created_by,omitempty" json:"created_by,omitempty"` // submitting user

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
