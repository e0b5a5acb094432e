// internal/app/system/hierarchy/info.go
package hierarchy

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/dalemusser/verihub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Scope is the abstract visibility class governing which records a role
// may see. The scope table in scopepolicy maps (role, record kind) onto
// these values.
type Scope string

const (
	ScopeNone      Scope = "none"
	ScopeSelf      Scope = "self"
	ScopeDownline  Scope = "downline"
	ScopeTerritory Scope = "territory"
	ScopeGlobal    Scope = "global"
)

// IDSet is a set of hierarchy node ids.
type IDSet map[primitive.ObjectID]struct{}

// NewIDSet builds a set from the given ids.
func NewIDSet(ids ...primitive.ObjectID) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is in the set. A nil id pointer is never a member.
func (s IDSet) Has(id *primitive.ObjectID) bool {
	if id == nil {
		return false
	}
	_, ok := s[*id]
	return ok
}

func (s IDSet) Len() int { return len(s) }

func (s IDSet) add(id primitive.ObjectID) { s[id] = struct{}{} }

// IDs returns the members sorted by hex representation, so JSON output
// and test assertions are deterministic.
func (s IDSet) IDs() []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hex() < out[j].Hex() })
	return out
}

// MarshalJSON renders the set as a sorted array of hex ids.
func (s IDSet) MarshalJSON() ([]byte, error) {
	ids := s.IDs()
	hexes := make([]string, len(ids))
	for i, id := range ids {
		hexes[i] = id.Hex()
	}
	return json.Marshal(hexes)
}

// Info is the materialized resolution result for one user: their role,
// broad access scope, and the transitive closure of entities beneath
// their position.
//
// An Info is immutable once published by the resolver. Invalidation
// recomputes it wholesale; nothing updates it in place.
type Info struct {
	UserID      primitive.ObjectID `json:"user_id"`
	Role        models.Role        `json:"role"`
	AccessScope Scope              `json:"access_scope"`

	// SelfNodeID is the user's own hierarchy node, when the role has one
	// (distributor, sales rep, doctor). Nil for admin and master distributor.
	SelfNodeID *primitive.ObjectID `json:"self_node_id,omitempty"`

	// TerritoryIDs are the territory roots a master distributor owns.
	TerritoryIDs []primitive.ObjectID `json:"territory_ids,omitempty"`

	DownlineDoctors      IDSet `json:"downline_doctors"`
	DownlineSalesReps    IDSet `json:"downline_sales_reps"`
	DownlineDistributors IDSet `json:"downline_distributors"`

	ResolvedAt time.Time `json:"resolved_at"`
}

// accessScopeFor maps a role to its broad scope class, independent of
// record kind. Record-kind-specific visibility comes from scopepolicy.
func accessScopeFor(role models.Role) Scope {
	switch role {
	case models.RoleAdmin:
		return ScopeGlobal
	case models.RoleMasterDistributor:
		return ScopeTerritory
	case models.RoleDistributor, models.RoleSalesRep:
		return ScopeDownline
	case models.RoleDoctor:
		return ScopeSelf
	}
	return ScopeNone
}
