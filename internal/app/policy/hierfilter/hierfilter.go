// Package hierfilter holds the record-type-independent half of the
// hierarchy filtering engine: normalized ownership references, named
// ownership predicates, and the explainability payload every filter
// result carries.
//
// ivrpolicy and salespolicy choose which predicates apply for a given
// scope; this package evaluates them. A record passes when ANY applicable
// predicate matches. Filtering is pure: same inputs, same result, with
// the input order preserved.
package hierfilter

import (
	"fmt"
	"sort"

	"github.com/dalemusser/verihub/internal/app/system/hierarchy"
	"github.com/dalemusser/verihub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Predicate and restriction names surfaced in AppliedFilters and
// Restrictions. The UI leans on these for its "why am I not seeing X"
// affordance, so they are stable identifiers, not display strings.
const (
	PredGlobal               = "global"
	PredNone                 = "none"
	PredTerritory            = "territory"
	PredDownlineDistributors = "downline_distributors"
	PredDownlineSalesReps    = "downline_sales_reps"
	PredDownlineDoctors      = "downline_doctors"
	PredSelfDistributor      = "self_distributor"
	PredSelfSalesRep         = "self_sales_rep"
	PredSelfDoctor           = "self_doctor"
	PredOwnSubmission        = "own_submission"

	RestrictionUnattributable = "unattributable"
	RestrictionNoAccess       = "no_access"
)

// OwnerRefs is the normalized view of a record's ownership fields.
// Concrete record types name these fields differently; each policy
// package maps its record into this shape before evaluation.
type OwnerRefs struct {
	TerritoryID   *primitive.ObjectID
	DistributorID *primitive.ObjectID
	SalesRepID    *primitive.ObjectID
	DoctorID      *primitive.ObjectID
	CreatedBy     *primitive.ObjectID
}

// Unattributable reports whether the record carries no ownership
// information at all. Such records are excluded from every non-global
// view, never included by default.
func (r OwnerRefs) Unattributable() bool {
	return r.TerritoryID == nil && r.DistributorID == nil &&
		r.SalesRepID == nil && r.DoctorID == nil && r.CreatedBy == nil
}

// Predicate is one named ownership test.
type Predicate struct {
	Name  string
	Match func(OwnerRefs) bool
}

// InSet builds a predicate matching records whose ref (selected by pick)
// is a member of the given closure set.
func InSet(name string, set hierarchy.IDSet, pick func(OwnerRefs) *primitive.ObjectID) Predicate {
	return Predicate{Name: name, Match: func(r OwnerRefs) bool { return set.Has(pick(r)) }}
}

// EqualsID builds a predicate matching records whose ref equals the given
// id. A nil id never matches, so roles without a self node are safe.
func EqualsID(name string, id *primitive.ObjectID, pick func(OwnerRefs) *primitive.ObjectID) Predicate {
	return Predicate{Name: name, Match: func(r OwnerRefs) bool {
		ref := pick(r)
		return id != nil && ref != nil && *ref == *id
	}}
}

// Tally runs the predicate set over a record stream and accumulates the
// explainability payload.
type Tally struct {
	scope      hierarchy.Scope
	preds      []Predicate
	applied    map[string]bool
	restricted map[string]bool
	total      int
	kept       int
}

func NewTally(scope hierarchy.Scope, preds []Predicate) *Tally {
	return &Tally{
		scope:      scope,
		preds:      preds,
		applied:    make(map[string]bool),
		restricted: make(map[string]bool),
	}
}

// Keep evaluates one record and reports whether it survives the filter.
// Matching predicates are recorded under applied filters; for an excluded
// record, every predicate that would have been required is recorded under
// restrictions.
func (t *Tally) Keep(refs OwnerRefs) bool {
	t.total++

	switch t.scope {
	case hierarchy.ScopeGlobal:
		t.applied[PredGlobal] = true
		t.kept++
		return true
	case hierarchy.ScopeNone:
		t.applied[PredNone] = true
		t.restricted[RestrictionNoAccess] = true
		return false
	}

	if refs.Unattributable() {
		t.restricted[RestrictionUnattributable] = true
		return false
	}

	pass := false
	for _, p := range t.preds {
		if p.Match(refs) {
			t.applied[p.Name] = true
			pass = true
		}
	}
	if !pass {
		for _, p := range t.preds {
			t.restricted[p.Name] = true
		}
		return false
	}
	t.kept++
	return true
}

// Meta is the shared explainability payload of a filter result.
type Meta struct {
	Scope          hierarchy.Scope `json:"scope"`
	Role           models.Role     `json:"role"`
	AccessScope    hierarchy.Scope `json:"access_scope"`
	TotalCount     int             `json:"total_count"`
	FilteredCount  int             `json:"filtered_count"`
	FilterReason   string          `json:"filter_reason"`
	AppliedFilters []string        `json:"applied_filters"`
	Restrictions   []string        `json:"restrictions"`

	// Closure size echoes for UI badges.
	DownlineDistributors int `json:"downline_distributors"`
	DownlineSalesReps    int `json:"downline_sales_reps"`
	DownlineDoctors      int `json:"downline_doctors"`
}

// Meta finalizes the accumulated payload. Sets come out sorted so
// repeated runs over identical input are bit-identical.
func (t *Tally) Meta(info *hierarchy.Info) Meta {
	return Meta{
		Scope:                t.scope,
		Role:                 info.Role,
		AccessScope:          info.AccessScope,
		TotalCount:           t.total,
		FilteredCount:        t.kept,
		FilterReason:         Reason(t.scope, info),
		AppliedFilters:       sortedKeys(t.applied),
		Restrictions:         sortedKeys(t.restricted),
		DownlineDistributors: info.DownlineDistributors.Len(),
		DownlineSalesReps:    info.DownlineSalesReps.Len(),
		DownlineDoctors:      info.DownlineDoctors.Len(),
	}
}

// Reason summarizes the scope and closure sizes for display, e.g.
// "scope=downline; 3 sales reps, 12 doctors".
func Reason(scope hierarchy.Scope, info *hierarchy.Info) string {
	switch scope {
	case hierarchy.ScopeGlobal:
		return "scope=global"
	case hierarchy.ScopeNone:
		return "scope=none"
	case hierarchy.ScopeSelf:
		return "scope=self"
	case hierarchy.ScopeTerritory:
		return fmt.Sprintf("scope=territory; %d territories, %d distributors, %d sales reps, %d doctors",
			len(info.TerritoryIDs), info.DownlineDistributors.Len(),
			info.DownlineSalesReps.Len(), info.DownlineDoctors.Len())
	default: // downline
		return fmt.Sprintf("scope=downline; %d sales reps, %d doctors",
			info.DownlineSalesReps.Len(), info.DownlineDoctors.Len())
	}
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
