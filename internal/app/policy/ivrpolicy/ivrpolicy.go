// Package ivrpolicy applies hierarchy-based visibility filtering to
// insurance-verification requests.
//
// Visibility per role (see scopepolicy for the authoritative table):
//   - Admins see every IVR.
//   - Master distributors see IVRs attributed anywhere in their owned
//     territories.
//   - Distributors see IVRs belonging to their sales reps and those reps'
//     doctors, plus IVRs attributed to the distributor directly.
//   - Sales reps see IVRs for their assigned doctors, plus IVRs assigned
//     to them directly.
//   - Doctors see only their own IVRs: attributed to their node or
//     submitted by them. These are OR'd — a doctor may appear in an IVR
//     both as submitter and as attributed provider.
package ivrpolicy

import (
	"github.com/dalemusser/verihub/internal/app/policy/hierfilter"
	"github.com/dalemusser/verihub/internal/app/policy/scopepolicy"
	"github.com/dalemusser/verihub/internal/app/system/hierarchy"
	"github.com/dalemusser/verihub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Result is the engine output for IVR records: the authorized,
// order-preserving subsequence of the input plus the explainability
// payload the UI renders as-is.
type Result struct {
	FilteredData []models.IVRRecord `json:"filtered_data"`
	hierfilter.Meta
}

// FilterByHierarchy computes the subset of records the user may see.
// Deterministic, side-effect-free, order-preserving; records come back by
// identity, never mutated. Fails with hierarchy.ErrUnsupportedRole for a
// role outside the scope table.
func FilterByHierarchy(records []models.IVRRecord, info *hierarchy.Info) (Result, error) {
	scope, err := scopepolicy.For(info.Role, scopepolicy.KindIVR)
	if err != nil {
		return Result{}, err
	}

	tally := hierfilter.NewTally(scope, predicates(scope, info))
	filtered := make([]models.IVRRecord, 0, len(records))
	for _, rec := range records {
		if tally.Keep(ownerRefs(rec)) {
			filtered = append(filtered, rec)
		}
	}
	return Result{FilteredData: filtered, Meta: tally.Meta(info)}, nil
}

func predicates(scope hierarchy.Scope, info *hierarchy.Info) []hierfilter.Predicate {
	switch scope {
	case hierarchy.ScopeTerritory:
		return []hierfilter.Predicate{
			hierfilter.InSet(hierfilter.PredTerritory, hierarchy.NewIDSet(info.TerritoryIDs...), pickTerritory),
			hierfilter.InSet(hierfilter.PredDownlineDistributors, info.DownlineDistributors, pickDistributor),
			hierfilter.InSet(hierfilter.PredDownlineSalesReps, info.DownlineSalesReps, pickSalesRep),
			hierfilter.InSet(hierfilter.PredDownlineDoctors, info.DownlineDoctors, pickDoctor),
		}
	case hierarchy.ScopeDownline:
		preds := []hierfilter.Predicate{
			hierfilter.InSet(hierfilter.PredDownlineSalesReps, info.DownlineSalesReps, pickSalesRep),
			hierfilter.InSet(hierfilter.PredDownlineDoctors, info.DownlineDoctors, pickDoctor),
		}
		switch info.Role {
		case models.RoleDistributor:
			preds = append(preds, hierfilter.EqualsID(hierfilter.PredSelfDistributor, info.SelfNodeID, pickDistributor))
		case models.RoleSalesRep:
			preds = append(preds, hierfilter.EqualsID(hierfilter.PredSelfSalesRep, info.SelfNodeID, pickSalesRep))
		}
		return preds
	case hierarchy.ScopeSelf:
		createdBy := info.UserID
		return []hierfilter.Predicate{
			hierfilter.EqualsID(hierfilter.PredSelfDoctor, info.SelfNodeID, pickDoctor),
			hierfilter.EqualsID(hierfilter.PredOwnSubmission, &createdBy, pickCreatedBy),
		}
	}
	return nil // global and none are handled inside the tally
}

func ownerRefs(rec models.IVRRecord) hierfilter.OwnerRefs {
	return hierfilter.OwnerRefs{
		TerritoryID:   rec.TerritoryID,
		DistributorID: rec.DistributorNodeID,
		SalesRepID:    rec.SalesRepNodeID,
		DoctorID:      rec.DoctorNodeID,
		CreatedBy:     rec.CreatedBy,
	}
}

func pickTerritory(r hierfilter.OwnerRefs) *primitive.ObjectID   { return r.TerritoryID }
func pickDistributor(r hierfilter.OwnerRefs) *primitive.ObjectID { return r.DistributorID }
func pickSalesRep(r hierfilter.OwnerRefs) *primitive.ObjectID    { return r.SalesRepID }
func pickDoctor(r hierfilter.OwnerRefs) *primitive.ObjectID      { return r.DoctorID }
func pickCreatedBy(r hierfilter.OwnerRefs) *primitive.ObjectID   { return r.CreatedBy }
