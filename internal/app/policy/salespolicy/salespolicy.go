// Package salespolicy applies hierarchy-based visibility filtering to
// salesperson directory records.
//
// Visibility per role (see scopepolicy for the authoritative table):
//   - Admins see every salesperson.
//   - Master distributors and distributors see the salespeople in their
//     downline.
//   - Sales reps see only their own record.
//   - Doctors see no salespeople at all.
package salespolicy

import (
	"github.com/dalemusser/verihub/internal/app/policy/hierfilter"
	"github.com/dalemusser/verihub/internal/app/policy/scopepolicy"
	"github.com/dalemusser/verihub/internal/app/system/hierarchy"
	"github.com/dalemusser/verihub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Result mirrors ivrpolicy.Result for salesperson records.
type Result struct {
	FilteredData []models.Salesperson `json:"filtered_data"`
	hierfilter.Meta
}

// FilterByHierarchy computes the subset of salespeople the user may see.
// Deterministic, side-effect-free, order-preserving.
func FilterByHierarchy(records []models.Salesperson, info *hierarchy.Info) (Result, error) {
	scope, err := scopepolicy.For(info.Role, scopepolicy.KindSalesperson)
	if err != nil {
		return Result{}, err
	}

	tally := hierfilter.NewTally(scope, predicates(scope, info))
	filtered := make([]models.Salesperson, 0, len(records))
	for _, rec := range records {
		if tally.Keep(ownerRefs(rec)) {
			filtered = append(filtered, rec)
		}
	}
	return Result{FilteredData: filtered, Meta: tally.Meta(info)}, nil
}

func predicates(scope hierarchy.Scope, info *hierarchy.Info) []hierfilter.Predicate {
	switch scope {
	case hierarchy.ScopeDownline:
		preds := []hierfilter.Predicate{
			hierfilter.InSet(hierfilter.PredDownlineSalesReps, info.DownlineSalesReps, pickSalesRep),
			hierfilter.InSet(hierfilter.PredDownlineDistributors, info.DownlineDistributors, pickDistributor),
		}
		if info.Role == models.RoleDistributor {
			preds = append(preds, hierfilter.EqualsID(hierfilter.PredSelfDistributor, info.SelfNodeID, pickDistributor))
		}
		return preds
	case hierarchy.ScopeSelf:
		return []hierfilter.Predicate{
			hierfilter.EqualsID(hierfilter.PredSelfSalesRep, info.SelfNodeID, pickSalesRep),
		}
	}
	return nil // global and none are handled inside the tally
}

func ownerRefs(sp models.Salesperson) hierfilter.OwnerRefs {
	return hierfilter.OwnerRefs{
		TerritoryID:   sp.TerritoryID,
		DistributorID: sp.DistributorNodeID,
		SalesRepID:    sp.SalesRepNodeID,
	}
}

func pickDistributor(r hierfilter.OwnerRefs) *primitive.ObjectID { return r.DistributorID }
func pickSalesRep(r hierfilter.OwnerRefs) *primitive.ObjectID    { return r.SalesRepID }
