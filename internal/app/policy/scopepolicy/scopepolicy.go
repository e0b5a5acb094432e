// Package scopepolicy maps (role, record kind) to a visibility scope.
//
// The table below is the single source of truth for default visibility:
//
//	role               IVR records          salesperson records
//	admin              global               global
//	masterdistributor  territory            downline
//	distributor        downline             downline
//	salesrep           downline             self
//	doctor             self                 none
//
// Any record-kind-specific exception belongs here as a named table entry,
// never as ad hoc logic in the record filters. A role missing from the
// table is a hard error; new roles are added deliberately.
package scopepolicy

import (
	"fmt"

	"github.com/dalemusser/verihub/internal/app/system/hierarchy"
	"github.com/dalemusser/verihub/internal/domain/models"
)

// RecordKind names a filterable record type.
type RecordKind string

const (
	KindIVR         RecordKind = "ivr"
	KindSalesperson RecordKind = "salesperson"
)

// For returns the visibility scope for the given role and record kind.
// Pure function, no I/O. Returns hierarchy.ErrUnsupportedRole (wrapped)
// for any role or kind outside the table.
func For(role models.Role, kind RecordKind) (hierarchy.Scope, error) {
	switch kind {
	case KindIVR:
		switch role {
		case models.RoleAdmin:
			return hierarchy.ScopeGlobal, nil
		case models.RoleMasterDistributor:
			return hierarchy.ScopeTerritory, nil
		case models.RoleDistributor:
			return hierarchy.ScopeDownline, nil
		case models.RoleSalesRep:
			return hierarchy.ScopeDownline, nil
		case models.RoleDoctor:
			return hierarchy.ScopeSelf, nil
		}
	case KindSalesperson:
		switch role {
		case models.RoleAdmin:
			return hierarchy.ScopeGlobal, nil
		case models.RoleMasterDistributor:
			return hierarchy.ScopeDownline, nil
		case models.RoleDistributor:
			return hierarchy.ScopeDownline, nil
		case models.RoleSalesRep:
			return hierarchy.ScopeSelf, nil
		case models.RoleDoctor:
			return hierarchy.ScopeNone, nil
		}
	default:
		return "", fmt.Errorf("%w: unknown record kind %q", hierarchy.ErrUnsupportedRole, kind)
	}
	return "", fmt.Errorf("%w: %q for record kind %q", hierarchy.ErrUnsupportedRole, role, kind)
}
