// internal/domain/models/role.go
package models

import "fmt"

// Role is a portal account role. The set is closed: an unrecognized role
// string is rejected at parse time rather than treated as "no access".
type Role string

const (
	RoleAdmin             Role = "admin"
	RoleMasterDistributor Role = "masterdistributor"
	RoleDistributor       Role = "distributor"
	RoleSalesRep          Role = "salesrep"
	RoleDoctor            Role = "doctor"
)

func (r Role) String() string { return string(r) }

// AllRoles lists every recognized role, highest privilege first.
var AllRoles = []Role{
	RoleAdmin,
	RoleMasterDistributor,
	RoleDistributor,
	RoleSalesRep,
	RoleDoctor,
}

// ParseRole validates a stored role string against the closed set.
// The input is expected to already be normalized (lowercase, trimmed).
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleMasterDistributor, RoleDistributor, RoleSalesRep, RoleDoctor:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}
