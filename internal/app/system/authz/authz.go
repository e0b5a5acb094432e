// internal/app/system/authz/authz.go
package authz

import (
	"net/http"

	"github.com/dalemusser/verihub/internal/app/system/auth"
	"github.com/dalemusser/verihub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the user's parsed role, name, Mongo ObjectID, and a
// found flag. If no user is present, the user ID is malformed, or the
// role is outside the closed role set, it returns ok=false — callers can
// trust that ok=true means a valid, authenticated user with a known role.
// Fail closed: an unparseable identity is treated as no identity.
func UserCtx(r *http.Request) (role models.Role, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "", "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		// Malformed user ID in session; indicates session corruption.
		return "", "", primitive.NilObjectID, false
	}
	role, err = models.ParseRole(user.Role)
	if err != nil {
		return "", "", primitive.NilObjectID, false
	}
	return role, user.Name, userID, true
}

// IsAdmin reports whether the current request's user is a platform admin.
func IsAdmin(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == models.RoleAdmin
}

// IsMasterDistributor reports whether the current request's user is a
// master distributor.
func IsMasterDistributor(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == models.RoleMasterDistributor
}

// IsDistributor reports whether the current request's user is a
// regional distributor.
func IsDistributor(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == models.RoleDistributor
}

// IsSalesRep reports whether the current request's user is a sales rep.
func IsSalesRep(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == models.RoleSalesRep
}

// IsDoctor reports whether the current request's user is a doctor.
func IsDoctor(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == models.RoleDoctor
}

// CanResolveUser reports whether the current user may request another
// user's hierarchy resolution. Admins may resolve anyone; everyone else
// only themselves.
func CanResolveUser(r *http.Request, target primitive.ObjectID) bool {
	role, _, userID, ok := UserCtx(r)
	if !ok {
		return false
	}
	return role == models.RoleAdmin || userID == target
}
