// Package gates provides authorization gate functions for HTTP handlers.
// Gates check authentication and authorization, writing JSON error
// responses when checks fail.
//
// VeriHub uses a three-tier authorization approach:
//
//  1. Route-Level Middleware (auth.RequireSignedIn, auth.RequireRole)
//     Applied in routes.go files for coarse-grained access control.
//
//  2. Handler-Level Gates (this package)
//     Used in handlers that need role checks WITHOUT route-level middleware,
//     or need different role requirements than the route group.
//     Gates write error responses and return user context (role, name, userID).
//
//  3. Policy Layer (internal/app/policy/*)
//     Record-level visibility. A handler never decides which records a user
//     may see; it hands the full list and the resolved hierarchy to the
//     policy package and returns whatever survives.
//
// Don't use gates in handlers that are behind role-specific middleware. If
// routes.go has RequireRole("admin"), handlers don't need gates.RequireAdmin.
// Instead, use authz.UserCtx(r) to get user context without re-checking role.
package gates

import (
	"net/http"

	apierrors "github.com/dalemusser/verihub/internal/app/features/errors"
	"github.com/dalemusser/verihub/internal/app/system/authz"
	"github.com/dalemusser/verihub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Result contains the result of an authorization gate check.
type Result struct {
	Role   models.Role
	Name   string
	UserID primitive.ObjectID
	OK     bool
}

// RequireAuth ensures a user is authenticated.
// If not authenticated, it writes a 401 and returns OK=false.
func RequireAuth(w http.ResponseWriter, r *http.Request) Result {
	role, name, uid, ok := authz.UserCtx(r)
	if !ok {
		apierrors.RenderUnauthorized(w)
		return Result{OK: false}
	}
	return Result{Role: role, Name: name, UserID: uid, OK: true}
}

// RequireAdmin ensures the user is authenticated and has the admin role.
// If not authenticated, writes a 401.
// If authenticated but not admin, writes a 403 with the provided message.
func RequireAdmin(w http.ResponseWriter, r *http.Request, forbiddenMsg string) Result {
	role, name, uid, ok := authz.UserCtx(r)
	if !ok {
		apierrors.RenderUnauthorized(w)
		return Result{OK: false}
	}
	if role != models.RoleAdmin {
		apierrors.RenderForbidden(w, forbiddenMsg)
		return Result{OK: false}
	}
	return Result{Role: role, Name: name, UserID: uid, OK: true}
}

// RequireAnyRole ensures the user is authenticated and has one of the
// specified roles.
func RequireAnyRole(w http.ResponseWriter, r *http.Request, forbiddenMsg string, allowedRoles ...models.Role) Result {
	role, name, uid, ok := authz.UserCtx(r)
	if !ok {
		apierrors.RenderUnauthorized(w)
		return Result{OK: false}
	}

	for _, allowed := range allowedRoles {
		if role == allowed {
			return Result{Role: role, Name: name, UserID: uid, OK: true}
		}
	}

	apierrors.RenderForbidden(w, forbiddenMsg)
	return Result{OK: false}
}
