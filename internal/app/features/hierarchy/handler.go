// internal/app/features/hierarchy/handler.go
package hierarchy

import (
	"context"
	"encoding/json"
	"net/http"

	apierrors "github.com/dalemusser/verihub/internal/app/features/errors"
	hierarchystore "github.com/dalemusser/verihub/internal/app/store/hierarchy"
	"github.com/dalemusser/verihub/internal/app/system/auditlog"
	"github.com/dalemusser/verihub/internal/app/system/authz"
	"github.com/dalemusser/verihub/internal/app/system/gates"
	hier "github.com/dalemusser/verihub/internal/app/system/hierarchy"
	"github.com/dalemusser/verihub/internal/app/system/timeouts"
	"github.com/dalemusser/verihub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler exposes resolved hierarchy info and cache controls.
type Handler struct {
	Log      *zap.Logger
	Registry *hier.Registry
	Nodes    *hierarchystore.Store
	Audit    *auditlog.Logger
}

func NewHandler(registry *hier.Registry, nodes *hierarchystore.Store, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:      logger,
		Registry: registry,
		Nodes:    nodes,
		Audit:    auditLog,
	}
}

// ServeMe handles GET /hierarchy/me.
// Returns the caller's resolved hierarchy, from cache when fresh.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	info, err := h.Registry.Hierarchy(ctx, res.UserID)
	if err != nil {
		apierrors.RenderHierarchyError(w, h.Log, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(info)
}

// ServeUser handles GET /hierarchy/users/{id}.
// Admins may inspect anyone; everyone else only themselves.
func (h *Handler) ServeUser(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	target, err := primitive.ObjectIDFromHex(pathID(r))
	if err != nil {
		apierrors.RenderBadRequest(w, "invalid user id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if !authz.CanResolveUser(r, target) {
		h.Audit.HierarchyResolveDenied(ctx, r, res.UserID, target, string(res.Role))
		apierrors.RenderForbidden(w, "not authorized to inspect this user")
		return
	}

	info, err := h.Registry.Hierarchy(ctx, target)
	if err != nil {
		apierrors.RenderHierarchyError(w, h.Log, err)
		return
	}

	h.Audit.HierarchyResolved(ctx, r, res.UserID, target, string(info.AccessScope))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(info)
}

// invalidateRequest is the JSON body for POST /hierarchy/invalidate.
// An empty body (or empty user_id) flushes everything.
type invalidateRequest struct {
	UserID string `json:"user_id"`
}

type invalidateResponse struct {
	Dropped int `json:"dropped"`
}

// ServeInvalidate handles POST /hierarchy/invalidate (admin only).
// Called after hierarchy edits so stale closures don't outlive the TTL.
func (h *Handler) ServeInvalidate(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAdmin(w, r, "only admins can invalidate the hierarchy cache")
	if !res.OK {
		return
	}

	var req invalidateRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req) // empty body means flush all
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	var dropped int
	if req.UserID != "" {
		target, err := primitive.ObjectIDFromHex(req.UserID)
		if err != nil {
			apierrors.RenderBadRequest(w, "invalid user id")
			return
		}
		h.Registry.Invalidate(target)
		dropped = 1
		h.Audit.CacheInvalidated(ctx, r, res.UserID, target, string(res.Role))
	} else {
		dropped = h.Registry.Len()
		h.Registry.InvalidateAll()
		h.Audit.CacheInvalidatedAll(ctx, r, res.UserID, string(res.Role), dropped)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(invalidateResponse{Dropped: dropped})
}

type statsResponse struct {
	Nodes       map[models.NodeKind]int64 `json:"nodes"`
	CachedUsers int                       `json:"cached_users"`
}

// ServeStats handles GET /hierarchy/stats (admin only).
// Node counts per kind plus the current cache population.
func (h *Handler) ServeStats(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAdmin(w, r, "only admins can view hierarchy stats")
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	counts, err := h.Nodes.CountByKind(ctx)
	if err != nil {
		apierrors.RenderInternal(w, h.Log, "hierarchy: count nodes", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(statsResponse{
		Nodes:       counts,
		CachedUsers: h.Registry.Len(),
	})
}
