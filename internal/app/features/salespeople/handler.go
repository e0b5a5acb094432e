// internal/app/features/salespeople/handler.go
package salespeople

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	apierrors "github.com/dalemusser/verihub/internal/app/features/errors"
	"github.com/dalemusser/verihub/internal/app/policy/salespolicy"
	"github.com/dalemusser/verihub/internal/app/store/audit"
	salespersonstore "github.com/dalemusser/verihub/internal/app/store/salespeople"
	"github.com/dalemusser/verihub/internal/app/system/auditlog"
	"github.com/dalemusser/verihub/internal/app/system/gates"
	"github.com/dalemusser/verihub/internal/app/system/hierarchy"
	"github.com/dalemusser/verihub/internal/app/system/timeouts"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the salesperson roster endpoints.
type Handler struct {
	Log         *zap.Logger
	Salespeople *salespersonstore.Store
	Registry    *hierarchy.Registry
	Audit       *auditlog.Logger
}

func NewHandler(salespeople *salespersonstore.Store, registry *hierarchy.Registry, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:         logger,
		Salespeople: salespeople,
		Registry:    registry,
		Audit:       auditLog,
	}
}

type listResponse struct {
	DecisionID string `json:"decision_id"`
	salespolicy.Result
}

// ServeList handles GET /salespeople.
// Doctors always get an empty roster with a no_access restriction, not
// an error; the distinction matters to the portal UI.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
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

	records, err := h.Salespeople.ListAll(ctx)
	if err != nil {
		apierrors.RenderInternal(w, h.Log, "salespeople: list records", err)
		return
	}

	filtered, err := salespolicy.FilterByHierarchy(records, info)
	if err != nil {
		apierrors.RenderInternal(w, h.Log, "salespeople: filter records", err)
		return
	}

	decisionID := uuid.NewString()
	h.Audit.RecordsFiltered(ctx, r, audit.EventSalespeopleFiltered, res.UserID, decisionID, filtered.Meta)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(listResponse{
		DecisionID: decisionID,
		Result:     filtered,
	})
}

// ServeDelete handles DELETE /salespeople/{id} (admin only).
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAdmin(w, r, "only admins can remove salespeople")
	if !res.OK {
		return
	}

	id, err := primitive.ObjectIDFromHex(pathID(r))
	if err != nil {
		apierrors.RenderBadRequest(w, "invalid salesperson id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	// Fetch first so the audit entry names who was removed.
	sp, err := h.Salespeople.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			apierrors.RenderNotFound(w, "salesperson not found")
			return
		}
		apierrors.RenderInternal(w, h.Log, "salespeople: load record", err)
		return
	}

	if _, err := h.Salespeople.Delete(ctx, id); err != nil {
		apierrors.RenderInternal(w, h.Log, "salespeople: delete record", err)
		return
	}

	h.Audit.SalespersonDeleted(ctx, r, res.UserID, sp.ID, string(res.Role), sp.FullName)

	w.WriteHeader(http.StatusNoContent)
}
