// internal/app/features/ivrs/handler.go
package ivrs

import (
	"context"
	"encoding/json"
	"net/http"

	apierrors "github.com/dalemusser/verihub/internal/app/features/errors"
	"github.com/dalemusser/verihub/internal/app/policy/ivrpolicy"
	"github.com/dalemusser/verihub/internal/app/store/audit"
	ivrstore "github.com/dalemusser/verihub/internal/app/store/ivrs"
	"github.com/dalemusser/verihub/internal/app/system/auditlog"
	"github.com/dalemusser/verihub/internal/app/system/gates"
	"github.com/dalemusser/verihub/internal/app/system/hierarchy"
	"github.com/dalemusser/verihub/internal/app/system/status"
	"github.com/dalemusser/verihub/internal/app/system/timeouts"
	"github.com/dalemusser/verihub/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves the insurance verification request endpoints.
type Handler struct {
	Log      *zap.Logger
	IVRs     *ivrstore.Store
	Registry *hierarchy.Registry
	Audit    *auditlog.Logger
}

func NewHandler(ivrs *ivrstore.Store, registry *hierarchy.Registry, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:      logger,
		IVRs:     ivrs,
		Registry: registry,
		Audit:    auditLog,
	}
}

// listResponse wraps a filter result with the decision ID that ties the
// response to its audit entry.
type listResponse struct {
	DecisionID string `json:"decision_id"`
	ivrpolicy.Result
}

// ServeList handles GET /ivrs.
//
// The caller's hierarchy decides visibility; the status query parameter
// only narrows the candidate set before filtering. The filtered result
// is authoritative: records outside the caller's scope are never
// serialized, whatever the client asked for.
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

	var records []models.IVRRecord
	if stat := r.URL.Query().Get("status"); stat != "" {
		if !status.ValidIVR(stat) {
			apierrors.RenderBadRequest(w, "unknown status")
			return
		}
		records, err = h.IVRs.ListByStatus(ctx, stat)
	} else {
		records, err = h.IVRs.ListAll(ctx)
	}
	if err != nil {
		apierrors.RenderInternal(w, h.Log, "ivrs: list records", err)
		return
	}

	filtered, err := ivrpolicy.FilterByHierarchy(records, info)
	if err != nil {
		apierrors.RenderInternal(w, h.Log, "ivrs: filter records", err)
		return
	}

	decisionID := uuid.NewString()
	h.Audit.RecordsFiltered(ctx, r, audit.EventIVRListFiltered, res.UserID, decisionID, filtered.Meta)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(listResponse{
		DecisionID: decisionID,
		Result:     filtered,
	})
}

// createRequest is the JSON body for POST /ivrs.
type createRequest struct {
	PatientName string `json:"patient_name"`
	Carrier     string `json:"carrier"`
	PolicyNo    string `json:"policy_no"`
	Notes       string `json:"notes"`
}

// ServeCreate handles POST /ivrs.
//
// Doctors and sales reps submit requests. The ownership chain on the
// stored record comes from the submitter's resolved hierarchy, never
// from the request body, so a client cannot file a record into someone
// else's downline.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAnyRole(w, r, "only doctors and sales reps can submit verification requests",
		models.RoleDoctor, models.RoleSalesRep, models.RoleAdmin)
	if !res.OK {
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.RenderBadRequest(w, "invalid JSON body")
		return
	}
	if req.PatientName == "" || req.Carrier == "" {
		apierrors.RenderBadRequest(w, "patient_name and carrier are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	info, err := h.Registry.Hierarchy(ctx, res.UserID)
	if err != nil {
		apierrors.RenderHierarchyError(w, h.Log, err)
		return
	}

	rec := models.IVRRecord{
		PatientName: req.PatientName,
		Carrier:     req.Carrier,
		PolicyNo:    req.PolicyNo,
		Notes:       req.Notes,
		CreatedBy:   &res.UserID,
	}
	switch res.Role {
	case models.RoleDoctor:
		rec.DoctorNodeID = info.SelfNodeID
	case models.RoleSalesRep:
		rec.SalesRepNodeID = info.SelfNodeID
	}

	created, err := h.IVRs.Create(ctx, rec)
	if err != nil {
		apierrors.RenderInternal(w, h.Log, "ivrs: create record", err)
		return
	}

	h.Audit.IVRCreated(ctx, r, res.UserID, created.ID, string(res.Role))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(created)
}

// statusRequest is the JSON body for PATCH /ivrs/{id}/status.
type statusRequest struct {
	Status string `json:"status"`
}

// ServeUpdateStatus handles PATCH /ivrs/{id}/status (admin only).
func (h *Handler) ServeUpdateStatus(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAdmin(w, r, "only admins can change request status")
	if !res.OK {
		return
	}

	id, err := primitive.ObjectIDFromHex(pathID(r))
	if err != nil {
		apierrors.RenderBadRequest(w, "invalid record id")
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.RenderBadRequest(w, "invalid JSON body")
		return
	}
	if !status.ValidIVR(req.Status) {
		apierrors.RenderBadRequest(w, "unknown status")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	prev, err := h.IVRs.GetByID(ctx, id)
	if err != nil {
		apierrors.RenderNotFound(w, "record not found")
		return
	}

	if err := h.IVRs.UpdateStatus(ctx, id, req.Status); err != nil {
		apierrors.RenderInternal(w, h.Log, "ivrs: update status", err)
		return
	}

	h.Audit.IVRStatusChanged(ctx, r, res.UserID, id, string(res.Role), prev.Status, req.Status)

	w.WriteHeader(http.StatusNoContent)
}

type statsResponse struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"by_status"`
}

// ServeStats handles GET /ivrs/stats (admin only).
// Raw request counts across the whole collection, unfiltered: admins
// have global scope, so nothing here leaks past the hierarchy.
func (h *Handler) ServeStats(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAdmin(w, r, "only admins can view request stats")
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	total, err := h.IVRs.Count(ctx, bson.M{})
	if err != nil {
		apierrors.RenderInternal(w, h.Log, "ivrs: count records", err)
		return
	}

	byStatus := make(map[string]int64, len(status.AllIVR))
	for _, stat := range status.AllIVR {
		n, err := h.IVRs.Count(ctx, bson.M{"status": stat})
		if err != nil {
			apierrors.RenderInternal(w, h.Log, "ivrs: count records", err)
			return
		}
		byStatus[stat] = n
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(statsResponse{
		Total:    total,
		ByStatus: byStatus,
	})
}
