package ivrpolicy_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/dalemusser/verihub/internal/app/policy/hierfilter"
	"github.com/dalemusser/verihub/internal/app/policy/ivrpolicy"
	"github.com/dalemusser/verihub/internal/app/system/hierarchy"
	"github.com/dalemusser/verihub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func oid() *primitive.ObjectID {
	id := primitive.NewObjectID()
	return &id
}

func ivr(patient string, doctor, salesRep, distributor, territory, createdBy *primitive.ObjectID) models.IVRRecord {
	return models.IVRRecord{
		ID:                primitive.NewObjectID(),
		PatientName:       patient,
		Status:            "pending",
		DoctorNodeID:      doctor,
		SalesRepNodeID:    salesRep,
		DistributorNodeID: distributor,
		TerritoryID:       territory,
		CreatedBy:         createdBy,
	}
}

func patients(recs []models.IVRRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.PatientName
	}
	return out
}

func TestFilterAdminSeesEverything(t *testing.T) {
	info := &hierarchy.Info{
		UserID:               primitive.NewObjectID(),
		Role:                 models.RoleAdmin,
		AccessScope:          hierarchy.ScopeGlobal,
		DownlineDoctors:      hierarchy.NewIDSet(),
		DownlineSalesReps:    hierarchy.NewIDSet(),
		DownlineDistributors: hierarchy.NewIDSet(),
	}
	records := []models.IVRRecord{
		ivr("attributed", oid(), oid(), oid(), oid(), oid()),
		ivr("orphan", nil, nil, nil, nil, nil), // unattributable
	}

	res, err := ivrpolicy.FilterByHierarchy(records, info)
	if err != nil {
		t.Fatalf("FilterByHierarchy() error: %v", err)
	}
	if len(res.FilteredData) != 2 {
		t.Fatalf("kept %d records, want 2 (global keeps unattributable)", len(res.FilteredData))
	}
	if res.TotalCount != 2 || res.FilteredCount != 2 {
		t.Errorf("counts = %d/%d, want 2/2", res.FilteredCount, res.TotalCount)
	}
	if !reflect.DeepEqual(res.AppliedFilters, []string{hierfilter.PredGlobal}) {
		t.Errorf("AppliedFilters = %v, want [global]", res.AppliedFilters)
	}
	if len(res.Restrictions) != 0 {
		t.Errorf("Restrictions = %v, want empty", res.Restrictions)
	}
	if res.FilterReason != "scope=global" {
		t.Errorf("FilterReason = %q", res.FilterReason)
	}
}

func TestFilterDistributorDownline(t *testing.T) {
	selfNode := oid()
	rep := oid()
	doc := oid()
	otherRep := oid()
	info := &hierarchy.Info{
		UserID:               primitive.NewObjectID(),
		Role:                 models.RoleDistributor,
		AccessScope:          hierarchy.ScopeDownline,
		SelfNodeID:           selfNode,
		DownlineSalesReps:    hierarchy.NewIDSet(*rep),
		DownlineDoctors:      hierarchy.NewIDSet(*doc),
		DownlineDistributors: hierarchy.NewIDSet(),
	}
	records := []models.IVRRecord{
		ivr("via doctor", doc, nil, nil, nil, nil),
		ivr("via rep", nil, rep, nil, nil, nil),
		ivr("direct", nil, nil, selfNode, nil, nil),
		ivr("other branch", nil, otherRep, nil, nil, nil),
		ivr("orphan", nil, nil, nil, nil, nil),
	}

	res, err := ivrpolicy.FilterByHierarchy(records, info)
	if err != nil {
		t.Fatalf("FilterByHierarchy() error: %v", err)
	}
	want := []string{"via doctor", "via rep", "direct"}
	if got := patients(res.FilteredData); !reflect.DeepEqual(got, want) {
		t.Errorf("kept %v, want %v (input order preserved)", got, want)
	}
	if res.TotalCount != 5 || res.FilteredCount != 3 {
		t.Errorf("counts = %d/%d, want 3/5", res.FilteredCount, res.TotalCount)
	}
	wantApplied := []string{
		hierfilter.PredDownlineDoctors,
		hierfilter.PredDownlineSalesReps,
		hierfilter.PredSelfDistributor,
	}
	if !reflect.DeepEqual(res.AppliedFilters, wantApplied) {
		t.Errorf("AppliedFilters = %v, want %v", res.AppliedFilters, wantApplied)
	}
	// Both the failed-every-predicate record and the orphan leave traces.
	wantRestricted := []string{
		hierfilter.PredDownlineDoctors,
		hierfilter.PredDownlineSalesReps,
		hierfilter.PredSelfDistributor,
		hierfilter.RestrictionUnattributable,
	}
	if !reflect.DeepEqual(res.Restrictions, wantRestricted) {
		t.Errorf("Restrictions = %v, want %v", res.Restrictions, wantRestricted)
	}
}

func TestFilterSalesRep(t *testing.T) {
	selfNode := oid()
	doc := oid()
	info := &hierarchy.Info{
		UserID:               primitive.NewObjectID(),
		Role:                 models.RoleSalesRep,
		AccessScope:          hierarchy.ScopeDownline,
		SelfNodeID:           selfNode,
		DownlineSalesReps:    hierarchy.NewIDSet(),
		DownlineDoctors:      hierarchy.NewIDSet(*doc),
		DownlineDistributors: hierarchy.NewIDSet(),
	}
	records := []models.IVRRecord{
		ivr("my doctor", doc, nil, nil, nil, nil),
		ivr("assigned to me", nil, selfNode, nil, nil, nil),
		ivr("someone else", oid(), oid(), nil, nil, nil),
	}

	res, err := ivrpolicy.FilterByHierarchy(records, info)
	if err != nil {
		t.Fatalf("FilterByHierarchy() error: %v", err)
	}
	want := []string{"my doctor", "assigned to me"}
	if got := patients(res.FilteredData); !reflect.DeepEqual(got, want) {
		t.Errorf("kept %v, want %v", got, want)
	}
	if res.FilterReason != "scope=downline; 0 sales reps, 1 doctors" {
		t.Errorf("FilterReason = %q", res.FilterReason)
	}
}

func TestFilterMasterDistributorTerritory(t *testing.T) {
	territory := oid()
	dist := oid()
	rep := oid()
	doc := oid()
	info := &hierarchy.Info{
		UserID:               primitive.NewObjectID(),
		Role:                 models.RoleMasterDistributor,
		AccessScope:          hierarchy.ScopeTerritory,
		TerritoryIDs:         []primitive.ObjectID{*territory},
		DownlineDistributors: hierarchy.NewIDSet(*dist),
		DownlineSalesReps:    hierarchy.NewIDSet(*rep),
		DownlineDoctors:      hierarchy.NewIDSet(*doc),
	}
	records := []models.IVRRecord{
		ivr("by territory", nil, nil, nil, territory, nil),
		ivr("by distributor", nil, nil, dist, nil, nil),
		ivr("by rep", nil, rep, nil, nil, nil),
		ivr("by doctor", doc, nil, nil, nil, nil),
		ivr("foreign", oid(), oid(), oid(), oid(), nil),
	}

	res, err := ivrpolicy.FilterByHierarchy(records, info)
	if err != nil {
		t.Fatalf("FilterByHierarchy() error: %v", err)
	}
	if res.FilteredCount != 4 {
		t.Fatalf("FilteredCount = %d, want 4", res.FilteredCount)
	}
	if p := patients(res.FilteredData); p[len(p)-1] == "foreign" {
		t.Error("record from a foreign territory leaked through")
	}
	if res.FilterReason != "scope=territory; 1 territories, 1 distributors, 1 sales reps, 1 doctors" {
		t.Errorf("FilterReason = %q", res.FilterReason)
	}
}

func TestFilterDoctorSelfOnly(t *testing.T) {
	selfNode := oid()
	userID := primitive.NewObjectID()
	info := &hierarchy.Info{
		UserID:               userID,
		Role:                 models.RoleDoctor,
		AccessScope:          hierarchy.ScopeSelf,
		SelfNodeID:           selfNode,
		DownlineDoctors:      hierarchy.NewIDSet(),
		DownlineSalesReps:    hierarchy.NewIDSet(),
		DownlineDistributors: hierarchy.NewIDSet(),
	}
	records := []models.IVRRecord{
		ivr("attributed to me", selfNode, nil, nil, nil, nil),
		ivr("submitted by me", oid(), nil, nil, nil, &userID),
		ivr("both", selfNode, nil, nil, nil, &userID),
		ivr("another doctor", oid(), nil, nil, nil, oid()),
		ivr("orphan", nil, nil, nil, nil, nil),
	}

	res, err := ivrpolicy.FilterByHierarchy(records, info)
	if err != nil {
		t.Fatalf("FilterByHierarchy() error: %v", err)
	}
	want := []string{"attributed to me", "submitted by me", "both"}
	if got := patients(res.FilteredData); !reflect.DeepEqual(got, want) {
		t.Errorf("kept %v, want %v", got, want)
	}
	wantApplied := []string{hierfilter.PredOwnSubmission, hierfilter.PredSelfDoctor}
	if !reflect.DeepEqual(res.AppliedFilters, wantApplied) {
		t.Errorf("AppliedFilters = %v, want %v", res.AppliedFilters, wantApplied)
	}
	if res.FilterReason != "scope=self" {
		t.Errorf("FilterReason = %q", res.FilterReason)
	}
}

func TestFilterUnsupportedRole(t *testing.T) {
	info := &hierarchy.Info{Role: "coordinator"}
	_, err := ivrpolicy.FilterByHierarchy(nil, info)
	if !errors.Is(err, hierarchy.ErrUnsupportedRole) {
		t.Fatalf("FilterByHierarchy() error = %v, want ErrUnsupportedRole", err)
	}
}

func TestFilterEmptyInput(t *testing.T) {
	info := &hierarchy.Info{
		UserID:               primitive.NewObjectID(),
		Role:                 models.RoleAdmin,
		AccessScope:          hierarchy.ScopeGlobal,
		DownlineDoctors:      hierarchy.NewIDSet(),
		DownlineSalesReps:    hierarchy.NewIDSet(),
		DownlineDistributors: hierarchy.NewIDSet(),
	}
	res, err := ivrpolicy.FilterByHierarchy(nil, info)
	if err != nil {
		t.Fatalf("FilterByHierarchy() error: %v", err)
	}
	if res.FilteredData == nil || len(res.FilteredData) != 0 {
		t.Errorf("FilteredData = %v, want empty non-nil slice", res.FilteredData)
	}
	if res.TotalCount != 0 || res.FilteredCount != 0 {
		t.Errorf("counts = %d/%d, want 0/0", res.FilteredCount, res.TotalCount)
	}
}

// Identical inputs produce identical results, run after run.
func TestFilterDeterministic(t *testing.T) {
	selfNode := oid()
	doc := oid()
	info := &hierarchy.Info{
		UserID:               primitive.NewObjectID(),
		Role:                 models.RoleSalesRep,
		AccessScope:          hierarchy.ScopeDownline,
		SelfNodeID:           selfNode,
		DownlineSalesReps:    hierarchy.NewIDSet(),
		DownlineDoctors:      hierarchy.NewIDSet(*doc),
		DownlineDistributors: hierarchy.NewIDSet(),
	}
	records := []models.IVRRecord{
		ivr("a", doc, nil, nil, nil, nil),
		ivr("b", oid(), nil, nil, nil, nil),
		ivr("c", nil, selfNode, nil, nil, nil),
	}

	first, err := ivrpolicy.FilterByHierarchy(records, info)
	if err != nil {
		t.Fatalf("FilterByHierarchy() error: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := ivrpolicy.FilterByHierarchy(records, info)
		if err != nil {
			t.Fatalf("FilterByHierarchy() run %d error: %v", i, err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs from first run", i)
		}
	}
}
