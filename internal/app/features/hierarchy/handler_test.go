package hierarchy_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	hierfeature "github.com/dalemusser/verihub/internal/app/features/hierarchy"
	hierstore "github.com/dalemusser/verihub/internal/app/store/hierarchy"
	"github.com/dalemusser/verihub/internal/app/system/hierarchy"
	"github.com/dalemusser/verihub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*hierfeature.Handler, *hierarchy.Registry, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	nodes := hierstore.New(db)
	resolver := hierarchy.NewResolver(nodes, logger)
	registry := hierarchy.NewRegistry(resolver, hierarchy.DefaultTTL, logger)
	return hierfeature.NewHandler(registry, nodes, nil, logger), registry, testutil.NewFixtures(t, db)
}

func TestServeMe(t *testing.T) {
	h, _, f := newTestHandler(t)
	ctx := testutil.TestContext(t)

	chain := f.CreateChain(ctx, "east")
	user := f.CreateSalesRepUser(ctx, "Rep", "rep@example.com", chain.SalesRep.ID)

	req := testutil.WithUser(httptest.NewRequest("GET", "/hierarchy/me", nil), testutil.UserForModel(user))
	rec := httptest.NewRecorder()
	h.ServeMe(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var info struct {
		UserID          string   `json:"user_id"`
		Role            string   `json:"role"`
		AccessScope     string   `json:"access_scope"`
		SelfNodeID      string   `json:"self_node_id"`
		DownlineDoctors []string `json:"downline_doctors"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if info.Role != "salesrep" || info.AccessScope != "downline" {
		t.Errorf("role/scope = %s/%s, want salesrep/downline", info.Role, info.AccessScope)
	}
	if info.SelfNodeID != chain.SalesRep.ID.Hex() {
		t.Errorf("self_node_id = %s, want %s", info.SelfNodeID, chain.SalesRep.ID.Hex())
	}
	if len(info.DownlineDoctors) != 1 || info.DownlineDoctors[0] != chain.Doctor.ID.Hex() {
		t.Errorf("downline_doctors = %v, want [%s]", info.DownlineDoctors, chain.Doctor.ID.Hex())
	}
}

func TestServeMeAnonymous(t *testing.T) {
	h, _, _ := newTestHandler(t)
	rec := httptest.NewRecorder()
	h.ServeMe(rec, httptest.NewRequest("GET", "/hierarchy/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestServeUserAdminInspectsAnyone(t *testing.T) {
	h, _, f := newTestHandler(t)
	ctx := testutil.TestContext(t)

	chain := f.CreateChain(ctx, "west")
	admin := f.CreateAdmin(ctx, "Root", "root@example.com")
	target := f.CreateDoctorUser(ctx, "Doc", "doc@example.com", chain.Doctor.ID)

	req := httptest.NewRequest("GET", "/hierarchy/users/"+target.ID.Hex(), nil)
	req = testutil.WithChiURLParam(req, "id", target.ID.Hex())
	req = testutil.WithUser(req, testutil.UserForModel(admin))
	rec := httptest.NewRecorder()
	h.ServeUser(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestServeUserNonAdminDenied(t *testing.T) {
	h, _, f := newTestHandler(t)
	ctx := testutil.TestContext(t)

	chain := f.CreateChain(ctx, "north")
	rep := f.CreateSalesRepUser(ctx, "Rep", "rep@example.com", chain.SalesRep.ID)
	target := f.CreateDoctorUser(ctx, "Doc", "doc@example.com", chain.Doctor.ID)

	req := httptest.NewRequest("GET", "/hierarchy/users/"+target.ID.Hex(), nil)
	req = testutil.WithChiURLParam(req, "id", target.ID.Hex())
	req = testutil.WithUser(req, testutil.UserForModel(rep))
	rec := httptest.NewRecorder()
	h.ServeUser(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestServeUserSelfAllowed(t *testing.T) {
	h, _, f := newTestHandler(t)
	ctx := testutil.TestContext(t)

	chain := f.CreateChain(ctx, "south")
	rep := f.CreateSalesRepUser(ctx, "Rep", "rep@example.com", chain.SalesRep.ID)

	req := httptest.NewRequest("GET", "/hierarchy/users/"+rep.ID.Hex(), nil)
	req = testutil.WithChiURLParam(req, "id", rep.ID.Hex())
	req = testutil.WithUser(req, testutil.UserForModel(rep))
	rec := httptest.NewRecorder()
	h.ServeUser(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestServeInvalidateSingleUser(t *testing.T) {
	h, registry, f := newTestHandler(t)
	ctx := testutil.TestContext(t)

	chain := f.CreateChain(ctx, "central")
	admin := f.CreateAdmin(ctx, "Root", "root@example.com")
	user := f.CreateDistributorUser(ctx, "Dist", "dist@example.com", chain.Distributor.ID)

	if _, err := registry.Hierarchy(ctx, user.ID); err != nil {
		t.Fatalf("priming cache: %v", err)
	}
	if registry.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 after priming", registry.Len())
	}

	body := `{"user_id":"` + user.ID.Hex() + `"}`
	req := httptest.NewRequest("POST", "/hierarchy/invalidate", strings.NewReader(body))
	req = testutil.WithUser(req, testutil.UserForModel(admin))
	rec := httptest.NewRecorder()
	h.ServeInvalidate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if registry.Len() != 0 {
		t.Errorf("Len() = %d after invalidation, want 0", registry.Len())
	}
}

func TestServeInvalidateAll(t *testing.T) {
	h, registry, f := newTestHandler(t)
	ctx := testutil.TestContext(t)

	chain := f.CreateChain(ctx, "flushme")
	admin := f.CreateAdmin(ctx, "Root", "root@example.com")
	u1 := f.CreateDistributorUser(ctx, "Dist", "dist@example.com", chain.Distributor.ID)
	u2 := f.CreateSalesRepUser(ctx, "Rep", "rep@example.com", chain.SalesRep.ID)
	for _, u := range []primitive.ObjectID{u1.ID, u2.ID} {
		if _, err := registry.Hierarchy(ctx, u); err != nil {
			t.Fatalf("priming cache: %v", err)
		}
	}

	req := httptest.NewRequest("POST", "/hierarchy/invalidate", strings.NewReader(`{}`))
	req = testutil.WithUser(req, testutil.UserForModel(admin))
	rec := httptest.NewRecorder()
	h.ServeInvalidate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Dropped int `json:"dropped"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if out.Dropped != 2 {
		t.Errorf("dropped = %d, want 2", out.Dropped)
	}
	if registry.Len() != 0 {
		t.Errorf("Len() = %d after flush, want 0", registry.Len())
	}
}

func TestServeStats(t *testing.T) {
	h, registry, f := newTestHandler(t)
	ctx := testutil.TestContext(t)

	chain := f.CreateChain(ctx, "tally")
	f.CreateDistributor(ctx, "tally-dist-2", chain.Territory.ID)
	admin := f.CreateAdmin(ctx, "Root", "root@example.com")
	rep := f.CreateSalesRepUser(ctx, "Rep", "rep@example.com", chain.SalesRep.ID)
	if _, err := registry.Hierarchy(ctx, rep.ID); err != nil {
		t.Fatalf("priming cache: %v", err)
	}

	req := testutil.WithUser(httptest.NewRequest("GET", "/hierarchy/stats", nil), testutil.UserForModel(admin))
	rec := httptest.NewRecorder()
	h.ServeStats(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Nodes       map[string]int64 `json:"nodes"`
		CachedUsers int              `json:"cached_users"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if out.Nodes["territory"] != 1 || out.Nodes["distributor"] != 2 {
		t.Errorf("nodes = %v, want 1 territory and 2 distributors", out.Nodes)
	}
	if out.CachedUsers != 1 {
		t.Errorf("cached_users = %d, want 1", out.CachedUsers)
	}
}

func TestServeStatsNonAdmin(t *testing.T) {
	h, _, _ := newTestHandler(t)
	req := testutil.WithUser(httptest.NewRequest("GET", "/hierarchy/stats", nil), testutil.SalesRepUser())
	rec := httptest.NewRecorder()
	h.ServeStats(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestServeInvalidateNonAdmin(t *testing.T) {
	h, _, _ := newTestHandler(t)
	req := httptest.NewRequest("POST", "/hierarchy/invalidate", strings.NewReader(`{}`))
	req = testutil.WithUser(req, testutil.DistributorUser())
	rec := httptest.NewRecorder()
	h.ServeInvalidate(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}
