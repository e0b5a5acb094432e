package gates_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/verihub/internal/app/system/gates"
	"github.com/dalemusser/verihub/internal/domain/models"
	"github.com/dalemusser/verihub/internal/testutil"
)

func TestRequireAuth(t *testing.T) {
	rec := httptest.NewRecorder()
	req := testutil.WithUser(httptest.NewRequest("GET", "/", nil), testutil.SalesRepUser())
	res := gates.RequireAuth(rec, req)
	if !res.OK {
		t.Fatal("RequireAuth rejected a signed-in user")
	}
	if res.Role != models.RoleSalesRep {
		t.Errorf("Role = %q, want salesrep", res.Role)
	}

	rec = httptest.NewRecorder()
	res = gates.RequireAuth(rec, httptest.NewRequest("GET", "/", nil))
	if res.OK {
		t.Fatal("RequireAuth admitted an anonymous request")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	rec := httptest.NewRecorder()
	req := testutil.WithUser(httptest.NewRequest("GET", "/", nil), testutil.AdminUser())
	if res := gates.RequireAdmin(rec, req, "admin access required"); !res.OK {
		t.Fatal("RequireAdmin rejected an admin")
	}

	rec = httptest.NewRecorder()
	req = testutil.WithUser(httptest.NewRequest("GET", "/", nil), testutil.DoctorUser())
	if res := gates.RequireAdmin(rec, req, "admin access required"); res.OK {
		t.Fatal("RequireAdmin admitted a doctor")
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestRequireAnyRole(t *testing.T) {
	allowed := []models.Role{models.RoleDoctor, models.RoleSalesRep}

	rec := httptest.NewRecorder()
	req := testutil.WithUser(httptest.NewRequest("GET", "/", nil), testutil.DoctorUser())
	if res := gates.RequireAnyRole(rec, req, "not allowed", allowed...); !res.OK {
		t.Fatal("RequireAnyRole rejected an allowed role")
	}

	rec = httptest.NewRecorder()
	req = testutil.WithUser(httptest.NewRequest("GET", "/", nil), testutil.DistributorUser())
	if res := gates.RequireAnyRole(rec, req, "not allowed", allowed...); res.OK {
		t.Fatal("RequireAnyRole admitted a disallowed role")
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}
