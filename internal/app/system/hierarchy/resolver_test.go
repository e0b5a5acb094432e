package hierarchy_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/verihub/internal/app/system/hierarchy"
	"github.com/dalemusser/verihub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// fakeDirectory is an in-memory hierarchy.Directory. It also counts
// Nodes calls and can delay them, which the registry tests use to
// observe caching and single-flight behavior.
type fakeDirectory struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]models.User
	nodes []models.HierarchyNode

	nodeCalls int
	delay     time.Duration
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{users: make(map[primitive.ObjectID]models.User)}
}

func (d *fakeDirectory) LookupUser(_ context.Context, userID primitive.ObjectID) (models.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.users[userID]
	if !ok {
		return models.User{}, hierarchy.ErrUnknownUser
	}
	return u, nil
}

func (d *fakeDirectory) Nodes(_ context.Context) ([]models.HierarchyNode, error) {
	d.mu.Lock()
	d.nodeCalls++
	delay := d.delay
	out := make([]models.HierarchyNode, len(d.nodes))
	copy(out, d.nodes)
	d.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	return out, nil
}

func (d *fakeDirectory) addUser(u models.User) models.User {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	d.mu.Lock()
	d.users[u.ID] = u
	d.mu.Unlock()
	return u
}

func (d *fakeDirectory) addNode(kind models.NodeKind, parent *primitive.ObjectID) primitive.ObjectID {
	id := primitive.NewObjectID()
	d.mu.Lock()
	d.nodes = append(d.nodes, models.HierarchyNode{ID: id, Kind: kind, ParentID: parent, Name: string(kind)})
	d.mu.Unlock()
	return id
}

func (d *fakeDirectory) resolveCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.nodeCalls
}

// branch is one full territory chain used by most tests.
type branch struct {
	territory   primitive.ObjectID
	distributor primitive.ObjectID
	salesRep    primitive.ObjectID
	doctor      primitive.ObjectID
}

func (d *fakeDirectory) addBranch() branch {
	var b branch
	b.territory = d.addNode(models.NodeTerritory, nil)
	b.distributor = d.addNode(models.NodeDistributor, &b.territory)
	b.salesRep = d.addNode(models.NodeSalesRep, &b.distributor)
	b.doctor = d.addNode(models.NodeDoctor, &b.salesRep)
	return b
}

func newTestResolver(dir *fakeDirectory) *hierarchy.Resolver {
	return hierarchy.NewResolver(dir, zap.NewNop())
}

func TestResolveAdmin(t *testing.T) {
	dir := newFakeDirectory()
	b1 := dir.addBranch()
	b2 := dir.addBranch()
	admin := dir.addUser(models.User{Role: "admin"})

	info, err := newTestResolver(dir).Resolve(context.Background(), admin.ID)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if info.AccessScope != hierarchy.ScopeGlobal {
		t.Errorf("AccessScope = %q, want %q", info.AccessScope, hierarchy.ScopeGlobal)
	}
	if info.SelfNodeID != nil {
		t.Errorf("SelfNodeID = %v, want nil", info.SelfNodeID)
	}
	if got := info.DownlineDistributors.Len(); got != 2 {
		t.Errorf("DownlineDistributors.Len() = %d, want 2", got)
	}
	if got := info.DownlineSalesReps.Len(); got != 2 {
		t.Errorf("DownlineSalesReps.Len() = %d, want 2", got)
	}
	if !info.DownlineDoctors.Has(&b1.doctor) || !info.DownlineDoctors.Has(&b2.doctor) {
		t.Error("admin downline missing doctors from one branch")
	}
}

func TestResolveMasterDistributor(t *testing.T) {
	dir := newFakeDirectory()
	owned := dir.addBranch()
	other := dir.addBranch()
	md := dir.addUser(models.User{
		Role:         "masterdistributor",
		TerritoryIDs: []primitive.ObjectID{owned.territory, owned.territory}, // duplicate on purpose
	})

	info, err := newTestResolver(dir).Resolve(context.Background(), md.ID)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if info.AccessScope != hierarchy.ScopeTerritory {
		t.Errorf("AccessScope = %q, want %q", info.AccessScope, hierarchy.ScopeTerritory)
	}
	if len(info.TerritoryIDs) != 1 || info.TerritoryIDs[0] != owned.territory {
		t.Errorf("TerritoryIDs = %v, want exactly [%s]", info.TerritoryIDs, owned.territory.Hex())
	}
	if !info.DownlineDoctors.Has(&owned.doctor) {
		t.Error("downline missing doctor from owned territory")
	}
	if info.DownlineDoctors.Has(&other.doctor) || info.DownlineDistributors.Has(&other.distributor) {
		t.Error("downline leaked nodes from an unowned territory")
	}
}

func TestResolveMasterDistributorMultipleTerritories(t *testing.T) {
	dir := newFakeDirectory()
	b1 := dir.addBranch()
	b2 := dir.addBranch()
	md := dir.addUser(models.User{
		Role:         "masterdistributor",
		TerritoryIDs: []primitive.ObjectID{b1.territory, b2.territory},
	})

	info, err := newTestResolver(dir).Resolve(context.Background(), md.ID)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if got := info.DownlineDoctors.Len(); got != 2 {
		t.Errorf("DownlineDoctors.Len() = %d, want 2", got)
	}
	if len(info.TerritoryIDs) != 2 {
		t.Errorf("TerritoryIDs = %v, want two territories", info.TerritoryIDs)
	}
}

func TestResolveDistributor(t *testing.T) {
	dir := newFakeDirectory()
	b := dir.addBranch()
	other := dir.addBranch()
	du := dir.addUser(models.User{Role: "distributor", DistributorNodeID: &b.distributor})

	info, err := newTestResolver(dir).Resolve(context.Background(), du.ID)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if info.AccessScope != hierarchy.ScopeDownline {
		t.Errorf("AccessScope = %q, want %q", info.AccessScope, hierarchy.ScopeDownline)
	}
	if info.SelfNodeID == nil || *info.SelfNodeID != b.distributor {
		t.Fatalf("SelfNodeID = %v, want %s", info.SelfNodeID, b.distributor.Hex())
	}
	// The anchor is not part of its own downline.
	if info.DownlineDistributors.Has(&b.distributor) {
		t.Error("distributor's own node appeared in its downline")
	}
	if !info.DownlineSalesReps.Has(&b.salesRep) || !info.DownlineDoctors.Has(&b.doctor) {
		t.Error("downline missing descendants of the anchor")
	}
	if info.DownlineDoctors.Has(&other.doctor) {
		t.Error("downline leaked a doctor from another branch")
	}
}

func TestResolveSalesRep(t *testing.T) {
	dir := newFakeDirectory()
	b := dir.addBranch()
	extraDoc := dir.addNode(models.NodeDoctor, &b.salesRep)
	sr := dir.addUser(models.User{Role: "salesrep", SalesRepNodeID: &b.salesRep})

	info, err := newTestResolver(dir).Resolve(context.Background(), sr.ID)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if info.AccessScope != hierarchy.ScopeDownline {
		t.Errorf("AccessScope = %q, want %q", info.AccessScope, hierarchy.ScopeDownline)
	}
	if got := info.DownlineDoctors.Len(); got != 2 {
		t.Errorf("DownlineDoctors.Len() = %d, want 2", got)
	}
	if !info.DownlineDoctors.Has(&extraDoc) {
		t.Error("downline missing a directly assigned doctor")
	}
	if info.DownlineSalesReps.Len() != 0 || info.DownlineDistributors.Len() != 0 {
		t.Error("sales rep downline should contain only doctors")
	}
}

func TestResolveDoctor(t *testing.T) {
	dir := newFakeDirectory()
	b := dir.addBranch()
	doc := dir.addUser(models.User{Role: "doctor", DoctorNodeID: &b.doctor})

	info, err := newTestResolver(dir).Resolve(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if info.AccessScope != hierarchy.ScopeSelf {
		t.Errorf("AccessScope = %q, want %q", info.AccessScope, hierarchy.ScopeSelf)
	}
	if info.SelfNodeID == nil || *info.SelfNodeID != b.doctor {
		t.Fatalf("SelfNodeID = %v, want %s", info.SelfNodeID, b.doctor.Hex())
	}
	if info.DownlineDoctors.Len() != 0 {
		t.Errorf("DownlineDoctors.Len() = %d, want 0", info.DownlineDoctors.Len())
	}
}

func TestResolveUnknownUser(t *testing.T) {
	dir := newFakeDirectory()
	_, err := newTestResolver(dir).Resolve(context.Background(), primitive.NewObjectID())
	if !errors.Is(err, hierarchy.ErrUnknownUser) {
		t.Fatalf("Resolve() error = %v, want ErrUnknownUser", err)
	}
}

func TestResolveUnsupportedRole(t *testing.T) {
	dir := newFakeDirectory()
	u := dir.addUser(models.User{Role: "coordinator"})
	_, err := newTestResolver(dir).Resolve(context.Background(), u.ID)
	if !errors.Is(err, hierarchy.ErrUnsupportedRole) {
		t.Fatalf("Resolve() error = %v, want ErrUnsupportedRole", err)
	}
}

func TestResolveMissingAnchor(t *testing.T) {
	dir := newFakeDirectory()
	dir.addBranch()

	cases := []struct {
		name string
		user models.User
	}{
		{"master distributor without territories", models.User{Role: "masterdistributor"}},
		{"distributor without node", models.User{Role: "distributor"}},
		{"sales rep without node", models.User{Role: "salesrep"}},
		{"doctor without node", models.User{Role: "doctor"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u := dir.addUser(tc.user)
			_, err := newTestResolver(dir).Resolve(context.Background(), u.ID)
			if !errors.Is(err, hierarchy.ErrMissingAnchor) {
				t.Fatalf("Resolve() error = %v, want ErrMissingAnchor", err)
			}
		})
	}
}

func TestResolveAnchorNodeMissing(t *testing.T) {
	dir := newFakeDirectory()
	dir.addBranch()
	ghost := primitive.NewObjectID()
	u := dir.addUser(models.User{Role: "distributor", DistributorNodeID: &ghost})

	_, err := newTestResolver(dir).Resolve(context.Background(), u.ID)
	if !errors.Is(err, hierarchy.ErrMalformedHierarchy) {
		t.Fatalf("Resolve() error = %v, want ErrMalformedHierarchy", err)
	}
}

func TestResolveAnchorWrongKind(t *testing.T) {
	dir := newFakeDirectory()
	b := dir.addBranch()
	// Anchor points at a sales rep node but the role expects a distributor.
	u := dir.addUser(models.User{Role: "distributor", DistributorNodeID: &b.salesRep})

	_, err := newTestResolver(dir).Resolve(context.Background(), u.ID)
	if !errors.Is(err, hierarchy.ErrMalformedHierarchy) {
		t.Fatalf("Resolve() error = %v, want ErrMalformedHierarchy", err)
	}
}

func TestResolveDuplicateNodeID(t *testing.T) {
	dir := newFakeDirectory()
	b := dir.addBranch()
	dir.mu.Lock()
	dir.nodes = append(dir.nodes, models.HierarchyNode{ID: b.salesRep, Kind: models.NodeSalesRep})
	dir.mu.Unlock()
	u := dir.addUser(models.User{Role: "distributor", DistributorNodeID: &b.distributor})

	_, err := newTestResolver(dir).Resolve(context.Background(), u.ID)
	if !errors.Is(err, hierarchy.ErrMalformedHierarchy) {
		t.Fatalf("Resolve() error = %v, want ErrMalformedHierarchy", err)
	}
}

func TestResolveCycle(t *testing.T) {
	dir := newFakeDirectory()
	b := dir.addBranch()
	// Point the distributor back under its own sales rep.
	dir.mu.Lock()
	for i := range dir.nodes {
		if dir.nodes[i].ID == b.distributor {
			dir.nodes[i].ParentID = &b.salesRep
		}
	}
	dir.mu.Unlock()
	u := dir.addUser(models.User{Role: "distributor", DistributorNodeID: &b.distributor})

	_, err := newTestResolver(dir).Resolve(context.Background(), u.ID)
	if !errors.Is(err, hierarchy.ErrMalformedHierarchy) {
		t.Fatalf("Resolve() error = %v, want ErrMalformedHierarchy", err)
	}
}

// A territory entangled with another walked territory's subtree aborts
// the whole resolution: nothing partial comes back.
func TestResolveEntangledTerritories(t *testing.T) {
	dir := newFakeDirectory()
	a := dir.addBranch()
	// Second territory hangs beneath the first territory's distributor.
	tb := dir.addNode(models.NodeTerritory, &a.distributor)
	md := dir.addUser(models.User{Role: "masterdistributor", TerritoryIDs: []primitive.ObjectID{a.territory, tb}})

	_, err := newTestResolver(dir).Resolve(context.Background(), md.ID)
	if !errors.Is(err, hierarchy.ErrMalformedHierarchy) {
		t.Fatalf("Resolve() error = %v, want ErrMalformedHierarchy", err)
	}
}

func TestResolveWrongKindBeneathParent(t *testing.T) {
	dir := newFakeDirectory()
	b := dir.addBranch()
	// A doctor directly under a distributor skips the sales rep tier.
	dir.addNode(models.NodeDoctor, &b.distributor)
	u := dir.addUser(models.User{Role: "distributor", DistributorNodeID: &b.distributor})

	_, err := newTestResolver(dir).Resolve(context.Background(), u.ID)
	if !errors.Is(err, hierarchy.ErrMalformedHierarchy) {
		t.Fatalf("Resolve() error = %v, want ErrMalformedHierarchy", err)
	}
}

func TestResolveDoctorWithChildren(t *testing.T) {
	dir := newFakeDirectory()
	b := dir.addBranch()
	dir.addNode(models.NodeDoctor, &b.doctor)
	u := dir.addUser(models.User{Role: "doctor", DoctorNodeID: &b.doctor})

	_, err := newTestResolver(dir).Resolve(context.Background(), u.ID)
	if !errors.Is(err, hierarchy.ErrMalformedHierarchy) {
		t.Fatalf("Resolve() error = %v, want ErrMalformedHierarchy", err)
	}
}

// A parent's downline always contains each child's downline.
func TestResolveDownlineMonotonic(t *testing.T) {
	dir := newFakeDirectory()
	b := dir.addBranch()
	du := dir.addUser(models.User{Role: "distributor", DistributorNodeID: &b.distributor})
	sr := dir.addUser(models.User{Role: "salesrep", SalesRepNodeID: &b.salesRep})

	r := newTestResolver(dir)
	distInfo, err := r.Resolve(context.Background(), du.ID)
	if err != nil {
		t.Fatalf("Resolve(distributor) error: %v", err)
	}
	repInfo, err := r.Resolve(context.Background(), sr.ID)
	if err != nil {
		t.Fatalf("Resolve(salesrep) error: %v", err)
	}
	for _, id := range repInfo.DownlineDoctors.IDs() {
		if !distInfo.DownlineDoctors.Has(&id) {
			t.Errorf("distributor downline missing doctor %s from sales rep downline", id.Hex())
		}
	}
}
