package hierarchystore_test

import (
	"errors"
	"testing"

	hierarchystore "github.com/dalemusser/verihub/internal/app/store/hierarchy"
	"github.com/dalemusser/verihub/internal/app/system/hierarchy"
	"github.com/dalemusser/verihub/internal/domain/models"
	"github.com/dalemusser/verihub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestLookupUserUnknown(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := hierarchystore.New(db)

	_, err := s.LookupUser(testutil.TestContext(t), primitive.NewObjectID())
	if !errors.Is(err, hierarchy.ErrUnknownUser) {
		t.Fatalf("LookupUser() error = %v, want ErrUnknownUser", err)
	}
}

func TestCreateAndLoadNodes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := hierarchystore.New(db)
	ctx := testutil.TestContext(t)

	territory, err := s.CreateNode(ctx, models.HierarchyNode{Kind: models.NodeTerritory, Name: "Northeast"})
	if err != nil {
		t.Fatalf("CreateNode() error: %v", err)
	}
	if territory.Status != "active" {
		t.Errorf("Status = %q, want active default", territory.Status)
	}
	if territory.NameCI != "northeast" {
		t.Errorf("NameCI = %q, want folded name", territory.NameCI)
	}

	dist, err := s.CreateNode(ctx, models.HierarchyNode{Kind: models.NodeDistributor, Name: "Acme", ParentID: &territory.ID})
	if err != nil {
		t.Fatalf("CreateNode() error: %v", err)
	}

	nodes, err := s.Nodes(ctx)
	if err != nil {
		t.Fatalf("Nodes() error: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("Nodes() returned %d, want 2", len(nodes))
	}

	kids, err := s.ChildrenOf(ctx, territory.ID)
	if err != nil {
		t.Fatalf("ChildrenOf() error: %v", err)
	}
	if len(kids) != 1 || kids[0].ID != dist.ID {
		t.Errorf("ChildrenOf() = %v, want the distributor", kids)
	}
}

func TestReparent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := hierarchystore.New(db)
	ctx := testutil.TestContext(t)

	t1, _ := s.CreateNode(ctx, models.HierarchyNode{Kind: models.NodeTerritory, Name: "T1"})
	t2, _ := s.CreateNode(ctx, models.HierarchyNode{Kind: models.NodeTerritory, Name: "T2"})
	dist, _ := s.CreateNode(ctx, models.HierarchyNode{Kind: models.NodeDistributor, Name: "D", ParentID: &t1.ID})

	if err := s.Reparent(ctx, dist.ID, &t2.ID); err != nil {
		t.Fatalf("Reparent() error: %v", err)
	}
	got, err := s.GetNode(ctx, dist.ID)
	if err != nil {
		t.Fatalf("GetNode() error: %v", err)
	}
	if got.ParentID == nil || *got.ParentID != t2.ID {
		t.Errorf("ParentID = %v, want %s", got.ParentID, t2.ID.Hex())
	}

	if err := s.Reparent(ctx, dist.ID, nil); err != nil {
		t.Fatalf("Reparent(nil) error: %v", err)
	}
	got, _ = s.GetNode(ctx, dist.ID)
	if got.ParentID != nil {
		t.Errorf("ParentID = %v after detach, want nil", got.ParentID)
	}
}

func TestDeleteNode(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := hierarchystore.New(db)
	ctx := testutil.TestContext(t)

	n, _ := s.CreateNode(ctx, models.HierarchyNode{Kind: models.NodeTerritory, Name: "Gone"})
	deleted, err := s.DeleteNode(ctx, n.ID)
	if err != nil {
		t.Fatalf("DeleteNode() error: %v", err)
	}
	if deleted != 1 {
		t.Errorf("DeleteNode() = %d, want 1", deleted)
	}
	deleted, _ = s.DeleteNode(ctx, n.ID)
	if deleted != 0 {
		t.Errorf("second DeleteNode() = %d, want 0", deleted)
	}
}

func TestCountByKind(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := hierarchystore.New(db)
	ctx := testutil.TestContext(t)

	tr, _ := s.CreateNode(ctx, models.HierarchyNode{Kind: models.NodeTerritory, Name: "T"})
	_, _ = s.CreateNode(ctx, models.HierarchyNode{Kind: models.NodeDistributor, Name: "D1", ParentID: &tr.ID})
	_, _ = s.CreateNode(ctx, models.HierarchyNode{Kind: models.NodeDistributor, Name: "D2", ParentID: &tr.ID})

	counts, err := s.CountByKind(ctx)
	if err != nil {
		t.Fatalf("CountByKind() error: %v", err)
	}
	if counts[models.NodeTerritory] != 1 || counts[models.NodeDistributor] != 2 {
		t.Errorf("counts = %v, want 1 territory / 2 distributors", counts)
	}
}
