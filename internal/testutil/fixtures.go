package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/verihub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateNode inserts a hierarchy node of the given kind.
func (f *Fixtures) CreateNode(ctx context.Context, kind models.NodeKind, name string, parentID *primitive.ObjectID) models.HierarchyNode {
	f.t.Helper()

	now := time.Now().UTC()
	node := models.HierarchyNode{
		ID:        primitive.NewObjectID(),
		Kind:      kind,
		ParentID:  parentID,
		Name:      name,
		NameCI:    text.Fold(name),
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("hierarchy_nodes").InsertOne(ctx, node); err != nil {
		f.t.Fatalf("failed to create test node: %v", err)
	}
	return node
}

// CreateTerritory creates a root territory node.
func (f *Fixtures) CreateTerritory(ctx context.Context, name string) models.HierarchyNode {
	return f.CreateNode(ctx, models.NodeTerritory, name, nil)
}

// CreateDistributor creates a distributor under a territory.
func (f *Fixtures) CreateDistributor(ctx context.Context, name string, territoryID primitive.ObjectID) models.HierarchyNode {
	return f.CreateNode(ctx, models.NodeDistributor, name, &territoryID)
}

// CreateSalesRep creates a sales rep under a distributor.
func (f *Fixtures) CreateSalesRep(ctx context.Context, name string, distributorID primitive.ObjectID) models.HierarchyNode {
	return f.CreateNode(ctx, models.NodeSalesRep, name, &distributorID)
}

// CreateDoctor creates a doctor under a sales rep.
func (f *Fixtures) CreateDoctor(ctx context.Context, name string, salesRepID primitive.ObjectID) models.HierarchyNode {
	return f.CreateNode(ctx, models.NodeDoctor, name, &salesRepID)
}

// Chain is one full territory→distributor→rep→doctor branch.
type Chain struct {
	Territory   models.HierarchyNode
	Distributor models.HierarchyNode
	SalesRep    models.HierarchyNode
	Doctor      models.HierarchyNode
}

// CreateChain builds a complete branch. Names are prefixed so multiple
// chains in one test stay distinguishable.
func (f *Fixtures) CreateChain(ctx context.Context, prefix string) Chain {
	f.t.Helper()

	terr := f.CreateTerritory(ctx, prefix+" Territory")
	dist := f.CreateDistributor(ctx, prefix+" Distributor", terr.ID)
	rep := f.CreateSalesRep(ctx, prefix+" Rep", dist.ID)
	doc := f.CreateDoctor(ctx, prefix+" Doctor", rep.ID)
	return Chain{Territory: terr, Distributor: dist, SalesRep: rep, Doctor: doc}
}

// createUser inserts a user row directly, bypassing store validation.
func (f *Fixtures) createUser(ctx context.Context, u models.User) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u.ID = primitive.NewObjectID()
	u.FullNameCI = text.Fold(u.FullName)
	u.AuthMethod = "password"
	u.Status = "active"
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateAdmin creates an admin user.
func (f *Fixtures) CreateAdmin(ctx context.Context, name, email string) models.User {
	return f.createUser(ctx, models.User{FullName: name, Email: email, Role: string(models.RoleAdmin)})
}

// CreateMasterDistributor creates a master distributor anchored to territories.
func (f *Fixtures) CreateMasterDistributor(ctx context.Context, name, email string, territoryIDs ...primitive.ObjectID) models.User {
	return f.createUser(ctx, models.User{
		FullName:     name,
		Email:        email,
		Role:         string(models.RoleMasterDistributor),
		TerritoryIDs: territoryIDs,
	})
}

// CreateDistributorUser creates a distributor user anchored to a node.
func (f *Fixtures) CreateDistributorUser(ctx context.Context, name, email string, nodeID primitive.ObjectID) models.User {
	return f.createUser(ctx, models.User{
		FullName:          name,
		Email:             email,
		Role:              string(models.RoleDistributor),
		DistributorNodeID: &nodeID,
	})
}

// CreateSalesRepUser creates a sales rep user anchored to a node.
func (f *Fixtures) CreateSalesRepUser(ctx context.Context, name, email string, nodeID primitive.ObjectID) models.User {
	return f.createUser(ctx, models.User{
		FullName:       name,
		Email:          email,
		Role:           string(models.RoleSalesRep),
		SalesRepNodeID: &nodeID,
	})
}

// CreateDoctorUser creates a doctor user anchored to a node.
func (f *Fixtures) CreateDoctorUser(ctx context.Context, name, email string, nodeID primitive.ObjectID) models.User {
	return f.createUser(ctx, models.User{
		FullName:     name,
		Email:        email,
		Role:         string(models.RoleDoctor),
		DoctorNodeID: &nodeID,
	})
}

// CreateIVR inserts an IVR record attributed to the given chain. Any of
// the node arguments may be nil to build unattributable records.
func (f *Fixtures) CreateIVR(ctx context.Context, patient string, doctorID, salesRepID, distributorID, territoryID, createdBy *primitive.ObjectID) models.IVRRecord {
	f.t.Helper()

	now := time.Now().UTC()
	rec := models.IVRRecord{
		ID:                primitive.NewObjectID(),
		PatientName:       patient,
		Carrier:           "Test Carrier",
		PolicyNo:          "POL-0001",
		Status:            "pending",
		DoctorNodeID:      doctorID,
		SalesRepNodeID:    salesRepID,
		DistributorNodeID: distributorID,
		TerritoryID:       territoryID,
		CreatedBy:         createdBy,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if _, err := f.db.Collection("ivr_requests").InsertOne(ctx, rec); err != nil {
		f.t.Fatalf("failed to create test IVR record: %v", err)
	}
	return rec
}

// CreateSalesperson inserts a salesperson row attributed to the given chain.
func (f *Fixtures) CreateSalesperson(ctx context.Context, name, email string, salesRepID, distributorID, territoryID *primitive.ObjectID) models.Salesperson {
	f.t.Helper()

	now := time.Now().UTC()
	sp := models.Salesperson{
		ID:                primitive.NewObjectID(),
		FullName:          name,
		FullNameCI:        text.Fold(name),
		Email:             email,
		Status:            "active",
		SalesRepNodeID:    salesRepID,
		DistributorNodeID: distributorID,
		TerritoryID:       territoryID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if _, err := f.db.Collection("salespeople").InsertOne(ctx, sp); err != nil {
		f.t.Fatalf("failed to create test salesperson: %v", err)
	}
	return sp
}
