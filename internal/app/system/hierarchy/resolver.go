// internal/app/system/hierarchy/resolver.go
package hierarchy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/verihub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Resolver computes a user's position in the distribution hierarchy and
// the transitive closure of entities beneath it (their downline).
//
// Resolution walks child edges only, never ascends, and validates the
// tree shape as it goes: duplicate node ids, a node reachable through
// two parents, or a cycle abort the resolution with ErrMalformedHierarchy.
// Nothing partial is ever returned.
type Resolver struct {
	dir Directory
	log *zap.Logger
}

func NewResolver(dir Directory, logger *zap.Logger) *Resolver {
	return &Resolver{dir: dir, log: logger}
}

// nextTier maps a node kind to the only kind allowed beneath it.
// Doctors are leaves; anything under a doctor is a data-integrity
// violation.
var nextTier = map[models.NodeKind]models.NodeKind{
	models.NodeTerritory:   models.NodeDistributor,
	models.NodeDistributor: models.NodeSalesRep,
	models.NodeSalesRep:    models.NodeDoctor,
}

// Resolve produces the HierarchyInfo for the given user.
//
// Errors: ErrUnknownUser when the directory has no entry,
// ErrUnsupportedRole for a role outside the closed set, ErrMissingAnchor
// when the user lacks the node reference its role requires, and
// ErrMalformedHierarchy for any structural violation found during the
// walk.
func (r *Resolver) Resolve(ctx context.Context, userID primitive.ObjectID) (*Info, error) {
	user, err := r.dir.LookupUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUnknownUser) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownUser, userID.Hex())
		}
		return nil, fmt.Errorf("hierarchy: directory lookup for %s: %w", userID.Hex(), err)
	}

	role, err := models.ParseRole(user.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %q (user %s)", ErrUnsupportedRole, user.Role, userID.Hex())
	}

	nodes, err := r.dir.Nodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("hierarchy: loading nodes: %w", err)
	}

	byID := make(map[primitive.ObjectID]models.HierarchyNode, len(nodes))
	children := make(map[primitive.ObjectID][]primitive.ObjectID)
	for _, n := range nodes {
		if _, dup := byID[n.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate node %s", ErrMalformedHierarchy, n.ID.Hex())
		}
		byID[n.ID] = n
		if n.ParentID != nil {
			children[*n.ParentID] = append(children[*n.ParentID], n.ID)
		}
	}

	info := &Info{
		UserID:               userID,
		Role:                 role,
		AccessScope:          accessScopeFor(role),
		DownlineDoctors:      NewIDSet(),
		DownlineSalesReps:    NewIDSet(),
		DownlineDistributors: NewIDSet(),
		ResolvedAt:           time.Now().UTC(),
	}

	switch role {
	case models.RoleAdmin:
		// Synthetic root: the entire tree is the downline.
		for _, n := range byID {
			bucket(info, n)
		}

	case models.RoleMasterDistributor:
		if len(user.TerritoryIDs) == 0 {
			return nil, fmt.Errorf("%w: master distributor %s has no territories", ErrMissingAnchor, userID.Hex())
		}
		visited := make(map[primitive.ObjectID]bool)
		for _, tid := range dedupe(user.TerritoryIDs) {
			root, err := anchorNode(byID, tid, models.NodeTerritory)
			if err != nil {
				return nil, err
			}
			info.TerritoryIDs = append(info.TerritoryIDs, root.ID)
			if err := r.walk(root, byID, children, visited, info); err != nil {
				return nil, err
			}
		}

	case models.RoleDistributor:
		if user.DistributorNodeID == nil {
			return nil, fmt.Errorf("%w: distributor %s has no distributor node", ErrMissingAnchor, userID.Hex())
		}
		start, err := anchorNode(byID, *user.DistributorNodeID, models.NodeDistributor)
		if err != nil {
			return nil, err
		}
		info.SelfNodeID = &start.ID
		if err := r.walk(start, byID, children, make(map[primitive.ObjectID]bool), info); err != nil {
			return nil, err
		}

	case models.RoleSalesRep:
		if user.SalesRepNodeID == nil {
			return nil, fmt.Errorf("%w: sales rep %s has no sales rep node", ErrMissingAnchor, userID.Hex())
		}
		start, err := anchorNode(byID, *user.SalesRepNodeID, models.NodeSalesRep)
		if err != nil {
			return nil, err
		}
		info.SelfNodeID = &start.ID
		// Doctors are leaves; a sales rep's downline is exactly its
		// directly assigned doctors.
		if err := r.walk(start, byID, children, make(map[primitive.ObjectID]bool), info); err != nil {
			return nil, err
		}

	case models.RoleDoctor:
		if user.DoctorNodeID == nil {
			return nil, fmt.Errorf("%w: doctor %s has no doctor node", ErrMissingAnchor, userID.Hex())
		}
		self, err := anchorNode(byID, *user.DoctorNodeID, models.NodeDoctor)
		if err != nil {
			return nil, err
		}
		if len(children[self.ID]) > 0 {
			return nil, fmt.Errorf("%w: doctor node %s has children", ErrMalformedHierarchy, self.ID.Hex())
		}
		info.SelfNodeID = &self.ID
	}

	r.log.Debug("hierarchy resolved",
		zap.String("user_id", userID.Hex()),
		zap.String("role", role.String()),
		zap.String("access_scope", string(info.AccessScope)),
		zap.Int("downline_distributors", info.DownlineDistributors.Len()),
		zap.Int("downline_sales_reps", info.DownlineSalesReps.Len()),
		zap.Int("downline_doctors", info.DownlineDoctors.Len()))

	return info, nil
}

// walk descends child edges from start, bucketing every descendant into
// the downline sets. The start node itself is not part of its own
// downline. A shared visited map across multiple walks (master
// distributor territories) catches nodes reachable from two roots.
func (r *Resolver) walk(
	start models.HierarchyNode,
	byID map[primitive.ObjectID]models.HierarchyNode,
	children map[primitive.ObjectID][]primitive.ObjectID,
	visited map[primitive.ObjectID]bool,
	info *Info,
) error {
	if visited[start.ID] {
		return fmt.Errorf("%w: node %s reachable from more than one root", ErrMalformedHierarchy, start.ID.Hex())
	}
	visited[start.ID] = true

	queue := []models.HierarchyNode{start}
	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]

		want, hasTier := nextTier[parent.Kind]
		kids := children[parent.ID]
		if !hasTier && len(kids) > 0 {
			return fmt.Errorf("%w: %s node %s has children", ErrMalformedHierarchy, parent.Kind, parent.ID.Hex())
		}
		for _, cid := range kids {
			if visited[cid] {
				return fmt.Errorf("%w: cycle or multi-parent at node %s", ErrMalformedHierarchy, cid.Hex())
			}
			visited[cid] = true

			child, ok := byID[cid]
			if !ok {
				// children is built from byID, so this is unreachable;
				// guard anyway to keep the walk total.
				return fmt.Errorf("%w: dangling child %s", ErrMalformedHierarchy, cid.Hex())
			}
			if child.Kind != want {
				return fmt.Errorf("%w: %s node %s beneath %s node %s",
					ErrMalformedHierarchy, child.Kind, child.ID.Hex(), parent.Kind, parent.ID.Hex())
			}
			bucket(info, child)
			queue = append(queue, child)
		}
	}
	return nil
}

// anchorNode validates that a user's anchor reference points at an
// existing node of the expected kind.
func anchorNode(byID map[primitive.ObjectID]models.HierarchyNode, id primitive.ObjectID, want models.NodeKind) (models.HierarchyNode, error) {
	n, ok := byID[id]
	if !ok {
		return models.HierarchyNode{}, fmt.Errorf("%w: anchor node %s not found", ErrMalformedHierarchy, id.Hex())
	}
	if n.Kind != want {
		return models.HierarchyNode{}, fmt.Errorf("%w: anchor node %s is %s, want %s", ErrMalformedHierarchy, id.Hex(), n.Kind, want)
	}
	return n, nil
}

func bucket(info *Info, n models.HierarchyNode) {
	switch n.Kind {
	case models.NodeDistributor:
		info.DownlineDistributors.add(n.ID)
	case models.NodeSalesRep:
		info.DownlineSalesReps.add(n.ID)
	case models.NodeDoctor:
		info.DownlineDoctors.add(n.ID)
	}
}

func dedupe(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
