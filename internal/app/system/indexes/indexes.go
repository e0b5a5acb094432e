// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureUsers(ctx, db); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := ensureHierarchyNodes(ctx, db); err != nil {
		problems = append(problems, "hierarchy_nodes: "+err.Error())
	}
	if err := ensureIVRRequests(ctx, db); err != nil {
		problems = append(problems, "ivr_requests: "+err.Error())
	}
	if err := ensureSalespeople(ctx, db); err != nil {
		problems = append(problems, "salespeople: "+err.Error())
	}
	if err := ensureAuditEvents(ctx, db); err != nil {
		problems = append(problems, "audit_events: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	av := a != nil && *a
	bv := b != nil && *b
	return av == bv
}

// ensureIndexSet reconciles the desired indexes against what the
// collection already has: reuse when keys and options match, drop and
// recreate when options differ, create when missing.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	existing := map[string]existingIndex{} // sig -> index
	cur, err := coll.Indexes().List(ctx)
	if err == nil {
		defer cur.Close(ctx)
		for cur.Next(ctx) {
			var idx existingIndex
			if err := cur.Decode(&idx); err != nil {
				zap.L().Warn("failed to decode existing index",
					zap.String("collection", coll.Name()),
					zap.Error(err))
				continue
			}
			existing[keySig(idx.Key)] = idx
		}
	}

	var errs []string
	for _, m := range models {
		var desiredName string
		var desiredUnique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			desiredUnique = m.Options.Unique
		}
		desiredSig := keySig(m.Keys.(bson.D))
		start := time.Now()

		if ex, ok := existing[desiredSig]; ok {
			if sameBoolPtr(desiredUnique, ex.Unique) {
				continue // reuse as-is; a name-only mismatch is not worth a drop
			}
			// Options mismatch (e.g. upgrading to unique). Drop & recreate.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), desiredName, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			zap.L().Warn("index ensure failed",
				zap.String("collection", coll.Name()),
				zap.String("name", desiredName),
				zap.String("keys", desiredSig),
				zap.Error(err))
			errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
			continue
		}
		zap.L().Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", desiredSig),
			zap.Bool("unique", desiredUnique != nil && *desiredUnique),
			zap.String("took", time.Since(start).String()))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func name(s string) *options.IndexOptions   { return options.Index().SetName(s) }
func unique(s string) *options.IndexOptions { return options.Index().SetName(s).SetUnique(true) }

/* -------------------------------------------------------------------------- */
/* Per-collection index sets                                                  */
/* -------------------------------------------------------------------------- */

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("users"), []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique("users_email_unique")},
		{Keys: bson.D{{Key: "role", Value: 1}}, Options: name("users_role")},
		{Keys: bson.D{{Key: "full_name_ci", Value: 1}}, Options: name("users_full_name_ci")},
	})
}

func ensureHierarchyNodes(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("hierarchy_nodes"), []mongo.IndexModel{
		{Keys: bson.D{{Key: "parent_id", Value: 1}}, Options: name("nodes_parent")},
		{Keys: bson.D{{Key: "kind", Value: 1}}, Options: name("nodes_kind")},
		{Keys: bson.D{{Key: "kind", Value: 1}, {Key: "name_ci", Value: 1}}, Options: name("nodes_kind_name_ci")},
	})
}

func ensureIVRRequests(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("ivr_requests"), []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}, Options: name("ivrs_created_at")},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}}, Options: name("ivrs_status_created_at")},
		{Keys: bson.D{{Key: "doctor_node_id", Value: 1}}, Options: name("ivrs_doctor_node")},
		{Keys: bson.D{{Key: "sales_rep_node_id", Value: 1}}, Options: name("ivrs_sales_rep_node")},
		{Keys: bson.D{{Key: "distributor_node_id", Value: 1}}, Options: name("ivrs_distributor_node")},
		{Keys: bson.D{{Key: "territory_id", Value: 1}}, Options: name("ivrs_territory")},
		{Keys: bson.D{{Key: "created_by", Value: 1}}, Options: name("ivrs_created_by")},
	})
}

func ensureSalespeople(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("salespeople"), []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique("salespeople_email_unique")},
		{Keys: bson.D{{Key: "full_name_ci", Value: 1}}, Options: name("salespeople_full_name_ci")},
		{Keys: bson.D{{Key: "sales_rep_node_id", Value: 1}}, Options: name("salespeople_sales_rep_node")},
		{Keys: bson.D{{Key: "distributor_node_id", Value: 1}}, Options: name("salespeople_distributor_node")},
	})
}

func ensureAuditEvents(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("audit_events"), []mongo.IndexModel{
		{Keys: bson.D{{Key: "timestamp", Value: -1}}, Options: name("audit_timestamp")},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}}, Options: name("audit_user_timestamp")},
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "event_type", Value: 1}, {Key: "timestamp", Value: -1}}, Options: name("audit_category_type_timestamp")},
	})
}
