// internal/app/system/hierarchy/registry.go
package hierarchy

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL bounds how long a cached resolution is served before being
// recomputed, absent an explicit invalidation signal.
const DefaultTTL = 5 * time.Minute

// Registry is the process-wide, per-user memoization of hierarchy
// resolution. It is an explicitly constructed value passed where needed;
// there is no package-level instance, so tests can build isolated
// registries.
//
// Concurrent first-population for the same user is collapsed to a single
// resolution via singleflight; every waiter receives the same Info.
// Entries are published atomically under the mutex, so readers never
// observe a half-computed Info.
type Registry struct {
	resolver *Resolver
	ttl      time.Duration
	log      *zap.Logger

	group singleflight.Group

	mu      sync.RWMutex
	entries map[primitive.ObjectID]registryEntry
}

type registryEntry struct {
	info    *Info
	expires time.Time
}

// NewRegistry builds a registry around the resolver. A ttl of zero means
// entries never expire on their own and are dropped only by explicit
// invalidation.
func NewRegistry(resolver *Resolver, ttl time.Duration, logger *zap.Logger) *Registry {
	return &Registry{
		resolver: resolver,
		ttl:      ttl,
		log:      logger,
		entries:  make(map[primitive.ObjectID]registryEntry),
	}
}

// Hierarchy returns the cached Info for the user, resolving and caching
// it on first use. Failed resolutions are not cached; they surface to
// every waiting caller and the next call retries.
func (g *Registry) Hierarchy(ctx context.Context, userID primitive.ObjectID) (*Info, error) {
	if info, ok := g.cached(userID); ok {
		return info, nil
	}

	// The resolution itself is detached from the caller's context: a
	// caller abandoning the request must not cancel a resolution other
	// waiters share, and must never leave partial state behind.
	resCtx := context.WithoutCancel(ctx)
	ch := g.group.DoChan(userID.Hex(), func() (any, error) {
		info, err := g.resolver.Resolve(resCtx, userID)
		if err != nil {
			return nil, err
		}
		g.mu.Lock()
		g.entries[userID] = registryEntry{info: info, expires: g.expiry()}
		g.mu.Unlock()
		return info, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Info), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Invalidate drops the cached entry for one user. The next Hierarchy
// call recomputes it wholesale.
func (g *Registry) Invalidate(userID primitive.ObjectID) {
	g.mu.Lock()
	delete(g.entries, userID)
	g.mu.Unlock()
}

// InvalidateAll drops every cached entry. Called on a hierarchy edit,
// since any user's downline may have changed.
func (g *Registry) InvalidateAll() {
	g.mu.Lock()
	n := len(g.entries)
	g.entries = make(map[primitive.ObjectID]registryEntry)
	g.mu.Unlock()
	g.log.Info("hierarchy registry invalidated", zap.Int("dropped", n))
}

// SweepExpired removes entries past their TTL and returns how many were
// dropped. The workers package calls this on a ticker.
func (g *Registry) SweepExpired() int {
	if g.ttl <= 0 {
		return 0
	}
	now := time.Now()
	g.mu.Lock()
	defer g.mu.Unlock()
	dropped := 0
	for id, e := range g.entries {
		if now.After(e.expires) {
			delete(g.entries, id)
			dropped++
		}
	}
	return dropped
}

// Len reports the number of live cache entries.
func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.entries)
}

func (g *Registry) cached(userID primitive.ObjectID) (*Info, bool) {
	g.mu.RLock()
	e, ok := g.entries[userID]
	g.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if g.ttl > 0 && time.Now().After(e.expires) {
		return nil, false
	}
	return e.info, true
}

func (g *Registry) expiry() time.Time {
	if g.ttl <= 0 {
		return time.Time{}
	}
	return time.Now().Add(g.ttl)
}
