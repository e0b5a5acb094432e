// internal/app/store/users/fetcher.go
package userstore

import (
	"context"

	"github.com/dalemusser/verihub/internal/app/system/auth"
	"github.com/dalemusser/verihub/internal/app/system/status"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Fetcher adapts Store to auth.UserFetcher so sessions are refreshed
// from the database on each request. Disabled accounts resolve to nil,
// which signs the session out.
type Fetcher struct {
	store *Store
}

func NewFetcher(store *Store) *Fetcher {
	return &Fetcher{store: store}
}

func (f *Fetcher) FetchUser(ctx context.Context, userID string) *auth.SessionUser {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil
	}
	u, err := f.store.GetByID(ctx, oid)
	if err != nil {
		return nil
	}
	if u.Status != status.Active {
		return nil
	}
	return &auth.SessionUser{
		ID:    u.ID.Hex(),
		Name:  u.FullName,
		Email: u.Email,
		Role:  u.Role,
	}
}
