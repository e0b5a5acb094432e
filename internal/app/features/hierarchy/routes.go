// internal/app/features/hierarchy/routes.go
package hierarchy

import (
	"net/http"

	"github.com/dalemusser/verihub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// pathID extracts the {id} URL parameter.
func pathID(r *http.Request) string {
	return chi.URLParam(r, "id")
}

// Routes returns the subrouter mounted under /hierarchy.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Get("/me", h.ServeMe)
		pr.Get("/users/{id}", h.ServeUser)
		pr.Get("/stats", h.ServeStats)
		pr.Post("/invalidate", h.ServeInvalidate)
	})

	return r
}
