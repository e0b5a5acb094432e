// internal/app/features/ivrs/routes.go
package ivrs

import (
	"net/http"

	"github.com/dalemusser/verihub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// pathID extracts the {id} URL parameter.
func pathID(r *http.Request) string {
	return chi.URLParam(r, "id")
}

// Routes returns the subrouter mounted under /ivrs.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Get("/", h.ServeList)
		pr.Get("/stats", h.ServeStats)
		pr.Post("/", h.ServeCreate)
		pr.Patch("/{id}/status", h.ServeUpdateStatus)
	})

	return r
}
