// internal/app/features/groups/routes.go
package groups

import (
	"github.com/dalemusser/cohorthub/internal/app/system/auth"
	"github.com/dalemusser/cohorthub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, v *auth.Verifier) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(v.RequireSignedIn)
		pr.Use(v.RequireRole(string(authz.RoleAdmin), string(authz.RoleInstructor)))

		// VIEW
		pr.Get("/{id}", h.ServeGroupView)
	})

	// Automation flags are an admin-only control.
	r.Group(func(pr chi.Router) {
		pr.Use(v.RequireSignedIn)
		pr.Use(v.RequireRole(string(authz.RoleAdmin)))

		pr.Patch("/{id}/automation", h.HandleUpdateAutomation)
	})

	return r
}
