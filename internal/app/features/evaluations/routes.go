// internal/app/features/evaluations/routes.go
package evaluations

import (
	"github.com/dalemusser/cohorthub/internal/app/system/auth"
	"github.com/dalemusser/cohorthub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes registers the evaluation endpoints onto the groups router;
// the group id rides in the URL.
func Routes(r chi.Router, h *Handler, v *auth.Verifier) {
	r.Group(func(pr chi.Router) {
		pr.Use(v.RequireSignedIn)
		pr.Use(v.RequireRole(string(authz.RoleAdmin), string(authz.RoleInstructor)))

		pr.Get("/{id}/evaluations", h.ServeEvaluationList)
		pr.Post("/{id}/evaluations", h.HandleUpsertEvaluation)
	})
}
