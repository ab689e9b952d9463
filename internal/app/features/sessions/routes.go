// internal/app/features/sessions/routes.go
package sessions

import (
	"github.com/dalemusser/cohorthub/internal/app/system/auth"
	"github.com/dalemusser/cohorthub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, v *auth.Verifier) chi.Router {
	r := chi.NewRouter()

	// Everything under /sessions requires a signed-in staff member.
	r.Group(func(pr chi.Router) {
		pr.Use(v.RequireSignedIn)
		pr.Use(v.RequireRole(string(authz.RoleAdmin), string(authz.RoleInstructor)))

		// STATUS MACHINE / INFO
		pr.Put("/{id}", h.HandleUpdateSession)
		pr.Delete("/{id}", h.HandleDeleteSession)

		// ATTENDANCE
		pr.Get("/{id}/attendance", h.ServeAttendanceView)
		pr.Post("/{id}/attendance", h.HandleRecordAttendance)
	})

	return r
}
