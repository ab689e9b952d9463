// internal/app/features/groups/view.go
package groups

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/cohorthub/internal/app/policy/groupstatus"
	userstore "github.com/dalemusser/cohorthub/internal/app/store/users"
	"github.com/dalemusser/cohorthub/internal/app/system/authz"
	"github.com/dalemusser/cohorthub/internal/app/system/httpapi"
	"github.com/dalemusser/cohorthub/internal/app/system/timeouts"
	"github.com/dalemusser/cohorthub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// instructorRef is an instructor resolved for display.
type instructorRef struct {
	ID       primitive.ObjectID `json:"id"`
	FullName string             `json:"fullName"`
	Email    string             `json:"email"`
}

type groupViewResponse struct {
	Group       models.Group       `json:"group"`
	Instructors []instructorRef    `json:"instructors"`
	Completion  groupstatus.Result `json:"completion"`
}

// ServeGroupView is GET /groups/{id}: the group with its authoritative
// (freshly reconciled) status and the session completion breakdown.
func (h *Handler) ServeGroupView(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpapi.WriteError(w, h.Log, httpapi.Validation("id", "invalid group id"))
		return
	}

	_, _, actorID, ok := authz.UserCtx(r)
	if !ok {
		httpapi.WriteError(w, h.Log, httpapi.Unauthorized())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	group, recon, err := groupstatus.ReconcileID(ctx, h.DB, id, actorID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpapi.WriteError(w, h.Log, httpapi.NotFound("group not found"))
			return
		}
		httpapi.WriteError(w, h.Log, err)
		return
	}

	users, err := userstore.New(h.DB).GetByIDs(ctx, group.InstructorIDs)
	if err != nil {
		httpapi.WriteError(w, h.Log, err)
		return
	}
	instructors := make([]instructorRef, 0, len(group.InstructorIDs))
	for _, iid := range group.InstructorIDs {
		u, ok := users[iid]
		if !ok {
			// Stale reference; skip rather than fail the whole view.
			continue
		}
		instructors = append(instructors, instructorRef{
			ID:       u.ID,
			FullName: u.FullName,
			Email:    u.Email,
		})
	}

	httpapi.Respond(w, http.StatusOK, groupViewResponse{
		Group:       group,
		Instructors: instructors,
		Completion:  recon,
	})
}
