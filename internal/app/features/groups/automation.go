// internal/app/features/groups/automation.go
package groups

import (
	"context"
	"errors"
	"net/http"

	groupstore "github.com/dalemusser/cohorthub/internal/app/store/groups"
	"github.com/dalemusser/cohorthub/internal/app/system/authz"
	"github.com/dalemusser/cohorthub/internal/app/system/httpapi"
	"github.com/dalemusser/cohorthub/internal/app/system/timeouts"
	"github.com/dalemusser/cohorthub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// automationRequest replaces the group's automation flags wholesale.
// Absent fields read as false; clients send the complete set.
type automationRequest struct {
	WhatsAppEnabled         bool `json:"whatsappEnabled"`
	NotifyGuardianOnAbsence bool `json:"notifyGuardianOnAbsence"`
	NotifyOnSessionUpdate   bool `json:"notifyOnSessionUpdate"`
}

// HandleUpdateAutomation is PATCH /groups/{id}/automation, admin only.
func (h *Handler) HandleUpdateAutomation(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpapi.WriteError(w, h.Log, httpapi.Validation("id", "invalid group id"))
		return
	}

	role, _, _, ok := authz.UserCtx(r)
	if !ok {
		httpapi.WriteError(w, h.Log, httpapi.Unauthorized())
		return
	}
	if !role.CanManageAutomation() {
		httpapi.WriteError(w, h.Log, httpapi.Forbidden("only admins can change group automation"))
		return
	}

	var req automationRequest
	if err := httpapi.Decode(w, r, &req); err != nil {
		httpapi.WriteError(w, h.Log, err)
		return
	}

	flags := models.AutomationFlags{
		WhatsAppEnabled:         req.WhatsAppEnabled,
		NotifyGuardianOnAbsence: req.NotifyGuardianOnAbsence,
		NotifyOnSessionUpdate:   req.NotifyOnSessionUpdate,
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := groupstore.New(h.DB).UpdateAutomation(ctx, id, flags); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpapi.WriteError(w, h.Log, httpapi.NotFound("group not found"))
			return
		}
		httpapi.WriteError(w, h.Log, err)
		return
	}

	httpapi.Respond(w, http.StatusOK, map[string]any{"automation": flags})
}
