// internal/app/features/sessions/update.go
package sessions

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/cohorthub/internal/app/policy/groupstatus"
	groupstore "github.com/dalemusser/cohorthub/internal/app/store/groups"
	outboxstore "github.com/dalemusser/cohorthub/internal/app/store/outbox"
	sessionstore "github.com/dalemusser/cohorthub/internal/app/store/sessions"
	studentstore "github.com/dalemusser/cohorthub/internal/app/store/students"
	"github.com/dalemusser/cohorthub/internal/app/system/authz"
	"github.com/dalemusser/cohorthub/internal/app/system/httpapi"
	"github.com/dalemusser/cohorthub/internal/app/system/sanitize"
	"github.com/dalemusser/cohorthub/internal/app/system/status"
	"github.com/dalemusser/cohorthub/internal/app/system/timeouts"
	"github.com/dalemusser/cohorthub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// HandleUpdateSession is PUT /sessions/{id}: the session status machine
// plus meeting link / notes updates. There are deliberately no guards on
// which status transitions are allowed; any state is reachable from any
// other. Leaving "completed" clears recorded attendance (store-side).
func (h *Handler) HandleUpdateSession(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpapi.WriteError(w, h.Log, httpapi.Validation("id", "invalid session id"))
		return
	}

	var req updateSessionRequest
	if err := httpapi.Decode(w, r, &req); err != nil {
		httpapi.WriteError(w, h.Log, err)
		return
	}
	if req.Status != nil && !status.IsSessionStatus(*req.Status) {
		httpapi.WriteError(w, h.Log, httpapi.Validation("status",
			"status must be one of scheduled, completed, cancelled, postponed"))
		return
	}
	if req.Status == nil && req.MeetingLink == nil && req.Notes == nil {
		httpapi.WriteError(w, h.Log, httpapi.Validation("", "nothing to update"))
		return
	}

	_, _, actorID, ok := authz.UserCtx(r)
	if !ok {
		httpapi.WriteError(w, h.Log, httpapi.Unauthorized())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	sessStore := sessionstore.New(h.DB)
	sess, err := sessStore.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpapi.WriteError(w, h.Log, httpapi.NotFound("session not found"))
			return
		}
		httpapi.WriteError(w, h.Log, err)
		return
	}

	group, err := groupstore.New(h.DB).GetByID(ctx, sess.GroupID)
	if err != nil {
		httpapi.WriteError(w, h.Log, err)
		return
	}

	priorStatus := sess.Status
	statusChanged := false
	if req.Status != nil && *req.Status != priorStatus {
		sess, err = sessStore.SetStatus(ctx, id, priorStatus, *req.Status)
		if err != nil {
			switch {
			case errors.Is(err, sessionstore.ErrStatusChanged):
				httpapi.WriteError(w, h.Log, httpapi.Conflict("status", priorStatus,
					"session was modified concurrently, reload and retry"))
			case errors.Is(err, mongo.ErrNoDocuments):
				httpapi.WriteError(w, h.Log, httpapi.NotFound("session not found"))
			default:
				httpapi.WriteError(w, h.Log, err)
			}
			return
		}
		statusChanged = true
	}

	if req.MeetingLink != nil || req.Notes != nil {
		if req.Notes != nil {
			clean := sanitize.Text(*req.Notes)
			req.Notes = &clean
		}
		sess, err = sessStore.UpdateInfo(ctx, id, req.MeetingLink, req.Notes)
		if err != nil {
			httpapi.WriteError(w, h.Log, err)
			return
		}
	}

	recon, err := groupstatus.Reconcile(ctx, h.DB, group, actorID)
	if err != nil {
		httpapi.WriteError(w, h.Log, err)
		return
	}

	outcome := automationOutcome{}
	if group.Automation.WhatsAppEnabled && group.Automation.NotifyOnSessionUpdate {
		switch {
		case statusChanged && sess.Status != status.SessionCompleted:
			outcome = h.enqueueSessionIntent(ctx, status.EventSessionStatusChange, group, sess, map[string]string{
				"new_status": sess.Status,
				"message":    sanitize.Text(req.Message),
			})
		case !statusChanged:
			outcome = h.enqueueSessionIntent(ctx, status.EventUpdateNotification, group, sess, map[string]string{
				"meeting_link": sess.MeetingLink,
				"message":      sanitize.Text(req.Message),
			})
		}
	}

	httpapi.Respond(w, http.StatusOK, updateSessionResponse{
		Session:     sess,
		GroupStatus: recon.Status,
		Automation:  outcome,
	})
}

// HandleDeleteSession is DELETE /sessions/{id}: a soft delete. The
// session drops out of reads and out of group status reconciliation.
func (h *Handler) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpapi.WriteError(w, h.Log, httpapi.Validation("id", "invalid session id"))
		return
	}

	_, _, actorID, ok := authz.UserCtx(r)
	if !ok {
		httpapi.WriteError(w, h.Log, httpapi.Unauthorized())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	sessStore := sessionstore.New(h.DB)
	sess, err := sessStore.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpapi.WriteError(w, h.Log, httpapi.NotFound("session not found"))
			return
		}
		httpapi.WriteError(w, h.Log, err)
		return
	}

	group, err := groupstore.New(h.DB).GetByID(ctx, sess.GroupID)
	if err != nil {
		httpapi.WriteError(w, h.Log, err)
		return
	}

	if err := sessStore.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpapi.WriteError(w, h.Log, httpapi.NotFound("session not found"))
			return
		}
		httpapi.WriteError(w, h.Log, err)
		return
	}

	recon, err := groupstatus.Reconcile(ctx, h.DB, group, actorID)
	if err != nil {
		httpapi.WriteError(w, h.Log, err)
		return
	}

	outcome := automationOutcome{}
	if group.Automation.WhatsAppEnabled && group.Automation.NotifyOnSessionUpdate {
		outcome = h.enqueueSessionIntent(ctx, status.EventDeletionNotification, group, sess, nil)
	}

	httpapi.Respond(w, http.StatusOK, map[string]any{
		"deleted":     true,
		"groupStatus": recon.Status,
		"automation":  outcome,
	})
}

// enqueueSessionIntent writes an outbox intent addressed to the group's
// full roster. Enqueue failures are logged and reported as soft
// metadata; they never fail the request.
func (h *Handler) enqueueSessionIntent(ctx context.Context, eventType string, group models.Group, sess models.Session, extra map[string]string) automationOutcome {
	roster, err := studentstore.New(h.DB).ListByGroup(ctx, group.ID)
	if err != nil {
		h.Log.Warn("failed to load roster for notification",
			zap.String("group_id", group.ID.Hex()), zap.Error(err))
		return automationOutcome{}
	}
	if len(roster) == 0 {
		return automationOutcome{}
	}

	subjects := make([]primitive.ObjectID, 0, len(roster))
	recipients := 0
	for _, st := range roster {
		subjects = append(subjects, st.ID)
		if st.Guardian.WhatsAppNumber != "" {
			recipients++
		}
	}

	intentCtx := map[string]string{
		"group_name":    group.Name,
		"session_title": sess.Title,
		"session_date":  sess.ScheduledDate.Format("2006-01-02") + " " + sess.StartTime,
	}
	for k, v := range extra {
		if v != "" {
			intentCtx[k] = v
		}
	}

	intent, err := outboxstore.New(h.DB).Enqueue(ctx, models.NotificationIntent{
		EventType:  eventType,
		GroupID:    group.ID,
		SessionID:  sess.ID,
		SubjectIDs: subjects,
		Context:    intentCtx,
	})
	if err != nil {
		h.Log.Warn("failed to enqueue notification intent",
			zap.String("event_type", eventType),
			zap.String("session_id", sess.ID.Hex()),
			zap.Error(err))
		return automationOutcome{}
	}

	return automationOutcome{Queued: true, IntentID: intent.ID.Hex(), Recipients: recipients}
}
