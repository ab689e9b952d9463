// internal/app/features/sessions/attendance.go
package sessions

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dalemusser/cohorthub/internal/app/policy/groupstatus"
	groupstore "github.com/dalemusser/cohorthub/internal/app/store/groups"
	outboxstore "github.com/dalemusser/cohorthub/internal/app/store/outbox"
	sessionstore "github.com/dalemusser/cohorthub/internal/app/store/sessions"
	studentstore "github.com/dalemusser/cohorthub/internal/app/store/students"
	"github.com/dalemusser/cohorthub/internal/app/system/attendwindow"
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

// HandleRecordAttendance is POST /sessions/{id}/attendance: the one-shot
// attendance submission. All validation happens before any write; the
// write itself is a single compare-and-swap on attendance_taken, so a
// concurrent double-submit cannot record twice.
func (h *Handler) HandleRecordAttendance(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpapi.WriteError(w, h.Log, httpapi.Validation("id", "invalid session id"))
		return
	}

	var req recordAttendanceRequest
	if err := httpapi.Decode(w, r, &req); err != nil {
		httpapi.WriteError(w, h.Log, err)
		return
	}
	if len(req.Attendance) == 0 {
		httpapi.WriteError(w, h.Log, httpapi.Validation("attendance", "attendance records are required"))
		return
	}

	role, _, actorID, ok := authz.UserCtx(r)
	if !ok {
		httpapi.WriteError(w, h.Log, httpapi.Unauthorized())
		return
	}
	if !role.CanRecordAttendance() {
		httpapi.WriteError(w, h.Log, httpapi.Forbidden("your role cannot record attendance"))
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

	// Only instructors assigned to the group may record; being an admin
	// is not enough on its own.
	if !isGroupInstructor(group, actorID) {
		httpapi.WriteError(w, h.Log, httpapi.Forbidden("you are not an instructor of this group"))
		return
	}

	now := time.Now().UTC()
	if apiErr := checkSubmittable(sess, now); apiErr != nil {
		httpapi.WriteError(w, h.Log, apiErr)
		return
	}

	roster, err := studentstore.New(h.DB).ListByGroup(ctx, group.ID)
	if err != nil {
		httpapi.WriteError(w, h.Log, err)
		return
	}
	byID := make(map[primitive.ObjectID]models.Student, len(roster))
	for _, st := range roster {
		byID[st.ID] = st
	}

	records, noticeSubjects, apiErr := buildRecords(req, byID, group, actorID, now)
	if apiErr != nil {
		httpapi.WriteError(w, h.Log, apiErr)
		return
	}

	sess, err = sessStore.CommitAttendance(ctx, id, records)
	if err != nil {
		switch {
		case errors.Is(err, sessionstore.ErrAttendanceTaken):
			httpapi.WriteError(w, h.Log, httpapi.State(
				"attendance has already been taken for this session", nil))
		case errors.Is(err, mongo.ErrNoDocuments):
			httpapi.WriteError(w, h.Log, httpapi.NotFound("session not found"))
		default:
			httpapi.WriteError(w, h.Log, err)
		}
		return
	}

	if _, err := groupstatus.Reconcile(ctx, h.DB, group, actorID); err != nil {
		// The attendance is committed; a reconcile failure is logged,
		// the next read will repair the group status.
		h.Log.Warn("group reconcile after attendance failed",
			zap.String("group_id", group.ID.Hex()), zap.Error(err))
	}

	outcome := automationOutcome{}
	if len(noticeSubjects) > 0 &&
		group.Automation.WhatsAppEnabled && group.Automation.NotifyGuardianOnAbsence {
		outcome = h.enqueueAbsenceIntent(ctx, group, sess, records, noticeSubjects, req.CustomMessages)
	}

	httpapi.Respond(w, http.StatusOK, recordAttendanceResponse{
		Session:    sess,
		Stats:      tallyRecords(records),
		Automation: outcome,
	})
}

func isGroupInstructor(group models.Group, userID primitive.ObjectID) bool {
	for _, iid := range group.InstructorIDs {
		if iid == userID {
			return true
		}
	}
	return false
}

// checkSubmittable enforces the submission window and session state.
func checkSubmittable(sess models.Session, now time.Time) *httpapi.Error {
	if sess.Status != status.SessionScheduled && sess.Status != status.SessionCompleted {
		return httpapi.State("attendance cannot be taken for a "+sess.Status+" session", map[string]any{
			"sessionStatus": sess.Status,
		})
	}

	win, err := attendwindow.For(sess.ScheduledDate, sess.StartTime)
	if err != nil {
		return httpapi.State("session has an invalid start time", map[string]any{
			"startTime": sess.StartTime,
		})
	}
	if !win.Contains(now) {
		return httpapi.State("attendance window is closed", map[string]any{
			"opens":  win.Opens,
			"closes": win.Closes,
		})
	}

	if sess.AttendanceTaken {
		return httpapi.State("attendance has already been taken for this session", nil)
	}
	return nil
}

// buildRecords validates every entry against the roster and the group's
// automation requirements, and returns the stamped records plus the
// subset of students whose guardians should be notified. All-or-nothing:
// the first failure rejects the whole submission.
func buildRecords(req recordAttendanceRequest, roster map[primitive.ObjectID]models.Student, group models.Group, actorID primitive.ObjectID, now time.Time) ([]models.AttendanceRecord, []primitive.ObjectID, *httpapi.Error) {
	notifyGuardians := group.Automation.WhatsAppEnabled && group.Automation.NotifyGuardianOnAbsence

	records := make([]models.AttendanceRecord, 0, len(req.Attendance))
	var noticeSubjects []primitive.ObjectID
	var invalidIDs []string
	var guardianErr *httpapi.Error
	seen := make(map[primitive.ObjectID]bool, len(req.Attendance))

	for i, entry := range req.Attendance {
		if !status.IsAttendanceStatus(entry.Status) {
			return nil, nil, httpapi.Validation(
				fmt.Sprintf("attendance[%d].status", i),
				"status must be one of present, absent, late, excused")
		}

		sid, err := primitive.ObjectIDFromHex(entry.StudentID)
		if err != nil {
			invalidIDs = append(invalidIDs, entry.StudentID)
			continue
		}
		st, inRoster := roster[sid]
		if !inRoster {
			invalidIDs = append(invalidIDs, entry.StudentID)
			continue
		}
		if seen[sid] {
			return nil, nil, httpapi.Validation(
				fmt.Sprintf("attendance[%d].studentId", i),
				"duplicate student in submission")
		}
		seen[sid] = true

		if status.NeedsGuardianNotice(entry.Status) {
			// Held until the whole roster scan finishes: out-of-roster
			// ids are reported first, and all of them at once.
			if notifyGuardians && st.Guardian.WhatsAppNumber == "" && guardianErr == nil {
				guardianErr = httpapi.Validation("attendance",
					fmt.Sprintf("student %s has no guardian WhatsApp number; absence notifications are enabled for this group", st.FullName))
			}
			noticeSubjects = append(noticeSubjects, sid)
		}

		records = append(records, models.AttendanceRecord{
			StudentID: sid,
			Status:    entry.Status,
			Notes:     sanitize.Text(entry.Notes),
			MarkedAt:  now,
			MarkedBy:  actorID,
		})
	}

	if len(invalidIDs) > 0 {
		return nil, nil, httpapi.State("some students are not in this group", map[string]any{
			"invalidStudentIds": invalidIDs,
			"invalidCount":      len(invalidIDs),
			"submittedCount":    len(req.Attendance),
		})
	}
	if guardianErr != nil {
		return nil, nil, guardianErr
	}
	return records, noticeSubjects, nil
}

func tallyRecords(records []models.AttendanceRecord) attendanceStats {
	stats := attendanceStats{Total: len(records)}
	for _, rec := range records {
		switch rec.Status {
		case status.AttendancePresent:
			stats.Present++
		case status.AttendanceAbsent:
			stats.Absent++
		case status.AttendanceLate:
			stats.Late++
		case status.AttendanceExcused:
			stats.Excused++
		}
	}
	return stats
}

// enqueueAbsenceIntent writes one outbox intent covering every student
// marked absent, late, or excused. Per-student marks and any custom
// messages travel in the intent context for the renderer.
func (h *Handler) enqueueAbsenceIntent(ctx context.Context, group models.Group, sess models.Session, records []models.AttendanceRecord, subjects []primitive.ObjectID, custom map[string]string) automationOutcome {
	intentCtx := map[string]string{
		"group_name":    group.Name,
		"session_title": sess.Title,
		"session_date":  sess.ScheduledDate.Format("2006-01-02") + " " + sess.StartTime,
	}
	for _, rec := range records {
		if status.NeedsGuardianNotice(rec.Status) {
			intentCtx["status:"+rec.StudentID.Hex()] = rec.Status
		}
	}
	for kind, msg := range sanitize.TextMap(custom) {
		if status.NeedsGuardianNotice(kind) && msg != "" {
			intentCtx["message:"+kind] = msg
		}
	}

	intent, err := outboxstore.New(h.DB).Enqueue(ctx, models.NotificationIntent{
		EventType:  status.EventAttendanceAbsence,
		GroupID:    group.ID,
		SessionID:  sess.ID,
		SubjectIDs: subjects,
		Context:    intentCtx,
	})
	if err != nil {
		h.Log.Warn("failed to enqueue absence intent",
			zap.String("session_id", sess.ID.Hex()), zap.Error(err))
		return automationOutcome{}
	}
	return automationOutcome{Queued: true, IntentID: intent.ID.Hex(), Recipients: len(subjects)}
}
