// internal/app/features/sessions/attendanceview.go
package sessions

import (
	"context"
	"errors"
	"net/http"
	"time"

	sessionstore "github.com/dalemusser/cohorthub/internal/app/store/sessions"
	studentstore "github.com/dalemusser/cohorthub/internal/app/store/students"
	"github.com/dalemusser/cohorthub/internal/app/system/attendwindow"
	"github.com/dalemusser/cohorthub/internal/app/system/httpapi"
	"github.com/dalemusser/cohorthub/internal/app/system/status"
	"github.com/dalemusser/cohorthub/internal/app/system/timeouts"
	"github.com/dalemusser/cohorthub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ServeAttendanceView is GET /sessions/{id}/attendance: the roster
// merged with stored records. Students without a record show the
// synthetic status "pending".
func (h *Handler) ServeAttendanceView(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpapi.WriteError(w, h.Log, httpapi.Validation("id", "invalid session id"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	sess, err := sessionstore.New(h.DB).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpapi.WriteError(w, h.Log, httpapi.NotFound("session not found"))
			return
		}
		httpapi.WriteError(w, h.Log, err)
		return
	}

	roster, err := studentstore.New(h.DB).ListByGroup(ctx, sess.GroupID)
	if err != nil {
		httpapi.WriteError(w, h.Log, err)
		return
	}

	rows, stats := mergeRoster(roster, sess.Attendance)

	httpapi.Respond(w, http.StatusOK, attendanceViewResponse{
		Session:           sess,
		Attendance:        rows,
		Stats:             stats,
		CanTakeAttendance: canTakeAttendance(sess, time.Now().UTC()),
	})
}

// mergeRoster joins the roster with the stored records in roster order.
func mergeRoster(roster []models.Student, records []models.AttendanceRecord) ([]attendanceRow, attendanceStats) {
	byStudent := make(map[primitive.ObjectID]models.AttendanceRecord, len(records))
	for _, rec := range records {
		byStudent[rec.StudentID] = rec
	}

	rows := make([]attendanceRow, 0, len(roster))
	stats := attendanceStats{Total: len(roster)}
	for _, st := range roster {
		row := attendanceRow{StudentID: st.ID, FullName: st.FullName, Status: status.AttendancePending}
		if rec, ok := byStudent[st.ID]; ok {
			row.Status = rec.Status
			row.Notes = rec.Notes
		}
		switch row.Status {
		case status.AttendancePresent:
			stats.Present++
		case status.AttendanceAbsent:
			stats.Absent++
		case status.AttendanceLate:
			stats.Late++
		case status.AttendanceExcused:
			stats.Excused++
		default:
			stats.Pending++
		}
		rows = append(rows, row)
	}
	return rows, stats
}

// canTakeAttendance mirrors the submit-path preconditions: window open,
// status submittable, guard not yet fired.
func canTakeAttendance(sess models.Session, now time.Time) bool {
	if sess.AttendanceTaken {
		return false
	}
	if sess.Status != status.SessionScheduled && sess.Status != status.SessionCompleted {
		return false
	}
	return attendwindow.Open(sess.ScheduledDate, sess.StartTime, now)
}
