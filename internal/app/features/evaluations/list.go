// internal/app/features/evaluations/list.go
package evaluations

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strings"

	"github.com/dalemusser/cohorthub/internal/app/policy/groupstatus"
	evaluationstore "github.com/dalemusser/cohorthub/internal/app/store/evaluations"
	sessionstore "github.com/dalemusser/cohorthub/internal/app/store/sessions"
	studentstore "github.com/dalemusser/cohorthub/internal/app/store/students"
	"github.com/dalemusser/cohorthub/internal/app/system/authz"
	"github.com/dalemusser/cohorthub/internal/app/system/httpapi"
	"github.com/dalemusser/cohorthub/internal/app/system/paging"
	"github.com/dalemusser/cohorthub/internal/app/system/status"
	"github.com/dalemusser/cohorthub/internal/app/system/timeouts"
	"github.com/dalemusser/cohorthub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ServeEvaluationList is GET /groups/{id}/evaluations: every roster
// student joined with their evaluation (if any) and their attendance
// figures over the group's completed sessions. Filters: ?search= folds
// against the student name, ?decision= matches the final decision or
// the synthetic "not_evaluated".
func (h *Handler) ServeEvaluationList(w http.ResponseWriter, r *http.Request) {
	groupID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpapi.WriteError(w, h.Log, httpapi.Validation("id", "invalid group id"))
		return
	}

	_, _, actorID, ok := authz.UserCtx(r)
	if !ok {
		httpapi.WriteError(w, h.Log, httpapi.Unauthorized())
		return
	}

	decision := strings.TrimSpace(query.Get(r, "decision"))
	if decision != "" && decision != decisionNotEvaluated && !status.IsDecision(decision) {
		httpapi.WriteError(w, h.Log, httpapi.Validation("decision",
			"decision must be one of pass, review, repeat, not_evaluated"))
		return
	}
	search := text.Fold(query.Get(r, "search"))
	page := paging.Parse(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	group, recon, err := groupstatus.ReconcileID(ctx, h.DB, groupID, actorID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpapi.WriteError(w, h.Log, httpapi.NotFound("group not found"))
			return
		}
		httpapi.WriteError(w, h.Log, err)
		return
	}

	roster, err := studentstore.New(h.DB).ListByGroup(ctx, groupID)
	if err != nil {
		httpapi.WriteError(w, h.Log, err)
		return
	}
	evals, err := evaluationstore.New(h.DB).ListByGroup(ctx, groupID)
	if err != nil {
		httpapi.WriteError(w, h.Log, err)
		return
	}
	sessions, err := sessionstore.New(h.DB).ListByGroup(ctx, groupID)
	if err != nil {
		httpapi.WriteError(w, h.Log, err)
		return
	}
	attendance := attendanceByStudent(sessions)

	rows := make([]listRow, 0, len(roster))
	for _, st := range roster {
		if search != "" && !strings.Contains(st.FullNameCI, search) {
			continue
		}

		row := listRow{
			Student:    studentRef{ID: st.ID, FullName: st.FullName, Email: st.Email},
			Decision:   decisionNotEvaluated,
			Attendance: attendance.figures(st.ID),
		}
		if e, ok := evals[st.ID]; ok {
			e := e
			row.Decision = e.FinalDecision
			row.Evaluation = &e
		}
		if decision != "" && row.Decision != decision {
			continue
		}
		rows = append(rows, row)
	}

	total := len(rows)
	httpapi.Respond(w, http.StatusOK, listResponse{
		GroupStatus: recon.Status,
		Summary:     group.Meta.EvaluationSummary,
		Items:       paging.Slice(rows, page),
		Total:       total,
		Page:        page.Page,
		Limit:       page.Limit,
		Pages:       page.Pages(total),
	})
}

// attendanceTally counts, per student, presence across the group's
// completed sessions. A student counts as attended when marked present
// or late; absent and excused do not count.
type attendanceTally struct {
	completed int
	attended  map[primitive.ObjectID]int
}

func attendanceByStudent(sessions []models.Session) attendanceTally {
	t := attendanceTally{attended: make(map[primitive.ObjectID]int)}
	for _, s := range sessions {
		if s.Status != status.SessionCompleted {
			continue
		}
		t.completed++
		for _, rec := range s.Attendance {
			if rec.Status == status.AttendancePresent || rec.Status == status.AttendanceLate {
				t.attended[rec.StudentID]++
			}
		}
	}
	return t
}

func (t attendanceTally) figures(studentID primitive.ObjectID) attendanceFigures {
	f := attendanceFigures{Attended: t.attended[studentID], Total: t.completed}
	if f.Total > 0 {
		f.Percentage = int(math.Round(float64(f.Attended) / float64(f.Total) * 100))
	}
	return f
}
