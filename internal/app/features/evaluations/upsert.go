// internal/app/features/evaluations/upsert.go
package evaluations

import (
	"context"
	"errors"
	"math"
	"net/http"

	"github.com/dalemusser/cohorthub/internal/app/policy/groupstatus"
	evaluationstore "github.com/dalemusser/cohorthub/internal/app/store/evaluations"
	groupstore "github.com/dalemusser/cohorthub/internal/app/store/groups"
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

// HandleUpsertEvaluation is POST /groups/{id}/evaluations. One endpoint
// creates and updates: the unique (group, student) pair decides which.
// The gate comes first: evaluations exist only for completed groups.
func (h *Handler) HandleUpsertEvaluation(w http.ResponseWriter, r *http.Request) {
	groupID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpapi.WriteError(w, h.Log, httpapi.Validation("id", "invalid group id"))
		return
	}

	var req upsertRequest
	if err := httpapi.Decode(w, r, &req); err != nil {
		httpapi.WriteError(w, h.Log, err)
		return
	}

	role, _, actorID, ok := authz.UserCtx(r)
	if !ok {
		httpapi.WriteError(w, h.Log, httpapi.Unauthorized())
		return
	}
	if !role.CanEvaluate() {
		httpapi.WriteError(w, h.Log, httpapi.Forbidden("your role cannot evaluate students"))
		return
	}

	studentID, err := primitive.ObjectIDFromHex(req.StudentID)
	if err != nil {
		httpapi.WriteError(w, h.Log, httpapi.Validation("studentId", "invalid student id"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
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

	// Admins may evaluate any group; instructors only their own.
	if role != authz.RoleAdmin && !isGroupInstructor(group, actorID) {
		httpapi.WriteError(w, h.Log, httpapi.Forbidden("you are not an instructor of this group"))
		return
	}

	if recon.Status != status.Completed {
		httpapi.WriteError(w, h.Log, httpapi.State(
			"evaluations are only available once every session in the group is completed",
			map[string]any{
				"totalSessions":      recon.Total,
				"completedSessions":  recon.Completed,
				"incompleteSessions": recon.Incomplete,
			}))
		return
	}

	// Payload checks run only after the gate: a caller poking at an
	// incomplete group learns it is gated, not that a score is off.
	if apiErr := validateCriteria(req.Criteria); apiErr != nil {
		httpapi.WriteError(w, h.Log, apiErr)
		return
	}
	if !status.IsDecision(req.FinalDecision) {
		httpapi.WriteError(w, h.Log, httpapi.Validation("finalDecision",
			"finalDecision must be one of pass, review, repeat"))
		return
	}

	student, err := studentstore.New(h.DB).GetByID(ctx, studentID)
	if err != nil || !student.InGroup(groupID) {
		if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
			httpapi.WriteError(w, h.Log, err)
			return
		}
		httpapi.WriteError(w, h.Log, httpapi.NotFound("student not found in this group"))
		return
	}

	score := round2(req.Criteria.Mean())
	notes := sanitize.Text(req.Notes)

	evals := evaluationstore.New(h.DB)
	existing, err := evals.GetByGroupStudent(ctx, groupID, studentID)

	var saved models.Evaluation
	created := false
	switch {
	case err == nil:
		saved, err = evals.Update(ctx, existing.ID, req.Criteria, req.FinalDecision, score, notes, actorID)
		if err != nil {
			httpapi.WriteError(w, h.Log, err)
			return
		}
	case errors.Is(err, mongo.ErrNoDocuments):
		saved, err = evals.Insert(ctx, models.Evaluation{
			GroupID:       groupID,
			StudentID:     studentID,
			InstructorID:  actorID,
			Criteria:      req.Criteria,
			FinalDecision: req.FinalDecision,
			OverallScore:  score,
			Notes:         notes,
		})
		if err != nil {
			if errors.Is(err, evaluationstore.ErrDuplicateEvaluation) {
				httpapi.WriteError(w, h.Log, httpapi.Conflict("studentId", req.StudentID,
					"an evaluation for this student already exists"))
				return
			}
			httpapi.WriteError(w, h.Log, err)
			return
		}
		created = true
	default:
		httpapi.WriteError(w, h.Log, err)
		return
	}

	groups := groupstore.New(h.DB)
	if err := groups.EnableEvaluations(ctx, groupID, actorID); err != nil {
		h.Log.Warn("failed to stamp evaluations_enabled",
			zap.String("group_id", groupID.Hex()), zap.Error(err))
	}

	summary, err := h.recomputeSummary(ctx, groupID)
	if err != nil {
		// The evaluation is saved; a stale summary heals on the next
		// upsert.
		h.Log.Warn("failed to recompute evaluation summary",
			zap.String("group_id", groupID.Hex()), zap.Error(err))
	}

	httpapi.Respond(w, http.StatusOK, upsertResponse{
		Evaluation: saved,
		Summary:    summary,
		Created:    created,
	})
}

func validateCriteria(c models.Criteria) *httpapi.Error {
	checks := []struct {
		field string
		value int
	}{
		{"criteria.understanding", c.Understanding},
		{"criteria.commitment", c.Commitment},
		{"criteria.attendance", c.Attendance},
		{"criteria.participation", c.Participation},
	}
	for _, chk := range checks {
		if chk.value < 1 || chk.value > 5 {
			return httpapi.Validation(chk.field, "criteria scores must be integers between 1 and 5")
		}
	}
	return nil
}

func isGroupInstructor(group models.Group, userID primitive.ObjectID) bool {
	for _, iid := range group.InstructorIDs {
		if iid == userID {
			return true
		}
	}
	return false
}

// recomputeSummary rebuilds the group-level rollup from the roster and
// the stored evaluations and persists it. It also maintains the
// evaluations_completed flag: set when every roster student is
// evaluated, cleared again if the roster grows afterwards.
func (h *Handler) recomputeSummary(ctx context.Context, groupID primitive.ObjectID) (models.EvaluationSummary, error) {
	rosterCount, err := studentstore.New(h.DB).CountByGroup(ctx, groupID)
	if err != nil {
		return models.EvaluationSummary{}, err
	}
	byStudent, err := evaluationstore.New(h.DB).ListByGroup(ctx, groupID)
	if err != nil {
		return models.EvaluationSummary{}, err
	}

	sum := models.EvaluationSummary{
		TotalStudents:     int(rosterCount),
		EvaluatedStudents: len(byStudent),
	}
	sum.PendingStudents = sum.TotalStudents - sum.EvaluatedStudents
	if sum.PendingStudents < 0 {
		// Evaluations can outlive roster removals; don't report negative
		// pending counts.
		sum.PendingStudents = 0
	}

	var scoreTotal float64
	for _, e := range byStudent {
		scoreTotal += e.OverallScore
		switch e.FinalDecision {
		case status.DecisionPass:
			sum.Decisions.Pass++
		case status.DecisionReview:
			sum.Decisions.Review++
		case status.DecisionRepeat:
			sum.Decisions.Repeat++
		}
	}
	if len(byStudent) > 0 {
		sum.AverageOverallScore = round2(scoreTotal / float64(len(byStudent)))
	}

	completed := sum.TotalStudents > 0 && sum.PendingStudents == 0
	if err := groupstore.New(h.DB).SetEvaluationSummary(ctx, groupID, sum, completed); err != nil {
		return models.EvaluationSummary{}, err
	}
	return sum, nil
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
