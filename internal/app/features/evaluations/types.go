// internal/app/features/evaluations/types.go
package evaluations

import (
	"github.com/dalemusser/cohorthub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// upsertRequest is the POST /groups/{id}/evaluations body. The same
// payload creates and updates; the (group, student) pair decides which.
type upsertRequest struct {
	StudentID     string          `json:"studentId"`
	Criteria      models.Criteria `json:"criteria"`
	FinalDecision string          `json:"finalDecision"`
	Notes         string          `json:"notes,omitempty"`
}

type upsertResponse struct {
	Evaluation models.Evaluation        `json:"evaluation"`
	Summary    models.EvaluationSummary `json:"summary"`
	Created    bool                     `json:"created"`
}

// studentRef is the resolved student identity in list rows.
type studentRef struct {
	ID       primitive.ObjectID `json:"id"`
	FullName string             `json:"fullName"`
	Email    string             `json:"email,omitempty"`
}

// attendanceFigures summarizes one student's attendance over the
// group's completed sessions.
type attendanceFigures struct {
	Attended   int `json:"attended"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// listRow joins a roster student with their evaluation, if any.
// Decision is the evaluation's final decision or "not_evaluated".
type listRow struct {
	Student    studentRef         `json:"student"`
	Decision   string             `json:"decision"`
	Evaluation *models.Evaluation `json:"evaluation,omitempty"`
	Attendance attendanceFigures  `json:"attendance"`
}

type listResponse struct {
	GroupStatus string                    `json:"groupStatus"`
	Summary     *models.EvaluationSummary `json:"summary,omitempty"`
	Items       []listRow                 `json:"items"`
	Total       int                       `json:"total"`
	Page        int                       `json:"page"`
	Limit       int                       `json:"limit"`
	Pages       int                       `json:"pages"`
}

// decisionNotEvaluated is the synthetic filter value for students
// without an evaluation yet.
const decisionNotEvaluated = "not_evaluated"
