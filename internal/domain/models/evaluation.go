// internal/domain/models/evaluation.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Evaluation is an instructor's scored judgment of one student within a
// completed group. Exactly one document exists per (group_id, student_id);
// upserts update in place and preserve the original evaluated_at/by.
type Evaluation struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	GroupID      primitive.ObjectID `bson:"group_id" json:"group_id"`
	StudentID    primitive.ObjectID `bson:"student_id" json:"student_id"`
	InstructorID primitive.ObjectID `bson:"instructor_id" json:"instructor_id"`

	Criteria      Criteria `bson:"criteria" json:"criteria"`
	FinalDecision string   `bson:"final_decision" json:"final_decision"` // pass | review | repeat
	OverallScore  float64  `bson:"overall_score" json:"overall_score"`
	Notes         string   `bson:"notes,omitempty" json:"notes,omitempty"`

	EvaluatedAt    time.Time          `bson:"evaluated_at" json:"evaluated_at"`
	EvaluatedBy    primitive.ObjectID `bson:"evaluated_by" json:"evaluated_by"`
	LastModifiedAt time.Time          `bson:"last_modified_at" json:"last_modified_at"`
	LastModifiedBy primitive.ObjectID `bson:"last_modified_by" json:"last_modified_by"`
}

// Criteria are the four scored dimensions, each an integer in [1,5].
type Criteria struct {
	Understanding int `bson:"understanding" json:"understanding"`
	Commitment    int `bson:"commitment" json:"commitment"`
	Attendance    int `bson:"attendance" json:"attendance"`
	Participation int `bson:"participation" json:"participation"`
}

// Mean returns the unrounded mean of the four criteria.
func (c Criteria) Mean() float64 {
	return float64(c.Understanding+c.Commitment+c.Attendance+c.Participation) / 4
}
