// internal/domain/models/group.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group represents a teaching cohort.
//
// NOTE:
//   - Status is derived from the group's sessions: "completed" iff the
//     group has at least one non-deleted session and every one of them is
//     completed. groupstatus.Reconcile is the only writer of Status and
//     the completion stamps in Meta.
//   - The student roster is not embedded here. Roster membership lives on
//     the student documents (group_ids).
type Group struct {
	ID            primitive.ObjectID   `bson:"_id" json:"id"`
	Name          string               `bson:"name" json:"name"`
	NameCI        string               `bson:"name_ci" json:"name_ci"`
	InstructorIDs []primitive.ObjectID `bson:"instructor_ids" json:"instructor_ids"`

	Status string `bson:"status" json:"status"` // "active" | "completed"

	CreatedBy  primitive.ObjectID `bson:"created_by" json:"created_by"`
	Automation AutomationFlags    `bson:"automation" json:"automation"`
	Meta       GroupMeta          `bson:"meta" json:"meta"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// AutomationFlags toggle per-group guardian/student notifications.
type AutomationFlags struct {
	WhatsAppEnabled         bool `bson:"whatsapp_enabled" json:"whatsapp_enabled"`
	NotifyGuardianOnAbsence bool `bson:"notify_guardian_on_absence" json:"notify_guardian_on_absence"`
	NotifyOnSessionUpdate   bool `bson:"notify_on_session_update" json:"notify_on_session_update"`
}

// GroupMeta carries the completion and evaluation stamps for a group.
// Pointer fields are absent until the corresponding event first happens.
type GroupMeta struct {
	CompletedAt *time.Time          `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	CompletedBy *primitive.ObjectID `bson:"completed_by,omitempty" json:"completed_by,omitempty"`

	EvaluationsEnabled   bool                `bson:"evaluations_enabled" json:"evaluations_enabled"`
	EvaluationsEnabledAt *time.Time          `bson:"evaluations_enabled_at,omitempty" json:"evaluations_enabled_at,omitempty"`
	EvaluationsEnabledBy *primitive.ObjectID `bson:"evaluations_enabled_by,omitempty" json:"evaluations_enabled_by,omitempty"`

	EvaluationsCompleted   bool       `bson:"evaluations_completed" json:"evaluations_completed"`
	EvaluationsCompletedAt *time.Time `bson:"evaluations_completed_at,omitempty" json:"evaluations_completed_at,omitempty"`

	EvaluationSummary *EvaluationSummary `bson:"evaluation_summary,omitempty" json:"evaluation_summary,omitempty"`
}

// EvaluationSummary is the group-level rollup recomputed after every
// evaluation upsert.
type EvaluationSummary struct {
	TotalStudents       int            `bson:"total_students" json:"total_students"`
	EvaluatedStudents   int            `bson:"evaluated_students" json:"evaluated_students"`
	PendingStudents     int            `bson:"pending_students" json:"pending_students"`
	Decisions           DecisionCounts `bson:"decisions" json:"decisions"`
	AverageOverallScore float64        `bson:"average_overall_score" json:"average_overall_score"`
	UpdatedAt           time.Time      `bson:"updated_at" json:"updated_at"`
}

// DecisionCounts tallies final decisions across a group's evaluations.
type DecisionCounts struct {
	Pass   int `bson:"pass" json:"pass"`
	Review int `bson:"review" json:"review"`
	Repeat int `bson:"repeat" json:"repeat"`
}
