// internal/domain/models/notificationintent.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationIntent is one outbox entry: a durable record that a
// notification should be delivered, written in the same request that
// committed the triggering mutation. The outbox worker owns every
// transition after "pending".
type NotificationIntent struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	EventType string             `bson:"event_type" json:"event_type"`

	GroupID   primitive.ObjectID `bson:"group_id" json:"group_id"`
	SessionID primitive.ObjectID `bson:"session_id,omitempty" json:"session_id,omitempty"`

	// SubjectIDs are the students the notification is about.
	SubjectIDs []primitive.ObjectID `bson:"subject_ids" json:"subject_ids"`

	// Context carries free-form template values (student names, custom
	// messages, the new session status, ...). Values are sanitized
	// before they get here.
	Context map[string]string `bson:"context,omitempty" json:"context,omitempty"`

	Status        string     `bson:"status" json:"status"` // pending | processing | delivered | failed
	Attempts      int        `bson:"attempts" json:"attempts"`
	NextAttemptAt time.Time  `bson:"next_attempt_at" json:"next_attempt_at"`
	LastError     string     `bson:"last_error,omitempty" json:"last_error,omitempty"`
	DeliveredAt   *time.Time `bson:"delivered_at,omitempty" json:"delivered_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
