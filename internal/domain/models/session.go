// internal/domain/models/session.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Session is a single scheduled teaching occurrence belonging to a group.
//
// ScheduledDate is stored as UTC midnight of the teaching day; StartTime
// and EndTime are "HH:MM" wall-clock strings on that day. Sessions are
// never hard-deleted; scheduling tooling flips is_deleted instead.
type Session struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	GroupID  primitive.ObjectID `bson:"group_id" json:"group_id"`
	CourseID primitive.ObjectID `bson:"course_id" json:"course_id"`
	Title    string             `bson:"title" json:"title"`

	Status string `bson:"status" json:"status"` // scheduled | completed | cancelled | postponed

	ScheduledDate time.Time `bson:"scheduled_date" json:"scheduled_date"`
	StartTime     string    `bson:"start_time" json:"start_time"`
	EndTime       string    `bson:"end_time" json:"end_time"`

	MeetingLink string `bson:"meeting_link,omitempty" json:"meeting_link,omitempty"`
	Notes       string `bson:"notes,omitempty" json:"notes,omitempty"`

	// AttendanceTaken is the one-shot submission guard. It only ever
	// flips false->true through the store's compare-and-swap, and back
	// to false when the session leaves "completed".
	AttendanceTaken bool               `bson:"attendance_taken" json:"attendance_taken"`
	Attendance      []AttendanceRecord `bson:"attendance" json:"attendance"`

	IsDeleted bool      `bson:"is_deleted" json:"is_deleted"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// AttendanceRecord is one student's mark for one session.
type AttendanceRecord struct {
	StudentID primitive.ObjectID `bson:"student_id" json:"student_id"`
	Status    string             `bson:"status" json:"status"` // present | absent | late | excused
	Notes     string             `bson:"notes,omitempty" json:"notes,omitempty"`
	MarkedAt  time.Time          `bson:"marked_at" json:"marked_at"`
	MarkedBy  primitive.ObjectID `bson:"marked_by" json:"marked_by"`
}
