// internal/app/features/sessions/types.go
package sessions

import (
	"github.com/dalemusser/cohorthub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// updateSessionRequest is the PUT /sessions/{id} body. All fields are
// optional; absent fields leave the stored values unchanged.
type updateSessionRequest struct {
	Status      *string `json:"status,omitempty"`
	MeetingLink *string `json:"meetingLink,omitempty"`
	Notes       *string `json:"notes,omitempty"`
	// Message is an optional instructor note carried into the
	// session-update notification when group automation is on.
	Message string `json:"message,omitempty"`
}

type updateSessionResponse struct {
	Session     models.Session    `json:"session"`
	GroupStatus string            `json:"groupStatus"`
	Automation  automationOutcome `json:"automation"`
}

// automationOutcome reports what, if anything, was queued for delivery.
// Dispatch happens later in the outbox worker; this is enqueue-time
// metadata only.
type automationOutcome struct {
	Queued     bool   `json:"queued"`
	IntentID   string `json:"intentId,omitempty"`
	Recipients int    `json:"recipients,omitempty"`
}

// recordAttendanceRequest is the POST /sessions/{id}/attendance body.
type recordAttendanceRequest struct {
	Attendance     []attendanceEntry `json:"attendance"`
	CustomMessages map[string]string `json:"customMessages,omitempty"`
}

type attendanceEntry struct {
	StudentID string `json:"studentId"`
	Status    string `json:"status"`
	Notes     string `json:"notes,omitempty"`
}

type attendanceStats struct {
	Total   int `json:"total"`
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Late    int `json:"late"`
	Excused int `json:"excused"`
	Pending int `json:"pending,omitempty"`
}

type recordAttendanceResponse struct {
	Session    models.Session    `json:"session"`
	Stats      attendanceStats   `json:"stats"`
	Automation automationOutcome `json:"automation"`
}

// attendanceRow is one roster student in the merged attendance view.
// Students without a stored record show status "pending".
type attendanceRow struct {
	StudentID primitive.ObjectID `json:"studentId"`
	FullName  string             `json:"fullName"`
	Status    string             `json:"status"`
	Notes     string             `json:"notes,omitempty"`
}

type attendanceViewResponse struct {
	Session           models.Session  `json:"session"`
	Attendance        []attendanceRow `json:"attendance"`
	Stats             attendanceStats `json:"stats"`
	CanTakeAttendance bool            `json:"canTakeAttendance"`
}
