// internal/app/system/status/status.go
//
// Package status holds the closed string enums shared by stores,
// policies, and handlers. Keeping them in one place avoids the scattered
// string literals the original platform suffered from.
package status

// Group lifecycle.
const (
	Active    = "active"
	Completed = "completed"
)

// Session lifecycle. Any session status may transition to any other; the
// side effects of entering/leaving Completed are handled by the session
// store, not by transition guards.
const (
	SessionScheduled = "scheduled"
	SessionCompleted = "completed"
	SessionCancelled = "cancelled"
	SessionPostponed = "postponed"
)

// Attendance marks.
const (
	AttendancePresent = "present"
	AttendanceAbsent  = "absent"
	AttendanceLate    = "late"
	AttendanceExcused = "excused"
	// AttendancePending is synthetic: it never appears on a stored
	// record, only in the merged roster view before submission.
	AttendancePending = "pending"
)

// Evaluation final decisions.
const (
	DecisionPass   = "pass"
	DecisionReview = "review"
	DecisionRepeat = "repeat"
)

// Notification outbox states.
const (
	IntentPending    = "pending"
	IntentProcessing = "processing"
	IntentDelivered  = "delivered"
	IntentFailed     = "failed"
)

// Notification event types.
const (
	EventWelcomeMessage       = "welcomeMessage"
	EventUpdateNotification   = "updateNotification"
	EventDeletionNotification = "deletionNotification"
	EventAttendanceAbsence    = "attendanceAbsence"
	EventSessionStatusChange  = "sessionStatusChange"
)

// IsSessionStatus reports whether s is a member of the session status set.
func IsSessionStatus(s string) bool {
	switch s {
	case SessionScheduled, SessionCompleted, SessionCancelled, SessionPostponed:
		return true
	}
	return false
}

// IsAttendanceStatus reports whether s is a valid stored attendance mark.
// AttendancePending is deliberately excluded.
func IsAttendanceStatus(s string) bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceExcused:
		return true
	}
	return false
}

// NeedsGuardianNotice reports whether an attendance mark triggers a
// guardian notification when the group's absence automation is on.
func NeedsGuardianNotice(s string) bool {
	switch s {
	case AttendanceAbsent, AttendanceLate, AttendanceExcused:
		return true
	}
	return false
}

// IsDecision reports whether s is a valid evaluation final decision.
func IsDecision(s string) bool {
	switch s {
	case DecisionPass, DecisionReview, DecisionRepeat:
		return true
	}
	return false
}
