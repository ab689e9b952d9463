// internal/app/system/authz/roles.go
package authz

// Role is the closed set of platform roles. Authorization decisions
// switch exhaustively over this type at the HTTP boundary instead of
// comparing raw strings inside handlers.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleInstructor Role = "instructor"
	RoleStudent    Role = "student"
	RoleMarketing  Role = "marketing"
)

// ParseRole maps a stored role string onto the closed enum.
// Unknown strings fail closed.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleInstructor:
		return RoleInstructor, true
	case RoleStudent:
		return RoleStudent, true
	case RoleMarketing:
		return RoleMarketing, true
	default:
		return "", false
	}
}

// CanRecordAttendance reports whether the role may submit attendance at
// all. Membership in the group's instructor set is checked separately
// and applies to admins too.
func (r Role) CanRecordAttendance() bool {
	switch r {
	case RoleAdmin, RoleInstructor:
		return true
	case RoleStudent, RoleMarketing:
		return false
	}
	return false
}

// CanEvaluate reports whether the role may write evaluations.
// Instructors must additionally belong to the group's instructor set.
func (r Role) CanEvaluate() bool {
	switch r {
	case RoleAdmin, RoleInstructor:
		return true
	case RoleStudent, RoleMarketing:
		return false
	}
	return false
}

// CanManageAutomation reports whether the role may change group
// automation flags.
func (r Role) CanManageAutomation() bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleInstructor, RoleStudent, RoleMarketing:
		return false
	}
	return false
}
