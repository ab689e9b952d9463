package authz

import "testing"

func TestParseRole(t *testing.T) {
	tests := []struct {
		in     string
		want   Role
		wantOK bool
	}{
		{"admin", RoleAdmin, true},
		{"instructor", RoleInstructor, true},
		{"student", RoleStudent, true},
		{"marketing", RoleMarketing, true},

		// Unknown roles fail closed.
		{"", "", false},
		{"superadmin", "", false},
		{"Instructor", "", false},
		{" admin", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseRole(tt.in)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ParseRole(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestRolePermissions(t *testing.T) {
	tests := []struct {
		role           Role
		recordAttend   bool
		evaluate       bool
		manageAutomate bool
	}{
		{RoleAdmin, true, true, true},
		{RoleInstructor, true, true, false},
		{RoleStudent, false, false, false},
		{RoleMarketing, false, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			if got := tt.role.CanRecordAttendance(); got != tt.recordAttend {
				t.Errorf("CanRecordAttendance() = %v, want %v", got, tt.recordAttend)
			}
			if got := tt.role.CanEvaluate(); got != tt.evaluate {
				t.Errorf("CanEvaluate() = %v, want %v", got, tt.evaluate)
			}
			if got := tt.role.CanManageAutomation(); got != tt.manageAutomate {
				t.Errorf("CanManageAutomation() = %v, want %v", got, tt.manageAutomate)
			}
		})
	}
}
