package attendwindow

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func TestSessionStart(t *testing.T) {
	start, err := SessionStart(date(2024, 6, 1), "10:00")
	if err != nil {
		t.Fatalf("SessionStart failed: %v", err)
	}
	if !start.Equal(at(2024, 6, 1, 10, 0)) {
		t.Errorf("start = %v, want 2024-06-01 10:00 UTC", start)
	}

	if _, err := SessionStart(date(2024, 6, 1), "25:99"); err == nil {
		t.Error("expected error for malformed start time")
	}
}

func TestOpen(t *testing.T) {
	// Session scheduled 2024-06-01, 10:00-12:00. The window is anchored
	// on the start time: [09:30, 12:00].
	d := date(2024, 6, 1)

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"within pre-window", at(2024, 6, 1, 9, 35), true},
		{"pre-window boundary", at(2024, 6, 1, 9, 30), true},
		{"just before pre-window", at(2024, 6, 1, 9, 29), false},
		{"at start", at(2024, 6, 1, 10, 0), true},
		{"mid session", at(2024, 6, 1, 11, 15), true},
		{"post boundary start+2h", at(2024, 6, 1, 12, 0), true},
		{"after start+2h even though before end+2h", at(2024, 6, 1, 13, 30), false},
		{"well after", at(2024, 6, 1, 15, 0), false},
		{"previous day", at(2024, 5, 31, 10, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Open(d, "10:00", tt.now); got != tt.want {
				t.Errorf("Open(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestOpen_MalformedStartTime(t *testing.T) {
	if Open(date(2024, 6, 1), "ten o'clock", at(2024, 6, 1, 10, 0)) {
		t.Error("malformed start time should never open the window")
	}
}

func TestFor(t *testing.T) {
	w, err := For(date(2024, 6, 1), "10:00")
	if err != nil {
		t.Fatalf("For failed: %v", err)
	}
	if !w.Opens.Equal(at(2024, 6, 1, 9, 30)) {
		t.Errorf("Opens = %v, want 09:30", w.Opens)
	}
	if !w.Closes.Equal(at(2024, 6, 1, 12, 0)) {
		t.Errorf("Closes = %v, want 12:00", w.Closes)
	}
}
