// internal/app/system/attendwindow/attendwindow.go
//
// Package attendwindow implements the attendance submission window rule.
// A submission is valid from 30 minutes before the session's start
// instant until 2 hours after it. The window anchors on start_time, not
// end_time: a session scheduled 10:00-12:00 closes for attendance at
// 12:00 (10:00 + 2h), not at 14:00.
package attendwindow

import (
	"fmt"
	"time"
)

const (
	// Pre is how long before the session start the window opens.
	Pre = 30 * time.Minute
	// Post is how long after the session start the window closes.
	Post = 2 * time.Hour
)

// Window is the resolved submission interval for one session.
type Window struct {
	Start  time.Time // the session start instant
	Opens  time.Time
	Closes time.Time
}

// Contains reports whether t falls inside the window (inclusive bounds).
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Opens) && !t.After(w.Closes)
}

// SessionStart combines a scheduled date (UTC midnight) with an "HH:MM"
// start time into the session's start instant.
func SessionStart(scheduledDate time.Time, startTime string) (time.Time, error) {
	clock, err := time.Parse("15:04", startTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid start time %q: %w", startTime, err)
	}
	d := scheduledDate.UTC()
	return time.Date(d.Year(), d.Month(), d.Day(), clock.Hour(), clock.Minute(), 0, 0, time.UTC), nil
}

// For resolves the submission window for a session.
func For(scheduledDate time.Time, startTime string) (Window, error) {
	start, err := SessionStart(scheduledDate, startTime)
	if err != nil {
		return Window{}, err
	}
	return Window{Start: start, Opens: start.Add(-Pre), Closes: start.Add(Post)}, nil
}

// Open reports whether now falls inside the session's submission window.
// A malformed start time means the window is never open.
func Open(scheduledDate time.Time, startTime string, now time.Time) bool {
	w, err := For(scheduledDate, startTime)
	if err != nil {
		return false
	}
	return w.Contains(now)
}
