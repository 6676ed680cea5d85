package comms

import (
	"fmt"
	"time"
)

// QuietHours is a daily do-not-disturb window in the user's timezone.
// The window may cross midnight (e.g. 22:00 to 07:00).
type QuietHours struct {
	Start    string // "HH:MM"
	End      string // "HH:MM"
	Timezone string // IANA name; falls back to UTC when invalid or empty
}

// Enabled reports whether a window is configured at all.
func (q QuietHours) Enabled() bool {
	return q.Start != "" && q.End != ""
}

func (q QuietHours) location() *time.Location {
	if q.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(q.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Contains reports whether t falls inside the quiet window.
func (q QuietHours) Contains(t time.Time) bool {
	if !q.Enabled() {
		return false
	}

	startMin, err := parseClock(q.Start)
	if err != nil {
		return false
	}
	endMin, err := parseClock(q.End)
	if err != nil {
		return false
	}

	local := t.In(q.location())
	nowMin := local.Hour()*60 + local.Minute()

	if startMin <= endMin {
		return nowMin >= startMin && nowMin < endMin
	}
	// Window crosses midnight.
	return nowMin >= startMin || nowMin < endMin
}

// NextWindowEnd returns the first instant at or after t when the window ends.
// Returns t unchanged when the window is disabled or t is outside it.
func (q QuietHours) NextWindowEnd(t time.Time) time.Time {
	if !q.Contains(t) {
		return t
	}

	endMin, err := parseClock(q.End)
	if err != nil {
		return t
	}

	local := t.In(q.location())
	end := time.Date(local.Year(), local.Month(), local.Day(), endMin/60, endMin%60, 0, 0, local.Location())
	if !end.After(local) {
		end = end.AddDate(0, 0, 1)
	}
	return end
}

// ValidateClock rejects strings that are not "HH:MM" wall clock values.
func ValidateClock(s string) error {
	_, err := parseClock(s)
	return err
}

func parseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, err
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid clock value: %s", s)
	}
	return h*60 + m, nil
}
