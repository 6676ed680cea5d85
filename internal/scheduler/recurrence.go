package scheduler

import (
	"fmt"
	"strings"
	"time"
)

// matchesDay reports whether a recurrence pattern falls on the given date.
// Supported patterns: "daily", "weekly <weekday>", "monthly <day>".
func matchesDay(pattern string, day time.Time) bool {
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	weekday := day.Weekday()

	switch pattern {
	case "daily":
		return true
	case "weekly monday":
		return weekday == time.Monday
	case "weekly tuesday":
		return weekday == time.Tuesday
	case "weekly wednesday":
		return weekday == time.Wednesday
	case "weekly thursday":
		return weekday == time.Thursday
	case "weekly friday":
		return weekday == time.Friday
	case "weekly saturday":
		return weekday == time.Saturday
	case "weekly sunday":
		return weekday == time.Sunday
	default:
		if strings.HasPrefix(pattern, "monthly ") {
			dayStr := strings.TrimPrefix(pattern, "monthly ")
			var d int
			if _, err := fmt.Sscanf(dayStr, "%d", &d); err == nil {
				// "monthly 31" fires on the last day of shorter months.
				if last := lastDayOfMonth(day); d > last {
					d = last
				}
				return day.Day() == d
			}
		}
		return false
	}
}

func lastDayOfMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// ValidatePattern rejects recurrence patterns the scheduler cannot match.
func ValidatePattern(pattern string) error {
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	if pattern == "daily" || strings.HasPrefix(pattern, "weekly ") {
		// Probe a full week so any valid weekday pattern matches at least once.
		probe := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
		for i := 0; i < 7; i++ {
			if matchesDay(pattern, probe.AddDate(0, 0, i)) {
				return nil
			}
		}
		return fmt.Errorf("unknown weekday in pattern %q", pattern)
	}
	if strings.HasPrefix(pattern, "monthly ") {
		var d int
		if _, err := fmt.Sscanf(strings.TrimPrefix(pattern, "monthly "), "%d", &d); err != nil || d < 1 || d > 31 {
			return fmt.Errorf("invalid day of month in pattern %q", pattern)
		}
		return nil
	}
	return fmt.Errorf("unsupported recurrence pattern %q", pattern)
}

// dueAt returns the instant a habit comes due on the given date, using its
// send time ("HH:MM"). A missing or malformed send time means midnight.
func dueAt(day time.Time, sendTime string) time.Time {
	h, m := 0, 0
	if sendTime != "" {
		if _, err := fmt.Sscanf(sendTime, "%d:%d", &h, &m); err != nil || h < 0 || h > 23 || m < 0 || m > 59 {
			h, m = 0, 0
		}
	}
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, day.Location())
}

// IsDue reports whether a habit with the given pattern and send time is due
// at instant t: the pattern matches t's date and t has reached the send time.
func IsDue(pattern, sendTime string, t time.Time) bool {
	if !matchesDay(pattern, t) {
		return false
	}
	return !t.Before(dueAt(t, sendTime))
}
