package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsDue(t *testing.T) {
	// 2026-03-11 is a Wednesday.
	wednesdayMorning := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		pattern  string
		sendTime string
		at       time.Time
		want     bool
	}{
		{"daily past send time", "daily", "08:00", wednesdayMorning, true},
		{"daily before send time", "daily", "10:00", wednesdayMorning, false},
		{"daily at exact send time", "daily", "09:00", wednesdayMorning, true},
		{"daily no send time means midnight", "daily", "", wednesdayMorning, true},
		{"weekly matching day", "weekly wednesday", "08:00", wednesdayMorning, true},
		{"weekly wrong day", "weekly monday", "08:00", wednesdayMorning, false},
		{"weekly case insensitive", "Weekly Wednesday", "08:00", wednesdayMorning, true},
		{"monthly matching day", "monthly 11", "08:00", wednesdayMorning, true},
		{"monthly wrong day", "monthly 12", "08:00", wednesdayMorning, false},
		{"monthly 31 clamps to February 28", "monthly 31", "08:00", time.Date(2026, 2, 28, 9, 0, 0, 0, time.UTC), true},
		{"monthly 31 clamps to leap February 29", "monthly 31", "08:00", time.Date(2028, 2, 29, 9, 0, 0, 0, time.UTC), true},
		{"monthly 31 clamps to April 30", "monthly 31", "08:00", time.Date(2026, 4, 30, 9, 0, 0, 0, time.UTC), true},
		{"monthly 31 not due on April 29", "monthly 31", "08:00", time.Date(2026, 4, 29, 9, 0, 0, 0, time.UTC), false},
		{"monthly 31 in a 31 day month", "monthly 31", "08:00", time.Date(2026, 3, 31, 9, 0, 0, 0, time.UTC), true},
		{"monthly 30 untouched in March", "monthly 30", "08:00", time.Date(2026, 3, 30, 9, 0, 0, 0, time.UTC), true},
		{"garbage pattern never due", "hourly", "08:00", wednesdayMorning, false},
		{"malformed send time falls back to midnight", "daily", "9am", wednesdayMorning, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDue(tt.pattern, tt.sendTime, tt.at))
		})
	}
}

func TestValidatePattern(t *testing.T) {
	assert.NoError(t, ValidatePattern("daily"))
	assert.NoError(t, ValidatePattern("weekly friday"))
	assert.NoError(t, ValidatePattern("Weekly Sunday"))
	assert.NoError(t, ValidatePattern("monthly 1"))
	assert.NoError(t, ValidatePattern("monthly 31"))

	assert.Error(t, ValidatePattern("weekly someday"))
	assert.Error(t, ValidatePattern("monthly 0"))
	assert.Error(t, ValidatePattern("monthly 32"))
	assert.Error(t, ValidatePattern("hourly"))
	assert.Error(t, ValidatePattern(""))
}
