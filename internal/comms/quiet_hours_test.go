package comms

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuietHoursContains(t *testing.T) {
	tests := []struct {
		name string
		q    QuietHours
		at   time.Time
		want bool
	}{
		{
			name: "inside simple window",
			q:    QuietHours{Start: "13:00", End: "15:00"},
			at:   time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
			want: true,
		},
		{
			name: "outside simple window",
			q:    QuietHours{Start: "13:00", End: "15:00"},
			at:   time.Date(2026, 3, 10, 16, 0, 0, 0, time.UTC),
			want: false,
		},
		{
			name: "end is exclusive",
			q:    QuietHours{Start: "13:00", End: "15:00"},
			at:   time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC),
			want: false,
		},
		{
			name: "crosses midnight, late evening",
			q:    QuietHours{Start: "22:00", End: "07:00"},
			at:   time.Date(2026, 3, 10, 23, 30, 0, 0, time.UTC),
			want: true,
		},
		{
			name: "crosses midnight, early morning",
			q:    QuietHours{Start: "22:00", End: "07:00"},
			at:   time.Date(2026, 3, 10, 6, 59, 0, 0, time.UTC),
			want: true,
		},
		{
			name: "crosses midnight, midday",
			q:    QuietHours{Start: "22:00", End: "07:00"},
			at:   time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
			want: false,
		},
		{
			name: "timezone shifts the window",
			// 03:00 UTC is 22:00 the previous day in New York.
			q:    QuietHours{Start: "22:00", End: "07:00", Timezone: "America/New_York"},
			at:   time.Date(2026, 1, 10, 3, 0, 0, 0, time.UTC),
			want: true,
		},
		{
			name: "disabled when empty",
			q:    QuietHours{},
			at:   time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC),
			want: false,
		},
		{
			name: "malformed start disables the window",
			q:    QuietHours{Start: "snooze", End: "07:00"},
			at:   time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.q.Contains(tt.at))
		})
	}
}

func TestQuietHoursNextWindowEnd(t *testing.T) {
	q := QuietHours{Start: "22:00", End: "07:00"}

	t.Run("evening defers to tomorrow morning", func(t *testing.T) {
		at := time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)
		end := q.NextWindowEnd(at)
		require.Equal(t, time.Date(2026, 3, 11, 7, 0, 0, 0, time.UTC), end)
	})

	t.Run("early morning defers to same morning", func(t *testing.T) {
		at := time.Date(2026, 3, 10, 5, 0, 0, 0, time.UTC)
		end := q.NextWindowEnd(at)
		require.Equal(t, time.Date(2026, 3, 10, 7, 0, 0, 0, time.UTC), end)
	})

	t.Run("outside the window returns t", func(t *testing.T) {
		at := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
		assert.Equal(t, at, q.NextWindowEnd(at))
	})
}

func TestValidateClock(t *testing.T) {
	assert.NoError(t, ValidateClock("00:00"))
	assert.NoError(t, ValidateClock("23:59"))
	assert.Error(t, ValidateClock("24:00"))
	assert.Error(t, ValidateClock("12:60"))
	assert.Error(t, ValidateClock("noon"))
}
