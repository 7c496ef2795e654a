package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(y int, m time.Month, d int) func() time.Time {
	return func() time.Time { return time.Date(y, m, d, 10, 0, 0, 0, time.UTC) }
}

func TestParseMonth(t *testing.T) {
	m, err := ParseMonth("2025-11")
	require.NoError(t, err)
	assert.Equal(t, Month{Year: 2025, Month: time.November}, m)
	assert.Equal(t, "2025-11", m.String())
	assert.Equal(t, "November 2025", m.Label())

	for _, bad := range []string{"", "2025-13", "2025/11", "nov"} {
		_, err := ParseMonth(bad)
		assert.ErrorIs(t, err, ErrValidation, bad)
	}
}

func TestMonthWrap(t *testing.T) {
	assert.Equal(t, Month{Year: 2024, Month: time.December}, Month{Year: 2025, Month: time.January}.Previous())
	assert.Equal(t, Month{Year: 2026, Month: time.January}, Month{Year: 2025, Month: time.December}.Following())
	assert.Equal(t, Month{Year: 2025, Month: time.May}, Month{Year: 2025, Month: time.June}.Previous())
}

func TestMonthCursorPreviousIsUnbounded(t *testing.T) {
	c := NewMonthCursor(Month{Year: 2025, Month: time.January}, fixedClock(2025, time.March, 5))
	assert.Equal(t, Month{Year: 2024, Month: time.December}, c.Previous())
	for i := 0; i < 36; i++ {
		c.Previous()
	}
	assert.Equal(t, Month{Year: 2021, Month: time.December}, c.Month())
}

func TestMonthCursorNextStopsAtCurrent(t *testing.T) {
	c := NewMonthCursor(Month{Year: 2025, Month: time.June}, fixedClock(2025, time.June, 15))
	assert.True(t, c.IsCurrent())
	assert.Equal(t, Month{Year: 2025, Month: time.June}, c.Next())
	assert.Equal(t, Month{Year: 2025, Month: time.June}, c.NextMonth())
	assert.True(t, c.IsCurrent())
}

func TestMonthCursorNextWrapsYear(t *testing.T) {
	c := NewMonthCursor(Month{Year: 2024, Month: time.December}, fixedClock(2025, time.February, 1))
	assert.False(t, c.IsCurrent())
	assert.Equal(t, Month{Year: 2025, Month: time.January}, c.Next())
	assert.Equal(t, Month{Year: 2025, Month: time.February}, c.Next())
	assert.True(t, c.IsCurrent())
	assert.Equal(t, Month{Year: 2025, Month: time.February}, c.Next())
}

func TestMonthCursorPreviousThenNextRoundTrips(t *testing.T) {
	clock := fixedClock(2025, time.June, 15)
	tests := []struct {
		name  string
		start Month
	}{
		{"january wraps to previous december", Month{Year: 2025, Month: time.January}},
		{"december of an earlier year", Month{Year: 2024, Month: time.December}},
		{"month just before current", Month{Year: 2025, Month: time.May}},
		{"mid year", Month{Year: 2023, Month: time.August}},
		{"far past", Month{Year: 1999, Month: time.March}},
		{"current month", Month{Year: 2025, Month: time.June}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewMonthCursor(tt.start, clock)
			require.Equal(t, tt.start, c.Month())

			c.Previous()
			assert.NotEqual(t, tt.start, c.Month())
			assert.Equal(t, tt.start, c.Next())
			assert.Equal(t, tt.start, c.Month())
		})
	}
}

func TestNewMonthCursorClampsFuture(t *testing.T) {
	clock := fixedClock(2025, time.June, 15)
	c := NewMonthCursor(Month{Year: 2030, Month: time.January}, clock)
	assert.Equal(t, Month{Year: 2025, Month: time.June}, c.Month())

	c = NewMonthCursor(Month{}, clock)
	assert.True(t, c.IsCurrent())
}

func TestWorkingDays(t *testing.T) {
	wd := Month{Year: 2025, Month: time.November}.WorkingDays()
	require.Len(t, wd, 20)
	assert.Equal(t, WorkingDay("2025-11-03"), wd[0])
	assert.Equal(t, WorkingDay("2025-11-28"), wd[len(wd)-1])
	for _, d := range wd {
		wk := d.Time().Weekday()
		assert.NotEqual(t, time.Saturday, wk)
		assert.NotEqual(t, time.Sunday, wk)
	}

	assert.Len(t, Month{Year: 2024, Month: time.February}.WorkingDays(), 21)
}

func TestMonthStatusContains(t *testing.T) {
	ms := MonthStatus{WorkingDays: days("2025-11-03", "2025-11-04")}
	assert.True(t, ms.Contains("2025-11-04"))
	assert.False(t, ms.Contains("2025-11-08"))
}
