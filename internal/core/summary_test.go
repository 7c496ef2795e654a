package core

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func days(ds ...string) []WorkingDay {
	out := make([]WorkingDay, len(ds))
	for i, d := range ds {
		out[i] = WorkingDay(d)
	}
	return out
}

func TestSummarize(t *testing.T) {
	wd := days("2025-11-03", "2025-11-04", "2025-11-05")

	tests := []struct {
		name   string
		dayMap UserDayMap
		want   UserMonthSummary
	}{
		{
			name: "one of each counted",
			dayMap: UserDayMap{
				"2025-11-03": {Status: StatusAttend},
				"2025-11-04": {Status: StatusSick},
				"2025-11-05": {Status: StatusAlpha},
			},
			want: UserMonthSummary{UserID: "u1", UserName: "Ani", Attend: 1, Sick: 1, Alpha: 1, Total: 3},
		},
		{
			name: "missing days are skipped",
			dayMap: UserDayMap{
				"2025-11-03": {Status: StatusAttend},
				"2025-11-05": {Status: StatusAttend},
			},
			want: UserMonthSummary{UserID: "u1", UserName: "Ani", Attend: 2, Total: 2},
		},
		{
			name: "keys outside the working days are ignored",
			dayMap: UserDayMap{
				"2025-11-03": {Status: StatusPermission},
				"2025-11-08": {Status: StatusAttend},
			},
			want: UserMonthSummary{UserID: "u1", UserName: "Ani", Permission: 1, Total: 1},
		},
		{
			name:   "nil map",
			dayMap: nil,
			want:   UserMonthSummary{UserID: "u1", UserName: "Ani"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize("u1", "Ani", wd, tt.dayMap)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got.Attend+got.Alpha+got.Permission+got.Sick, got.Total)
		})
	}
}

func TestSummarizeEmptyWorkingDays(t *testing.T) {
	got := Summarize("u1", "Ani", nil, UserDayMap{"2025-11-03": {Status: StatusAttend}})
	assert.Zero(t, got.Total)
	assert.Zero(t, got.Percentage())
}

func TestSummarizeIsIdempotent(t *testing.T) {
	wd := days("2025-11-03", "2025-11-04")
	dm := UserDayMap{"2025-11-03": {Status: StatusAttend}, "2025-11-04": {Status: StatusSick}}
	assert.Equal(t, Summarize("u1", "Ani", wd, dm), Summarize("u1", "Ani", wd, dm))
}

func TestAttendancePercentage(t *testing.T) {
	assert.Equal(t, 84.6, AttendancePercentage(11, 13))
	assert.Equal(t, 100.0, AttendancePercentage(20, 20))
	assert.Equal(t, 33.3, AttendancePercentage(1, 3))
	assert.Equal(t, 66.7, AttendancePercentage(2, 3))
	assert.Equal(t, 0.0, AttendancePercentage(0, 0))
	assert.Equal(t, 0.0, AttendancePercentage(5, 0))
}

func TestThirteenDayMonth(t *testing.T) {
	var wd []WorkingDay
	dm := UserDayMap{}
	for i := 1; i <= 13; i++ {
		d := WorkingDay(fmt.Sprintf("2025-02-%02d", i))
		wd = append(wd, d)
		switch {
		case i <= 11:
			dm[d] = DayStatus{Status: StatusAttend}
		case i == 12:
			dm[d] = DayStatus{Status: StatusAlpha}
		default:
			dm[d] = DayStatus{Status: StatusSick}
		}
	}

	s := Summarize("u1", "Ani", wd, dm)
	assert.Equal(t, 11, s.Attend)
	assert.Equal(t, 1, s.Alpha)
	assert.Equal(t, 1, s.Sick)
	assert.Equal(t, 0, s.Permission)
	assert.Equal(t, 13, s.Total)
	assert.Equal(t, 84.6, s.Percentage())
}

func TestSummarizeMonthKeepsRecordOrder(t *testing.T) {
	ms := MonthStatus{
		WorkingDays: days("2025-11-03"),
		Records: []UserMonthRecord{
			{UserID: "b", UserName: "Budi", Days: UserDayMap{"2025-11-03": {Status: StatusAlpha}}},
			{UserID: "a", UserName: "Ani", Days: UserDayMap{"2025-11-03": {Status: StatusAttend}}},
		},
	}

	got := SummarizeMonth(ms)
	if assert.Len(t, got, 2) {
		assert.Equal(t, "b", got[0].UserID)
		assert.Equal(t, 1, got[0].Alpha)
		assert.Equal(t, "a", got[1].UserID)
		assert.Equal(t, 1, got[1].Attend)
	}

	report := NewMonthReport(ms)
	s, ok := report.Summary("a")
	assert.True(t, ok)
	assert.Equal(t, 1, s.Count(StatusAttend))
	_, ok = report.Summary("zzz")
	assert.False(t, ok)
}
