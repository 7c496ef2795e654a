package formatter

import (
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pamadmin/internal/core"
	"pamadmin/internal/services"
)

func TestRenderTableAlignsColumns(t *testing.T) {
	out := RenderTable(NewStyler(false), []string{"NAME", "N"}, [][]string{
		{"Ani", "1"},
		{"Budi Santoso", "20"},
	})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "NAME          N", lines[0])
	assert.Equal(t, "────────────  ──", lines[1])
	assert.Equal(t, "Ani           1", lines[2])
	assert.Equal(t, "Budi Santoso  20", lines[3])
}

func TestRenderTableStyledCellsKeepWidth(t *testing.T) {
	st := NewStyler(true)
	out := RenderTable(st, []string{"A", "B"}, [][]string{{st.Good.Render("ok"), "x"}})
	for _, line := range strings.Split(strings.TrimRight(out, "\n"), "\n")[1:] {
		assert.Equal(t, 5, lipgloss.Width(line), line)
	}
}

func TestRenderTableWithoutHeaders(t *testing.T) {
	assert.Empty(t, RenderTable(NewStyler(false), nil, [][]string{{"x"}}))
}

func TestRenderMonthSummary(t *testing.T) {
	m := core.Month{Year: 2025, Month: 11}
	days := m.WorkingDays()
	rep := core.MonthReport{
		Status: core.MonthStatus{Month: m, WorkingDays: days},
		Summaries: []core.UserMonthSummary{
			{UserID: "1", UserName: "Ani Lestari", Attend: 18, Sick: 2, Total: 20},
			{UserID: "2", UserName: "Budi Santoso", Alpha: 20, Total: 20},
		},
	}

	out := RenderMonthSummary(NewStyler(false), rep)
	assert.Contains(t, out, "Attendance November 2025  20 working days")
	assert.Contains(t, out, "USER")
	assert.Contains(t, out, "Ani Lestari")
	assert.Contains(t, out, "90.0%")
	assert.Contains(t, out, "0.0%")
	assert.NotContains(t, out, "\x1b[")
}

func TestRenderMonthSummaryNoUsers(t *testing.T) {
	out := RenderMonthSummary(NewStyler(false), core.MonthReport{Status: core.MonthStatus{Month: core.Month{Year: 2025, Month: 11}}})
	assert.Contains(t, out, "No users.")
}

func TestRenderPayroll(t *testing.T) {
	m := core.Month{Year: 2025, Month: 11}
	slip := core.SalarySlip{
		UserID: "1", UserName: "Ani Lestari", Month: m,
		BasicSalary: decimal.NewFromInt(5000000),
		Allowances:  decimal.NewFromInt(500000),
		Deductions:  decimal.NewFromInt(250000),
		NetSalary:   decimal.NewFromInt(5250000),
	}
	out := RenderPayroll(NewStyler(false), services.PayrollReport{
		Month:  m,
		Slips:  []core.SalarySlip{slip},
		Failed: []services.SlipFailure{{UserID: "2", UserName: "Budi Santoso", Err: errors.New("boom")}},
		Total:  slip.NetSalary,
	})

	assert.Contains(t, out, "Salary November 2025")
	assert.Contains(t, out, "Rp 5.250.000")
	assert.Contains(t, out, "Total net: Rp 5.250.000")
	assert.Contains(t, out, "No slip available for:\n  Budi Santoso")
}

func TestAttendanceThresholds(t *testing.T) {
	st := NewStyler(true)
	assert.Equal(t, st.Good, st.Attendance(90))
	assert.Equal(t, st.Warn, st.Attendance(75))
	assert.Equal(t, st.Bad, st.Attendance(74.9))
}
