// Package report renders month reports for export: an .xlsx workbook for
// download and a Google Sheets tab.
package report

import (
	"strconv"

	"pamadmin/internal/core"
)

// SummaryHeader is the first row of the summary table.
var SummaryHeader = []string{"Employee", "Present", "Absent", "Permission", "Sick", "Total", "Attendance %"}

// SummaryRows returns one row per user, values typed for spreadsheets.
func SummaryRows(r core.MonthReport) [][]any {
	rows := make([][]any, 0, len(r.Summaries))
	for _, s := range r.Summaries {
		rows = append(rows, []any{s.UserName, s.Attend, s.Alpha, s.Permission, s.Sick, s.Total, s.Percentage()})
	}
	return rows
}

// DayHeader lists the employee column followed by the working days.
func DayHeader(ms core.MonthStatus) []string {
	h := make([]string, 0, len(ms.WorkingDays)+1)
	h = append(h, "Employee")
	for _, d := range ms.WorkingDays {
		h = append(h, d.String())
	}
	return h
}

// DayRows holds each user's status per working day. Days the store did
// not report are left blank.
func DayRows(ms core.MonthStatus) [][]any {
	rows := make([][]any, 0, len(ms.Records))
	for _, rec := range ms.Records {
		row := make([]any, 0, len(ms.WorkingDays)+1)
		row = append(row, rec.UserName)
		for _, d := range ms.WorkingDays {
			if ds, ok := rec.Days[d]; ok {
				row = append(row, ds.Status.Label())
			} else {
				row = append(row, "")
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// Filename is the download name for m, e.g. attendance-2025-11.xlsx.
func Filename(m core.Month) string {
	return "attendance-" + m.String() + ".xlsx"
}

func anyRow(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func columnName(n int) string {
	name := ""
	for n > 0 {
		n--
		name = string(rune('A'+n%26)) + name
		n /= 26
	}
	return name
}

func cellRange(sheet string, cols, rows int) string {
	return "'" + sheet + "'!A1:" + columnName(cols) + strconv.Itoa(rows)
}
