package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"pamadmin/internal/core"
	"pamadmin/internal/services"
)

// RenderMonthSummary prints one row per user with their status counts and
// attendance percentage.
func RenderMonthSummary(st Styler, r core.MonthReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n\n",
		st.Title.Render("Attendance "+r.Status.Month.Label()),
		st.Dim.Render(fmt.Sprintf("%d working days", len(r.Status.WorkingDays))))

	if len(r.Summaries) == 0 {
		b.WriteString(st.Dim.Render("No users.") + "\n")
		return b.String()
	}

	headers := []string{"USER", "PRESENT", "ABSENT", "PERMISSION", "SICK", "ATTENDANCE"}
	rows := make([][]string, 0, len(r.Summaries))
	for _, s := range r.Summaries {
		pct := s.Percentage()
		rows = append(rows, []string{
			s.UserName,
			strconv.Itoa(s.Attend),
			strconv.Itoa(s.Alpha),
			strconv.Itoa(s.Permission),
			strconv.Itoa(s.Sick),
			st.Attendance(pct).Render(fmt.Sprintf("%.1f%%", pct)),
		})
	}
	b.WriteString(RenderTable(st, headers, rows))
	return b.String()
}

// RenderPayroll prints the month's slips, the net total and the users
// whose slip could not be loaded.
func RenderPayroll(st Styler, r services.PayrollReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", st.Title.Render("Salary "+r.Month.Label()))

	if len(r.Slips) > 0 {
		headers := []string{"USER", "BASIC", "ALLOWANCES", "DEDUCTIONS", "NET"}
		rows := make([][]string, 0, len(r.Slips))
		for _, s := range r.Slips {
			rows = append(rows, []string{
				s.UserName,
				core.FormatRupiah(s.BasicSalary),
				core.FormatRupiah(s.Allowances),
				core.FormatRupiah(s.Deductions),
				core.FormatRupiah(s.NetSalary),
			})
		}
		b.WriteString(RenderTable(st, headers, rows))
		fmt.Fprintf(&b, "\nTotal net: %s\n", st.Good.Render(core.FormatRupiah(r.Total)))
	} else {
		b.WriteString(st.Dim.Render("No slips.") + "\n")
	}

	if len(r.Failed) > 0 {
		b.WriteString("\n" + st.Bad.Render("No slip available for:") + "\n")
		for _, f := range r.Failed {
			fmt.Fprintf(&b, "  %s\n", f.UserName)
		}
	}
	return b.String()
}
