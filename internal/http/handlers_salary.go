package http

import (
	"net/http"

	"pamadmin/internal/services"
)

type salaryPage struct {
	page
	Months monthNav
	Report services.PayrollReport
}

func (s *Server) handleSalaryPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cursor := ParseMonthCursor(r.URL.Query(), s.clock)

	rep, err := s.deps.Payroll.Slips(ctx, sessionFrom(ctx), cursor.Month())
	if err != nil {
		s.writeError(w, r, "salary slips", err)
		return
	}
	s.render(w, r, http.StatusOK, "salary.html", salaryPage{
		page:   newPage(ctx, "Salary "+cursor.Month().Label(), "salary"),
		Months: newMonthNav(cursor),
		Report: rep,
	})
}
