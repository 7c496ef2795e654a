package http

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"
	"time"

	"pamadmin/internal/core"
	"pamadmin/internal/log"
	"pamadmin/internal/report"
	"pamadmin/internal/services"
	"pamadmin/internal/storage"
)

const recentChangesLimit = 10

// monthNav drives the previous / next links; Next is hidden on the
// current month.
type monthNav struct {
	Month     core.Month
	Prev      core.Month
	Next      core.Month
	IsCurrent bool
}

func newMonthNav(c *core.MonthCursor) monthNav {
	return monthNav{Month: c.Month(), Prev: c.PreviousMonth(), Next: c.NextMonth(), IsCurrent: c.IsCurrent()}
}

type summaryTable struct {
	Month     core.Month
	Summaries []core.UserMonthSummary
	OOB       bool
}

type attendancePage struct {
	page
	Months        monthNav
	Summary       summaryTable
	WorkingDays   int
	SheetsEnabled bool
	Recent        []storage.StatusChange
}

type detailDay struct {
	Date       core.WorkingDay
	Status     core.Status
	Reason     string
	Type       string
	RecordedAt time.Time
}

type detailPanel struct {
	Month    core.Month
	UserID   string
	UserName string
	State    string
	Days     []detailDay
	Summary  core.UserMonthSummary
	History  []storage.StatusChange
	Error    string
}

func newDetailPanel(v *services.DetailView) detailPanel {
	p := detailPanel{
		Month:    v.Month(),
		UserID:   v.UserID(),
		UserName: v.UserName(),
		State:    v.State().String(),
		Summary:  v.Summary(),
	}
	for _, d := range v.WorkingDays() {
		ds, _ := v.Day(d)
		p.Days = append(p.Days, detailDay{Date: d, Status: ds.Status, Reason: ds.Reason, Type: ds.Type, RecordedAt: ds.RecordedAt})
	}
	if err := v.Err(); err != nil {
		p.Error = core.UserMessage(err)
	}
	return p
}

func (s *Server) handleAttendancePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := sessionFrom(ctx)
	cursor := ParseMonthCursor(r.URL.Query(), s.clock)

	rep, err := s.deps.Attendance.MonthReport(ctx, sess, cursor.Month())
	if err != nil {
		s.writeError(w, r, "month report", err)
		return
	}
	recent, err := s.deps.Attendance.RecentChanges(ctx, sess, recentChangesLimit)
	if err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Recent changes unavailable", log.FieldError, err)
	}

	s.render(w, r, http.StatusOK, "attendance.html", attendancePage{
		page:          newPage(ctx, "Attendance "+cursor.Month().Label(), "attendance"),
		Months:        newMonthNav(cursor),
		Summary:       summaryTable{Month: cursor.Month(), Summaries: rep.Summaries},
		WorkingDays:   len(rep.Status.WorkingDays),
		SheetsEnabled: s.deps.Sheets != nil,
		Recent:        recent,
	})
}

// handleDetail opens one user's month and renders the detail partial.
func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := sessionFrom(ctx)
	cursor := ParseMonthCursor(r.URL.Query(), s.clock)
	userID := r.PathValue("userID")

	view, err := s.deps.Attendance.OpenDetail(ctx, sess, cursor.Month(), userID)
	if err != nil {
		s.writeError(w, r, "open detail", err)
		return
	}
	panel := newDetailPanel(view)
	panel.History = s.history(r, userID, cursor.Month())
	s.render(w, r, http.StatusOK, "detail", panel)
}

// handleChangeStatus runs one edit on a fresh view of the user's month and
// answers with the detail partial plus the month summary swapped out of
// band. On failure the reverted view is rendered with the error.
func (s *Server) handleChangeStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := sessionFrom(ctx)
	userID := r.PathValue("userID")

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}
	month := p.Get("month")
	if month == "" {
		month = r.URL.Query().Get("month")
	}
	cursor := ParseMonthCursor(url.Values{"month": {month}}, s.clock)

	date, err := core.ParseWorkingDay(p.Get("date"))
	if err != nil {
		s.writeError(w, r, "change status", err)
		return
	}
	status, err := core.ParseStatus(p.Get("status"))
	if err != nil {
		s.writeError(w, r, "change status", err)
		return
	}

	view, err := s.deps.Attendance.OpenDetail(ctx, sess, cursor.Month(), userID)
	if err != nil {
		s.writeError(w, r, "open detail", err)
		return
	}

	resp := NewHTMXResponse()
	var notice string
	err = view.ChangeStatus(ctx, date, status, p.Get("reason"))
	switch {
	case err == nil:
		resp.TriggerStatusChanged(userID, date.String(), cursor.Month().String()).
			TriggerSuccessNotification(view.UserName() + ": " + date.Label() + " set to " + status.Label())
	case errors.Is(err, services.ErrStaleView):
		log.FromContext(ctx).WarnContext(ctx, "Status saved, view not refreshed", log.FieldUserID, userID, log.FieldError, err)
		resp.TriggerStatusChanged(userID, date.String(), cursor.Month().String()).
			TriggerNotification(NotificationWarning, "Saved, but the latest data could not be loaded.", 5000)
	default:
		if statusFor(err) == http.StatusUnauthorized {
			s.redirectToLogin(w, r)
			return
		}
		log.FromContext(ctx).WarnContext(ctx, "Status change failed",
			log.FieldUserID, userID, log.FieldDate, date, log.FieldStatus, status, log.FieldError, err)
		notice = core.UserMessage(err)
		resp.Status(statusFor(err)).TriggerErrorNotification(notice)
	}

	panel := newDetailPanel(view)
	if panel.Error == "" {
		panel.Error = notice
	}
	panel.History = s.history(r, userID, cursor.Month())
	s.renderFragments(ctx, resp, w,
		fragment{"detail", panel},
		fragment{"summary_table", summaryTable{Month: cursor.Month(), Summaries: view.Summaries(), OOB: true}},
	)
}

// history is best effort; the audit log never blocks the detail view.
func (s *Server) history(r *http.Request, userID string, m core.Month) []storage.StatusChange {
	ctx := r.Context()
	h, err := s.deps.Attendance.History(ctx, sessionFrom(ctx), userID, m)
	if err != nil {
		log.FromContext(ctx).WarnContext(ctx, "History unavailable", log.FieldUserID, userID, log.FieldError, err)
		return nil
	}
	return h
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cursor := ParseMonthCursor(r.URL.Query(), s.clock)

	rep, err := s.deps.Attendance.MonthReport(ctx, sessionFrom(ctx), cursor.Month())
	if err != nil {
		s.writeError(w, r, "export xlsx", err)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf, rep); err != nil {
		s.writeError(w, r, "export xlsx", err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.Filename(cursor.Month())+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleExportSheets(w http.ResponseWriter, r *http.Request) {
	if s.deps.Sheets == nil {
		NotFoundError("Google Sheets export is not configured.").Write(w)
		return
	}
	ctx := r.Context()
	cursor := ParseMonthCursor(r.URL.Query(), s.clock)

	rep, err := s.deps.Attendance.MonthReport(ctx, sessionFrom(ctx), cursor.Month())
	if err != nil {
		s.writeError(w, r, "export sheets", err)
		return
	}
	rng, err := s.deps.Sheets.Export(ctx, rep)
	if err != nil {
		s.writeError(w, r, "export sheets", err)
		return
	}
	log.FromContext(ctx).InfoContext(ctx, "Month exported to Google Sheets", log.FieldMonth, cursor.Month().String(), "range", rng)
	NewHTMXResponse().
		Status(http.StatusNoContent).
		TriggerSuccessNotification("Exported " + cursor.Month().Label() + " to " + rng).
		Write(w)
}
