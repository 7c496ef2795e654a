package http

import (
	"net/http"
	"time"

	"pamadmin/internal/core"
)

type usersTable struct {
	Users      []core.User
	Today      core.WorkingDay
	WorkingDay bool
}

type usersPage struct {
	page
	Table usersTable
}

type clockLogPage struct {
	page
	Log core.ClockLog
}

func (s *Server) usersTable(r *http.Request) (usersTable, error) {
	users, err := s.deps.Users.List(r.Context(), sessionFrom(r.Context()))
	if err != nil {
		return usersTable{}, err
	}
	now := s.clock()
	wd := now.Weekday()
	return usersTable{
		Users:      users,
		Today:      core.NewWorkingDay(now),
		WorkingDay: wd != time.Saturday && wd != time.Sunday,
	}, nil
}

func (s *Server) handleUsersPage(w http.ResponseWriter, r *http.Request) {
	table, err := s.usersTable(r)
	if err != nil {
		s.writeError(w, r, "list users", err)
		return
	}
	s.render(w, r, http.StatusOK, "users.html", usersPage{
		page:  newPage(r.Context(), "Employees", "users"),
		Table: table,
	})
}

func (s *Server) handleClockLog(w http.ResponseWriter, r *http.Request) {
	cl, err := s.deps.Users.ClockLog(r.Context(), sessionFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, "clock log", err)
		return
	}
	s.render(w, r, http.StatusOK, "clock_log.html", clockLogPage{
		page: newPage(r.Context(), "Clock history", "users"),
		Log:  cl,
	})
}

func (s *Server) handleUsersTable(w http.ResponseWriter, r *http.Request) {
	s.writeUsersTable(w, r, NewHTMXResponse())
}

// writeUsersTable re-reads the employee list and sends the table partial
// with the triggers already set on resp.
func (s *Server) writeUsersTable(w http.ResponseWriter, r *http.Request, resp *HTMXResponseBuilder) {
	table, err := s.usersTable(r)
	if err != nil {
		s.writeError(w, r, "list users", err)
		return
	}
	s.renderFragments(r.Context(), resp, w, fragment{"users_table", table})
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	u, err := s.deps.Users.Create(r.Context(), sessionFrom(r.Context()), core.NewUser{
		Name:      p.Get("name"),
		Phone:     p.Get("phone"),
		Password:  p.GetRaw("password"),
		FaceImage: p.Get("faceImage"),
	})
	if err != nil {
		s.writeError(w, r, "create user", err)
		return
	}

	s.writeUsersTable(w, r, NewHTMXResponse().
		Status(http.StatusCreated).
		TriggerUsersChanged().
		TriggerFormReset().
		TriggerSuccessNotification("Added "+u.Name))
}

// handleUpdateUser edits a user's profile. A form carrying only a password
// is a password change.
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}
	id := r.PathValue("id")
	sess := sessionFrom(r.Context())
	upd := core.UserUpdate{
		Name:      p.Get("name"),
		Phone:     p.Get("phone"),
		Password:  p.GetRaw("password"),
		FaceImage: p.Get("faceImage"),
	}

	notice := "Saved changes"
	var err error
	if upd.Name == "" && upd.Phone == "" && upd.FaceImage == "" && upd.Password != "" {
		err = s.deps.Users.ChangePassword(r.Context(), sess, id, upd.Password)
		notice = "Password changed"
	} else {
		var u core.User
		u, err = s.deps.Users.Update(r.Context(), sess, id, upd)
		notice = "Saved changes to " + u.Name
	}
	if err != nil {
		s.writeError(w, r, "update user", err)
		return
	}

	s.writeUsersTable(w, r, NewHTMXResponse().
		TriggerUsersChanged().
		TriggerSuccessNotification(notice))
}

func (s *Server) handleTodayStatus(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}
	id := r.PathValue("id")

	status, err := core.ParseStatus(p.Get("status"))
	if err != nil {
		s.writeError(w, r, "set today status", err)
		return
	}
	if err := s.deps.Users.SetTodayStatus(r.Context(), sessionFrom(r.Context()), id, status, p.Get("reason")); err != nil {
		s.writeError(w, r, "set today status", err)
		return
	}

	now := s.clock()
	s.writeUsersTable(w, r, NewHTMXResponse().
		TriggerStatusChanged(id, core.NewWorkingDay(now).String(), core.MonthOf(now).String()).
		TriggerSuccessNotification("Today's status set to "+status.Label()))
}
