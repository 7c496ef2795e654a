package core

import "strings"

const (
	StatusAttend     Status = "attend"
	StatusAlpha      Status = "alpha"
	StatusPermission Status = "permission"
	StatusSick       Status = "sick"
)

// Status is a user's attendance classification for one working day.
// Alpha is an unexcused absence, permission an excused one.
type Status string

// Statuses lists every status in display order.
var Statuses = []Status{StatusAttend, StatusAlpha, StatusPermission, StatusSick}

func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", &ValidationError{Field: "status", Msg: "unknown status " + s}
	}
	return st, nil
}

func (s Status) Valid() bool {
	switch s {
	case StatusAttend, StatusAlpha, StatusPermission, StatusSick:
		return true
	}
	return false
}

func (s Status) String() string { return string(s) }

// Label is the human-readable name shown in reports.
func (s Status) Label() string {
	switch s {
	case StatusAttend:
		return "Present"
	case StatusAlpha:
		return "Absent"
	case StatusPermission:
		return "Permission"
	case StatusSick:
		return "Sick"
	}
	return "-"
}
