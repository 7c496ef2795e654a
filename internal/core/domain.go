package core

import (
	"strings"
	"time"
)

// DefaultFaceImage is assigned to users created without a photo.
const DefaultFaceImage = "/images/avatar-placeholder.png"

const dateLayout = "2006-01-02"

type (
	// WorkingDay is an ISO calendar date (YYYY-MM-DD) the attendance store
	// considers a working day for a given month.
	WorkingDay string

	DayStatus struct {
		Status     Status
		RecordedAt time.Time // zero when no clock event exists
		Type       string    // clock-in or clock-out, when recorded by a device
		Reason     string
	}

	// UserDayMap maps each working day of a month to the user's status.
	UserDayMap map[WorkingDay]DayStatus

	UserMonthRecord struct {
		UserID   string
		UserName string
		Days     UserDayMap
	}

	MonthStatus struct {
		Month       Month
		WorkingDays []WorkingDay
		Records     []UserMonthRecord
	}

	User struct {
		ID          string
		Name        string
		Phone       string
		FaceImage   string
		TodayStatus Status
	}

	NewUser struct {
		Name      string
		Phone     string
		Password  string
		FaceImage string
	}

	// UserUpdate holds optional changes; empty fields are left untouched.
	UserUpdate struct {
		Name      string
		Phone     string
		Password  string
		FaceImage string
	}

	StatusChange struct {
		UserID string
		Date   WorkingDay
		Status Status
		Reason string
	}

	// ClockEvent is one raw punch from an attendance device.
	ClockEvent struct {
		Type       string
		At         time.Time // zero when the device sent no timestamp
		Confidence float64   // face match score in [0,1]; 0 when unknown
	}

	// ClockLog is a user's punches in the order the store recorded them.
	ClockLog struct {
		UserID   string
		UserName string
		Events   []ClockEvent
	}
)

// Clock event types. Devices that omit the type are clocking in.
const (
	ClockIn  = "clock-in"
	ClockOut = "clock-out"
)

// Kind returns the event type, defaulting to ClockIn.
func (e ClockEvent) Kind() string {
	if e.Type == "" {
		return ClockIn
	}
	return e.Type
}

// HasConfidence reports whether the device scored the match.
func (e ClockEvent) HasConfidence() bool { return e.Confidence > 0 }

// NewWorkingDay formats t as a WorkingDay.
func NewWorkingDay(t time.Time) WorkingDay {
	return WorkingDay(t.Format(dateLayout))
}

// ParseWorkingDay validates an ISO date string.
func ParseWorkingDay(s string) (WorkingDay, error) {
	s = strings.TrimSpace(s)
	if _, err := time.Parse(dateLayout, s); err != nil {
		return "", &ValidationError{Field: "date", Msg: "must be YYYY-MM-DD"}
	}
	return WorkingDay(s), nil
}

func (d WorkingDay) String() string { return string(d) }

// Time returns the day at midnight UTC, or the zero time if d is malformed.
func (d WorkingDay) Time() time.Time {
	t, err := time.Parse(dateLayout, string(d))
	if err != nil {
		return time.Time{}
	}
	return t
}

// Label renders the day as "Mon 03".
func (d WorkingDay) Label() string {
	t := d.Time()
	if t.IsZero() {
		return string(d)
	}
	return t.Format("Mon 02")
}

// Contains reports whether day is one of the month's working days.
func (ms MonthStatus) Contains(day WorkingDay) bool {
	for _, wd := range ms.WorkingDays {
		if wd == day {
			return true
		}
	}
	return false
}

// Record returns the record for userID.
func (ms MonthStatus) Record(userID string) (UserMonthRecord, bool) {
	for _, r := range ms.Records {
		if r.UserID == userID {
			return r, true
		}
	}
	return UserMonthRecord{}, false
}

func (u NewUser) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return &ValidationError{Field: "name", Msg: "is required"}
	}
	if len(u.Name) > 100 {
		return &ValidationError{Field: "name", Msg: "too long (max 100 characters)"}
	}
	if strings.TrimSpace(u.Phone) == "" {
		return &ValidationError{Field: "phone", Msg: "is required"}
	}
	if strings.TrimSpace(u.Password) == "" {
		return &ValidationError{Field: "password", Msg: "is required"}
	}
	return nil
}

// IsEmpty reports whether the update changes nothing.
func (u UserUpdate) IsEmpty() bool {
	return u.Name == "" && u.Phone == "" && u.Password == "" && u.FaceImage == ""
}

func (c StatusChange) Validate() error {
	if strings.TrimSpace(c.UserID) == "" {
		return &ValidationError{Field: "userId", Msg: "is required"}
	}
	if _, err := ParseWorkingDay(string(c.Date)); err != nil {
		return err
	}
	if !c.Status.Valid() {
		return &ValidationError{Field: "status", Msg: "unknown status " + string(c.Status)}
	}
	return nil
}
