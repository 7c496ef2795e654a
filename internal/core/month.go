package core

import (
	"fmt"
	"strings"
	"time"
)

// Month identifies a calendar month. Month is 1-indexed (time.January == 1).
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses the YYYY-MM form.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return Month{}, &ValidationError{Field: "month", Msg: "must be YYYY-MM"}
	}
	return MonthOf(t), nil
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Label renders the month as "November 2025".
func (m Month) Label() string {
	return fmt.Sprintf("%s %d", m.Month, m.Year)
}

func (m Month) IsZero() bool { return m.Year == 0 && m.Month == 0 }

// Previous wraps January to December of the previous year.
func (m Month) Previous() Month {
	if m.Month == time.January {
		return Month{Year: m.Year - 1, Month: time.December}
	}
	return Month{Year: m.Year, Month: m.Month - 1}
}

// Following wraps December to January of the next year. It is unbounded;
// MonthCursor.Next applies the current-month limit.
func (m Month) Following() Month {
	if m.Month == time.December {
		return Month{Year: m.Year + 1, Month: time.January}
	}
	return Month{Year: m.Year, Month: m.Month + 1}
}

func (m Month) Before(o Month) bool {
	if m.Year != o.Year {
		return m.Year < o.Year
	}
	return m.Month < o.Month
}

// First returns midnight UTC of the first day of the month.
func (m Month) First() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// WorkingDays lists the Monday to Friday dates of the month in order.
func (m Month) WorkingDays() []WorkingDay {
	var days []WorkingDay
	for d := m.First(); d.Month() == m.Month; d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		days = append(days, NewWorkingDay(d))
	}
	return days
}

// MonthCursor is the month under review. It can move freely into the past
// but never beyond the month containing clock().
type MonthCursor struct {
	month Month
	clock func() time.Time
}

// NewMonthCursor positions a cursor on m, clamped to the current month.
// A zero m selects the current month. A nil clock uses time.Now.
func NewMonthCursor(m Month, clock func() time.Time) *MonthCursor {
	if clock == nil {
		clock = time.Now
	}
	c := &MonthCursor{month: m, clock: clock}
	cur := c.current()
	if m.IsZero() || cur.Before(m) {
		c.month = cur
	}
	return c
}

func (c *MonthCursor) current() Month { return MonthOf(c.clock()) }

// Month returns the month the cursor points at.
func (c *MonthCursor) Month() Month { return c.month }

func (c *MonthCursor) Previous() Month {
	c.month = c.month.Previous()
	return c.month
}

// Next advances one month unless the cursor already is on the current month.
func (c *MonthCursor) Next() Month {
	if c.IsCurrent() {
		return c.month
	}
	c.month = c.month.Following()
	return c.month
}

func (c *MonthCursor) IsCurrent() bool {
	return c.month == c.current()
}

// PreviousMonth and NextMonth peek without moving the cursor.
func (c *MonthCursor) PreviousMonth() Month { return c.month.Previous() }

func (c *MonthCursor) NextMonth() Month {
	if c.IsCurrent() {
		return c.month
	}
	return c.month.Following()
}
