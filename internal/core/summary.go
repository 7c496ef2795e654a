package core

import "math"

// UserMonthSummary counts a user's statuses over a month's working days.
type UserMonthSummary struct {
	UserID     string
	UserName   string
	Attend     int
	Alpha      int
	Permission int
	Sick       int
	Total      int
}

// MonthReport is a fetched month together with its derived summaries.
type MonthReport struct {
	Status    MonthStatus
	Summaries []UserMonthSummary
}

// Summarize counts the statuses of dayMap over workingDays. Working days
// missing from dayMap are not counted; keys outside workingDays are ignored.
func Summarize(userID, userName string, workingDays []WorkingDay, dayMap UserDayMap) UserMonthSummary {
	s := UserMonthSummary{UserID: userID, UserName: userName}
	for _, day := range workingDays {
		ds, ok := dayMap[day]
		if !ok {
			continue
		}
		switch ds.Status {
		case StatusAttend:
			s.Attend++
		case StatusAlpha:
			s.Alpha++
		case StatusPermission:
			s.Permission++
		case StatusSick:
			s.Sick++
		}
	}
	s.Total = s.Attend + s.Alpha + s.Permission + s.Sick
	return s
}

// SummarizeMonth summarizes every record of ms, in record order.
func SummarizeMonth(ms MonthStatus) []UserMonthSummary {
	out := make([]UserMonthSummary, 0, len(ms.Records))
	for _, r := range ms.Records {
		out = append(out, Summarize(r.UserID, r.UserName, ms.WorkingDays, r.Days))
	}
	return out
}

// NewMonthReport derives the summaries of ms.
func NewMonthReport(ms MonthStatus) MonthReport {
	return MonthReport{Status: ms, Summaries: SummarizeMonth(ms)}
}

// Count returns the counter for st.
func (s UserMonthSummary) Count(st Status) int {
	switch st {
	case StatusAttend:
		return s.Attend
	case StatusAlpha:
		return s.Alpha
	case StatusPermission:
		return s.Permission
	case StatusSick:
		return s.Sick
	}
	return 0
}

// Percentage is the share of attended days, rounded to one decimal.
func (s UserMonthSummary) Percentage() float64 {
	return AttendancePercentage(s.Attend, s.Total)
}

// AttendancePercentage returns attend/total*100 rounded to one decimal,
// or 0 when total is 0.
func AttendancePercentage(attend, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(attend)/float64(total)*1000) / 10
}

// Summary looks up the summary for userID.
func (r MonthReport) Summary(userID string) (UserMonthSummary, bool) {
	for _, s := range r.Summaries {
		if s.UserID == userID {
			return s, true
		}
	}
	return UserMonthSummary{}, false
}
