// Package memory is an in-process attendance record store seeded from JSON
// files. It follows the remote store's rules: working days are Monday to
// Friday, a day is alpha until a clock-in marks it attend, and admin
// overrides win over both.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"pamadmin/internal/core"
	"pamadmin/internal/records"
)

type (
	userRow struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		Phone     string `json:"phone"`
		Password  string `json:"password"`
		FaceImage string `json:"faceImage"`
	}

	clockEvent struct {
		Name       string  `json:"name"`
		Timestamp  string  `json:"timestamp"`
		Type       string  `json:"type"`
		Confidence float64 `json:"confidence,omitempty"`
	}

	overrideRow struct {
		UserID string      `json:"userId"`
		Date   string      `json:"date"`
		Status core.Status `json:"status"`
		Reason string      `json:"reason"`
	}

	salaryRow struct {
		UserID      string          `json:"userId"`
		Month       string          `json:"month"`
		BasicSalary decimal.Decimal `json:"basicSalary"`
		Allowances  decimal.Decimal `json:"allowances"`
		Deductions  decimal.Decimal `json:"deductions"`
		NetSalary   decimal.Decimal `json:"netSalary"`
	}

	overrideKey struct {
		userID string
		date   core.WorkingDay
	}
)

type Store struct {
	mu        sync.Mutex
	users     []userRow
	clocks    []clockEvent
	overrides map[overrideKey]overrideRow
	salaries  []salaryRow
	now       func() time.Time
}

var _ records.Store = (*Store)(nil)

// New returns an empty store. A nil clock uses time.Now.
func New(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{overrides: map[overrideKey]overrideRow{}, now: now}
}

// NewFromFiles seeds a store from users.json, attendance.json,
// attendance_statuses.json and salaries.json under base. Missing files are
// skipped; when no users are found a small default roster is used.
func NewFromFiles(base string, now func() time.Time) (*Store, error) {
	s := New(now)
	if err := readJSON(filepath.Join(base, "users.json"), &s.users); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(base, "attendance.json"), &s.clocks); err != nil {
		return nil, err
	}
	var overrides []overrideRow
	if err := readJSON(filepath.Join(base, "attendance_statuses.json"), &overrides); err != nil {
		return nil, err
	}
	for _, o := range overrides {
		s.overrides[overrideKey{o.UserID, core.WorkingDay(o.Date)}] = o
	}
	if err := readJSON(filepath.Join(base, "salaries.json"), &s.salaries); err != nil {
		return nil, err
	}
	if len(s.users) == 0 {
		s.users = defaultUsers()
	}
	return s, nil
}

func defaultUsers() []userRow {
	return []userRow{
		{ID: "1", Name: "Ani Lestari", Phone: "081200000001", Password: "ani123", FaceImage: core.DefaultFaceImage},
		{ID: "2", Name: "Budi Santoso", Phone: "081200000002", Password: "budi123", FaceImage: core.DefaultFaceImage},
		{ID: "3", Name: "Citra Dewi", Phone: "081200000003", Password: "citra123", FaceImage: core.DefaultFaceImage},
	}
}

// SeedClockIn records a device clock event for the named user.
func (s *Store) SeedClockIn(name string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clocks = append(s.clocks, clockEvent{Name: name, Timestamp: at.Format(time.RFC3339), Type: core.ClockIn})
}

// SeedClockOut records a device clock-out for the named user.
func (s *Store) SeedClockOut(name string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clocks = append(s.clocks, clockEvent{Name: name, Timestamp: at.Format(time.RFC3339), Type: core.ClockOut})
}

// SeedSalary records a salary slip with net = basic + allowances - deductions.
func (s *Store) SeedSalary(userID string, m core.Month, basic, allowances, deductions decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.salaries = append(s.salaries, salaryRow{
		UserID: userID, Month: m.String(),
		BasicSalary: basic, Allowances: allowances, Deductions: deductions,
		NetSalary: basic.Add(allowances).Sub(deductions),
	})
}

func (s *Store) ListUsers(_ context.Context) ([]core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	today := core.NewWorkingDay(s.now())
	out := make([]core.User, 0, len(s.users))
	for _, u := range s.users {
		cu := u.toCore()
		cu.TodayStatus = s.statusLocked(u, today).Status
		out = append(out, cu)
	}
	return out, nil
}

func (s *Store) GetUser(_ context.Context, id string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return core.User{}, &core.NotFoundError{Kind: "user", ID: id}
	}
	u := s.users[i].toCore()
	u.TodayStatus = s.statusLocked(s.users[i], core.NewWorkingDay(s.now())).Status
	return u, nil
}

func (s *Store) CreateUser(_ context.Context, nu core.NewUser) (core.User, error) {
	if err := nu.Validate(); err != nil {
		return core.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	maxID := 0
	for _, u := range s.users {
		if n, err := strconv.Atoi(u.ID); err == nil && n > maxID {
			maxID = n
		}
	}
	row := userRow{
		ID:        strconv.Itoa(maxID + 1),
		Name:      strings.TrimSpace(nu.Name),
		Phone:     strings.TrimSpace(nu.Phone),
		Password:  nu.Password,
		FaceImage: nu.FaceImage,
	}
	if row.FaceImage == "" {
		row.FaceImage = core.DefaultFaceImage
	}
	s.users = append(s.users, row)
	u := row.toCore()
	u.TodayStatus = core.StatusAlpha
	return u, nil
}

func (s *Store) UpdateUser(_ context.Context, id string, upd core.UserUpdate) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return core.User{}, &core.NotFoundError{Kind: "user", ID: id}
	}
	row := &s.users[i]
	if upd.Name != "" {
		row.Name = upd.Name
	}
	if upd.Phone != "" {
		row.Phone = upd.Phone
	}
	if upd.Password != "" {
		row.Password = upd.Password
	}
	if upd.FaceImage != "" {
		row.FaceImage = upd.FaceImage
	}
	u := row.toCore()
	u.TodayStatus = s.statusLocked(*row, core.NewWorkingDay(s.now())).Status
	return u, nil
}

func (s *Store) MonthStatus(_ context.Context, m core.Month) (core.MonthStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wd := m.WorkingDays()
	ms := core.MonthStatus{Month: m, WorkingDays: wd, Records: make([]core.UserMonthRecord, 0, len(s.users))}
	for _, u := range s.users {
		days := make(core.UserDayMap, len(wd))
		for _, d := range wd {
			days[d] = s.statusLocked(u, d)
		}
		ms.Records = append(ms.Records, core.UserMonthRecord{UserID: u.ID, UserName: u.Name, Days: days})
	}
	return ms, nil
}

func (s *Store) UpdateStatus(_ context.Context, c core.StatusChange) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if !isWorkingDay(c.Date) {
		return &core.NotFoundError{Kind: "working day", ID: string(c.Date)}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexLocked(c.UserID) < 0 {
		return &core.NotFoundError{Kind: "user", ID: c.UserID}
	}
	s.overrides[overrideKey{c.UserID, c.Date}] = overrideRow{
		UserID: c.UserID, Date: string(c.Date), Status: c.Status, Reason: c.Reason,
	}
	return nil
}

// ClockLog matches events to the user by name, as the devices only know
// names.
func (s *Store) ClockLog(_ context.Context, userID string) (core.ClockLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(userID)
	if i < 0 {
		return core.ClockLog{}, &core.NotFoundError{Msg: "User not found"}
	}
	u := s.users[i]
	out := core.ClockLog{UserID: u.ID, UserName: u.Name, Events: []core.ClockEvent{}}
	for _, ev := range s.clocks {
		if ev.Name != u.Name {
			continue
		}
		out.Events = append(out.Events, core.ClockEvent{
			Type:       ev.Type,
			At:         records.ParseTimestamp(ev.Timestamp),
			Confidence: ev.Confidence,
		})
	}
	return out, nil
}

func (s *Store) SalarySlip(_ context.Context, userID string, m core.Month) (core.SalarySlip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(userID)
	if i < 0 {
		return core.SalarySlip{}, &core.NotFoundError{Kind: "user", ID: userID}
	}
	key := m.String()
	for _, row := range s.salaries {
		if row.UserID == userID && row.Month == key {
			return core.SalarySlip{
				UserID:      userID,
				UserName:    s.users[i].Name,
				Month:       m,
				BasicSalary: row.BasicSalary,
				Allowances:  row.Allowances,
				Deductions:  row.Deductions,
				NetSalary:   row.NetSalary,
			}, nil
		}
	}
	return core.SalarySlip{}, &core.NotFoundError{Msg: "Salary slip not found for this month"}
}

// statusLocked resolves a day: override, else clock-in, else alpha.
func (s *Store) statusLocked(u userRow, day core.WorkingDay) core.DayStatus {
	if o, ok := s.overrides[overrideKey{u.ID, day}]; ok {
		return core.DayStatus{Status: o.Status, Reason: o.Reason}
	}
	var hits []clockEvent
	for _, ev := range s.clocks {
		if ev.Name == u.Name && strings.HasPrefix(ev.Timestamp, string(day)) {
			hits = append(hits, ev)
		}
	}
	if len(hits) == 0 {
		return core.DayStatus{Status: core.StatusAlpha}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Timestamp < hits[j].Timestamp })
	last := hits[len(hits)-1]
	return core.DayStatus{Status: core.StatusAttend, RecordedAt: records.ParseTimestamp(last.Timestamp), Type: last.Type}
}

func (s *Store) indexLocked(id string) int {
	for i, u := range s.users {
		if u.ID == id {
			return i
		}
	}
	return -1
}

func (u userRow) toCore() core.User {
	return core.User{ID: u.ID, Name: u.Name, Phone: u.Phone, FaceImage: u.FaceImage}
}

func isWorkingDay(d core.WorkingDay) bool {
	t := d.Time()
	if t.IsZero() {
		return false
	}
	wk := t.Weekday()
	return wk != time.Saturday && wk != time.Sunday
}

func readJSON(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
