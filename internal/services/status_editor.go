package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"pamadmin/internal/amqp"
	"pamadmin/internal/core"
	"pamadmin/internal/log"
	"pamadmin/internal/records"
	"pamadmin/internal/session"
)

// ErrStaleView is returned by DetailView.ChangeStatus when the change was
// committed but the view could not be refreshed afterwards.
var ErrStaleView = errors.New("status saved but refresh failed")

// StatusStore is what the edit flow needs from the record store.
type StatusStore interface {
	records.MonthStatusReader
	records.StatusUpdater
}

// StatusEditor applies day status changes. It is shared by all views and
// guarantees at most one unsettled mutation per (user, date).
type StatusEditor struct {
	store     StatusStore
	publisher EventPublisher
	guard     *inflight
	clock     func() time.Time
	logger    *log.Logger

	hmu   sync.Mutex
	hooks []func()
}

func NewStatusEditor(store StatusStore, publisher EventPublisher, logger *log.Logger, clock func() time.Time) *StatusEditor {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	if logger == nil {
		logger = log.Discard()
	}
	if clock == nil {
		clock = time.Now
	}
	return &StatusEditor{
		store:     store,
		publisher: publisher,
		guard:     newInflight(),
		clock:     clock,
		logger:    logger.WithComponent(log.ComponentAttendance),
	}
}

// AfterChange registers fn to run after every committed change.
func (e *StatusEditor) AfterChange(fn func()) {
	e.hmu.Lock()
	e.hooks = append(e.hooks, fn)
	e.hmu.Unlock()
}

// Now is the editor's clock.
func (e *StatusEditor) Now() time.Time { return e.clock() }

// Apply commits c and publishes a StatusChanged event carrying old as the
// previous status. A concurrent Apply for the same user and date fails
// with core.ErrMutationInFlight.
func (e *StatusEditor) Apply(ctx context.Context, sess session.Session, c core.StatusChange, old core.Status) error {
	if err := sess.Require(); err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}

	key := c.UserID + "|" + string(c.Date)
	if !e.guard.acquire(key) {
		return core.ErrMutationInFlight
	}
	defer e.guard.release(key)

	if err := e.store.UpdateStatus(ctx, c); err != nil {
		e.logger.WarnContext(ctx, "Status change rejected",
			log.FieldUserID, c.UserID,
			log.FieldDate, c.Date,
			log.FieldStatus, c.Status,
			log.FieldError, err)
		return fmt.Errorf("update status: %w", err)
	}

	log.NewStructuredLogger(e.logger).LogStatusChanged(ctx, sess.Actor(), c.UserID, string(c.Date), string(old), string(c.Status))

	msg := amqp.NewStatusChangedMessage(c, old, sess.Actor(), e.clock())
	if err := e.publisher.PublishStatusChanged(ctx, msg); err != nil {
		e.logger.ErrorContext(ctx, "Failed to publish status change",
			"event_id", msg.EventID,
			log.FieldUserID, c.UserID,
			log.FieldError, err)
	}

	e.hmu.Lock()
	hooks := append([]func(){}, e.hooks...)
	e.hmu.Unlock()
	for _, fn := range hooks {
		fn()
	}
	return nil
}

// NewView returns a closed detail view of month m.
func (e *StatusEditor) NewView(sess session.Session, m core.Month) *DetailView {
	return &DetailView{editor: e, sess: sess, month: m}
}

// ViewState is the state of a DetailView.
type ViewState int

const (
	ViewClosed ViewState = iota
	ViewViewing
	ViewSubmitting
)

func (s ViewState) String() string {
	switch s {
	case ViewViewing:
		return "viewing"
	case ViewSubmitting:
		return "submitting"
	}
	return "closed"
}

// DetailView is one admin's view of one user's month. It moves
// Closed -> Viewing -> Submitting -> Viewing; a failed submission
// keeps what was shown before it and records the error.
type DetailView struct {
	editor *StatusEditor
	sess   session.Session
	month  core.Month

	mu          sync.Mutex
	state       ViewState
	record      core.UserMonthRecord
	workingDays []core.WorkingDay
	summaries   []core.UserMonthSummary
	pending     *core.StatusChange
	err         error
}

// Open loads the month and shows userID. On failure the view stays closed.
func (v *DetailView) Open(ctx context.Context, userID string) error {
	if err := v.sess.Require(); err != nil {
		return err
	}

	ms, err := v.editor.store.MonthStatus(ctx, v.month)
	if err != nil {
		return fmt.Errorf("load month %s: %w", v.month, err)
	}
	rec, ok := ms.Record(userID)
	if !ok {
		return &core.NotFoundError{Kind: "user", ID: userID}
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = ViewViewing
	v.record = rec
	v.workingDays = ms.WorkingDays
	v.summaries = core.SummarizeMonth(ms)
	v.pending = nil
	v.err = nil
	return nil
}

// ChangeStatus sets the viewed user's status on date. While the store
// call is in flight only the pending change is recorded; the day map and
// the month summaries are replaced from a single refetch once the store
// accepts the change. A failed call leaves them as they were.
func (v *DetailView) ChangeStatus(ctx context.Context, date core.WorkingDay, status core.Status, reason string) error {
	v.mu.Lock()
	switch v.state {
	case ViewClosed:
		v.mu.Unlock()
		return &core.ValidationError{Field: "user", Msg: "no user selected"}
	case ViewSubmitting:
		v.mu.Unlock()
		return core.ErrMutationInFlight
	}
	if !status.Valid() {
		v.mu.Unlock()
		return &core.ValidationError{Field: "status", Msg: "unknown status " + string(status)}
	}
	if !containsDay(v.workingDays, date) {
		v.mu.Unlock()
		return &core.ValidationError{Field: "date", Msg: string(date) + " is not a working day of " + v.month.String()}
	}

	change := core.StatusChange{UserID: v.record.UserID, Date: date, Status: status, Reason: reason}
	old := v.record.Days[date].Status

	v.state = ViewSubmitting
	v.pending = &change
	v.err = nil
	v.mu.Unlock()

	if err := v.editor.Apply(ctx, v.sess, change, old); err != nil {
		v.mu.Lock()
		v.state, v.pending, v.err = ViewViewing, nil, err
		v.mu.Unlock()
		return err
	}

	ms, ferr := v.editor.store.MonthStatus(ctx, v.month)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.state, v.pending = ViewViewing, nil
	if ferr != nil {
		// The store acknowledged the change; show it even without a refresh.
		v.record.Days = withDay(v.record.Days, date, core.DayStatus{Status: status, Reason: reason})
		v.summaries = replaceSummary(v.summaries,
			core.Summarize(v.record.UserID, v.record.UserName, v.workingDays, v.record.Days))
		v.err = fmt.Errorf("%w: %w", ErrStaleView, ferr)
		return v.err
	}
	if rec, ok := ms.Record(v.record.UserID); ok {
		v.record = rec
	}
	v.workingDays = ms.WorkingDays
	v.summaries = core.SummarizeMonth(ms)
	return nil
}

// Close discards the view's data.
func (v *DetailView) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = ViewClosed
	v.record = core.UserMonthRecord{}
	v.workingDays, v.summaries, v.pending, v.err = nil, nil, nil, nil
}

func (v *DetailView) State() ViewState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

func (v *DetailView) Month() core.Month { return v.month }

func (v *DetailView) UserID() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.record.UserID
}

func (v *DetailView) UserName() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.record.UserName
}

func (v *DetailView) WorkingDays() []core.WorkingDay {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]core.WorkingDay(nil), v.workingDays...)
}

// Day returns the status shown for date.
func (v *DetailView) Day(date core.WorkingDay) (core.DayStatus, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	d, ok := v.record.Days[date]
	return d, ok
}

// Summary is the viewed user's summary.
func (v *DetailView) Summary() core.UserMonthSummary {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, s := range v.summaries {
		if s.UserID == v.record.UserID {
			return s
		}
	}
	return core.UserMonthSummary{UserID: v.record.UserID, UserName: v.record.UserName}
}

// Summaries covers every user of the month.
func (v *DetailView) Summaries() []core.UserMonthSummary {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]core.UserMonthSummary(nil), v.summaries...)
}

func (v *DetailView) Pending() (core.StatusChange, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.pending == nil {
		return core.StatusChange{}, false
	}
	return *v.pending, true
}

// Err is the last submission error, cleared by the next submission.
func (v *DetailView) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

func containsDay(days []core.WorkingDay, d core.WorkingDay) bool {
	for _, wd := range days {
		if wd == d {
			return true
		}
	}
	return false
}

// withDay copies m with date set to ds.
func withDay(m core.UserDayMap, date core.WorkingDay, ds core.DayStatus) core.UserDayMap {
	out := make(core.UserDayMap, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out[date] = ds
	return out
}

func replaceSummary(all []core.UserMonthSummary, s core.UserMonthSummary) []core.UserMonthSummary {
	out := make([]core.UserMonthSummary, len(all))
	copy(out, all)
	for i := range out {
		if out[i].UserID == s.UserID {
			out[i] = s
			return out
		}
	}
	return append(out, s)
}
