package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pamadmin/internal/core"
	"pamadmin/internal/session"
)

func TestDetailViewOpen(t *testing.T) {
	ed := NewStatusEditor(newStore(t, testNow), nil, nil, clockAt(testNow))
	v := ed.NewView(admin, nov2025)
	assert.Equal(t, ViewClosed, v.State())

	require.NoError(t, v.Open(context.Background(), "2"))
	assert.Equal(t, ViewViewing, v.State())
	assert.Equal(t, "Budi Santoso", v.UserName())
	assert.Len(t, v.WorkingDays(), 20)
	assert.Len(t, v.Summaries(), 3)

	sum := v.Summary()
	assert.Equal(t, 20, sum.Alpha)
	assert.Equal(t, 20, sum.Total)

	v.Close()
	assert.Equal(t, ViewClosed, v.State())
	assert.Empty(t, v.UserID())
}

func TestDetailViewOpenFailures(t *testing.T) {
	ctx := context.Background()
	ed := NewStatusEditor(newStore(t, testNow), nil, nil, clockAt(testNow))

	v := ed.NewView(admin, nov2025)
	err := v.Open(ctx, "99")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Equal(t, ViewClosed, v.State())

	v = ed.NewView(session.Unauthenticated(), nov2025)
	assert.ErrorIs(t, v.Open(ctx, "1"), session.ErrUnauthenticated)

	broken := &scriptedStore{Store: newStore(t, testNow), monthErr: &core.TransportError{Op: "month status"}}
	v = NewStatusEditor(broken, nil, nil, clockAt(testNow)).NewView(admin, nov2025)
	assert.ErrorIs(t, v.Open(ctx, "1"), core.ErrTransport)
	assert.Equal(t, ViewClosed, v.State())
}

func TestChangeStatusRefreshesSummaries(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	ed := NewStatusEditor(newStore(t, testNow), pub, nil, clockAt(testNow))

	hooked := 0
	ed.AfterChange(func() { hooked++ })

	v := ed.NewView(admin, nov2025)
	require.NoError(t, v.Open(ctx, "1"))
	before := v.Summary()

	require.NoError(t, v.ChangeStatus(ctx, "2025-11-05", core.StatusSick, "flu"))

	after := v.Summary()
	assert.Equal(t, before.Sick+1, after.Sick)
	assert.Equal(t, before.Alpha-1, after.Alpha)
	assert.Equal(t, before.Total, after.Total)
	assert.Equal(t, ViewViewing, v.State())
	assert.NoError(t, v.Err())

	day, ok := v.Day("2025-11-05")
	require.True(t, ok)
	assert.Equal(t, core.StatusSick, day.Status)
	assert.Equal(t, "flu", day.Reason)

	msgs := pub.published()
	require.Len(t, msgs, 1)
	assert.Equal(t, core.StatusAlpha, msgs[0].OldStatus)
	assert.Equal(t, core.StatusSick, msgs[0].NewStatus)
	assert.Equal(t, "admin", msgs[0].Actor)
	assert.Equal(t, 1, hooked)
}

func TestChangeStatusRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	ed := NewStatusEditor(newStore(t, testNow), pub, nil, clockAt(testNow))

	closed := ed.NewView(admin, nov2025)
	assert.ErrorIs(t, closed.ChangeStatus(ctx, "2025-11-05", core.StatusSick, ""), core.ErrValidation)

	v := ed.NewView(admin, nov2025)
	require.NoError(t, v.Open(ctx, "1"))
	before := v.Summary()

	// Saturday
	assert.ErrorIs(t, v.ChangeStatus(ctx, "2025-11-08", core.StatusSick, ""), core.ErrValidation)
	assert.ErrorIs(t, v.ChangeStatus(ctx, "2025-12-01", core.StatusSick, ""), core.ErrValidation)
	assert.ErrorIs(t, v.ChangeStatus(ctx, "2025-11-05", core.Status("late"), ""), core.ErrValidation)

	assert.Equal(t, before, v.Summary())
	assert.Equal(t, ViewViewing, v.State())
	assert.Empty(t, pub.published())
}

func TestChangeStatusRevertsOnFailure(t *testing.T) {
	ctx := context.Background()
	store := &scriptedStore{Store: newStore(t, testNow)}
	pub := &recordingPublisher{}
	ed := NewStatusEditor(store, pub, nil, clockAt(testNow))

	v := ed.NewView(admin, nov2025)
	require.NoError(t, v.Open(ctx, "3"))
	before := v.Summary()

	store.updateErr = &core.TransportError{Op: "update status", StatusCode: 503}
	err := v.ChangeStatus(ctx, "2025-11-06", core.StatusPermission, "")
	assert.ErrorIs(t, err, core.ErrTransport)

	assert.Equal(t, ViewViewing, v.State())
	assert.Equal(t, before, v.Summary())
	day, _ := v.Day("2025-11-06")
	assert.Equal(t, core.StatusAlpha, day.Status)
	assert.ErrorIs(t, v.Err(), core.ErrTransport)
	_, pending := v.Pending()
	assert.False(t, pending)
	assert.Empty(t, pub.published())
}

func TestChangeStatusPublishFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{err: errors.New("circuit breaker is open")}
	ed := NewStatusEditor(newStore(t, testNow), pub, nil, clockAt(testNow))

	v := ed.NewView(admin, nov2025)
	require.NoError(t, v.Open(ctx, "1"))
	require.NoError(t, v.ChangeStatus(ctx, "2025-11-03", core.StatusAttend, ""))
	assert.Equal(t, 1, v.Summary().Attend)
}

func TestChangeStatusRefreshFailureShowsAcknowledgedChange(t *testing.T) {
	ctx := context.Background()
	store := &scriptedStore{Store: newStore(t, testNow)}
	ed := NewStatusEditor(store, nil, nil, clockAt(testNow))

	v := ed.NewView(admin, nov2025)
	require.NoError(t, v.Open(ctx, "1"))

	store.monthErr = &core.TransportError{Op: "month status"}
	err := v.ChangeStatus(ctx, "2025-11-03", core.StatusSick, "")
	assert.ErrorIs(t, err, core.ErrTransport)
	assert.ErrorIs(t, err, ErrStaleView)
	assert.Equal(t, ViewViewing, v.State())
	assert.Equal(t, 1, v.Summary().Sick)
	day, _ := v.Day("2025-11-03")
	assert.Equal(t, core.StatusSick, day.Status)
}

func TestChangeStatusLeavesViewUntouchedUntilAcknowledged(t *testing.T) {
	ctx := context.Background()
	store := &blockingUpdater{
		Store:   newStore(t, testNow),
		started: make(chan struct{}),
		release: make(chan struct{}),
		err:     &core.TransportError{Op: "update status", StatusCode: 502},
	}
	ed := NewStatusEditor(store, nil, nil, clockAt(testNow))

	v := ed.NewView(admin, nov2025)
	require.NoError(t, v.Open(ctx, "3"))
	beforeSummary, beforeAll := v.Summary(), v.Summaries()
	beforeDay, _ := v.Day("2025-11-06")

	done := make(chan error, 1)
	go func() { done <- v.ChangeStatus(ctx, "2025-11-06", core.StatusSick, "") }()
	<-store.started

	assert.Equal(t, ViewSubmitting, v.State())
	assert.Equal(t, beforeSummary, v.Summary())
	assert.Equal(t, beforeAll, v.Summaries())
	duringDay, _ := v.Day("2025-11-06")
	assert.Equal(t, beforeDay, duringDay)

	close(store.release)
	assert.ErrorIs(t, <-done, core.ErrTransport)
	assert.Equal(t, beforeSummary, v.Summary())
	assert.Equal(t, beforeAll, v.Summaries())
	assert.Equal(t, 0, v.Summary().Sick)
}

func TestChangeStatusPermissionToAttend(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, testNow)
	require.NoError(t, store.UpdateStatus(ctx, core.StatusChange{UserID: "3", Date: "2025-11-19", Status: core.StatusPermission, Reason: "family"}))
	ed := NewStatusEditor(store, nil, nil, clockAt(testNow))

	v := ed.NewView(admin, nov2025)
	require.NoError(t, v.Open(ctx, "3"))
	before := v.Summary()
	require.Equal(t, 1, before.Permission)

	require.NoError(t, v.ChangeStatus(ctx, "2025-11-19", core.StatusAttend, ""))

	after := v.Summary()
	assert.Equal(t, before.Permission-1, after.Permission)
	assert.Equal(t, before.Attend+1, after.Attend)
	assert.Equal(t, before.Alpha, after.Alpha)
	assert.Equal(t, before.Sick, after.Sick)
	assert.Equal(t, before.Total, after.Total)

	for _, s := range v.Summaries() {
		if s.UserID == "3" {
			assert.Equal(t, after, s)
		}
	}
}

func TestInflightGuard(t *testing.T) {
	ctx := context.Background()
	store := &blockingUpdater{Store: newStore(t, testNow), started: make(chan struct{}), release: make(chan struct{})}
	ed := NewStatusEditor(store, nil, nil, clockAt(testNow))

	v := ed.NewView(admin, nov2025)
	require.NoError(t, v.Open(ctx, "2"))

	done := make(chan error, 1)
	go func() { done <- v.ChangeStatus(ctx, "2025-11-07", core.StatusSick, "") }()
	<-store.started

	assert.Equal(t, ViewSubmitting, v.State())
	pending, ok := v.Pending()
	require.True(t, ok)
	assert.Equal(t, core.StatusSick, pending.Status)
	day, _ := v.Day("2025-11-07")
	assert.Equal(t, core.StatusAlpha, day.Status, "store has not acknowledged yet")
	assert.Equal(t, 0, v.Summary().Sick)

	assert.ErrorIs(t, v.ChangeStatus(ctx, "2025-11-10", core.StatusSick, ""), core.ErrMutationInFlight)

	other := ed.NewView(admin, nov2025)
	require.NoError(t, other.Open(ctx, "2"))
	err := other.ChangeStatus(ctx, "2025-11-07", core.StatusPermission, "")
	assert.ErrorIs(t, err, core.ErrMutationInFlight)
	assert.Equal(t, ViewViewing, other.State())

	close(store.release)
	require.NoError(t, <-done)
	assert.Equal(t, ViewViewing, v.State())
	assert.Equal(t, 1, v.Summary().Sick)
}

func TestApplyRequiresSession(t *testing.T) {
	ed := NewStatusEditor(newStore(t, testNow), nil, nil, clockAt(testNow))
	err := ed.Apply(context.Background(), session.Unauthenticated(),
		core.StatusChange{UserID: "1", Date: "2025-11-03", Status: core.StatusSick}, core.StatusAlpha)
	assert.ErrorIs(t, err, session.ErrUnauthenticated)
}
