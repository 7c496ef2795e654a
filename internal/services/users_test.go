package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pamadmin/internal/core"
	"pamadmin/internal/session"
)

func newUserService(t *testing.T, now time.Time) (*UserService, *scriptedStore) {
	t.Helper()
	store := &scriptedStore{Store: newStore(t, now)}
	ed := NewStatusEditor(store, nil, nil, clockAt(now))
	return NewUserService(store, ed, nil, nil), store
}

func TestUserListIsCached(t *testing.T) {
	ctx := context.Background()
	svc, store := newUserService(t, testNow)

	_, err := svc.List(ctx, session.Unauthenticated())
	assert.ErrorIs(t, err, session.ErrUnauthenticated)

	users, err := svc.List(ctx, admin)
	require.NoError(t, err)
	require.Len(t, users, 3)
	users[0].Name = "mutated"

	again, err := svc.List(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, "Ani Lestari", again[0].Name)
	assert.Equal(t, int32(1), store.listCalls.Load())

	_, err = svc.Create(ctx, admin, core.NewUser{Name: " Dedi ", Phone: "0812", Password: "pw"})
	require.NoError(t, err)

	users, err = svc.List(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, users, 4)
	assert.Equal(t, "Dedi", users[3].Name)
	assert.Equal(t, core.DefaultFaceImage, users[3].FaceImage)
	assert.Equal(t, int32(2), store.listCalls.Load())
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newUserService(t, testNow)
	_, err := svc.Create(context.Background(), admin, core.NewUser{Name: "Eka", Phone: "  "})
	var ve *core.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "phone", ve.Field)
}

func TestUpdateAndPassword(t *testing.T) {
	ctx := context.Background()
	svc, _ := newUserService(t, testNow)

	_, err := svc.Update(ctx, admin, "1", core.UserUpdate{})
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = svc.Update(ctx, admin, "42", core.UserUpdate{Phone: "1"})
	assert.ErrorIs(t, err, core.ErrNotFound)

	u, err := svc.Update(ctx, admin, "2", core.UserUpdate{Phone: "0899"})
	require.NoError(t, err)
	assert.Equal(t, "0899", u.Phone)
	assert.Equal(t, "Budi Santoso", u.Name)

	assert.ErrorIs(t, svc.ChangePassword(ctx, admin, "2", " "), core.ErrValidation)
	assert.NoError(t, svc.ChangePassword(ctx, admin, "2", "s3cret"))
}

func TestSetTodayStatus(t *testing.T) {
	ctx := context.Background()
	svc, _ := newUserService(t, testNow)

	_, err := svc.List(ctx, admin)
	require.NoError(t, err)

	require.NoError(t, svc.SetTodayStatus(ctx, admin, "3", core.StatusPermission, "doctor"))

	users, err := svc.List(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, core.StatusPermission, users[2].TodayStatus, "cache dropped after status change")

	assert.ErrorIs(t, svc.SetTodayStatus(ctx, admin, "9", core.StatusSick, ""), core.ErrNotFound)
}

func TestSetTodayStatusOnWeekend(t *testing.T) {
	saturday := time.Date(2025, 11, 8, 10, 0, 0, 0, time.UTC)
	svc, _ := newUserService(t, saturday)
	err := svc.SetTodayStatus(context.Background(), admin, "1", core.StatusSick, "")
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestClockLog(t *testing.T) {
	ctx := context.Background()
	svc, store := newUserService(t, testNow)
	store.SeedClockIn("Ani Lestari", time.Date(2025, 11, 3, 8, 5, 0, 0, time.UTC))
	store.SeedClockOut("Ani Lestari", time.Date(2025, 11, 3, 17, 0, 0, 0, time.UTC))

	_, err := svc.ClockLog(ctx, session.Unauthenticated(), "1")
	assert.ErrorIs(t, err, session.ErrUnauthenticated)

	cl, err := svc.ClockLog(ctx, admin, "1")
	require.NoError(t, err)
	assert.Equal(t, "Ani Lestari", cl.UserName)
	require.Len(t, cl.Events, 2)
	assert.Equal(t, core.ClockIn, cl.Events[0].Kind())
	assert.Equal(t, core.ClockOut, cl.Events[1].Kind())

	_, err = svc.ClockLog(ctx, admin, "42")
	assert.ErrorIs(t, err, core.ErrNotFound)
}
