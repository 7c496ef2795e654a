package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pamadmin/internal/amqp"
	"pamadmin/internal/core"
	"pamadmin/internal/records/memory"
	"pamadmin/internal/session"
)

var (
	nov2025 = core.Month{Year: 2025, Month: time.November}
	admin   = session.Session{ID: "s1", Username: "admin", CreatedAt: time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)}
	// Tuesday
	testNow = time.Date(2025, 11, 4, 9, 0, 0, 0, time.UTC)
)

func clockAt(t time.Time) func() time.Time { return func() time.Time { return t } }

func newStore(t *testing.T, now time.Time) *memory.Store {
	t.Helper()
	s, err := memory.NewFromFiles(t.TempDir(), clockAt(now))
	require.NoError(t, err)
	return s
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []*amqp.StatusChangedMessage
	err  error
}

func (p *recordingPublisher) PublishStatusChanged(_ context.Context, msg *amqp.StatusChangedMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

func (p *recordingPublisher) published() []*amqp.StatusChangedMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*amqp.StatusChangedMessage(nil), p.msgs...)
}

// scriptedStore wraps a memory store with failure and blocking hooks.
type scriptedStore struct {
	*memory.Store

	updateErr   error
	monthErr    error
	block       chan struct{}
	entered     chan struct{}
	monthCalls  atomic.Int32
	listCalls   atomic.Int32
	failSlipFor string
}

func (s *scriptedStore) MonthStatus(ctx context.Context, m core.Month) (core.MonthStatus, error) {
	s.monthCalls.Add(1)
	if s.entered != nil {
		s.entered <- struct{}{}
	}
	if s.block != nil {
		<-s.block
	}
	if s.monthErr != nil {
		return core.MonthStatus{}, s.monthErr
	}
	return s.Store.MonthStatus(ctx, m)
}

func (s *scriptedStore) UpdateStatus(ctx context.Context, c core.StatusChange) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	return s.Store.UpdateStatus(ctx, c)
}

func (s *scriptedStore) ListUsers(ctx context.Context) ([]core.User, error) {
	s.listCalls.Add(1)
	return s.Store.ListUsers(ctx)
}

func (s *scriptedStore) SalarySlip(ctx context.Context, userID string, m core.Month) (core.SalarySlip, error) {
	if userID == s.failSlipFor {
		return core.SalarySlip{}, &core.TransportError{Op: "salary slip", StatusCode: 500}
	}
	return s.Store.SalarySlip(ctx, userID, m)
}

// blockingUpdater parks UpdateStatus until release is closed, then fails
// with err when set.
type blockingUpdater struct {
	*memory.Store
	started chan struct{}
	release chan struct{}
	err     error
}

func (b *blockingUpdater) UpdateStatus(ctx context.Context, c core.StatusChange) error {
	b.started <- struct{}{}
	<-b.release
	if b.err != nil {
		return b.err
	}
	return b.Store.UpdateStatus(ctx, c)
}
