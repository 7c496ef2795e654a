package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	"pamadmin/internal/core"
	"pamadmin/internal/log"
	"pamadmin/internal/records"
	"pamadmin/internal/session"
	"pamadmin/internal/storage"
)

// AuditReader reads the status change audit log.
type AuditReader interface {
	StatusChanges(ctx context.Context, userID string, m core.Month) ([]storage.StatusChange, error)
	RecentStatusChanges(ctx context.Context, limit int) ([]storage.StatusChange, error)
}

type AttendanceService struct {
	store  records.MonthStatusReader
	editor *StatusEditor
	audit  AuditReader
	logger *log.Logger
	group  singleflight.Group
}

// NewAttendanceService builds the service. audit may be nil, in which
// case history lookups return nothing.
func NewAttendanceService(store records.MonthStatusReader, editor *StatusEditor, audit AuditReader, logger *log.Logger) *AttendanceService {
	if logger == nil {
		logger = log.Discard()
	}
	return &AttendanceService{
		store:  store,
		editor: editor,
		audit:  audit,
		logger: logger.WithComponent(log.ComponentAttendance),
	}
}

// MonthReport fetches month m and summarises every user. Concurrent
// requests for the same month share one fetch; nothing is cached.
func (s *AttendanceService) MonthReport(ctx context.Context, sess session.Session, m core.Month) (core.MonthReport, error) {
	if err := sess.Require(); err != nil {
		return core.MonthReport{}, err
	}

	ch := s.group.DoChan(m.String(), func() (any, error) {
		return s.store.MonthStatus(context.WithoutCancel(ctx), m)
	})

	select {
	case <-ctx.Done():
		return core.MonthReport{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			s.logger.ErrorContext(ctx, "Failed to load month", log.FieldMonth, m.String(), log.FieldError, res.Err)
			return core.MonthReport{}, fmt.Errorf("load month %s: %w", m, res.Err)
		}
		s.logger.DebugContext(ctx, "Month loaded", log.FieldMonth, m.String(), "shared", res.Shared)
		return core.NewMonthReport(res.Val.(core.MonthStatus)), nil
	}
}

// OpenDetail returns a view of userID's month in the Viewing state.
func (s *AttendanceService) OpenDetail(ctx context.Context, sess session.Session, m core.Month, userID string) (*DetailView, error) {
	v := s.editor.NewView(sess, m)
	if err := v.Open(ctx, userID); err != nil {
		return nil, err
	}
	return v, nil
}

// History lists audited changes for userID in m, newest first.
func (s *AttendanceService) History(ctx context.Context, sess session.Session, userID string, m core.Month) ([]storage.StatusChange, error) {
	if err := sess.Require(); err != nil {
		return nil, err
	}
	if s.audit == nil {
		return nil, nil
	}
	return s.audit.StatusChanges(ctx, userID, m)
}

// RecentChanges lists the latest audited changes across users.
func (s *AttendanceService) RecentChanges(ctx context.Context, sess session.Session, limit int) ([]storage.StatusChange, error) {
	if err := sess.Require(); err != nil {
		return nil, err
	}
	if s.audit == nil {
		return nil, nil
	}
	return s.audit.RecentStatusChanges(ctx, limit)
}
