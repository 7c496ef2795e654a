package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pamadmin/internal/cache"
	"pamadmin/internal/core"
	"pamadmin/internal/log"
	"pamadmin/internal/records"
	"pamadmin/internal/session"
)

const usersCacheKey = "users"

// UserStore is what user management needs from the record store.
type UserStore interface {
	records.UserLister
	records.UserReader
	records.UserWriter
	records.ClockLogReader
}

type UserService struct {
	store  UserStore
	editor *StatusEditor
	cache  cache.Cache[[]core.User]
	logger *log.Logger
}

// NewUserService caches the user list in c, which is cleared on every
// user or status mutation. A nil c gets a one-entry LRU with a 30s TTL.
func NewUserService(store UserStore, editor *StatusEditor, c cache.Cache[[]core.User], logger *log.Logger) *UserService {
	if c == nil {
		c = cache.NewLRUCache[[]core.User](1, 30*time.Second)
	}
	if logger == nil {
		logger = log.Discard()
	}
	s := &UserService{store: store, editor: editor, cache: c, logger: logger.WithComponent(log.ComponentUsers)}
	editor.AfterChange(s.Invalidate)
	return s
}

// Invalidate drops the cached user list.
func (s *UserService) Invalidate() { s.cache.Delete(usersCacheKey) }

func (s *UserService) List(ctx context.Context, sess session.Session) ([]core.User, error) {
	if err := sess.Require(); err != nil {
		return nil, err
	}
	if users, ok := s.cache.Get(usersCacheKey); ok {
		return append([]core.User(nil), users...), nil
	}

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	s.cache.Set(usersCacheKey, users)
	return append([]core.User(nil), users...), nil
}

func (s *UserService) Get(ctx context.Context, sess session.Session, id string) (core.User, error) {
	if err := sess.Require(); err != nil {
		return core.User{}, err
	}
	return s.store.GetUser(ctx, id)
}

// ClockLog returns the user's raw clock events in recorded order.
func (s *UserService) ClockLog(ctx context.Context, sess session.Session, id string) (core.ClockLog, error) {
	if err := sess.Require(); err != nil {
		return core.ClockLog{}, err
	}
	cl, err := s.store.ClockLog(ctx, id)
	if err != nil {
		return core.ClockLog{}, fmt.Errorf("clock log of user %s: %w", id, err)
	}
	return cl, nil
}

func (s *UserService) Create(ctx context.Context, sess session.Session, nu core.NewUser) (core.User, error) {
	if err := sess.Require(); err != nil {
		return core.User{}, err
	}
	nu.Name, nu.Phone = strings.TrimSpace(nu.Name), strings.TrimSpace(nu.Phone)
	if err := nu.Validate(); err != nil {
		return core.User{}, err
	}

	u, err := s.store.CreateUser(ctx, nu)
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	s.Invalidate()
	s.logger.InfoContext(ctx, "User created", log.FieldUserID, u.ID, log.FieldActor, sess.Actor())
	return u, nil
}

// Update applies the non-empty fields of upd.
func (s *UserService) Update(ctx context.Context, sess session.Session, id string, upd core.UserUpdate) (core.User, error) {
	if err := sess.Require(); err != nil {
		return core.User{}, err
	}
	upd.Name, upd.Phone = strings.TrimSpace(upd.Name), strings.TrimSpace(upd.Phone)
	if upd.IsEmpty() {
		return core.User{}, &core.ValidationError{Msg: "nothing to update"}
	}
	if len(upd.Name) > 100 {
		return core.User{}, &core.ValidationError{Field: "name", Msg: "too long (max 100 characters)"}
	}

	u, err := s.store.UpdateUser(ctx, id, upd)
	if err != nil {
		return core.User{}, fmt.Errorf("update user %s: %w", id, err)
	}
	s.Invalidate()
	s.logger.InfoContext(ctx, "User updated", log.FieldUserID, id, log.FieldActor, sess.Actor())
	return u, nil
}

func (s *UserService) ChangePassword(ctx context.Context, sess session.Session, id, password string) error {
	if strings.TrimSpace(password) == "" {
		return &core.ValidationError{Field: "password", Msg: "is required"}
	}
	_, err := s.Update(ctx, sess, id, core.UserUpdate{Password: password})
	return err
}

// SetTodayStatus changes id's status for today, which must be a working
// day.
func (s *UserService) SetTodayStatus(ctx context.Context, sess session.Session, id string, status core.Status, reason string) error {
	if err := sess.Require(); err != nil {
		return err
	}
	today := s.editor.Now()
	if wd := today.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return &core.ValidationError{Field: "date", Msg: "today is not a working day"}
	}

	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return err
	}
	return s.editor.Apply(ctx, sess, core.StatusChange{
		UserID: id,
		Date:   core.NewWorkingDay(today),
		Status: status,
		Reason: strings.TrimSpace(reason),
	}, u.TodayStatus)
}
