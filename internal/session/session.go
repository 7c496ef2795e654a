// Package session carries the admin's login state explicitly. Protected
// operations take a Session and reject the Unauthenticated one.
package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUnauthenticated    = errors.New("login required")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrSessionNotFound    = errors.New("session not found")
)

// Session is an authenticated admin session. The zero value is the
// unauthenticated session.
type Session struct {
	ID        string
	Username  string
	CreatedAt time.Time
}

func Unauthenticated() Session { return Session{} }

func (s Session) IsAuthenticated() bool { return s.ID != "" && s.Username != "" }

// Require returns ErrUnauthenticated unless s is authenticated.
func (s Session) Require() error {
	if !s.IsAuthenticated() {
		return ErrUnauthenticated
	}
	return nil
}

// Actor names the session owner for audit records.
func (s Session) Actor() string {
	if !s.IsAuthenticated() {
		return "anonymous"
	}
	return s.Username
}

// Store persists sessions until logout.
type Store interface {
	SaveSession(ctx context.Context, s Session) error
	// GetSession returns ErrSessionNotFound for unknown ids.
	GetSession(ctx context.Context, id string) (Session, error)
	DeleteSession(ctx context.Context, id string) error
}

// Authenticator checks the single admin credential pair.
type Authenticator struct {
	username string
	password string
	store    Store
	now      func() time.Time
}

func NewAuthenticator(username, password string, store Store) *Authenticator {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Authenticator{username: username, password: password, store: store, now: time.Now}
}

// Login validates the credentials and opens a new session.
func (a *Authenticator) Login(ctx context.Context, username, password string) (Session, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) == 1
	if !userOK || !passOK {
		return Unauthenticated(), ErrInvalidCredentials
	}
	s := Session{ID: uuid.NewString(), Username: username, CreatedAt: a.now().UTC()}
	if err := a.store.SaveSession(ctx, s); err != nil {
		return Unauthenticated(), fmt.Errorf("save session: %w", err)
	}
	return s, nil
}

// Logout ends the session. Unknown ids are not an error.
func (a *Authenticator) Logout(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := a.store.DeleteSession(ctx, id); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Resolve returns the stored session for id, or Unauthenticated.
func (a *Authenticator) Resolve(ctx context.Context, id string) (Session, error) {
	if id == "" {
		return Unauthenticated(), nil
	}
	s, err := a.store.GetSession(ctx, id)
	if errors.Is(err, ErrSessionNotFound) {
		return Unauthenticated(), nil
	}
	if err != nil {
		return Unauthenticated(), fmt.Errorf("load session: %w", err)
	}
	return s, nil
}

type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: map[string]Session{}}
}

func (m *MemoryStore) SaveSession(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *MemoryStore) GetSession(_ context.Context, id string) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return s, nil
}

func (m *MemoryStore) DeleteSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}
