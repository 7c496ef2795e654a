package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"pamadmin/internal/core"
	"pamadmin/internal/session"

	_ "modernc.org/sqlite"
)

// SQLiteRepository stores admin sessions and the status change audit log.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

var _ session.Store = (*SQLiteRepository)(nil)

// StatusChange is one audited day status mutation.
type StatusChange struct {
	EventID   string
	UserID    string
	Date      core.WorkingDay
	OldStatus core.Status
	NewStatus core.Status
	Reason    string
	Actor     string
	ChangedAt time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	schema, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Debug("Audit schema ready", "path", dbPath, "version", schema.Version)

	return &SQLiteRepository{db: db, queries: New(db)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// SaveSession implements session.Store
func (r *SQLiteRepository) SaveSession(ctx context.Context, s session.Session) error {
	err := r.queries.InsertSession(ctx, SessionRow{
		ID:        s.ID,
		Username:  s.Username,
		CreatedAt: formatTime(s.CreatedAt),
	})
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetSession implements session.Store
func (r *SQLiteRepository) GetSession(ctx context.Context, id string) (session.Session, error) {
	row, err := r.queries.GetSession(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return session.Session{}, session.ErrSessionNotFound
	}
	if err != nil {
		return session.Session{}, fmt.Errorf("get session: %w", err)
	}
	return session.Session{ID: row.ID, Username: row.Username, CreatedAt: parseTime(row.CreatedAt)}, nil
}

// DeleteSession implements session.Store
func (r *SQLiteRepository) DeleteSession(ctx context.Context, id string) error {
	if _, err := r.queries.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// RecordStatusChange appends c to the audit log. Replayed events with an
// already stored EventID are ignored.
func (r *SQLiteRepository) RecordStatusChange(ctx context.Context, c StatusChange) error {
	if c.EventID == "" {
		return fmt.Errorf("record status change: empty event id")
	}
	written, err := r.queries.InsertStatusChange(ctx, StatusChangeRow{
		EventID:   c.EventID,
		UserID:    c.UserID,
		Day:       string(c.Date),
		OldStatus: string(c.OldStatus),
		NewStatus: string(c.NewStatus),
		Reason:    c.Reason,
		Actor:     c.Actor,
		ChangedAt: formatTime(c.ChangedAt),
	})
	if err != nil {
		return fmt.Errorf("insert status change: %w", err)
	}

	slog.DebugContext(ctx, "Status change recorded",
		"event_id", c.EventID,
		"user_id", c.UserID,
		"date", c.Date,
		"duplicate", !written)
	return nil
}

// StatusChanges returns the audit entries for one user in month m, newest
// first.
func (r *SQLiteRepository) StatusChanges(ctx context.Context, userID string, m core.Month) ([]StatusChange, error) {
	rows, err := r.queries.ListStatusChangesByUserMonth(ctx, userID, m.String())
	if err != nil {
		return nil, fmt.Errorf("list status changes: %w", err)
	}
	return toStatusChanges(rows), nil
}

// RecentStatusChanges returns the latest limit entries across all users.
func (r *SQLiteRepository) RecentStatusChanges(ctx context.Context, limit int) ([]StatusChange, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.queries.ListRecentStatusChanges(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list recent status changes: %w", err)
	}
	return toStatusChanges(rows), nil
}

func toStatusChanges(rows []StatusChangeRow) []StatusChange {
	out := make([]StatusChange, 0, len(rows))
	for _, row := range rows {
		out = append(out, StatusChange{
			EventID:   row.EventID,
			UserID:    row.UserID,
			Date:      core.WorkingDay(row.Day),
			OldStatus: core.Status(row.OldStatus),
			NewStatus: core.Status(row.NewStatus),
			Reason:    row.Reason,
			Actor:     row.Actor,
			ChangedAt: parseTime(row.ChangedAt),
		})
	}
	return out
}
