package storage

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type SessionRow struct {
	ID        string
	Username  string
	CreatedAt string
}

type StatusChangeRow struct {
	ID         int64
	EventID    string
	UserID     string
	Day        string
	OldStatus  string
	NewStatus  string
	Reason     string
	Actor      string
	ChangedAt  string
	RecordedAt string
}

const insertSession = `INSERT OR REPLACE INTO sessions (id, username, created_at) VALUES (?, ?, ?)`

func (q *Queries) InsertSession(ctx context.Context, arg SessionRow) error {
	_, err := q.db.ExecContext(ctx, insertSession, arg.ID, arg.Username, arg.CreatedAt)
	return err
}

const getSession = `SELECT id, username, created_at FROM sessions WHERE id = ?`

func (q *Queries) GetSession(ctx context.Context, id string) (SessionRow, error) {
	var r SessionRow
	err := q.db.QueryRowContext(ctx, getSession, id).Scan(&r.ID, &r.Username, &r.CreatedAt)
	return r, err
}

const deleteSession = `DELETE FROM sessions WHERE id = ?`

func (q *Queries) DeleteSession(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteSession, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const insertStatusChange = `INSERT OR IGNORE INTO status_changes
    (event_id, user_id, day, old_status, new_status, reason, actor, changed_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

// InsertStatusChange ignores duplicate event ids and reports whether a
// row was written.
func (q *Queries) InsertStatusChange(ctx context.Context, arg StatusChangeRow) (bool, error) {
	res, err := q.db.ExecContext(ctx, insertStatusChange,
		arg.EventID, arg.UserID, arg.Day, arg.OldStatus, arg.NewStatus, arg.Reason, arg.Actor, arg.ChangedAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

const listStatusChangesByUserMonth = `SELECT id, event_id, user_id, day, old_status, new_status, reason, actor, changed_at, recorded_at
FROM status_changes
WHERE user_id = ? AND day LIKE ?
ORDER BY changed_at DESC, id DESC`

func (q *Queries) ListStatusChangesByUserMonth(ctx context.Context, userID, monthPrefix string) ([]StatusChangeRow, error) {
	rows, err := q.db.QueryContext(ctx, listStatusChangesByUserMonth, userID, monthPrefix+"-%")
	if err != nil {
		return nil, err
	}
	return scanStatusChanges(rows)
}

const listRecentStatusChanges = `SELECT id, event_id, user_id, day, old_status, new_status, reason, actor, changed_at, recorded_at
FROM status_changes
ORDER BY changed_at DESC, id DESC
LIMIT ?`

func (q *Queries) ListRecentStatusChanges(ctx context.Context, limit int64) ([]StatusChangeRow, error) {
	rows, err := q.db.QueryContext(ctx, listRecentStatusChanges, limit)
	if err != nil {
		return nil, err
	}
	return scanStatusChanges(rows)
}

func scanStatusChanges(rows *sql.Rows) ([]StatusChangeRow, error) {
	defer rows.Close()
	var items []StatusChangeRow
	for rows.Next() {
		var r StatusChangeRow
		if err := rows.Scan(&r.ID, &r.EventID, &r.UserID, &r.Day, &r.OldStatus, &r.NewStatus,
			&r.Reason, &r.Actor, &r.ChangedAt, &r.RecordedAt); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Fixed-width UTC timestamps so that text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
