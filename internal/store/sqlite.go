package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/rcliao/slowpost/internal/clock"
	"github.com/rcliao/slowpost/internal/model"
)

//go:embed migrations/*.sql
var migrations embed.FS

// timeLayout is fixed-width so stored instants sort lexicographically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const homeFlagKey = "home"

// SQLiteStore implements StateStore using SQLite.
type SQLiteStore struct {
	db    *sql.DB
	clock clock.Clock
}

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

// WithClock sets the clock used for bookkeeping timestamps.
func WithClock(c clock.Clock) Option {
	return func(s *SQLiteStore) { s.clock = c }
}

// NewSQLiteStore opens or creates a SQLite database at the given path and
// brings its schema up to date.
func NewSQLiteStore(ctx context.Context, dbPath string, opts ...Option) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{db: db, clock: clock.System{}}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return err
	}
	p, err := goose.NewProvider(goose.DialectSQLite3, s.db, fsys)
	if err != nil {
		return err
	}
	_, err = p.Up(ctx)
	return err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", s, err)
	}
	return t, nil
}

// HomeFlag reports whether the user is at home. The flag defaults to true
// and is persisted on first read.
func (s *SQLiteStore) HomeFlag(ctx context.Context) (bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM flags WHERE key = ?`, homeFlagKey).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		if err := s.SetHomeFlag(ctx, true); err != nil {
			return true, err
		}
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("read home flag: %w", err)
	}
	return v == "1", nil
}

func (s *SQLiteStore) SetHomeFlag(ctx context.Context, atHome bool) error {
	v := "0"
	if atHome {
		v = "1"
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO flags (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		homeFlagKey, v, formatTime(s.clock.Now()))
	if err != nil {
		return fmt.Errorf("write home flag: %w", err)
	}
	return nil
}

// UpsertNotification stores n as the single pending notification for its id,
// replacing and re-arming any previous one.
func (s *SQLiteStore) UpsertNotification(ctx context.Context, n model.Notification) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notifications (id, letter_id, title, body, fire_at, created_at, delivered_at)
		 VALUES (?, ?, ?, ?, ?, ?, NULL)
		 ON CONFLICT(id) DO UPDATE SET
			letter_id = excluded.letter_id,
			title = excluded.title,
			body = excluded.body,
			fire_at = excluded.fire_at,
			delivered_at = NULL`,
		n.ID, n.LetterID, n.Title, n.Body, formatTime(n.FireAt), formatTime(s.clock.Now()))
	if err != nil {
		return fmt.Errorf("upsert notification: %w", err)
	}
	return nil
}

// DeleteNotification removes a notification. Missing ids are not an error.
func (s *SQLiteStore) DeleteNotification(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	return nil
}

// DueNotifications returns undelivered notifications with fire_at <= now,
// earliest first.
func (s *SQLiteStore) DueNotifications(ctx context.Context, now time.Time, limit int) ([]model.Notification, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, letter_id, title, body, fire_at, delivered_at FROM notifications
		 WHERE delivered_at IS NULL AND fire_at <= ?
		 ORDER BY fire_at, id LIMIT ?`,
		formatTime(now), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNotifications(rows)
}

// PendingNotifications returns every undelivered notification, earliest first.
func (s *SQLiteStore) PendingNotifications(ctx context.Context) ([]model.Notification, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, letter_id, title, body, fire_at, delivered_at FROM notifications
		 WHERE delivered_at IS NULL ORDER BY fire_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNotifications(rows)
}

func (s *SQLiteStore) MarkDelivered(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET delivered_at = ? WHERE id = ? AND delivered_at IS NULL`,
		formatTime(at), id)
	if err != nil {
		return fmt.Errorf("mark delivered: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanNotifications(rows *sql.Rows) ([]model.Notification, error) {
	var out []model.Notification
	for rows.Next() {
		var n model.Notification
		var fireAt string
		var delivered sql.NullString
		if err := rows.Scan(&n.ID, &n.LetterID, &n.Title, &n.Body, &fireAt, &delivered); err != nil {
			return nil, err
		}
		t, err := parseTime(fireAt)
		if err != nil {
			return nil, fmt.Errorf("notification %s: %w", n.ID, err)
		}
		n.FireAt = t
		if delivered.Valid {
			d, err := parseTime(delivered.String)
			if err != nil {
				return nil, fmt.Errorf("notification %s: %w", n.ID, err)
			}
			n.DeliveredAt = &d
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
