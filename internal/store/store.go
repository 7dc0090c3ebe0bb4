// Package store provides durable storage: letters as one JSON file per id,
// and a small SQLite database for the home flag and pending notifications.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/rcliao/slowpost/internal/model"
)

var (
	// ErrNotFound is returned when no letter exists for an id.
	ErrNotFound = errors.New("letter not found")
	// ErrInvalidID is returned for ids that cannot be used as a record name.
	ErrInvalidID = errors.New("invalid letter id")
	// ErrCorrupt is returned by Get for a record that cannot be decoded.
	ErrCorrupt = errors.New("unreadable letter record")
)

// LetterStore defines durable letter storage keyed by id.
type LetterStore interface {
	// Save writes l, replacing any previous record with the same id.
	// Readers see either the old or the new record, never a partial one.
	Save(ctx context.Context, l *model.Letter) error

	// LoadAll returns every readable letter, newest first. Unreadable
	// records are skipped.
	LoadAll(ctx context.Context) ([]model.Letter, error)

	// Get returns the letter with the given id, ErrNotFound, or ErrCorrupt
	// for a record LoadAll would skip.
	Get(ctx context.Context, id string) (*model.Letter, error)

	// MarkOpened records the first open of a letter. Unknown ids and
	// already-opened letters are left unchanged.
	MarkOpened(ctx context.Context, id string, at time.Time) error
}

// StateStore defines the home flag and the notification outbox.
type StateStore interface {
	HomeFlag(ctx context.Context) (bool, error)
	SetHomeFlag(ctx context.Context, atHome bool) error

	UpsertNotification(ctx context.Context, n model.Notification) error
	DeleteNotification(ctx context.Context, id string) error
	DueNotifications(ctx context.Context, now time.Time, limit int) ([]model.Notification, error)
	PendingNotifications(ctx context.Context) ([]model.Notification, error)
	MarkDelivered(ctx context.Context, id string, at time.Time) error

	Close() error
}
