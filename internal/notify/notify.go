// Package notify schedules and delivers unlock reminders.
//
// Scheduling writes to an outbox table keyed by letter; a Dispatcher later
// polls the outbox and hands due rows to a Sink. There is at most one
// pending reminder per letter.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/rcliao/slowpost/internal/model"
)

// Scheduler registers and withdraws unlock reminders.
type Scheduler interface {
	// Schedule arranges a reminder for n.LetterID at n.FireAt, replacing
	// any previous one for the same letter.
	Schedule(ctx context.Context, n model.Notification) error
	// Cancel withdraws the reminder for a letter. Unknown letters are fine.
	Cancel(ctx context.Context, letterID string) error
}

// Store is the outbox persistence the package needs.
type Store interface {
	UpsertNotification(ctx context.Context, n model.Notification) error
	DeleteNotification(ctx context.Context, id string) error
	DueNotifications(ctx context.Context, now time.Time, limit int) ([]model.Notification, error)
	PendingNotifications(ctx context.Context) ([]model.Notification, error)
	MarkDelivered(ctx context.Context, id string, at time.Time) error
}

var errNoLetter = errors.New("notification has no letter id")

// Outbox is a Scheduler backed by a Store.
type Outbox struct {
	store Store
	title string
	body  string
}

// NewOutbox returns an outbox that fills in title and body when a scheduled
// notification leaves them empty.
func NewOutbox(store Store, title, body string) *Outbox {
	return &Outbox{store: store, title: title, body: body}
}

func (o *Outbox) Schedule(ctx context.Context, n model.Notification) error {
	if n.LetterID == "" {
		return errNoLetter
	}
	n.ID = model.NotificationID(n.LetterID)
	if n.Title == "" {
		n.Title = o.title
	}
	if n.Body == "" {
		n.Body = o.body
	}
	n.DeliveredAt = nil
	return o.store.UpsertNotification(ctx, n)
}

func (o *Outbox) Cancel(ctx context.Context, letterID string) error {
	return o.store.DeleteNotification(ctx, model.NotificationID(letterID))
}

// Pending lists reminders that have not been delivered yet.
func (o *Outbox) Pending(ctx context.Context) ([]model.Notification, error) {
	return o.store.PendingNotifications(ctx)
}

// Discard is a Scheduler that drops everything. It is used when reminders
// are turned off.
type Discard struct{}

func (Discard) Schedule(context.Context, model.Notification) error { return nil }
func (Discard) Cancel(context.Context, string) error { return nil }
