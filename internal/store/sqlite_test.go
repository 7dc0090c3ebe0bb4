package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rcliao/slowpost/internal/clock"
	"github.com/rcliao/slowpost/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	s, err := NewSQLiteStore(context.Background(), filepath.Join(dir, "state.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestHomeFlag_DefaultsToTrue(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	home, err := s.HomeFlag(ctx)
	if err != nil {
		t.Fatalf("home flag: %v", err)
	}
	if !home {
		t.Error("expected home flag to default to true")
	}
}

func TestHomeFlag_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	s, err := NewSQLiteStore(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.SetHomeFlag(ctx, false); err != nil {
		t.Fatalf("set: %v", err)
	}
	s.Close()

	s2, err := NewSQLiteStore(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	home, err := s2.HomeFlag(ctx)
	if err != nil {
		t.Fatalf("home flag: %v", err)
	}
	if home {
		t.Error("expected home flag false after reopen")
	}
}

func TestNotifications_UpsertKeepsOnePerID(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	fire := time.Date(2026, 9, 2, 8, 0, 0, 0, time.UTC)

	n := model.Notification{ID: model.NotificationID("L1"), LetterID: "L1", Title: "t", Body: "b", FireAt: fire}
	if err := s.UpsertNotification(ctx, n); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	n.FireAt = fire.Add(time.Hour)
	if err := s.UpsertNotification(ctx, n); err != nil {
		t.Fatalf("upsert again: %v", err)
	}

	pending, err := s.PendingNotifications(ctx)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending, got %d", len(pending))
	}
	if !pending[0].FireAt.Equal(fire.Add(time.Hour)) {
		t.Errorf("expected updated fire time, got %s", pending[0].FireAt)
	}
}

func TestNotifications_DueAndDelivered(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Date(2026, 9, 5, 12, 0, 0, 0, time.UTC)

	for _, n := range []model.Notification{
		{ID: "unlock_a", LetterID: "a", Title: "t", Body: "b", FireAt: now.Add(-2 * time.Hour)},
		{ID: "unlock_b", LetterID: "b", Title: "t", Body: "b", FireAt: now},
		{ID: "unlock_c", LetterID: "c", Title: "t", Body: "b", FireAt: now.Add(time.Nanosecond)},
	} {
		if err := s.UpsertNotification(ctx, n); err != nil {
			t.Fatalf("upsert %s: %v", n.ID, err)
		}
	}

	due, err := s.DueNotifications(ctx, now, 10)
	if err != nil {
		t.Fatalf("due: %v", err)
	}
	if len(due) != 2 || due[0].ID != "unlock_a" || due[1].ID != "unlock_b" {
		t.Fatalf("unexpected due set: %+v", due)
	}

	if err := s.MarkDelivered(ctx, "unlock_a", now); err != nil {
		t.Fatalf("mark delivered: %v", err)
	}
	due, _ = s.DueNotifications(ctx, now, 10)
	if len(due) != 1 || due[0].ID != "unlock_b" {
		t.Fatalf("expected only unlock_b due, got %+v", due)
	}
}

func TestNotifications_Delete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	n := model.Notification{ID: "unlock_x", LetterID: "x", Title: "t", Body: "b", FireAt: time.Now()}
	if err := s.UpsertNotification(ctx, n); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := s.DeleteNotification(ctx, n.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteNotification(ctx, "unlock_missing"); err != nil {
		t.Fatalf("deleting a missing id should not fail: %v", err)
	}
	pending, _ := s.PendingNotifications(ctx)
	if len(pending) != 0 {
		t.Errorf("expected no pending notifications, got %d", len(pending))
	}
}

func TestBookkeepingTimesUseInjectedClock(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 9, 1, 8, 30, 0, 0, time.UTC)
	s, err := NewSQLiteStore(ctx, filepath.Join(t.TempDir(), "state.db"), WithClock(clock.NewManual(at)))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	defer s.Close()

	if err := s.SetHomeFlag(ctx, false); err != nil {
		t.Fatalf("set: %v", err)
	}
	n := model.Notification{ID: "unlock_a", LetterID: "a", Title: "t", Body: "b", FireAt: at.Add(time.Hour)}
	if err := s.UpsertNotification(ctx, n); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	var updated, created string
	if err := s.db.QueryRowContext(ctx, `SELECT updated_at FROM flags WHERE key = ?`, homeFlagKey).Scan(&updated); err != nil {
		t.Fatalf("read flag row: %v", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT created_at FROM notifications WHERE id = ?`, n.ID).Scan(&created); err != nil {
		t.Fatalf("read notification row: %v", err)
	}
	want := formatTime(at)
	if updated != want || created != want {
		t.Errorf("expected both stamps %s, got updated=%s created=%s", want, updated, created)
	}
}

func TestNotifications_CorruptFireTimeIsAnError(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notifications (id, letter_id, title, body, fire_at, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		"unlock_bad", "bad", "t", "b", "not-a-time", formatTime(time.Now()))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	if _, err := s.PendingNotifications(ctx); err == nil {
		t.Error("expected an error for an unparseable fire_at")
	}
}
