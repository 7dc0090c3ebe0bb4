package notify

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/slowpost/internal/clock"
	"github.com/rcliao/slowpost/internal/metrics"
	"github.com/rcliao/slowpost/internal/model"
	"github.com/rcliao/slowpost/internal/store"
)

var t0 = time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC)

func newState(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

type recordingSink struct {
	mu   sync.Mutex
	got  []model.Notification
	fail error
}

func (r *recordingSink) Deliver(_ context.Context, n model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.got = append(r.got, n)
	return nil
}

func (r *recordingSink) letters() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for _, n := range r.got {
		ids = append(ids, n.LetterID)
	}
	return ids
}

func TestOutbox_ScheduleFillsDefaultsAndReplaces(t *testing.T) {
	ctx := context.Background()
	o := NewOutbox(newState(t), "Arrived", "Open it")

	require.NoError(t, o.Schedule(ctx, model.Notification{LetterID: "L1", FireAt: t0}))
	require.NoError(t, o.Schedule(ctx, model.Notification{LetterID: "L1", FireAt: t0.Add(time.Hour), Title: "Custom"}))

	pending, err := o.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	n := pending[0]
	assert.Equal(t, "unlock_L1", n.ID)
	assert.Equal(t, "Custom", n.Title)
	assert.Equal(t, "Open it", n.Body)
	assert.True(t, n.FireAt.Equal(t0.Add(time.Hour)))
}

func TestOutbox_Cancel(t *testing.T) {
	ctx := context.Background()
	o := NewOutbox(newState(t), "t", "b")
	require.NoError(t, o.Schedule(ctx, model.Notification{LetterID: "L1", FireAt: t0}))
	require.NoError(t, o.Cancel(ctx, "L1"))
	require.NoError(t, o.Cancel(ctx, "never-scheduled"))

	pending, err := o.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestOutbox_RequiresLetterID(t *testing.T) {
	o := NewOutbox(newState(t), "t", "b")
	assert.Error(t, o.Schedule(context.Background(), model.Notification{FireAt: t0}))
}

func TestDiscard(t *testing.T) {
	var s Scheduler = Discard{}
	assert.NoError(t, s.Schedule(context.Background(), model.Notification{LetterID: "x"}))
	assert.NoError(t, s.Cancel(context.Background(), "x"))
}

func TestDispatcher_DeliversOnlyDue(t *testing.T) {
	ctx := context.Background()
	state := newState(t)
	o := NewOutbox(state, "t", "b")
	require.NoError(t, o.Schedule(ctx, model.Notification{LetterID: "later", FireAt: t0.Add(24 * time.Hour)}))
	require.NoError(t, o.Schedule(ctx, model.Notification{LetterID: "second", FireAt: t0.Add(-time.Minute)}))
	require.NoError(t, o.Schedule(ctx, model.Notification{LetterID: "first", FireAt: t0.Add(-time.Hour)}))

	clk := clock.NewManual(t0)
	sink := &recordingSink{}
	m := metrics.New(nil)
	d := NewDispatcher(state, sink, clk, 1000, zerolog.Nop(), m)

	n, err := d.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"first", "second"}, sink.letters())

	n, err = d.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "delivered reminders are not sent twice")

	clk.Advance(24 * time.Hour)
	n, err = d.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.NotificationsDelivered))
}

func TestDispatcher_FailedDeliveryStaysPending(t *testing.T) {
	ctx := context.Background()
	state := newState(t)
	require.NoError(t, NewOutbox(state, "t", "b").Schedule(ctx, model.Notification{LetterID: "L1", FireAt: t0}))

	sink := &recordingSink{fail: errors.New("display unavailable")}
	m := metrics.New(nil)
	d := NewDispatcher(state, sink, clock.NewManual(t0), 1000, zerolog.Nop(), m)

	n, err := d.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationFailures.WithLabelValues("deliver")))

	sink.mu.Lock()
	sink.fail = nil
	sink.mu.Unlock()
	n, err = d.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDispatcher_RunStopsOnCancel(t *testing.T) {
	state := newState(t)
	require.NoError(t, NewOutbox(state, "t", "b").Schedule(context.Background(), model.Notification{LetterID: "L1", FireAt: t0}))

	sink := &recordingSink{}
	d := NewDispatcher(state, sink, clock.NewManual(t0), 1000, zerolog.Nop(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx, 10*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(sink.letters()) == 1 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, []string{"L1"}, sink.letters())
}

func TestWriterSink(t *testing.T) {
	var buf bytes.Buffer
	shanghai := time.FixedZone("CST", 8*3600)
	s := WriterSink{W: &buf, Loc: shanghai}

	err := s.Deliver(context.Background(), model.Notification{
		LetterID: "L9", Title: "A letter has arrived", Body: "Open it", FireAt: t0,
	})
	require.NoError(t, err)
	assert.Equal(t, "[2026-09-07 17:00] A letter has arrived: Open it (letter L9)\n", buf.String())
}
