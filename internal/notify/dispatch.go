package notify

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/rcliao/slowpost/internal/clock"
	"github.com/rcliao/slowpost/internal/metrics"
	"github.com/rcliao/slowpost/internal/model"
)

const dispatchBatch = 50

// Sink receives due reminders.
type Sink interface {
	Deliver(ctx context.Context, n model.Notification) error
}

// WriterSink prints one line per reminder.
type WriterSink struct {
	W   io.Writer
	Loc *time.Location
}

func (s WriterSink) Deliver(_ context.Context, n model.Notification) error {
	at := n.FireAt
	if s.Loc != nil {
		at = at.In(s.Loc)
	}
	_, err := fmt.Fprintf(s.W, "[%s] %s: %s (letter %s)\n", at.Format("2006-01-02 15:04"), n.Title, n.Body, n.LetterID)
	return err
}

// Dispatcher moves due reminders from the outbox to a sink.
type Dispatcher struct {
	store   Store
	sink    Sink
	clock   clock.Clock
	limiter *rate.Limiter
	log     zerolog.Logger
	metrics *metrics.Metrics
}

// NewDispatcher returns a dispatcher that delivers at most perSecond
// reminders per second. m may be nil.
func NewDispatcher(store Store, sink Sink, c clock.Clock, perSecond float64, log zerolog.Logger, m *metrics.Metrics) *Dispatcher {
	if m == nil {
		m = metrics.New(nil)
	}
	return &Dispatcher{
		store:   store,
		sink:    sink,
		clock:   c,
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
		log:     log.With().Str("component", "dispatcher").Logger(),
		metrics: m,
	}
}

// RunOnce delivers everything currently due and returns how many reminders
// reached the sink. A failed delivery stays pending and is retried on the
// next pass.
func (d *Dispatcher) RunOnce(ctx context.Context) (int, error) {
	due, err := d.store.DueNotifications(ctx, d.clock.Now(), dispatchBatch)
	if err != nil {
		return 0, fmt.Errorf("load due notifications: %w", err)
	}

	delivered := 0
	for _, n := range due {
		if err := d.limiter.Wait(ctx); err != nil {
			return delivered, err
		}
		if err := d.sink.Deliver(ctx, n); err != nil {
			d.metrics.NotificationFailures.WithLabelValues("deliver").Inc()
			d.log.Warn().Err(err).Str("id", n.ID).Msg("delivery failed")
			continue
		}
		if err := d.store.MarkDelivered(ctx, n.ID, d.clock.Now()); err != nil {
			return delivered, fmt.Errorf("mark %s delivered: %w", n.ID, err)
		}
		delivered++
		d.metrics.NotificationsDelivered.Inc()
		d.log.Debug().Str("id", n.ID).Str("letter", n.LetterID).Msg("delivered")
	}
	return delivered, nil
}

// Run polls the outbox every interval until ctx is cancelled. Errors from a
// single pass are logged and do not stop the loop.
func (d *Dispatcher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	d.pass(ctx)
	for {
		select {
		case <-ticker.C:
			d.pass(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (d *Dispatcher) pass(ctx context.Context) {
	n, err := d.RunOnce(ctx)
	if err != nil && ctx.Err() == nil {
		d.log.Error().Err(err).Msg("dispatch pass failed")
		return
	}
	if n > 0 {
		d.log.Info().Int("delivered", n).Msg("dispatch pass")
	}
}
