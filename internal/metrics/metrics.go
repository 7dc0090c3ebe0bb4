// Package metrics exposes Prometheus counters for letter and notification
// activity.
//
// Labels are kept to bounded sets. route is one of the known routes; reason
// and op are short fixed strings chosen by the caller.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "slowpost"

// Metrics holds the registered collectors.
type Metrics struct {
	LettersSubmitted       *prometheus.CounterVec
	LettersOpened          prometheus.Counter
	OpenRejected           *prometheus.CounterVec
	InkCharsAccepted       prometheus.Counter
	ComposeThrottled       prometheus.Counter
	NotificationsScheduled prometheus.Counter
	NotificationFailures   *prometheus.CounterVec
	NotificationsDelivered prometheus.Counter
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered, which suits tests and one-shot commands.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LettersSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "letters_submitted_total",
			Help:      "Letters written and saved, by route.",
		}, []string{"route"}),
		LettersOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "letters_opened_total",
			Help:      "Letters opened.",
		}),
		OpenRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "open_rejected_total",
			Help:      "Open attempts that were refused, by reason.",
		}, []string{"reason"}),
		InkCharsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ink_chars_accepted_total",
			Help:      "Characters accepted into drafts by the typing limiter.",
		}),
		ComposeThrottled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compose_throttled_total",
			Help:      "Draft edits that were partly or fully throttled.",
		}),
		NotificationsScheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_scheduled_total",
			Help:      "Unlock notifications scheduled.",
		}),
		NotificationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_failures_total",
			Help:      "Failed notification operations, by op.",
		}, []string{"op"}),
		NotificationsDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_delivered_total",
			Help:      "Unlock notifications handed to a sink.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.LettersSubmitted,
			m.LettersOpened,
			m.OpenRejected,
			m.InkCharsAccepted,
			m.ComposeThrottled,
			m.NotificationsScheduled,
			m.NotificationFailures,
			m.NotificationsDelivered,
		)
	}
	return m
}
