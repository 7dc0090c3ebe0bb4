// Package model defines the letter entity and its derived delivery status.
package model

import "time"

// DefaultStyleID is the paper style given to newly written letters.
const DefaultStyleID = "paper-01"

// Letter is a single slow letter. Everything except OpenedAt is fixed at
// creation; OpenedAt is set at most once.
type Letter struct {
	ID                  string     `json:"id"`
	AuthoredByLocalUser bool       `json:"authored_by_local_user"`
	Content             string     `json:"content"`
	CreatedAt           time.Time  `json:"created_at"`
	UnlockAt            time.Time  `json:"unlock_at"`
	RequiresHomeGate    bool       `json:"requires_home_gate"`
	InkUsed             int        `json:"ink_used"`
	OpenedAt            *time.Time `json:"opened_at,omitempty"`
	StyleID             string     `json:"style_id,omitempty"`
}

// Status is the delivery state of a letter. It is always derived, never stored.
type Status string

const (
	StatusInTransit Status = "in_transit"
	StatusReady     Status = "ready"
	StatusOpened    Status = "opened"
)

// ValidStatuses are the accepted status filter values.
var ValidStatuses = map[Status]bool{
	StatusInTransit: true,
	StatusReady:     true,
	StatusOpened:    true,
}

// Opened reports whether the letter has been opened.
func (l Letter) Opened() bool {
	return l.OpenedAt != nil
}

// TimeStatus classifies the letter by time and open state only, ignoring the
// home gate. The boundary is inclusive: at exactly UnlockAt the letter is ready.
func (l Letter) TimeStatus(now time.Time) Status {
	if l.Opened() {
		return StatusOpened
	}
	if !now.Before(l.UnlockAt) {
		return StatusReady
	}
	return StatusInTransit
}

// Status classifies the letter at now. A gated letter whose time has come
// stays in transit while atHome is false.
func (l Letter) Status(now time.Time, atHome bool) Status {
	s := l.TimeStatus(now)
	if s == StatusReady && l.RequiresHomeGate && !atHome {
		return StatusInTransit
	}
	return s
}

// CanOpen reports whether the letter may be opened at now.
func (l Letter) CanOpen(now time.Time, atHome bool) bool {
	return l.Status(now, atHome) == StatusReady
}

// Remaining is the time left until UnlockAt, or zero once it has passed.
func (l Letter) Remaining(now time.Time) time.Duration {
	if d := l.UnlockAt.Sub(now); d > 0 {
		return d
	}
	return 0
}
