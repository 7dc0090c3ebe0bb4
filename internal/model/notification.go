package model

import "time"

// Notification is an unlock reminder for a letter. There is at most one
// pending notification per letter.
type Notification struct {
	ID          string     `json:"id"`
	LetterID    string     `json:"letter_id"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	FireAt      time.Time  `json:"fire_at"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
}

// NotificationID is the outbox key of the unlock reminder for a letter.
func NotificationID(letterID string) string {
	return "unlock_" + letterID
}
