// Package ink implements the composition budget: a weekly character quota and
// a typing-speed throttle that decides how much of a draft may be committed.
//
// A character is a Unicode code point of the NFC-normalized text. Quota,
// throttle and the ink charged to a letter all use Count, so precomposed and
// decomposed spellings of the same text cost the same.
package ink

import (
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Defaults taken from the original product.
const (
	DefaultWeeklyLimit    = 600
	DefaultCharsPerSecond = 2.0
)

// Normalize returns s in Unicode normalization form C.
func Normalize(s string) string {
	return norm.NFC.String(s)
}

// Count returns the number of characters s is charged as.
func Count(s string) int {
	return utf8.RuneCountInString(Normalize(s))
}

// WeekStart returns the most recent Monday 00:00 in now's location.
func WeekStart(now time.Time) time.Time {
	y, m, d := now.Date()
	offset := (int(now.Weekday()) + 6) % 7
	return time.Date(y, m, d-offset, 0, 0, 0, 0, now.Location())
}
