package ink

import (
	"math"
	"time"
)

// Session is the state of one composition. It belongs to a single draft and
// must not be shared between drafts.
type Session struct {
	// Committed is the longest prefix of the draft accepted so far.
	Committed string
	// LastAccept is when Committed last changed.
	LastAccept time.Time
	// Carryover is unspent allowance carried into the next proposal.
	Carryover float64
}

// Begin starts a fresh session at now. The prefill is committed as-is,
// without being throttled.
func Begin(now time.Time, prefill string) Session {
	return Session{Committed: Normalize(prefill), LastAccept: now}
}

// Len is the number of committed characters.
func (s Session) Len() int {
	return Count(s.Committed)
}

// Result is the outcome of applying one proposal.
type Result struct {
	Session Session
	// Throttled is true when part or all of an addition was held back.
	Throttled bool
	// Accepted is the number of characters appended by this proposal.
	Accepted int
}

// Limiter is a token bucket that refills at RatePerSecond characters per
// second. Unspent allowance is carried over without a ceiling.
type Limiter struct {
	RatePerSecond float64
}

// Apply decides how much of proposed, the full replacement text of the draft,
// is accepted at now. The draft may never grow beyond remaining characters.
// Shrinking the draft is always accepted immediately; growing it spends
// allowance, and only whole characters are ever granted.
func (l Limiter) Apply(proposed string, s Session, now time.Time, remaining int) Result {
	if remaining < 0 {
		remaining = 0
	}
	capped := []rune(Normalize(proposed))
	if len(capped) > remaining {
		capped = capped[:remaining]
	}
	committed := []rune(s.Committed)

	if len(capped) <= len(committed) {
		s.Committed = string(capped)
		s.LastAccept = now
		return Result{Session: s}
	}

	elapsed := now.Sub(s.LastAccept)
	if elapsed < 0 {
		elapsed = 0
	}
	allowance := elapsed.Seconds()*l.RatePerSecond + s.Carryover
	requested := len(capped) - len(committed)

	accept := requested
	if allowance < float64(requested) {
		accept = int(math.Floor(allowance))
	}
	if accept <= 0 {
		return Result{Session: s, Throttled: true}
	}

	s.Committed = string(committed) + string(capped[len(committed):len(committed)+accept])
	s.LastAccept = now
	s.Carryover = allowance - float64(accept)
	return Result{Session: s, Throttled: accept < requested, Accepted: accept}
}
