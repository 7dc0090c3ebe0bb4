package lifecycle

import (
	"context"
	"time"

	"github.com/rcliao/slowpost/internal/ink"
	"github.com/rcliao/slowpost/internal/model"
)

// Draft is one composition in progress. It is owned by a single editor and
// is not safe for concurrent use.
type Draft struct {
	session ink.Session
}

// Text is the committed draft text.
func (d *Draft) Text() string { return d.session.Committed }

// Len is the committed length in characters.
func (d *Draft) Len() int { return d.session.Len() }

// InkStatus is the weekly ink meter.
type InkStatus struct {
	Used      int       `json:"used"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	WeekStart time.Time `json:"week_start"`
}

// BeginDraft starts a composition. prefill is committed immediately without
// throttling, cut to what is left of this week's ink.
func (s *Service) BeginDraft(ctx context.Context, prefill string) (*Draft, error) {
	st, err := s.Ink(ctx)
	if err != nil {
		return nil, err
	}
	prefill = ink.Normalize(prefill)
	if r := []rune(prefill); len(r) > st.Remaining {
		prefill = string(r[:st.Remaining])
	}
	return &Draft{session: ink.Begin(s.now(), prefill)}, nil
}

// Compose offers proposed as the new full text of d. The draft keeps only
// what the typing rate and the weekly ink allow.
func (s *Service) Compose(ctx context.Context, d *Draft, proposed string) (ink.Result, error) {
	st, err := s.Ink(ctx)
	if err != nil {
		return ink.Result{}, err
	}
	res := s.limiter.Apply(proposed, d.session, s.now(), st.Remaining)
	d.session = res.Session

	if res.Accepted > 0 {
		s.metrics.InkCharsAccepted.Add(float64(res.Accepted))
	}
	if res.Throttled {
		s.metrics.ComposeThrottled.Inc()
	}
	return res, nil
}

// Ink reports how much of this week's ink has been spent. Only letters
// written locally since the start of the current week count.
func (s *Service) Ink(ctx context.Context) (InkStatus, error) {
	letters, err := s.letters.LoadAll(ctx)
	if err != nil {
		return InkStatus{}, err
	}
	now := s.now()
	st := InkStatus{
		Used:      weeklyInkUsed(letters, ink.WeekStart(now)),
		Limit:     s.weeklyLimit,
		WeekStart: ink.WeekStart(now),
	}
	st.Remaining = st.Limit - st.Used
	if st.Remaining < 0 {
		st.Remaining = 0
	}
	return st, nil
}

func weeklyInkUsed(letters []model.Letter, since time.Time) int {
	used := 0
	for _, l := range letters {
		if l.AuthoredByLocalUser && !l.CreatedAt.Before(since) {
			used += l.InkUsed
		}
	}
	return used
}
