package lifecycle

import (
	"context"
	"time"

	"github.com/rcliao/slowpost/internal/model"
)

const replyExcerptLen = 24

// View is a letter together with its status at the moment it was read.
type View struct {
	model.Letter
	Status     model.Status  `json:"status"`
	TimeStatus model.Status  `json:"time_status"`
	CanOpen    bool          `json:"can_open"`
	Remaining  time.Duration `json:"remaining_ns"`
}

func newView(l model.Letter, now time.Time, home bool) View {
	return View{
		Letter:     l,
		Status:     l.Status(now, home),
		TimeStatus: l.TimeStatus(now),
		CanOpen:    l.CanOpen(now, home),
		Remaining:  l.Remaining(now),
	}
}

// Letters lists all letters newest first. A non-nil filter keeps only
// letters in that status.
func (s *Service) Letters(ctx context.Context, filter *model.Status) ([]View, error) {
	letters, err := s.letters.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	home, err := s.flags.HomeFlag(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()

	views := make([]View, 0, len(letters))
	for _, l := range letters {
		v := newView(l, now, home)
		if filter != nil && v.Status != *filter {
			continue
		}
		views = append(views, v)
	}
	return views, nil
}

// Letter returns one letter by id.
func (s *Service) Letter(ctx context.Context, id string) (*View, error) {
	l, err := s.letters.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	home, err := s.flags.HomeFlag(ctx)
	if err != nil {
		return nil, err
	}
	v := newView(*l, s.now(), home)
	return &v, nil
}

// ReplyPrefill is the quote a reply to l starts with. Only opened letters
// can be answered; for any other letter it is empty.
func ReplyPrefill(l model.Letter) string {
	if !l.Opened() {
		return ""
	}
	r := []rune(l.Content)
	excerpt := l.Content
	if len(r) > replyExcerptLen {
		excerpt = string(r[:replyExcerptLen]) + "…"
	}
	return "\n\n— 回信：\n> " + excerpt + "\n\n"
}
