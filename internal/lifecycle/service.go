// Package lifecycle owns every mutation of letters: drafting under the ink
// budget, submitting, opening and receiving. Status itself is never stored;
// it is derived from the letter, the clock and the home flag on each read.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/rcliao/slowpost/internal/clock"
	"github.com/rcliao/slowpost/internal/ink"
	"github.com/rcliao/slowpost/internal/metrics"
	"github.com/rcliao/slowpost/internal/model"
	"github.com/rcliao/slowpost/internal/notify"
	"github.com/rcliao/slowpost/internal/store"
)

var (
	// ErrInvalidLetter is returned by Receive for letters that cannot be stored.
	ErrInvalidLetter = errors.New("invalid letter")
	// ErrLetterExists is returned by Receive when the id is already stored.
	// Stored letters are never overwritten.
	ErrLetterExists = errors.New("letter already exists")
)

// LetterStore is the durable letter storage the service writes through.
type LetterStore interface {
	Save(ctx context.Context, l *model.Letter) error
	LoadAll(ctx context.Context) ([]model.Letter, error)
	Get(ctx context.Context, id string) (*model.Letter, error)
	MarkOpened(ctx context.Context, id string, at time.Time) error
}

// FlagStore holds the "at home" flag.
type FlagStore interface {
	HomeFlag(ctx context.Context) (bool, error)
	SetHomeFlag(ctx context.Context, atHome bool) error
}

// Deps are the collaborators of a Service. Letters and Flags are required.
type Deps struct {
	Letters   LetterStore
	Flags     FlagStore
	Scheduler notify.Scheduler
	Clock     clock.Clock
	Limiter   ink.Limiter
	// WeeklyLimit is the ink budget per calendar week.
	WeeklyLimit int
	// Location is the calendar used for week starts and route days.
	// Nil means time.Local.
	Location *time.Location
	Logger   zerolog.Logger
	Metrics  *metrics.Metrics
}

// Service is the single entry point for changing letters. It is meant to be
// driven by one caller at a time; Drafts it hands out must not be shared.
type Service struct {
	letters     LetterStore
	flags       FlagStore
	scheduler   notify.Scheduler
	clock       clock.Clock
	limiter     ink.Limiter
	weeklyLimit int
	loc         *time.Location
	log         zerolog.Logger
	metrics     *metrics.Metrics
	entropy     io.Reader
}

// New builds a Service. Missing optional deps get working defaults: the
// system clock, no reminders, the default typing rate and unregistered
// metrics.
func New(d Deps) *Service {
	s := &Service{
		letters:     d.Letters,
		flags:       d.Flags,
		scheduler:   d.Scheduler,
		clock:       d.Clock,
		limiter:     d.Limiter,
		weeklyLimit: d.WeeklyLimit,
		loc:         d.Location,
		log:         d.Logger.With().Str("component", "lifecycle").Logger(),
		metrics:     d.Metrics,
		entropy: &ulid.LockedMonotonicReader{
			MonotonicReader: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
		},
	}
	if s.scheduler == nil {
		s.scheduler = notify.Discard{}
	}
	if s.clock == nil {
		s.clock = clock.System{}
	}
	if s.limiter.RatePerSecond <= 0 {
		s.limiter.RatePerSecond = ink.DefaultCharsPerSecond
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.metrics == nil {
		s.metrics = metrics.New(nil)
	}
	return s
}

func (s *Service) now() time.Time {
	return s.clock.Now().In(s.loc)
}

func (s *Service) newID(now time.Time) string {
	return ulid.MustNew(ulid.Timestamp(now), s.entropy).String()
}

// Submit turns text into a letter travelling on route. Blank text is
// ignored and yields (nil, nil). A letter that cannot be saved is never
// scheduled; a reminder that cannot be scheduled does not fail the submit.
func (s *Service) Submit(ctx context.Context, text string, route model.Route) (*model.Letter, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	if _, err := model.ParseRoute(string(route)); err != nil {
		return nil, err
	}

	now := s.now()
	content := ink.Normalize(text)
	l := &model.Letter{
		ID:                  s.newID(now),
		AuthoredByLocalUser: true,
		Content:             content,
		CreatedAt:           now,
		UnlockAt:            model.UnlockInstant(now, route),
		RequiresHomeGate:    true,
		InkUsed:             ink.Count(content),
		StyleID:             model.DefaultStyleID,
	}
	if err := s.letters.Save(ctx, l); err != nil {
		return nil, fmt.Errorf("save letter: %w", err)
	}
	s.metrics.LettersSubmitted.WithLabelValues(string(route)).Inc()
	s.log.Info().Str("id", l.ID).Str("route", string(route)).Int("ink", l.InkUsed).
		Time("unlock_at", l.UnlockAt).Msg("letter submitted")

	s.schedule(ctx, l)
	return l, nil
}

func (s *Service) schedule(ctx context.Context, l *model.Letter) bool {
	err := s.scheduler.Schedule(ctx, model.Notification{LetterID: l.ID, FireAt: l.UnlockAt})
	if err != nil {
		s.metrics.NotificationFailures.WithLabelValues("schedule").Inc()
		s.log.Warn().Err(err).Str("id", l.ID).Msg("could not schedule unlock reminder")
		return false
	}
	s.metrics.NotificationsScheduled.Inc()
	return true
}

// Open marks a ready letter as opened and withdraws its reminder. It reports
// false, without error, when the letter is missing or not openable now.
func (s *Service) Open(ctx context.Context, id string) (bool, error) {
	l, err := s.letters.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrInvalidID) {
		s.metrics.OpenRejected.WithLabelValues("missing").Inc()
		return false, nil
	}
	if errors.Is(err, store.ErrCorrupt) {
		// Listings skip such records, so it is missing here too.
		s.metrics.OpenRejected.WithLabelValues("unreadable").Inc()
		s.log.Warn().Err(err).Str("id", id).Msg("open refused")
		return false, nil
	}
	if err != nil {
		return false, err
	}

	home, err := s.flags.HomeFlag(ctx)
	if err != nil {
		return false, fmt.Errorf("read home flag: %w", err)
	}
	now := s.now()
	if !l.CanOpen(now, home) {
		reason := rejectReason(*l, now)
		s.metrics.OpenRejected.WithLabelValues(reason).Inc()
		s.log.Debug().Str("id", id).Str("reason", reason).Msg("open refused")
		return false, nil
	}

	if err := s.letters.MarkOpened(ctx, id, now); err != nil {
		return false, fmt.Errorf("mark opened: %w", err)
	}
	s.metrics.LettersOpened.Inc()
	s.log.Info().Str("id", id).Msg("letter opened")

	if err := s.scheduler.Cancel(ctx, id); err != nil {
		s.metrics.NotificationFailures.WithLabelValues("cancel").Inc()
		s.log.Warn().Err(err).Str("id", id).Msg("could not cancel unlock reminder")
	}
	return true, nil
}

func rejectReason(l model.Letter, now time.Time) string {
	switch l.TimeStatus(now) {
	case model.StatusOpened:
		return "already_opened"
	case model.StatusInTransit:
		return "in_transit"
	default:
		return "away_from_home"
	}
}

func (s *Service) HomeFlag(ctx context.Context) (bool, error) {
	return s.flags.HomeFlag(ctx)
}

func (s *Service) SetHomeFlag(ctx context.Context, atHome bool) error {
	if err := s.flags.SetHomeFlag(ctx, atHome); err != nil {
		return err
	}
	s.log.Info().Bool("at_home", atHome).Msg("home flag changed")
	return nil
}

// Receive stores a letter written elsewhere. Authorship and timestamps are
// kept as given; a reminder is scheduled when the letter is still on its way.
// An id that is already stored, even as an unreadable record, is refused
// with ErrLetterExists and the stored letter is left untouched.
func (s *Service) Receive(ctx context.Context, l model.Letter) error {
	if l.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidLetter)
	}
	if strings.TrimSpace(l.Content) == "" {
		return fmt.Errorf("%w: %s has no content", ErrInvalidLetter, l.ID)
	}
	if l.CreatedAt.IsZero() || l.UnlockAt.Before(l.CreatedAt) {
		return fmt.Errorf("%w: %s unlocks before it was written", ErrInvalidLetter, l.ID)
	}
	if l.StyleID == "" {
		l.StyleID = model.DefaultStyleID
	}
	_, err := s.letters.Get(ctx, l.ID)
	switch {
	case err == nil, errors.Is(err, store.ErrCorrupt):
		return fmt.Errorf("%w: %s", ErrLetterExists, l.ID)
	case errors.Is(err, store.ErrInvalidID):
		return fmt.Errorf("%w: %v", ErrInvalidLetter, err)
	case !errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("look up letter: %w", err)
	}
	if err := s.letters.Save(ctx, &l); err != nil {
		return fmt.Errorf("save letter: %w", err)
	}
	s.log.Info().Str("id", l.ID).Bool("local", l.AuthoredByLocalUser).Msg("letter received")

	if !l.Opened() && l.UnlockAt.After(s.now()) {
		s.schedule(ctx, &l)
	}
	return nil
}

// Resync schedules a reminder for every unopened letter whose unlock time is
// still ahead, returning how many were scheduled.
func (s *Service) Resync(ctx context.Context) (int, error) {
	letters, err := s.letters.LoadAll(ctx)
	if err != nil {
		return 0, err
	}
	now := s.now()
	n := 0
	for i := range letters {
		l := &letters[i]
		if l.Opened() || !l.UnlockAt.After(now) {
			continue
		}
		if s.schedule(ctx, l) {
			n++
		}
	}
	s.log.Info().Int("scheduled", n).Msg("reminders resynced")
	return n, nil
}
