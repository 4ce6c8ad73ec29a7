package booking

import (
	"context"
	"log/slog"
	"time"

	"github.com/01moynul/fitstudio-golang/internal/database"
	"github.com/01moynul/fitstudio-golang/internal/events"
	"github.com/01moynul/fitstudio-golang/internal/models"
	"github.com/google/uuid"
)

// Notifier tells a member their waitlist entry was promoted.
type Notifier interface {
	WaitlistPromoted(ctx context.Context, entry models.WaitlistEntry) error
}

type Publisher interface {
	Publish(ctx context.Context, e events.Event) error
}

// Service runs the booking workflow: credits, capacity, waitlist and
// class cancellation. Every mutating operation is one transaction.
type Service struct {
	db        *database.DB
	log       *slog.Logger
	notifier  Notifier
	publisher Publisher
	now       func() time.Time
}

type Option func(*Service)

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(db *database.DB, log *slog.Logger, opts ...Option) *Service {
	s := &Service{
		db:  db,
		log: log,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// clock returns the current time in UTC at the precision the store keeps.
func (s *Service) clock() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func newID() string {
	return uuid.NewString()
}

// publish is best effort: the state change has already committed.
func (s *Service) publish(ctx context.Context, e events.Event) {
	if s.publisher == nil {
		return
	}
	e.ID = newID()
	if e.OccurredAt.IsZero() {
		e.OccurredAt = s.clock()
	}
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.log.Warn("failed to publish event",
			slog.String("type", string(e.Type)),
			slog.Any("error", err),
		)
	}
}

func (s *Service) notifyPromoted(ctx context.Context, entry models.WaitlistEntry) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.WaitlistPromoted(ctx, entry); err != nil {
		s.log.Warn("failed to notify promoted member",
			slog.String("waitlist_entry_id", entry.ID),
			slog.String("user_id", entry.UserID),
			slog.Any("error", err),
		)
	}
}
