package events

import (
	"context"
	"time"
)

type Type string

const (
	BookingCreated   Type = "booking.created"
	BookingCancelled Type = "booking.cancelled"
	WaitlistJoined   Type = "waitlist.joined"
	WaitlistPromoted Type = "waitlist.promoted"
	WaitlistRemoved  Type = "waitlist.removed"
	ClassCancelled   Type = "class.cancelled"
)

// Event is a fact about the booking workflow, published after the
// transaction that produced it has committed.
type Event struct {
	ID              string         `json:"id"`
	Type            Type           `json:"type"`
	OccurredAt      time.Time      `json:"occurred_at"`
	UserID          string         `json:"user_id,omitempty"`
	ClassID         string         `json:"class_id,omitempty"`
	BookingID       string         `json:"booking_id,omitempty"`
	WaitlistEntryID string         `json:"waitlist_entry_id,omitempty"`
	Data            map[string]any `json:"data,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Noop drops every event. Used when no brokers are configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }
