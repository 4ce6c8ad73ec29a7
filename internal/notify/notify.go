package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/01moynul/fitstudio-golang/internal/models"
)

const promotedType = "waitlist_promoted"

// Message is the payload pushed to a member when their waitlist entry is
// promoted. The member still has to book the freed spot themselves.
type Message struct {
	Type       string    `json:"type"`
	EntryID    string    `json:"waitlist_entry_id"`
	ClassID    string    `json:"class_id"`
	UserID     string    `json:"user_id"`
	NotifiedAt time.Time `json:"notified_at"`
}

func newPromotedMessage(entry models.WaitlistEntry) Message {
	msg := Message{
		Type:    promotedType,
		EntryID: entry.ID,
		ClassID: entry.ClassID,
		UserID:  entry.UserID,
	}
	if entry.NotificationTime != nil {
		msg.NotifiedAt = entry.NotificationTime.UTC()
	}
	return msg
}

// UserChannel is the per-member channel both backends publish to.
func UserChannel(userID string) string {
	return fmt.Sprintf("user-%s", userID)
}

// Noop is used when NOTIFIER=none.
type Noop struct{}

func (Noop) WaitlistPromoted(context.Context, models.WaitlistEntry) error { return nil }
