package notify

import (
	"context"
	"fmt"

	"github.com/01moynul/fitstudio-golang/internal/config"
	"github.com/01moynul/fitstudio-golang/internal/models"
	pubnub "github.com/pubnub/go"
)

// PubNubNotifier pushes promotions straight to member devices.
type PubNubNotifier struct {
	pubnub *pubnub.PubNub
}

func NewPubNubNotifier(cfg config.Notifier) *PubNubNotifier {
	pnConfig := pubnub.NewConfig()
	pnConfig.PublishKey = cfg.PubNubPublishKey
	pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
	pnConfig.SecretKey = cfg.PubNubSecretKey
	pnConfig.UUID = cfg.PubNubUserID

	return &PubNubNotifier{pubnub: pubnub.NewPubNub(pnConfig)}
}

func (n *PubNubNotifier) WaitlistPromoted(ctx context.Context, entry models.WaitlistEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := newPromotedMessage(entry)
	_, _, err := n.pubnub.Publish().
		Channel(UserChannel(entry.UserID)).
		Message(map[string]any{
			"type":              msg.Type,
			"waitlist_entry_id": msg.EntryID,
			"class_id":          msg.ClassID,
			"notified_at":       msg.NotifiedAt,
		}).
		Execute()
	if err != nil {
		return fmt.Errorf("pubnub publish: %w", err)
	}
	return nil
}
