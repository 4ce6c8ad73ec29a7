package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/01moynul/fitstudio-golang/internal/models"
	"github.com/redis/go-redis/v9"
)

// RedisNotifier publishes promotions on the member's channel and leaves a
// marker key behind so clients that were offline can still find out.
type RedisNotifier struct {
	redis  *redis.Client
	keyTTL time.Duration
}

func NewRedisNotifier(redisClient *redis.Client, keyTTL time.Duration) *RedisNotifier {
	return &RedisNotifier{redis: redisClient, keyTTL: keyTTL}
}

func notifiedKey(entryID string) string {
	return fmt.Sprintf("waitlist:notified:%s", entryID)
}

func (n *RedisNotifier) WaitlistPromoted(ctx context.Context, entry models.WaitlistEntry) error {
	payload, err := json.Marshal(newPromotedMessage(entry))
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	if err := n.redis.Publish(ctx, UserChannel(entry.UserID), string(payload)).Err(); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	if err := n.redis.Set(ctx, notifiedKey(entry.ID), string(payload), n.keyTTL).Err(); err != nil {
		return fmt.Errorf("store notification marker: %w", err)
	}
	return nil
}
