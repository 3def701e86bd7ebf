package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"event-scheduler/internal/models"
)

// RedisNotifier publishes reminders as JSON on a pub/sub channel.
type RedisNotifier struct {
	Client  *redis.Client
	Channel string
}

func NewRedisNotifier(client *redis.Client, channel string) *RedisNotifier {
	return &RedisNotifier{Client: client, Channel: channel}
}

func (n *RedisNotifier) Notify(ctx context.Context, r models.Reminder) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal reminder: %w", err)
	}
	if err := n.Client.Publish(ctx, n.Channel, payload).Err(); err != nil {
		return fmt.Errorf("publish reminder to %s: %w", n.Channel, err)
	}
	return nil
}
