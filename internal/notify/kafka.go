package notify

import (
	"context"

	"event-scheduler/internal/models"
)

// Publisher is satisfied by *kafka.Producer.
type Publisher interface {
	PublishJSON(ctx context.Context, topic, key string, v interface{}) error
}

// KafkaNotifier streams reminders to a topic, keyed by event id.
type KafkaNotifier struct {
	Producer Publisher
	Topic    string
}

func NewKafkaNotifier(producer Publisher, topic string) *KafkaNotifier {
	return &KafkaNotifier{Producer: producer, Topic: topic}
}

func (k *KafkaNotifier) Notify(ctx context.Context, r models.Reminder) error {
	return k.Producer.PublishJSON(ctx, k.Topic, r.EventID, r)
}
