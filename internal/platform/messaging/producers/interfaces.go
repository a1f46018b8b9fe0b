package producers

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// MessagePublisher publishes claimed run requests for the worker to pick up.
// The key is the reconciliation ID so redeliveries of one run stay ordered
// within a partition.
type MessagePublisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
	Close() error
}

// DeadLetterPublisher parks run request messages that cannot be decoded, so
// a malformed payload never blocks the run topic
type DeadLetterPublisher interface {
	PublishToDLQ(ctx context.Context, key string, originalMessageValue []byte, reason string) error
	Close() error
}

// KafkaWriter wraps kafka.Writer methods for testing
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}
