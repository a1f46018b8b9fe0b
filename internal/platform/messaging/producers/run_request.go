package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/bankrecon-engine/internal/config"
)

// RunRequestProducer publishes reconciliation run requests from the API to the
// worker's topic
type RunRequestProducer struct {
	logger *slog.Logger
	writer KafkaWriter // Interface for testability
	topic  string
}

// NewRunRequestProducer creates the producer and ensures the run topic exists
func NewRunRequestProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*RunRequestProducer, error) {
	if cfg.RunTopic == "" {
		return nil, fmt.Errorf("kafka run topic is not configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for run request producer: %w", err)
	}
	defer conn.Close()

	err = createKafkaTopicIfNotExists(conn, cfg.RunTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure run topic %s exists: %w", cfg.RunTopic, err)
	}

	writer := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers),
		Topic:    cfg.RunTopic,
		Balancer: &kafka.LeastBytes{},
		// Run requests must not be dropped silently; wait for the broker ack
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		WriteTimeout: cfg.MaxWait,
	}

	return &RunRequestProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.RunTopic,
	}, nil
}

// Publish sends one run request keyed by reconciliation id
func (p *RunRequestProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal run request: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish run request",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish run request to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published run request",
		"topic", p.topic,
		"key", key,
	)
	return nil
}

func (p *RunRequestProducer) Close() error {
	p.logger.Info("Closing run request Kafka producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
