package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/community-billing-ledger/internal/config"
	"github.com/segmentio/kafka-go"
)

type BackfillReqMessageProducer struct {
	logger *slog.Logger
	writer KafkaWriter // Interface for testability
	topic  string
}

// Creates a new portal API producer and ensures topic exists
func NewBackfillReqMessageProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*BackfillReqMessageProducer, error) {
	if cfg.BackfillTopic == "" {
		return nil, fmt.Errorf("kafka backfill topic is not configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for portal api producer: %w", err)
	}
	defer conn.Close()

	err = createKafkaTopicIfNotExists(conn, cfg.BackfillTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure backfill topic %s exists for portal api producer: %w", cfg.BackfillTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.BackfillTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        true, // Using async for high throughput
		WriteTimeout: cfg.MaxWait,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("Failed to write messages asynchronously", "topic", cfg.BackfillTopic, "error", err, "count", len(messages))
			} else {
				logger.Debug("Successfully wrote messages asynchronously", "topic", cfg.BackfillTopic, "count", len(messages))
			}
		},
	}

	return &BackfillReqMessageProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.BackfillTopic,
	}, nil
}

func (p *BackfillReqMessageProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal message value for portal api producer: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish message via portal api producer",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish message to %s via portal api producer: %w", p.topic, err)
	}

	p.logger.Debug("Published message via portal api producer",
		"topic", p.topic,
		"key", key,
	)
	return nil
}

func (p *BackfillReqMessageProducer) Close() error {
	p.logger.Info("Closing portal API Kafka message producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close portal api kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
