// Package consumers reads backfill jobs off Kafka for the billing worker.
package consumers

import (
	"context"
	"log/slog"
	"time"

	"github.com/community-billing-ledger/internal/config"
	"github.com/segmentio/kafka-go"
)

// fetchRetryDelay is how long the consumer backs off after a failed fetch
// before trying the broker again.
const fetchRetryDelay = time.Second

type MessageHandler func(ctx context.Context, key []byte, value []byte) error

// Consumer defines the message queue consumer interface
type Consumer interface {
	Subscribe(ctx context.Context, topic string, groupID string, handler MessageHandler) error
	Close() error
}

// KafkaConsumer implements Consumer using a Kafka consumer group. Offsets are
// committed only after the handler accepts a message, so a crashed worker
// replays unprocessed backfill jobs instead of losing them.
type KafkaConsumer struct {
	reader *kafka.Reader
	logger *slog.Logger
}

func NewKafkaConsumer(_ context.Context, logger *slog.Logger, cfg *config.KafkaConfig) *KafkaConsumer {
	return &KafkaConsumer{
		logger: logger,
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     []string{cfg.Brokers},
			Topic:       cfg.BackfillTopic,
			GroupID:     cfg.ConsumerGroup,
			MinBytes:    cfg.MinBytes,
			MaxBytes:    cfg.MaxBytes,
			MaxWait:     cfg.MaxWait,
			StartOffset: kafka.FirstOffset,
		}),
	}
}

// Subscribe starts a goroutine that fetches, handles, and commits messages
// until the context is canceled.
func (c *KafkaConsumer) Subscribe(ctx context.Context, topic string, groupID string, handler MessageHandler) error {
	c.logger.Info("Subscribed to Kafka topic", "topic", topic, "group_id", groupID)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.logger.Info("Context canceled, stopping consumer", "topic", topic, "group_id", groupID)
				return
			default:
			}

			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				c.logger.Error("Failed to fetch message from Kafka",
					"topic", topic,
					"group_id", groupID,
					"error", err,
				)
				time.Sleep(fetchRetryDelay)
				continue
			}

			c.handleMessage(ctx, msg, handler)
		}
	}()

	return nil
}

func (c *KafkaConsumer) handleMessage(ctx context.Context, msg kafka.Message, handler MessageHandler) {
	c.logger.Debug("Received message from Kafka",
		"topic", msg.Topic,
		"partition", msg.Partition,
		"offset", msg.Offset,
		"key", string(msg.Key),
	)

	if err := handler(ctx, msg.Key, msg.Value); err != nil {
		// Not committed, so the message is redelivered or dead lettered
		c.logger.Error("Failed to process message, will not commit offset",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"key", string(msg.Key),
			"error", err,
		)
		return
	}

	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Error("Failed to commit message after successful processing",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"key", string(msg.Key),
			"error", err,
		)
	}
}

func (c *KafkaConsumer) Close() error {
	if c.reader != nil {
		return c.reader.Close()
	}
	return nil
}
