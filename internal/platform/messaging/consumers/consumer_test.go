package consumers

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/community-billing-ledger/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// kafka.Reader exposes no configuration accessors, so construction and the
// nil-reader close path are the only things covered without a broker.

func TestNewKafkaConsumer(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	cfg := &config.KafkaConfig{
		Brokers:       "localhost:9092",
		BackfillTopic: "billing-backfills",
		ConsumerGroup: "billing-worker-group",
		MinBytes:      1024,
		MaxBytes:      10240,
		MaxWait:       time.Second,
	}

	consumer := NewKafkaConsumer(context.Background(), logger, cfg)
	require.NotNil(t, consumer)
	require.NotNil(t, consumer.reader)
	assert.Equal(t, logger, consumer.logger)
}

func TestKafkaConsumer_Close(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	t.Run("CloseWithNilReader", func(t *testing.T) {
		consumer := &KafkaConsumer{reader: nil, logger: logger}
		require.NoError(t, consumer.Close())
	})
}
