package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/community-billing-ledger/internal/billing_worker/service"
	"github.com/community-billing-ledger/internal/domain/shared"
	"github.com/community-billing-ledger/internal/platform/messaging/producers"
)

// BackfillEventHandler handles incoming backfill request messages from Kafka
type BackfillEventHandler struct {
	backfillService service.BackfillService
	producer        producers.DeadLetterPublisher
	logger          *slog.Logger
}

// NewBackfillEventHandler creates a new handler
func NewBackfillEventHandler(
	logger *slog.Logger,
	backfillService service.BackfillService,
	producer producers.DeadLetterPublisher,
) *BackfillEventHandler {
	return &BackfillEventHandler{
		backfillService: backfillService,
		producer:        producer,
		logger:          logger,
	}
}

// HandleMessage processes Kafka messages
func (h *BackfillEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var request shared.BackfillRequest
	if err := json.Unmarshal(value, &request); err != nil {
		unmarshalErrorMsg := "Failed to unmarshal backfill request from Kafka message"
		h.logger.Error(unmarshalErrorMsg,
			"error", err,
			"message_key", string(key),
		)

		// Send to DLQ if available
		if h.producer != nil {
			dlqReason := fmt.Sprintf("%s: %s", unmarshalErrorMsg, err.Error())
			if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, dlqReason); dlqErr != nil {
				h.logger.Error("Failed to publish message to DLQ after unmarshal error",
					"dlq_error", dlqErr,
					"original_error", err,
					"message_key", string(key),
				)
				// Return original error if DLQ fails
			} else {
				h.logger.Info("Successfully published unprocessable message to DLQ", "message_key", string(key), "reason", dlqReason)
				// Message handled, commit offset
				return nil
			}
		}
		// Allow Kafka retries
		return fmt.Errorf("failed to unmarshal message value: %w", err)
	}

	// Add correlation ID to logger
	logger := h.logger
	if request.CorrelationID != "" {
		logger = h.logger.With("correlation_id", request.CorrelationID)
	}

	logger.Info("Received backfill request for processing",
		"request_id", request.RequestID.String(),
		"unit_id", request.UnitID.String(),
		"community_id", request.CommunityID.String(),
		"as_of", request.AsOf,
	)

	if err := h.backfillService.ProcessBackfill(ctx, &request); err != nil {
		logger.Error("Failed to process backfill request",
			"request_id", request.RequestID.String(),
			"unit_id", request.UnitID.String(),
			"error", err,
		)
		return fmt.Errorf("processing backfill %s failed: %w", request.RequestID.String(), err)
	}

	logger.Info("Successfully processed backfill request", "request_id", request.RequestID.String())
	return nil // Success, commit offset
}
