package shared

import (
	"time"

	"github.com/google/uuid"
)

// BackfillRequest defines a Kafka message asking the billing worker to
// generate the missing ledger periods for a single unit up to AsOf.
type BackfillRequest struct {
	RequestID     uuid.UUID `json:"request_id"`
	UnitID        uuid.UUID `json:"unit_id"`
	CommunityID   uuid.UUID `json:"community_id"`
	AsOf          time.Time `json:"as_of"`
	RequestedBy   uuid.UUID `json:"requested_by"`
	CorrelationID string    `json:"correlation_id"`
	Timestamp     time.Time `json:"timestamp"`
}
