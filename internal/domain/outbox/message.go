package outbox

import (
	"encoding/json"
	"time"

	"github.com/community-billing-ledger/internal/domain/audit"
	"github.com/community-billing-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// Message stores an audit entry for reliable publishing to the audit store.
// Writing the message in the same database transaction as the financial
// mutation guarantees the audit trail cannot diverge from the ledger state.
type Message struct {
	ID            int64               `json:"id"`
	EntryID       uuid.UUID           `json:"entry_id"`
	EntityKind    string              `json:"entity_kind"`
	EntityID      string              `json:"entity_id"`
	Payload       json.RawMessage     `json:"payload"`
	Status        shared.OutboxStatus `json:"status"`
	Attempts      int                 `json:"attempts"`
	CreatedAt     time.Time           `json:"created_at"`
	LastAttemptAt *time.Time          `json:"last_attempt_at,omitempty"`
}

func NewMessage(entry *audit.Entry) (*Message, error) {
	payload, err := json.Marshal(entry)
	if err != nil {
		return nil, err
	}

	return &Message{
		EntryID:    entry.ID,
		EntityKind: entry.EntityKind,
		EntityID:   entry.EntityID,
		Payload:    payload,
		Status:     shared.OutboxStatusPending,
		Attempts:   0,
		CreatedAt:  time.Now(),
	}, nil
}

func (m *Message) IncrementAttempts() {
	m.Attempts++
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsProcessed() {
	m.Status = shared.OutboxStatusProcessed
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsFailed() {
	m.Status = shared.OutboxStatusFailedToPublish
	now := time.Now()
	m.LastAttemptAt = &now
}

// GetAuditEntry extracts the audit entry from the payload
func (m *Message) GetAuditEntry() (*audit.Entry, error) {
	var entry audit.Entry
	if err := json.Unmarshal(m.Payload, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}
