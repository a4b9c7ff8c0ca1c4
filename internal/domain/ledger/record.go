package ledger

import (
	"time"

	"github.com/community-billing-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// Record is one unit's maintenance billing obligation for one calendar month.
// Period is always the first day of the month in UTC; at most one record may
// exist per (unit, period), enforced by the storage layer. Records are never
// deleted, only status-transitioned.
type Record struct {
	ID     uuid.UUID `json:"id"`
	UnitID uuid.UUID `json:"unit_id"`
	// CommunityID is denormalized from the unit for community-level rollups
	CommunityID uuid.UUID           `json:"community_id"`
	Period      time.Time           `json:"period"`
	Amount      int64               `json:"amount"` // Stored in cents/minor units
	Status      shared.RecordStatus `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// NewRecord creates a pending record for the given period, normalized to the
// first day of its month in UTC.
func NewRecord(unitID, communityID uuid.UUID, period time.Time, amount int64) *Record {
	p := time.Date(period.Year(), period.Month(), 1, 0, 0, 0, 0, time.UTC)
	return &Record{
		ID:          uuid.New(),
		UnitID:      unitID,
		CommunityID: communityID,
		Period:      p,
		Amount:      amount,
		Status:      shared.RecordStatusPending,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
}

// Snapshot returns the audit-relevant fields of the record as a map
func (r *Record) Snapshot() map[string]any {
	return map[string]any{
		"unit_id":      r.UnitID.String(),
		"community_id": r.CommunityID.String(),
		"period":       r.Period.Format("2006-01"),
		"amount":       r.Amount,
		"status":       string(r.Status),
	}
}
