package unit

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrEmptyLabel       = errors.New("unit label cannot be empty")
	ErrNegativeArea     = errors.New("floor area must not be negative")
	ErrMissingCommunity = errors.New("unit must belong to a community")
)

// Unit represents a single residence within a community
type Unit struct {
	ID          uuid.UUID `json:"id"`
	CommunityID uuid.UUID `json:"community_id"`
	// Label is the human-readable unit designation, e.g. "B-1204"
	Label string `json:"label"`
	// FloorArea feeds the AreaRate billing mode; zero means nothing to bill
	FloorArea float64 `json:"floor_area"`
	// BillingStart is the date billing obligations begin; nil until onboarding
	// is complete, and no ledger periods are generated while it is unset.
	BillingStart *time.Time `json:"billing_start,omitempty"`
	OwnerID      uuid.UUID  `json:"owner_id"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// NewUnit creates a new unit in the given community
func NewUnit(communityID uuid.UUID, label string, floorArea float64, ownerID uuid.UUID, billingStart *time.Time) (*Unit, error) {
	if communityID == uuid.Nil {
		return nil, ErrMissingCommunity
	}
	if label == "" {
		return nil, ErrEmptyLabel
	}
	if floorArea < 0 {
		return nil, ErrNegativeArea
	}

	return &Unit{
		ID:           uuid.New(),
		CommunityID:  communityID,
		Label:        label,
		FloorArea:    floorArea,
		BillingStart: billingStart,
		OwnerID:      ownerID,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}, nil
}
