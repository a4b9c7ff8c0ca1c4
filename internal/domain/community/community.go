package community

import (
	"errors"
	"time"

	"github.com/community-billing-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// Common errors
var (
	ErrInvalidAmount = errors.New("amount must not be negative")
	ErrEmptyName     = errors.New("community name cannot be empty")
	ErrEmptyReason   = errors.New("revision reason cannot be empty")
)

// Community represents a residential community and its billing policy.
// All monetary values are stored in cents/minor units.
type Community struct {
	ID          uuid.UUID          `json:"id"`
	Name        string             `json:"name"`
	BillingMode shared.BillingMode `json:"billing_mode"`
	// RatePerArea is the monthly charge per unit of floor area (AreaRate mode)
	RatePerArea int64 `json:"rate_per_area"`
	// FixedAmount is the flat monthly charge per unit (FixedAmount mode)
	FixedAmount int64 `json:"fixed_amount"`
	// OpeningBalance is nil until an admin sets it; once BalanceLocked it is
	// mutated only through an approved revision request, never directly.
	OpeningBalance *int64    `json:"opening_balance,omitempty"`
	BalanceLocked  bool      `json:"balance_locked"`
	Version        int       `json:"version"` // For optimistic locking
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewCommunity creates a community, normalizing the free-text billing mode label
func NewCommunity(name string, modeLabel string, ratePerArea int64, fixedAmount int64) (*Community, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if ratePerArea < 0 || fixedAmount < 0 {
		return nil, ErrInvalidAmount
	}

	return &Community{
		ID:          uuid.New(),
		Name:        name,
		BillingMode: shared.ParseBillingMode(modeLabel),
		RatePerArea: ratePerArea,
		FixedAmount: fixedAmount,
		Version:     1,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}, nil
}

// RevisionRequest asks for an overwrite of a locked opening balance.
// At most one request per community may be pending at a time, and it must be
// resolved by a different admin than its requester.
type RevisionRequest struct {
	ID          uuid.UUID             `json:"id"`
	CommunityID uuid.UUID             `json:"community_id"`
	RequestedBy uuid.UUID             `json:"requested_by"`
	Amount      int64                 `json:"amount"`
	Reason      string                `json:"reason"`
	Status      shared.RevisionStatus `json:"status"`
	ResolvedBy  *uuid.UUID            `json:"resolved_by,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	ResolvedAt  *time.Time            `json:"resolved_at,omitempty"`
}

// NewRevisionRequest creates a pending revision request for a community
func NewRevisionRequest(communityID uuid.UUID, requestedBy uuid.UUID, amount int64, reason string) (*RevisionRequest, error) {
	if amount < 0 {
		return nil, ErrInvalidAmount
	}
	if reason == "" {
		return nil, ErrEmptyReason
	}

	return &RevisionRequest{
		ID:          uuid.New(),
		CommunityID: communityID,
		RequestedBy: requestedBy,
		Amount:      amount,
		Reason:      reason,
		Status:      shared.RevisionStatusPending,
		CreatedAt:   time.Now(),
	}, nil
}

// Snapshot returns the audit-relevant fields of the community as a map,
// suitable for diffing between two points in time.
func (c *Community) Snapshot() map[string]any {
	var balance any
	if c.OpeningBalance != nil {
		balance = *c.OpeningBalance
	}
	return map[string]any{
		"name":            c.Name,
		"billing_mode":    string(c.BillingMode),
		"rate_per_area":   c.RatePerArea,
		"fixed_amount":    c.FixedAmount,
		"opening_balance": balance,
		"balance_locked":  c.BalanceLocked,
	}
}
