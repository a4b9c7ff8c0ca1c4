package expense

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrInvalidAmount    = errors.New("expense amount must be positive")
	ErrEmptyDescription = errors.New("expense description cannot be empty")
)

// Expense is a community outgoing booked against a billing period; it is the
// subtrahend in the monthly closing balance recurrence.
type Expense struct {
	ID          uuid.UUID `json:"id"`
	CommunityID uuid.UUID `json:"community_id"`
	Period      time.Time `json:"period"`
	Amount      int64     `json:"amount"` // Stored in cents/minor units
	Description string    `json:"description"`
	RecordedBy  uuid.UUID `json:"recorded_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewExpense creates an expense booked against the month containing incurredAt
func NewExpense(communityID uuid.UUID, incurredAt time.Time, amount int64, description string, recordedBy uuid.UUID) (*Expense, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if description == "" {
		return nil, ErrEmptyDescription
	}

	period := time.Date(incurredAt.Year(), incurredAt.Month(), 1, 0, 0, 0, 0, time.UTC)
	return &Expense{
		ID:          uuid.New(),
		CommunityID: communityID,
		Period:      period,
		Amount:      amount,
		Description: description,
		RecordedBy:  recordedBy,
		CreatedAt:   time.Now(),
	}, nil
}
