package expense

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines expense persistence operations
type Repository interface {
	Create(ctx context.Context, e *Expense) error
	ListByCommunityAndPeriod(ctx context.Context, communityID uuid.UUID, period time.Time) ([]*Expense, error)

	// SumForPeriod totals a community's expenses booked against one period
	SumForPeriod(ctx context.Context, communityID uuid.UUID, period time.Time) (int64, error)

	// SumBefore totals all expenses for periods strictly before the given one
	SumBefore(ctx context.Context, communityID uuid.UUID, period time.Time) (int64, error)
}
