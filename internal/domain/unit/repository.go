package unit

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines unit persistence operations
type Repository interface {
	Create(ctx context.Context, u *Unit) error
	GetByID(ctx context.Context, id uuid.UUID) (*Unit, error)
	ListByCommunityID(ctx context.Context, communityID uuid.UUID, limit, offset int) ([]*Unit, error)
	CountByCommunityID(ctx context.Context, communityID uuid.UUID) (int64, error)
}

// ErrUnitNotFound indicates missing unit
type ErrUnitNotFound struct {
	UnitID uuid.UUID
}

func (e ErrUnitNotFound) Error() string {
	return "unit not found: " + e.UnitID.String()
}

// Is implements the errors.Is interface for ErrUnitNotFound
func (e ErrUnitNotFound) Is(target error) bool {
	t, ok := target.(ErrUnitNotFound)
	if !ok {
		return false
	}
	if t.UnitID == uuid.Nil {
		return true
	}
	return e.UnitID == t.UnitID
}
