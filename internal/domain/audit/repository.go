package audit

import (
	"context"

	"github.com/google/uuid"
)

// Repository manages append-only audit log persistence
type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	GetByID(ctx context.Context, id uuid.UUID) (*Entry, error)
	ListByEntity(ctx context.Context, entityKind, entityID string, limit, offset int) ([]*Entry, error)
	CountByEntity(ctx context.Context, entityKind, entityID string) (int64, error)
}

// ErrEntryNotFound indicates missing audit entry
type ErrEntryNotFound struct {
	EntryID uuid.UUID
}

func (e ErrEntryNotFound) Error() string {
	return "audit entry not found: " + e.EntryID.String()
}

// Is implements the errors.Is interface for ErrEntryNotFound
func (e ErrEntryNotFound) Is(target error) bool {
	t, ok := target.(ErrEntryNotFound)
	if !ok {
		return false
	}
	if t.EntryID == uuid.Nil {
		return true
	}
	return e.EntryID == t.EntryID
}
