package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action defines the kind of mutation an audit entry records
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// IgnoredFields is the deny-list of denormalized and technical fields that
// never appear in rendered change history.
var IgnoredFields = []string{
	"id", "created_at", "updated_at", "version",
	"community_name", "unit_label", "owner_name",
}

// Entry is one append-only audit log record; entries are never mutated or
// deleted after creation.
type Entry struct {
	ID         uuid.UUID      `json:"id" bson:"entry_id"`
	EntityKind string         `json:"entity_kind" bson:"entity_kind"`
	EntityID   string         `json:"entity_id" bson:"entity_id"`
	Action     Action         `json:"action" bson:"action"`
	ActorID    uuid.UUID      `json:"actor_id" bson:"actor_id"`
	Changes    []FieldChange  `json:"changes" bson:"changes"`
	OldState   map[string]any `json:"old_state,omitempty" bson:"old_state,omitempty"`
	NewState   map[string]any `json:"new_state,omitempty" bson:"new_state,omitempty"`
	CreatedAt  time.Time      `json:"created_at" bson:"created_at"`
}

// NewEntry builds an audit entry for a mutation, computing the change-set
// from the before/after snapshots with the standard deny-list.
func NewEntry(entityKind, entityID string, action Action, actorID uuid.UUID, oldState, newState map[string]any) *Entry {
	return &Entry{
		ID:         uuid.New(),
		EntityKind: entityKind,
		EntityID:   entityID,
		Action:     action,
		ActorID:    actorID,
		Changes:    Diff(oldState, newState, IgnoredFields),
		OldState:   oldState,
		NewState:   newState,
		CreatedAt:  time.Now().UTC(),
	}
}
