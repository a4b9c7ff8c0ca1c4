package audit

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff(t *testing.T) {
	t.Run("reports changed keys in order", func(t *testing.T) {
		changes := Diff(
			map[string]any{"b": 1, "a": 1},
			map[string]any{"b": 2, "a": 3},
			nil,
		)
		require.Len(t, changes, 2)
		assert.Equal(t, "a", changes[0].Key)
		assert.Equal(t, 1, changes[0].Old)
		assert.Equal(t, 3, changes[0].New)
		assert.Equal(t, "b", changes[1].Key)
	})

	t.Run("single change", func(t *testing.T) {
		changes := Diff(map[string]any{"a": 1}, map[string]any{"a": 2}, nil)
		require.Len(t, changes, 1)
		assert.Equal(t, FieldChange{Key: "a", Old: 1, New: 2}, changes[0])
	})

	t.Run("loose equality ignores type drift", func(t *testing.T) {
		changes := Diff(
			map[string]any{"a": 1, "b": 2},
			map[string]any{"a": 1, "b": "2"},
			nil,
		)
		assert.Empty(t, changes)
	})

	t.Run("ignored fields never appear", func(t *testing.T) {
		changes := Diff(
			map[string]any{"a": 1, "updated_at": "2024-01-01"},
			map[string]any{"a": 2, "updated_at": "2024-06-01"},
			[]string{"updated_at"},
		)
		require.Len(t, changes, 1)
		assert.Equal(t, "a", changes[0].Key)
	})

	t.Run("keys only in one snapshot are included", func(t *testing.T) {
		changes := Diff(
			map[string]any{"a": 1},
			map[string]any{"a": 1, "b": 7},
			nil,
		)
		require.Len(t, changes, 1)
		assert.Equal(t, "b", changes[0].Key)
		assert.Nil(t, changes[0].Old)
		assert.Equal(t, 7, changes[0].New)
	})

	t.Run("pure creation falls back to full snapshot", func(t *testing.T) {
		snap := map[string]any{}
		changes := Diff(nil, snap, nil)
		require.Len(t, changes, 1)
		assert.Equal(t, SnapshotKey, changes[0].Key)
		assert.Nil(t, changes[0].Old)
		assert.Equal(t, snap, changes[0].New)
	})

	t.Run("pure deletion falls back to full snapshot", func(t *testing.T) {
		snap := map[string]any{"a": 1}
		changes := Diff(snap, nil, nil)
		require.Len(t, changes, 1)
		assert.Equal(t, SnapshotKey, changes[0].Key)
		assert.Equal(t, snap, changes[0].Old)
		assert.Nil(t, changes[0].New)
	})

	t.Run("identical snapshots yield nothing", func(t *testing.T) {
		snap := map[string]any{"a": 1}
		assert.Empty(t, Diff(snap, snap, nil))
	})

	t.Run("both nil yields nothing", func(t *testing.T) {
		assert.Empty(t, Diff(nil, nil, nil))
	})
}

func TestNewEntry(t *testing.T) {
	actor := uuid.New()
	entry := NewEntry("community", uuid.New().String(), ActionUpdate, actor,
		map[string]any{"opening_balance": int64(1000), "id": "x"},
		map[string]any{"opening_balance": int64(2500), "id": "y"},
	)

	assert.NotEqual(t, uuid.Nil, entry.ID)
	assert.Equal(t, actor, entry.ActorID)
	require.Len(t, entry.Changes, 1, "id is on the deny-list")
	assert.Equal(t, "opening_balance", entry.Changes[0].Key)
	assert.Equal(t, int64(1000), entry.Changes[0].Old)
	assert.Equal(t, int64(2500), entry.Changes[0].New)
	assert.False(t, entry.CreatedAt.IsZero())
}
