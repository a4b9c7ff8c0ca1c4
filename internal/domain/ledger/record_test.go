package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/community-billing-ledger/internal/domain/shared"
)

func TestNewRecord(t *testing.T) {
	unitID := uuid.New()
	communityID := uuid.New()

	t.Run("StartsPending", func(t *testing.T) {
		record := NewRecord(unitID, communityID, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), 21375)

		assert.NotEqual(t, uuid.Nil, record.ID)
		assert.Equal(t, unitID, record.UnitID)
		assert.Equal(t, communityID, record.CommunityID)
		assert.Equal(t, int64(21375), record.Amount)
		assert.Equal(t, shared.RecordStatusPending, record.Status)
	})

	t.Run("NormalizesPeriodToFirstOfMonthUTC", func(t *testing.T) {
		loc := time.FixedZone("UTC+3", 3*60*60)
		midMonth := time.Date(2025, time.March, 17, 14, 30, 0, 0, loc)

		record := NewRecord(unitID, communityID, midMonth, 21375)

		assert.Equal(t, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), record.Period)
	})
}

func TestRecord_Snapshot(t *testing.T) {
	record := NewRecord(uuid.New(), uuid.New(), time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), 21375)

	snap := record.Snapshot()

	assert.Equal(t, "2025-03", snap["period"])
	assert.Equal(t, int64(21375), snap["amount"])
	assert.Equal(t, "PENDING", snap["status"])
}

func TestErrDuplicateRecord_Is(t *testing.T) {
	unitID := uuid.New()
	period := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	err := ErrDuplicateRecord{UnitID: unitID, Period: period}

	assert.ErrorIs(t, err, ErrDuplicateRecord{UnitID: unitID, Period: period})
	assert.ErrorIs(t, err, ErrDuplicateRecord{})
	assert.NotErrorIs(t, err, ErrDuplicateRecord{UnitID: uuid.New(), Period: period})
}
