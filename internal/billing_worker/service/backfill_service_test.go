package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/community-billing-ledger/internal/domain/ledger"
	"github.com/community-billing-ledger/internal/domain/shared"
)

// MockPeriodGenerator for testing
type MockPeriodGenerator struct {
	mock.Mock
}

func (m *MockPeriodGenerator) GeneratePeriods(ctx context.Context, unitID uuid.UUID, asOf time.Time, actorID uuid.UUID) ([]*ledger.Record, error) {
	args := m.Called(ctx, unitID, asOf, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.Record), args.Error(1)
}

func TestProcessBackfill(t *testing.T) {
	logger := slog.Default()

	request := &shared.BackfillRequest{
		RequestID:   uuid.New(),
		UnitID:      uuid.New(),
		CommunityID: uuid.New(),
		AsOf:        time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC),
		RequestedBy: uuid.New(),
	}

	t.Run("invokes generator with request parameters", func(t *testing.T) {
		mockGenerator := &MockPeriodGenerator{}
		svc := NewBackfillService(logger, mockGenerator)

		created := []*ledger.Record{
			ledger.NewRecord(request.UnitID, request.CommunityID, time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC), 5000),
		}
		mockGenerator.On("GeneratePeriods", mock.Anything, request.UnitID, request.AsOf, request.RequestedBy).Return(created, nil).Once()

		err := svc.ProcessBackfill(context.Background(), request)
		assert.NoError(t, err)

		mockGenerator.AssertExpectations(t)
	})

	t.Run("empty generation is a success", func(t *testing.T) {
		mockGenerator := &MockPeriodGenerator{}
		svc := NewBackfillService(logger, mockGenerator)

		mockGenerator.On("GeneratePeriods", mock.Anything, request.UnitID, request.AsOf, request.RequestedBy).Return([]*ledger.Record{}, nil).Once()

		err := svc.ProcessBackfill(context.Background(), request)
		assert.NoError(t, err)
	})

	t.Run("generator error is wrapped", func(t *testing.T) {
		mockGenerator := &MockPeriodGenerator{}
		svc := NewBackfillService(logger, mockGenerator)

		mockGenerator.On("GeneratePeriods", mock.Anything, request.UnitID, request.AsOf, request.RequestedBy).Return(nil, errors.New("db error")).Once()

		err := svc.ProcessBackfill(context.Background(), request)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "backfill for unit")
	})
}
