package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"

	"github.com/community-billing-ledger/internal/domain/community"
	"github.com/community-billing-ledger/internal/domain/expense"
	"github.com/community-billing-ledger/internal/domain/ledger"
	"github.com/community-billing-ledger/internal/domain/outbox"
	"github.com/community-billing-ledger/internal/domain/shared"
	"github.com/community-billing-ledger/internal/domain/unit"
)

type MockCommunityRepository struct {
	mock.Mock
}

func (m *MockCommunityRepository) Create(ctx context.Context, c *community.Community) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCommunityRepository) GetByID(ctx context.Context, id uuid.UUID) (*community.Community, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*community.Community), args.Error(1)
}

func (m *MockCommunityRepository) List(ctx context.Context, limit, offset int) ([]*community.Community, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*community.Community), args.Error(1)
}

func (m *MockCommunityRepository) LockOpeningBalance(ctx context.Context, id uuid.UUID, amount int64) error {
	args := m.Called(ctx, id, amount)
	return args.Error(0)
}

func (m *MockCommunityRepository) OverwriteOpeningBalance(ctx context.Context, id uuid.UUID, amount int64) error {
	args := m.Called(ctx, id, amount)
	return args.Error(0)
}

func (m *MockCommunityRepository) CreateRevision(ctx context.Context, req *community.RevisionRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockCommunityRepository) GetPendingRevision(ctx context.Context, communityID uuid.UUID) (*community.RevisionRequest, error) {
	args := m.Called(ctx, communityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*community.RevisionRequest), args.Error(1)
}

func (m *MockCommunityRepository) ResolveRevision(ctx context.Context, req *community.RevisionRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockCommunityRepository) WithTx(tx pgx.Tx) community.Repository {
	return m
}

type MockUnitRepository struct {
	mock.Mock
}

func (m *MockUnitRepository) Create(ctx context.Context, u *unit.Unit) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUnitRepository) GetByID(ctx context.Context, id uuid.UUID) (*unit.Unit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*unit.Unit), args.Error(1)
}

func (m *MockUnitRepository) ListByCommunityID(ctx context.Context, communityID uuid.UUID, limit, offset int) ([]*unit.Unit, error) {
	args := m.Called(ctx, communityID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*unit.Unit), args.Error(1)
}

func (m *MockUnitRepository) CountByCommunityID(ctx context.Context, communityID uuid.UUID) (int64, error) {
	args := m.Called(ctx, communityID)
	return args.Get(0).(int64), args.Error(1)
}

type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) Create(ctx context.Context, record *ledger.Record) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockLedgerRepository) GetByID(ctx context.Context, id uuid.UUID) (*ledger.Record, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Record), args.Error(1)
}

func (m *MockLedgerRepository) GetByUnitAndPeriod(ctx context.Context, unitID uuid.UUID, period time.Time) (*ledger.Record, error) {
	args := m.Called(ctx, unitID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Record), args.Error(1)
}

func (m *MockLedgerRepository) ListByUnitID(ctx context.Context, unitID uuid.UUID, limit, offset int) ([]*ledger.Record, error) {
	args := m.Called(ctx, unitID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.Record), args.Error(1)
}

func (m *MockLedgerRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to shared.RecordStatus) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}

func (m *MockLedgerRepository) TotalsForPeriod(ctx context.Context, communityID uuid.UUID, period time.Time) (int64, int64, error) {
	args := m.Called(ctx, communityID, period)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

func (m *MockLedgerRepository) CollectedBefore(ctx context.Context, communityID uuid.UUID, period time.Time) (int64, error) {
	args := m.Called(ctx, communityID, period)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedgerRepository) TotalsForAllCommunities(ctx context.Context, period time.Time) ([]*ledger.MonthTotals, error) {
	args := m.Called(ctx, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.MonthTotals), args.Error(1)
}

type MockExpenseRepository struct {
	mock.Mock
}

func (m *MockExpenseRepository) Create(ctx context.Context, e *expense.Expense) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockExpenseRepository) ListByCommunityAndPeriod(ctx context.Context, communityID uuid.UUID, period time.Time) ([]*expense.Expense, error) {
	args := m.Called(ctx, communityID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*expense.Expense), args.Error(1)
}

func (m *MockExpenseRepository) SumForPeriod(ctx context.Context, communityID uuid.UUID, period time.Time) (int64, error) {
	args := m.Called(ctx, communityID, period)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockExpenseRepository) SumBefore(ctx context.Context, communityID uuid.UUID, period time.Time) (int64, error) {
	args := m.Called(ctx, communityID, period)
	return args.Get(0).(int64), args.Error(1)
}

type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) Create(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockOutboxRepository) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepository) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOutboxRepository) IncrementAttempts(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepository) GetByEntryID(ctx context.Context, entryID uuid.UUID) (*outbox.Message, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepository) WithTx(tx pgx.Tx) outbox.Repository {
	return m
}

// MockTxRunner runs the transactional closure directly against the mocks
type MockTxRunner struct {
	mock.Mock
}

func (m *MockTxRunner) ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	args := m.Called(ctx, fn)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(nil)
}

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

type MockMessagePublisher struct {
	mock.Mock
}

func (m *MockMessagePublisher) Publish(ctx context.Context, key string, value interface{}) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockMessagePublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}
