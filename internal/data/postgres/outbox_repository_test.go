package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/community-billing-ledger/internal/domain/outbox"
	"github.com/community-billing-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutboxRepository_Create(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OutboxRepository{querier: mock, logger: logger}

	message := &outbox.Message{
		EntryID:    uuid.New(),
		EntityKind: "community",
		EntityID:   uuid.New().String(),
		Payload:    []byte(`{"action":"CREATE"}`),
		Status:     shared.OutboxStatusPending,
		Attempts:   0,
		CreatedAt:  time.Now(),
	}

	query := `
		INSERT INTO audit_outbox \(entry_id, entity_kind, entity_id, payload, status, attempts, created_at\)
		VALUES \(\$1, \$2, \$3, \$4, \$5, \$6, \$7\)
		RETURNING id
	`

	t.Run("success", func(t *testing.T) {
		rows := pgxmock.NewRows([]string{"id"}).AddRow(int64(42))
		mock.ExpectQuery(query).
			WithArgs(message.EntryID, message.EntityKind, message.EntityID, message.Payload, message.Status, message.Attempts, message.CreatedAt).
			WillReturnRows(rows)

		err := repo.Create(ctx, message)
		assert.NoError(t, err)
		assert.Equal(t, int64(42), message.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate entry", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(message.EntryID, message.EntityKind, message.EntityID, message.Payload, message.Status, message.Attempts, message.CreatedAt).
			WillReturnError(&pgconn.PgError{Code: "23505"})

		err := repo.Create(ctx, message)
		assert.Error(t, err)
		var dupErr outbox.ErrDuplicateMessage
		assert.ErrorAs(t, err, &dupErr)
		assert.Equal(t, message.EntryID, dupErr.EntryID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		dbErr := errors.New("insert db error")
		mock.ExpectQuery(query).
			WithArgs(message.EntryID, message.EntityKind, message.EntityID, message.Payload, message.Status, message.Attempts, message.CreatedAt).
			WillReturnError(dbErr)

		err := repo.Create(ctx, message)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create audit outbox message")
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOutboxRepository_GetPending(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OutboxRepository{querier: mock, logger: logger}
	now := time.Now()

	query := `
		SELECT id, entry_id, entity_kind, entity_id, payload, status, attempts, created_at, last_attempt_at
		FROM audit_outbox
		WHERE status = \$1
		ORDER BY created_at ASC
		LIMIT \$2
	`

	t.Run("success", func(t *testing.T) {
		firstEntry := uuid.New()
		secondEntry := uuid.New()
		rows := pgxmock.NewRows([]string{"id", "entry_id", "entity_kind", "entity_id", "payload", "status", "attempts", "created_at", "last_attempt_at"}).
			AddRow(int64(1), firstEntry, "community", uuid.New().String(), []byte(`{}`), shared.OutboxStatusPending, 0, now, (*time.Time)(nil)).
			AddRow(int64(2), secondEntry, "ledger_record", uuid.New().String(), []byte(`{}`), shared.OutboxStatusPending, 1, now, &now)
		mock.ExpectQuery(query).WithArgs(shared.OutboxStatusPending, 10).WillReturnRows(rows)

		messages, err := repo.GetPending(ctx, 10)
		assert.NoError(t, err)
		require.Len(t, messages, 2)
		assert.Equal(t, int64(1), messages[0].ID)
		assert.Equal(t, firstEntry, messages[0].EntryID)
		assert.Nil(t, messages[0].LastAttemptAt)
		assert.Equal(t, int64(2), messages[1].ID)
		assert.Equal(t, 1, messages[1].Attempts)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty batch", func(t *testing.T) {
		rows := pgxmock.NewRows([]string{"id", "entry_id", "entity_kind", "entity_id", "payload", "status", "attempts", "created_at", "last_attempt_at"})
		mock.ExpectQuery(query).WithArgs(shared.OutboxStatusPending, 10).WillReturnRows(rows)

		messages, err := repo.GetPending(ctx, 10)
		assert.NoError(t, err)
		assert.Empty(t, messages)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		dbErr := errors.New("query db error")
		mock.ExpectQuery(query).WithArgs(shared.OutboxStatusPending, 10).WillReturnError(dbErr)

		messages, err := repo.GetPending(ctx, 10)
		assert.Error(t, err)
		assert.Nil(t, messages)
		assert.Contains(t, err.Error(), "failed to get pending audit outbox messages")
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOutboxRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OutboxRepository{querier: mock, logger: logger}
	messageID := int64(7)

	query := `
		UPDATE audit_outbox
		SET status = \$1, last_attempt_at = \$2
		WHERE id = \$3
	`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(shared.OutboxStatusProcessed, pgxmock.AnyArg(), messageID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.UpdateStatus(ctx, messageID, shared.OutboxStatusProcessed)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(shared.OutboxStatusProcessed, pgxmock.AnyArg(), messageID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.UpdateStatus(ctx, messageID, shared.OutboxStatusProcessed)
		assert.Error(t, err)
		var notFoundErr outbox.ErrMessageNotFound
		assert.ErrorAs(t, err, &notFoundErr)
		assert.Equal(t, messageID, notFoundErr.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		dbErr := errors.New("update db error")
		mock.ExpectExec(query).
			WithArgs(shared.OutboxStatusProcessed, pgxmock.AnyArg(), messageID).
			WillReturnError(dbErr)

		err := repo.UpdateStatus(ctx, messageID, shared.OutboxStatusProcessed)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to update audit outbox message status")
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOutboxRepository_IncrementAttempts(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OutboxRepository{querier: mock, logger: logger}
	messageID := int64(7)

	query := `
		UPDATE audit_outbox
		SET attempts = attempts \+ 1, last_attempt_at = \$1
		WHERE id = \$2
	`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(pgxmock.AnyArg(), messageID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.IncrementAttempts(ctx, messageID)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(pgxmock.AnyArg(), messageID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.IncrementAttempts(ctx, messageID)
		assert.Error(t, err)
		var notFoundErr outbox.ErrMessageNotFound
		assert.ErrorAs(t, err, &notFoundErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOutboxRepository_GetByEntryID(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OutboxRepository{querier: mock, logger: logger}
	entryID := uuid.New()
	now := time.Now()

	query := `
		SELECT id, entry_id, entity_kind, entity_id, payload, status, attempts, created_at, last_attempt_at
		FROM audit_outbox
		WHERE entry_id = \$1
	`

	t.Run("success", func(t *testing.T) {
		rows := pgxmock.NewRows([]string{"id", "entry_id", "entity_kind", "entity_id", "payload", "status", "attempts", "created_at", "last_attempt_at"}).
			AddRow(int64(3), entryID, "expense", uuid.New().String(), []byte(`{}`), shared.OutboxStatusProcessed, 1, now, &now)
		mock.ExpectQuery(query).WithArgs(entryID).WillReturnRows(rows)

		message, err := repo.GetByEntryID(ctx, entryID)
		assert.NoError(t, err)
		require.NotNil(t, message)
		assert.Equal(t, int64(3), message.ID)
		assert.Equal(t, entryID, message.EntryID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(entryID).WillReturnError(pgx.ErrNoRows)

		message, err := repo.GetByEntryID(ctx, entryID)
		assert.Error(t, err)
		assert.Nil(t, message)
		var notFoundErr outbox.ErrMessageNotFound
		assert.ErrorAs(t, err, &notFoundErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOutboxRepository_WithTx(t *testing.T) {
	logger := newTestLogger()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	originalRepo := &OutboxRepository{querier: mockPool, logger: logger}

	mockPool.ExpectBegin()
	pgxTx, err := mockPool.Begin(context.Background())
	require.NoError(t, err)

	txRepo := originalRepo.WithTx(pgxTx)

	assert.NotNil(t, txRepo)
	assert.Equal(t, pgxTx, txRepo.(*OutboxRepository).querier, "Querier in new repo should be the transaction")

	assert.NoError(t, mockPool.ExpectationsWereMet())
}
