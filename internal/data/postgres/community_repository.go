// Package postgres provides PostgreSQL implementations of the domain
// repositories. Every state-machine transition is expressed as a
// preconditioned update so concurrent actors cannot silently overwrite
// each other's financial mutations.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/community-billing-ledger/internal/domain/community"
	"github.com/community-billing-ledger/internal/domain/shared"
	"github.com/community-billing-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolationCode = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// CommunityRepository implements the community.Repository interface for PostgreSQL
type CommunityRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewCommunityRepository creates a new PostgreSQL community repository
func NewCommunityRepository(logger *slog.Logger, db *persistence.PostgresDB) community.Repository {
	return &CommunityRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction, allowing the approved
// revision path to update the request and the balance atomically.
func (r *CommunityRepository) WithTx(tx pgx.Tx) community.Repository {
	return &CommunityRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new community
func (r *CommunityRepository) Create(ctx context.Context, c *community.Community) error {
	query := `
		INSERT INTO communities (id, name, billing_mode, rate_per_area, fixed_amount, opening_balance, balance_locked, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.querier.Exec(ctx, query,
		c.ID,
		c.Name,
		c.BillingMode,
		c.RatePerArea,
		c.FixedAmount,
		c.OpeningBalance,
		c.BalanceLocked,
		c.Version,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create community", "error", err)
		return fmt.Errorf("failed to create community: %w", err)
	}

	return nil
}

// GetByID retrieves a community by its ID
func (r *CommunityRepository) GetByID(ctx context.Context, id uuid.UUID) (*community.Community, error) {
	query := `
		SELECT id, name, billing_mode, rate_per_area, fixed_amount, opening_balance, balance_locked, version, created_at, updated_at
		FROM communities
		WHERE id = $1
	`

	var c community.Community
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.Name,
		&c.BillingMode,
		&c.RatePerArea,
		&c.FixedAmount,
		&c.OpeningBalance,
		&c.BalanceLocked,
		&c.Version,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, community.ErrCommunityNotFound{CommunityID: id}
		}
		r.logger.Error("Failed to get community", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get community: %w", err)
	}

	return &c, nil
}

// List retrieves communities ordered by name
func (r *CommunityRepository) List(ctx context.Context, limit, offset int) ([]*community.Community, error) {
	query := `
		SELECT id, name, billing_mode, rate_per_area, fixed_amount, opening_balance, balance_locked, version, created_at, updated_at
		FROM communities
		ORDER BY name ASC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.querier.Query(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list communities", "error", err)
		return nil, fmt.Errorf("failed to list communities: %w", err)
	}
	defer rows.Close()

	var communities []*community.Community
	for rows.Next() {
		var c community.Community
		err := rows.Scan(
			&c.ID,
			&c.Name,
			&c.BillingMode,
			&c.RatePerArea,
			&c.FixedAmount,
			&c.OpeningBalance,
			&c.BalanceLocked,
			&c.Version,
			&c.CreatedAt,
			&c.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan community: %w", err)
		}
		communities = append(communities, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over communities: %w", err)
	}

	return communities, nil
}

// LockOpeningBalance sets and locks the opening balance, preconditioned on
// the lock not being held. An already-locked balance returns ErrBalanceLocked;
// a missing community returns ErrCommunityNotFound.
func (r *CommunityRepository) LockOpeningBalance(ctx context.Context, id uuid.UUID, amount int64) error {
	query := `
		UPDATE communities
		SET opening_balance = $1, balance_locked = TRUE, version = version + 1, updated_at = NOW()
		WHERE id = $2 AND balance_locked = FALSE
	`

	result, err := r.querier.Exec(ctx, query, amount, id)
	if err != nil {
		r.logger.Error("Failed to lock opening balance", "id", id.String(), "error", err)
		return fmt.Errorf("failed to lock opening balance: %w", err)
	}

	if result.RowsAffected() == 0 {
		// Distinguish a missing community from a lost precondition
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return community.ErrBalanceLocked{CommunityID: id}
	}

	return nil
}

// OverwriteOpeningBalance replaces a locked balance; only the approved
// revision path calls this, inside the same transaction that resolves the
// request.
func (r *CommunityRepository) OverwriteOpeningBalance(ctx context.Context, id uuid.UUID, amount int64) error {
	query := `
		UPDATE communities
		SET opening_balance = $1, version = version + 1, updated_at = NOW()
		WHERE id = $2 AND balance_locked = TRUE
	`

	result, err := r.querier.Exec(ctx, query, amount, id)
	if err != nil {
		r.logger.Error("Failed to overwrite opening balance", "id", id.String(), "error", err)
		return fmt.Errorf("failed to overwrite opening balance: %w", err)
	}

	if result.RowsAffected() == 0 {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return community.ErrBalanceUnset{CommunityID: id}
	}

	return nil
}

// CreateRevision inserts a pending revision request. The partial unique index
// on (community_id) WHERE status = 'PENDING' enforces at most one outstanding
// request per community; a violation maps to ErrRevisionPending.
func (r *CommunityRepository) CreateRevision(ctx context.Context, req *community.RevisionRequest) error {
	query := `
		INSERT INTO balance_revision_requests (id, community_id, requested_by, amount, reason, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.querier.Exec(ctx, query,
		req.ID,
		req.CommunityID,
		req.RequestedBy,
		req.Amount,
		req.Reason,
		req.Status,
		req.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return community.ErrRevisionPending{CommunityID: req.CommunityID}
		}
		r.logger.Error("Failed to create revision request", "community_id", req.CommunityID.String(), "error", err)
		return fmt.Errorf("failed to create revision request: %w", err)
	}

	return nil
}

// GetPendingRevision retrieves the community's outstanding revision request.
// Returns ErrNoPendingRevision when there is none.
func (r *CommunityRepository) GetPendingRevision(ctx context.Context, communityID uuid.UUID) (*community.RevisionRequest, error) {
	query := `
		SELECT id, community_id, requested_by, amount, reason, status, resolved_by, created_at, resolved_at
		FROM balance_revision_requests
		WHERE community_id = $1 AND status = $2
	`

	var req community.RevisionRequest
	err := r.querier.QueryRow(ctx, query, communityID, shared.RevisionStatusPending).Scan(
		&req.ID,
		&req.CommunityID,
		&req.RequestedBy,
		&req.Amount,
		&req.Reason,
		&req.Status,
		&req.ResolvedBy,
		&req.CreatedAt,
		&req.ResolvedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, community.ErrNoPendingRevision{CommunityID: communityID}
		}
		r.logger.Error("Failed to get pending revision request", "community_id", communityID.String(), "error", err)
		return nil, fmt.Errorf("failed to get pending revision request: %w", err)
	}

	return &req, nil
}

// ResolveRevision transitions a request out of PENDING via compare-and-swap.
// The loser of a concurrent resolution race gets ErrRevisionResolved.
func (r *CommunityRepository) ResolveRevision(ctx context.Context, req *community.RevisionRequest) error {
	query := `
		UPDATE balance_revision_requests
		SET status = $1, resolved_by = $2, resolved_at = $3
		WHERE id = $4 AND status = $5
	`

	result, err := r.querier.Exec(ctx, query,
		req.Status,
		req.ResolvedBy,
		req.ResolvedAt,
		req.ID,
		shared.RevisionStatusPending,
	)
	if err != nil {
		r.logger.Error("Failed to resolve revision request", "id", req.ID.String(), "error", err)
		return fmt.Errorf("failed to resolve revision request: %w", err)
	}

	if result.RowsAffected() == 0 {
		return community.ErrRevisionResolved{RequestID: req.ID}
	}

	return nil
}
