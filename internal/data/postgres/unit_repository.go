package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/community-billing-ledger/internal/domain/unit"
	"github.com/community-billing-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UnitRepository implements the unit.Repository interface for PostgreSQL
type UnitRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewUnitRepository creates a new PostgreSQL unit repository
func NewUnitRepository(logger *slog.Logger, db *persistence.PostgresDB) unit.Repository {
	return &UnitRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// Create stores a new unit
func (r *UnitRepository) Create(ctx context.Context, u *unit.Unit) error {
	query := `
		INSERT INTO units (id, community_id, label, floor_area, billing_start, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.querier.Exec(ctx, query,
		u.ID,
		u.CommunityID,
		u.Label,
		u.FloorArea,
		u.BillingStart,
		u.OwnerID,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create unit", "error", err)
		return fmt.Errorf("failed to create unit: %w", err)
	}

	return nil
}

// GetByID retrieves a unit by its ID
func (r *UnitRepository) GetByID(ctx context.Context, id uuid.UUID) (*unit.Unit, error) {
	query := `
		SELECT id, community_id, label, floor_area, billing_start, owner_id, created_at, updated_at
		FROM units
		WHERE id = $1
	`

	var u unit.Unit
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&u.ID,
		&u.CommunityID,
		&u.Label,
		&u.FloorArea,
		&u.BillingStart,
		&u.OwnerID,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, unit.ErrUnitNotFound{UnitID: id}
		}
		r.logger.Error("Failed to get unit", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get unit: %w", err)
	}

	return &u, nil
}

// ListByCommunityID retrieves a community's units ordered by label
func (r *UnitRepository) ListByCommunityID(ctx context.Context, communityID uuid.UUID, limit, offset int) ([]*unit.Unit, error) {
	query := `
		SELECT id, community_id, label, floor_area, billing_start, owner_id, created_at, updated_at
		FROM units
		WHERE community_id = $1
		ORDER BY label ASC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.querier.Query(ctx, query, communityID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list units", "community_id", communityID.String(), "error", err)
		return nil, fmt.Errorf("failed to list units: %w", err)
	}
	defer rows.Close()

	var units []*unit.Unit
	for rows.Next() {
		var u unit.Unit
		err := rows.Scan(
			&u.ID,
			&u.CommunityID,
			&u.Label,
			&u.FloorArea,
			&u.BillingStart,
			&u.OwnerID,
			&u.CreatedAt,
			&u.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan unit: %w", err)
		}
		units = append(units, &u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over units: %w", err)
	}

	return units, nil
}

// CountByCommunityID counts a community's units
func (r *UnitRepository) CountByCommunityID(ctx context.Context, communityID uuid.UUID) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM units
		WHERE community_id = $1
	`

	var count int64
	if err := r.querier.QueryRow(ctx, query, communityID).Scan(&count); err != nil {
		r.logger.Error("Failed to count units", "community_id", communityID.String(), "error", err)
		return 0, fmt.Errorf("failed to count units: %w", err)
	}

	return count, nil
}
