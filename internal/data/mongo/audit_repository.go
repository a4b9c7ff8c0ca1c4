package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/community-billing-ledger/internal/domain/audit"
)

const (
	// AuditCollectionName is the name of the audit log collection in MongoDB
	AuditCollectionName = "audit_log"
)

// AuditRepository implements the audit.Repository interface for MongoDB.
// The collection is append-only: entries are inserted and read, never
// updated or removed.
type AuditRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewAuditRepository creates a new MongoDB audit repository
func NewAuditRepository(logger *slog.Logger, db *mongo.Database) audit.Repository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends a new audit entry. Re-publishing the same entry (outbox
// retry after a half-failed attempt) is tolerated as a no-op.
func (r *AuditRepository) Create(ctx context.Context, entry *audit.Entry) error {
	collection := r.db.Collection(AuditCollectionName)

	existing, err := r.GetByID(ctx, entry.ID)
	if err != nil && !errors.Is(err, audit.ErrEntryNotFound{}) {
		r.logger.Error("Failed to check for existing audit entry",
			"entry_id", entry.ID.String(),
			"error", err)
		return fmt.Errorf("failed to check for existing audit entry: %w", err)
	}
	if existing != nil {
		return nil
	}

	if _, err := collection.InsertOne(ctx, entry); err != nil {
		r.logger.Error("Failed to create audit entry",
			"entry_id", entry.ID.String(),
			"error", err)
		return fmt.Errorf("failed to create audit entry: %w", err)
	}

	return nil
}

// GetByID retrieves an audit entry by its ID.
// Returns ErrEntryNotFound if no entry exists.
func (r *AuditRepository) GetByID(ctx context.Context, id uuid.UUID) (*audit.Entry, error) {
	collection := r.db.Collection(AuditCollectionName)

	filter := bson.M{"entry_id": id}
	var entry audit.Entry
	err := collection.FindOne(ctx, filter).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, audit.ErrEntryNotFound{EntryID: id}
		}
		r.logger.Error("Failed to get audit entry",
			"entry_id", id.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get audit entry: %w", err)
	}

	return &entry, nil
}

// ListByEntity retrieves paginated audit entries for one entity.
// Results are sorted by creation time in descending order (newest first).
func (r *AuditRepository) ListByEntity(ctx context.Context, entityKind, entityID string, limit, offset int) ([]*audit.Entry, error) {
	collection := r.db.Collection(AuditCollectionName)

	filter := bson.M{"entity_kind": entityKind, "entity_id": entityID}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to list audit entries",
			"entity_kind", entityKind,
			"entity_id", entityID,
			"error", err)
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*audit.Entry
	if err := cursor.All(ctx, &entries); err != nil {
		r.logger.Error("Failed to decode audit entries", "error", err)
		return nil, fmt.Errorf("failed to decode audit entries: %w", err)
	}

	return entries, nil
}

// CountByEntity counts audit entries for one entity
func (r *AuditRepository) CountByEntity(ctx context.Context, entityKind, entityID string) (int64, error) {
	collection := r.db.Collection(AuditCollectionName)

	filter := bson.M{"entity_kind": entityKind, "entity_id": entityID}
	count, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		r.logger.Error("Failed to count audit entries",
			"entity_kind", entityKind,
			"entity_id", entityID,
			"error", err)
		return 0, fmt.Errorf("failed to count audit entries: %w", err)
	}

	return count, nil
}
