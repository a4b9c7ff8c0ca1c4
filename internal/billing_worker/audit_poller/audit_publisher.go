package audit_poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/community-billing-ledger/internal/domain/audit"
	"github.com/community-billing-ledger/internal/domain/outbox"
	"github.com/community-billing-ledger/internal/domain/shared"
)

// AuditPublisher publishes outbox messages to the audit store
type AuditPublisher interface {
	PublishToAuditLog(ctx context.Context, message *outbox.Message) error
}

// AuditPublisherImpl implements AuditPublisher
type AuditPublisherImpl struct {
	outboxRepo outbox.Repository
	auditRepo  audit.Repository
	logger     *slog.Logger
}

// NewAuditPublisher creates a new publisher
func NewAuditPublisher(
	outboxRepo outbox.Repository,
	auditRepo audit.Repository,
	logger *slog.Logger,
) AuditPublisher {
	return &AuditPublisherImpl{
		outboxRepo: outboxRepo,
		auditRepo:  auditRepo,
		logger:     logger,
	}
}

// PublishToAuditLog processes and publishes a message to the audit store
func (p *AuditPublisherImpl) PublishToAuditLog(ctx context.Context, message *outbox.Message) error {
	entryToPublish, err := message.GetAuditEntry()
	if err != nil {
		p.logger.Error("Failed to unmarshal audit entry from outbox payload",
			"outbox_id", message.ID, "entry_id", message.EntryID, "error", err,
		)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			p.logger.Error("Also failed to update outbox status to FAILED_TO_PUBLISH after unmarshal error", "outbox_id", message.ID, "update_error", updateErr)
		}
		return fmt.Errorf("unmarshal payload for outbox %d failed: %w", message.ID, err)
	}

	p.logger.Info("Attempting to publish outbox message to audit log",
		"outbox_id", message.ID,
		"entry_id", entryToPublish.ID.String(),
		"entity_kind", entryToPublish.EntityKind,
		"entity_id", entryToPublish.EntityID,
	)

	existing, err := p.auditRepo.GetByID(ctx, entryToPublish.ID)
	var notFound audit.ErrEntryNotFound
	if err != nil && !errors.As(err, &notFound) {
		p.logger.Error("Failed to check existing audit entry before publishing", "entry_id", entryToPublish.ID.String(), "error", err)
		return fmt.Errorf("failed to check existing audit entry %s: %w", entryToPublish.ID.String(), err)
	}

	if existing != nil {
		// Entry already delivered, possibly by an earlier attempt that died
		// before marking the outbox row
		p.logger.Info("Audit entry already exists in audit log", "entry_id", entryToPublish.ID.String())
	} else {
		if err := p.auditRepo.Create(ctx, entryToPublish); err != nil {
			p.logger.Error("Failed to create audit entry in MongoDB", "entry_id", entryToPublish.ID.String(), "error", err)
			return fmt.Errorf("failed to create audit entry %s: %w", entryToPublish.ID.String(), err)
		}
		p.logger.Info("Successfully created audit entry in MongoDB", "entry_id", entryToPublish.ID.String())
	}

	// Mark outbox message as processed
	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		p.logger.Error("Failed to update outbox message status to PROCESSED",
			"outbox_id", message.ID, "entry_id", entryToPublish.ID.String(), "error", err,
		)
		return fmt.Errorf("audit write for %s OK, but failed to mark outbox %d as PROCESSED: %w", entryToPublish.ID.String(), message.ID, err)
	}

	p.logger.Info("Outbox message successfully processed and marked as PROCESSED", "outbox_id", message.ID, "entry_id", entryToPublish.ID.String())
	return nil
}
