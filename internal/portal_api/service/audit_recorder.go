package service

import (
	"context"
	"log/slog"

	"github.com/community-billing-ledger/internal/domain/audit"
	"github.com/community-billing-ledger/internal/domain/outbox"
)

// auditRecorder enqueues audit entries through the transactional outbox.
// Outside a transaction the write is best-effort: a failed enqueue is logged
// but never fails the business operation it describes.
type auditRecorder struct {
	outboxRepo outbox.Repository
	logger     *slog.Logger
}

func (r *auditRecorder) record(ctx context.Context, entry *audit.Entry) {
	msg, err := outbox.NewMessage(entry)
	if err != nil {
		r.logger.Error("Failed to build outbox message for audit entry",
			"entity_kind", entry.EntityKind,
			"entity_id", entry.EntityID,
			"error", err,
		)
		return
	}
	if err := r.outboxRepo.Create(ctx, msg); err != nil {
		r.logger.Error("Failed to enqueue audit entry",
			"entity_kind", entry.EntityKind,
			"entity_id", entry.EntityID,
			"error", err,
		)
	}
}
