package service

import (
	"context"
	"log/slog"

	"github.com/community-billing-ledger/internal/domain/audit"
)

// AuditServiceImpl implements the AuditService interface
type AuditServiceImpl struct {
	auditRepo audit.Repository
	logger    *slog.Logger
}

// NewAuditService creates a new audit service
func NewAuditService(logger *slog.Logger, auditRepo audit.Repository) AuditService {
	return &AuditServiceImpl{
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// History retrieves a page of an entity's audit entries, newest first, plus
// the total count
func (s *AuditServiceImpl) History(ctx context.Context, entityKind, entityID string, page, perPage int) ([]*audit.Entry, int64, error) {
	offset := (page - 1) * perPage

	entries, err := s.auditRepo.ListByEntity(ctx, entityKind, entityID, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.auditRepo.CountByEntity(ctx, entityKind, entityID)
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
