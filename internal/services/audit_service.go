package services

import (
	"context"
	"encoding/json"

	"github.com/fintelis/fintelis-api/internal/jobs"
	"github.com/fintelis/fintelis-api/internal/models"
	"github.com/fintelis/fintelis-api/internal/repository"
	"github.com/fintelis/fintelis-api/pkg/logger"
	"github.com/google/uuid"
)

type actorKey struct{}

// ContextWithActor attaches the acting user to ctx
func ContextWithActor(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

// ActorFrom returns the acting user stored in ctx, if any
func ActorFrom(ctx context.Context) *uuid.UUID {
	if id, ok := ctx.Value(actorKey{}).(uuid.UUID); ok && id != uuid.Nil {
		return &id
	}
	return nil
}

// AuditService records ledger writes after they commit
type AuditService struct {
	repo   repository.AuditRepository
	worker *jobs.Worker
}

// NewAuditService creates an AuditService. With a nil worker entries are written inline.
func NewAuditService(repo repository.AuditRepository, worker *jobs.Worker) *AuditService {
	return &AuditService{repo: repo, worker: worker}
}

// Log records an audit entry. Failures are logged, never returned: the
// audited write has already committed.
func (s *AuditService) Log(ctx context.Context, companyID uuid.UUID, action, entity string, entityID uuid.UUID, details map[string]interface{}) {
	entry := &models.AuditLog{
		CompanyID: companyID,
		UserID:    ActorFrom(ctx),
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
	}
	if len(details) > 0 {
		if raw, err := json.Marshal(details); err == nil {
			entry.Details = string(raw)
		}
	}

	write := func(ctx context.Context) error {
		if err := s.repo.Create(ctx, entry); err != nil {
			logger.Error("Failed to write audit log", "entity", entity, "entity_id", entityID, "error", err)
			return err
		}
		return nil
	}

	if s.worker == nil {
		write(context.WithoutCancel(ctx))
		return
	}
	s.worker.EnqueueAsync(write)
}

// List retrieves audit logs of a company
func (s *AuditService) List(ctx context.Context, companyID uuid.UUID, query *repository.ListQuery) ([]models.AuditLog, int64, error) {
	logs, total, err := s.repo.List(ctx, companyID, query)
	if err != nil {
		return nil, 0, classify("list audit logs", err)
	}
	return logs, total, nil
}
