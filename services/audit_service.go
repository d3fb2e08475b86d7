package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"nimbusdrive/models"
	"nimbusdrive/store"
	"nimbusdrive/utils"
)

// AuditService appends and lists activity-log entries. Appending is
// best-effort: an audit failure must never fail the mutation it records.
type AuditService struct {
	store store.Store
}

func NewAuditService(st store.Store) *AuditService {
	return &AuditService{store: st}
}

// Record writes one entry attributed to the resource owner. Failures are
// logged and swallowed.
func (s *AuditService) Record(ctx context.Context, actorID, ownerID primitive.ObjectID, action string, resourceType models.ResourceType, resourceID primitive.ObjectID, details string) {
	entry := &models.AuditEntry{
		ActorID:      actorID,
		OwnerID:      ownerID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      details,
		CreatedAt:    time.Now(),
	}
	if err := s.store.AppendAudit(ctx, entry); err != nil {
		utils.LogError("failed to append audit entry for action "+action, err)
	}
}

func (s *AuditService) List(ctx context.Context, ownerID primitive.ObjectID, filter store.AuditFilter) ([]models.AuditEntry, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	return s.store.ListAudit(ctx, ownerID, filter)
}
