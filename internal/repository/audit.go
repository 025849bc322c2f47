package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/scrumtogether/scrumtogether-api/internal/model"
)

// AuditRepository persists audit entries for sensitive mutations.
type AuditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates an audit repository on the given GORM handle.
func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create persists an audit entry, assigning an ID when none is set.
func (r *AuditRepository) Create(ctx context.Context, entry *model.AuditLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListForEntity returns the audit trail of one entity, newest first.
func (r *AuditRepository) ListForEntity(ctx context.Context, entityType string, entityID uint) ([]model.AuditLog, error) {
	var entries []model.AuditLog
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at DESC").
		Find(&entries).Error
	return entries, err
}
