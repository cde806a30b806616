package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"linkdeck-backend/internal/ingest/domain"
)

type syncLogRepository struct {
	db *gorm.DB
}

func NewSyncLogRepository(db *gorm.DB) SyncLogRepository {
	return &syncLogRepository{db: db}
}

func (r *syncLogRepository) Append(ctx context.Context, entry *domain.SyncLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.AttemptedAt.IsZero() {
		entry.AttemptedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *syncLogRepository) ListByEmail(ctx context.Context, emailID string) ([]*domain.SyncLogEntry, error) {
	var entries []*domain.SyncLogEntry
	err := r.db.WithContext(ctx).
		Where("email_id = ?", emailID).
		Order("attempted_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
