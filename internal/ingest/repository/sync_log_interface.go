package repository

import (
	"context"

	"linkdeck-backend/internal/ingest/domain"
)

// SyncLogRepository is append-only: entries record attempts and are never
// updated or deleted.
type SyncLogRepository interface {
	Append(ctx context.Context, entry *domain.SyncLogEntry) error
	ListByEmail(ctx context.Context, emailID string) ([]*domain.SyncLogEntry, error)
}
