package repository

import (
	"context"

	"linkdeck-backend/internal/ingest/domain"
)

type SenderRepository interface {
	List(ctx context.Context) ([]*domain.Sender, error)
	Create(ctx context.Context, sender *domain.Sender) error
	Delete(ctx context.Context, id string) error
}
