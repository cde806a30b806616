package repository

import (
	"context"

	"linkdeck-backend/internal/ingest/domain"
)

type EmailRepository interface {
	// Upsert inserts the email keyed by its Gmail id, or returns the existing
	// row. created reports whether a new row was inserted.
	Upsert(ctx context.Context, email *domain.Email) (stored *domain.Email, created bool, err error)
	GetByID(ctx context.Context, id string) (*domain.Email, error)
	SetExtractionError(ctx context.Context, id string, hasError bool) error
	MarkProcessed(ctx context.Context, id string) error
	SetMarkedAsRead(ctx context.Context, id string) error
}
