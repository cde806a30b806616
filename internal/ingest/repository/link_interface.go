package repository

import (
	"context"

	"linkdeck-backend/internal/ingest/domain"
)

type LinkRepository interface {
	// InsertDedup stores the link unless its URL or non-empty Title already
	// exists anywhere in the corpus. created reports whether a row was
	// inserted.
	InsertDedup(ctx context.Context, link *domain.Link) (created bool, err error)
	GetByID(ctx context.Context, id string) (*domain.Link, error)
	List(ctx context.Context, status domain.LinkStatus, limit int) ([]*domain.Link, error)
	SetStatus(ctx context.Context, id string, status domain.LinkStatus) error
}
