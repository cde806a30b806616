package repository

import (
	"context"

	"linkdeck-backend/internal/ingest/domain"
	"linkdeck-backend/pkg/token"
)

type CredentialRepository interface {
	Get(ctx context.Context, provider string) (*domain.StoredCredential, error)
	Save(ctx context.Context, cred *domain.StoredCredential) error
	// ForProvider binds the repository to one provider so it can serve as the
	// token manager's store.
	ForProvider(provider string) token.Store
}
