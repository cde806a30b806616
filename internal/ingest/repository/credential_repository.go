package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"linkdeck-backend/internal/ingest/domain"
	"linkdeck-backend/pkg/token"
)

type credentialRepository struct {
	db *gorm.DB
}

func NewCredentialRepository(db *gorm.DB) CredentialRepository {
	return &credentialRepository{db: db}
}

func (r *credentialRepository) Get(ctx context.Context, provider string) (*domain.StoredCredential, error) {
	var cred domain.StoredCredential
	err := r.db.WithContext(ctx).Where("provider = ?", provider).First(&cred).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNoCredential
	}
	if err != nil {
		return nil, err
	}
	return &cred, nil
}

func (r *credentialRepository) Save(ctx context.Context, cred *domain.StoredCredential) error {
	cred.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider"}},
		UpdateAll: true,
	}).Create(cred).Error
}

func (r *credentialRepository) ForProvider(provider string) token.Store {
	return &providerStore{repo: r, provider: provider}
}

// providerStore adapts the provider-keyed table to the single-credential store
// the token manager expects.
type providerStore struct {
	repo     *credentialRepository
	provider string
}

func (s *providerStore) Load(ctx context.Context) (token.Credential, error) {
	cred, err := s.repo.Get(ctx, s.provider)
	if err != nil {
		return token.Credential{}, err
	}
	return token.Credential{
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		ExpiresAt:    cred.ExpiresAt,
	}, nil
}

func (s *providerStore) Save(ctx context.Context, cred token.Credential) error {
	return s.repo.Save(ctx, &domain.StoredCredential{
		Provider:     s.provider,
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		ExpiresAt:    cred.ExpiresAt,
	})
}
