package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"linkdeck-backend/internal/ingest/domain"
)

type emailRepository struct {
	db *gorm.DB
}

func NewEmailRepository(db *gorm.DB) EmailRepository {
	return &emailRepository{db: db}
}

func (r *emailRepository) Upsert(ctx context.Context, email *domain.Email) (*domain.Email, bool, error) {
	if email.ID == "" {
		email.ID = uuid.New().String()
	}

	var existing domain.Email
	result := r.db.WithContext(ctx).
		Where(&domain.Email{GmailID: email.GmailID}).
		Attrs(email).
		FirstOrCreate(&existing)
	if result.Error != nil {
		return nil, false, result.Error
	}
	return &existing, result.RowsAffected > 0, nil
}

func (r *emailRepository) GetByID(ctx context.Context, id string) (*domain.Email, error) {
	var email domain.Email
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &email, nil
}

func (r *emailRepository) SetExtractionError(ctx context.Context, id string, hasError bool) error {
	return r.db.WithContext(ctx).Model(&domain.Email{}).
		Where("id = ?", id).
		Update("extraction_error", hasError).Error
}

func (r *emailRepository) MarkProcessed(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&domain.Email{}).
		Where("id = ?", id).
		Update("processed_at", time.Now()).Error
}

func (r *emailRepository) SetMarkedAsRead(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&domain.Email{}).
		Where("id = ?", id).
		Update("marked_as_read", true).Error
}
