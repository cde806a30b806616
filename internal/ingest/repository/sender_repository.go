package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"linkdeck-backend/internal/ingest/domain"
)

type senderRepository struct {
	db *gorm.DB
}

func NewSenderRepository(db *gorm.DB) SenderRepository {
	return &senderRepository{db: db}
}

func (r *senderRepository) List(ctx context.Context) ([]*domain.Sender, error) {
	var senders []*domain.Sender
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&senders).Error
	if err != nil {
		return nil, err
	}
	return senders, nil
}

func (r *senderRepository) Create(ctx context.Context, sender *domain.Sender) error {
	if sender.ID == "" {
		sender.ID = uuid.New().String()
	}
	if sender.CreatedAt.IsZero() {
		sender.CreatedAt = time.Now()
	}
	sender.Email = domain.NormalizeAddress(sender.Email)
	return r.db.WithContext(ctx).Create(sender).Error
}

func (r *senderRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Sender{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
