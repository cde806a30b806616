package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"linkdeck-backend/internal/ingest/domain"
)

type linkRepository struct {
	db *gorm.DB
}

func NewLinkRepository(db *gorm.DB) LinkRepository {
	return &linkRepository{db: db}
}

func (r *linkRepository) InsertDedup(ctx context.Context, link *domain.Link) (bool, error) {
	if link.ID == "" {
		link.ID = uuid.New().String()
	}
	if link.Status == "" {
		link.Status = domain.LinkStatusPending
	}

	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Model(&domain.Link{}).Where("url = ?", link.URL)
		if link.Title != "" {
			query = query.Or("title = ?", link.Title)
		}
		var count int64
		if err := query.Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		created = true
		return tx.Create(link).Error
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

func (r *linkRepository) GetByID(ctx context.Context, id string) (*domain.Link, error) {
	var link domain.Link
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *linkRepository) List(ctx context.Context, status domain.LinkStatus, limit int) ([]*domain.Link, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var links []*domain.Link
	if err := query.Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

func (r *linkRepository) SetStatus(ctx context.Context, id string, status domain.LinkStatus) error {
	result := r.db.WithContext(ctx).Model(&domain.Link{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
