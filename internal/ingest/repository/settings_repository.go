package repository

import (
	"context"

	"gorm.io/gorm"

	"linkdeck-backend/internal/ingest/domain"
)

// settingsRowID pins the single settings row.
const settingsRowID = 1

type settingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) Get(ctx context.Context) (*domain.Settings, error) {
	settings := domain.Settings{
		ID:              settingsRowID,
		EmailFetchLimit: domain.DefaultEmailFetchLimit,
		SyncHour:        8,
		TimeZone:        "UTC",
	}
	err := r.db.WithContext(ctx).
		Where(&domain.Settings{ID: settingsRowID}).
		Attrs(settings).
		FirstOrCreate(&settings).Error
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *settingsRepository) Update(ctx context.Context, settings *domain.Settings) error {
	settings.ID = settingsRowID
	return r.db.WithContext(ctx).Model(&domain.Settings{ID: settingsRowID}).
		Select("email_fetch_limit", "background_sync_enabled", "sync_hour", "time_zone", "updated_at").
		Updates(settings).Error
}
