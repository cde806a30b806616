package repository

import (
	"context"

	"linkdeck-backend/internal/ingest/domain"
)

type SettingsRepository interface {
	// Get returns the settings row, creating it with defaults on first read.
	Get(ctx context.Context) (*domain.Settings, error)
	Update(ctx context.Context, settings *domain.Settings) error
}
