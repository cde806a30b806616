package repository

import (
	"context"

	"linkdeck-backend/internal/ingest/domain"
)

// SyncRunRepository is the run registry: admission control plus heartbeat and
// staleness tracking for ingestion runs.
type SyncRunRepository interface {
	// Start admits a new run. A fresh running row refuses admission with
	// AlreadyRunningError; a stale running row is aborted atomically with
	// creating the new row.
	Start(ctx context.Context) (*domain.SyncRun, error)
	// Heartbeat replaces progress and bumps the heartbeat timestamp.
	// Fails with ErrRunNotRunning when the row is no longer running.
	Heartbeat(ctx context.Context, runID string, progress domain.Progress) error
	// Finish records terminal status, final progress and error fields in one
	// update.
	Finish(ctx context.Context, runID string, status domain.SyncRunStatus, progress domain.Progress, errorName, errorTag, errorMessage string) error
	// GetActive returns the current running run, or ErrNotFound.
	GetActive(ctx context.Context) (*domain.SyncRun, error)
	// List returns runs newest first, optionally filtered by status.
	List(ctx context.Context, status domain.SyncRunStatus, limit int) ([]*domain.SyncRun, error)
}
