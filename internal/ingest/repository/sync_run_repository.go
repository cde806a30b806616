package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"linkdeck-backend/internal/ingest/domain"
)

// DefaultStaleAfter is how old a heartbeat may be before a running run is
// considered dead and may be superseded.
const DefaultStaleAfter = 90 * time.Second

// syncRunAdmissionLock keys the advisory lock that serializes run admission.
const syncRunAdmissionLock int64 = 0x53594E43

type syncRunRepository struct {
	db         *gorm.DB
	staleAfter time.Duration
}

func NewSyncRunRepository(db *gorm.DB, staleAfter time.Duration) SyncRunRepository {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &syncRunRepository{db: db, staleAfter: staleAfter}
}

func (r *syncRunRepository) Start(ctx context.Context) (*domain.SyncRun, error) {
	var run *domain.SyncRun
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// READ COMMITTED lets two concurrent admissions both see no running
		// row and both insert one. The advisory lock serializes them for the
		// life of the transaction; sqlite has a single writer already.
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", syncRunAdmissionLock).Error; err != nil {
				return err
			}
		}

		var active domain.SyncRun
		err := tx.Where("status = ?", domain.SyncRunStatusRunning).
			Order("started_at DESC").
			First(&active).Error
		switch {
		case err == nil:
			if time.Since(active.LastHeartbeatAt) <= r.staleAfter {
				return &domain.AlreadyRunningError{RunID: active.ID}
			}
			// Stale run: abort it as part of admitting the new one.
			now := time.Now()
			if err := tx.Model(&domain.SyncRun{}).
				Where("id = ? AND status = ?", active.ID, domain.SyncRunStatusRunning).
				Updates(map[string]interface{}{
					"status":      domain.SyncRunStatusAborted,
					"finished_at": now,
				}).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			// No running row, admission is free.
		default:
			return err
		}

		now := time.Now()
		run = &domain.SyncRun{
			ID:              uuid.New().String(),
			Status:          domain.SyncRunStatusRunning,
			StartedAt:       now,
			LastHeartbeatAt: now,
		}
		return tx.Create(run).Error
	})
	if err != nil {
		return nil, err
	}
	return run, nil
}

func (r *syncRunRepository) Heartbeat(ctx context.Context, runID string, progress domain.Progress) error {
	result := r.db.WithContext(ctx).Model(&domain.SyncRun{}).
		Where("id = ? AND status = ?", runID, domain.SyncRunStatusRunning).
		Updates(map[string]interface{}{
			"fetched_emails":    progress.FetchedEmails,
			"processed_emails":  progress.ProcessedEmails,
			"inserted_emails":   progress.InsertedEmails,
			"stored_links":      progress.StoredLinks,
			"last_heartbeat_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrRunNotRunning
	}
	return nil
}

func (r *syncRunRepository) Finish(ctx context.Context, runID string, status domain.SyncRunStatus, progress domain.Progress, errorName, errorTag, errorMessage string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&domain.SyncRun{}).
		Where("id = ?", runID).
		Updates(map[string]interface{}{
			"status":            status,
			"finished_at":       now,
			"last_heartbeat_at": now,
			"fetched_emails":    progress.FetchedEmails,
			"processed_emails":  progress.ProcessedEmails,
			"inserted_emails":   progress.InsertedEmails,
			"stored_links":      progress.StoredLinks,
			"error_name":        errorName,
			"error_tag":         errorTag,
			"error_message":     errorMessage,
		}).Error
}

func (r *syncRunRepository) GetActive(ctx context.Context) (*domain.SyncRun, error) {
	var run domain.SyncRun
	err := r.db.WithContext(ctx).
		Where("status = ?", domain.SyncRunStatusRunning).
		Order("started_at DESC").
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	r.computeStaleness(&run)
	return &run, nil
}

func (r *syncRunRepository) List(ctx context.Context, status domain.SyncRunStatus, limit int) ([]*domain.SyncRun, error) {
	query := r.db.WithContext(ctx).Order("started_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var runs []*domain.SyncRun
	if err := query.Find(&runs).Error; err != nil {
		return nil, err
	}
	for _, run := range runs {
		r.computeStaleness(run)
	}
	return runs, nil
}

// computeStaleness derives IsStale relative to the observer's clock; it is
// never persisted.
func (r *syncRunRepository) computeStaleness(run *domain.SyncRun) {
	if run.Status == domain.SyncRunStatusRunning {
		run.IsStale = time.Since(run.LastHeartbeatAt) > r.staleAfter
	}
}
