package scheduler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"linkdeck-backend/internal/ingest/domain"
	"linkdeck-backend/internal/ingest/repository"
	"linkdeck-backend/internal/ingest/usecase"
)

// Scheduler triggers a background ingestion run once per day at the configured
// local hour. It checks on the hour; the run-registry admission keeps a manual
// and a scheduled trigger from overlapping.
type Scheduler struct {
	sync     usecase.SyncUsecase
	settings repository.SettingsRepository
	logger   *zap.Logger
	interval time.Duration
	stopChan chan struct{}
}

func NewScheduler(sync usecase.SyncUsecase, settings repository.SettingsRepository, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		sync:     sync,
		settings: settings,
		logger:   logger,
		interval: time.Hour,
		stopChan: make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	go s.loop()
	s.logger.Info("background sync scheduler started")
}

func (s *Scheduler) Stop() {
	close(s.stopChan)
}

func (s *Scheduler) loop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.tick(time.Now())
		}
	}
}

func (s *Scheduler) tick(now time.Time) {
	ctx := context.Background()

	settings, err := s.settings.Get(ctx)
	if err != nil {
		s.logger.Error("scheduler failed to load settings", zap.Error(err))
		return
	}
	if !shouldRun(settings, now) {
		return
	}

	s.logger.Info("starting scheduled sync", zap.Int("hour", settings.SyncHour), zap.String("tz", settings.TimeZone))
	summary, err := s.sync.RunSync(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrSyncAlreadyRunning) {
			s.logger.Info("scheduled sync skipped, a run is already active")
			return
		}
		s.logger.Error("scheduled sync failed", zap.String("tag", domain.ErrorTag(err)), zap.Error(err))
		return
	}
	s.logger.Info("scheduled sync finished", zap.Int("fetched", summary.Fetched))
}

// shouldRun reports whether a scheduled run is due: background sync enabled
// and the current hour in the configured time zone matches the sync hour. An
// unknown time zone falls back to UTC.
func shouldRun(settings *domain.Settings, now time.Time) bool {
	if !settings.BackgroundSyncEnabled {
		return false
	}

	loc, err := time.LoadLocation(settings.TimeZone)
	if err != nil {
		loc = time.UTC
	}
	return now.In(loc).Hour() == settings.SyncHour
}
