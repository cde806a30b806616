package main

import (
	"log"

	"go.uber.org/zap"

	api "linkdeck-backend/cmd/api"
	"linkdeck-backend/internal/ingest/domain"
	"linkdeck-backend/internal/ingest/repository"
	"linkdeck-backend/internal/ingest/scheduler"
	"linkdeck-backend/internal/ingest/usecase"
	"linkdeck-backend/pkg/config"
	"linkdeck-backend/pkg/database"
	"linkdeck-backend/pkg/extract"
	"linkdeck-backend/pkg/gmail"
	"linkdeck-backend/pkg/logging"
	"linkdeck-backend/pkg/raindrop"
	"linkdeck-backend/pkg/token"
)

func main() {
	// Load configuration
	cfg := config.Load()

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(
		&domain.SyncRun{},
		&domain.Email{},
		&domain.Link{},
		&domain.SyncLogEntry{},
		&domain.Sender{},
		&domain.StoredCredential{},
		&domain.Settings{},
	); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	// Initialize repositories (dependency injection)
	runRepo := repository.NewSyncRunRepository(db, repository.DefaultStaleAfter)
	emailRepo := repository.NewEmailRepository(db)
	linkRepo := repository.NewLinkRepository(db)
	logRepo := repository.NewSyncLogRepository(db)
	senderRepo := repository.NewSenderRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	credentialRepo := repository.NewCredentialRepository(db)

	// Token lifecycle managers, one per upstream provider. Raindrop uses a
	// long-lived token and never refreshes.
	googleRefresher := token.NewOAuthRefresher(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleTokenURL)
	gmailTokens := token.NewManager(credentialRepo.ForProvider("google"), googleRefresher, logger)
	raindropTokens := token.NewManager(credentialRepo.ForProvider("raindrop"), nil, logger)

	// Upstream clients
	mailClient := gmail.NewClient(gmailTokens, logger)
	raindropClient := raindrop.NewClient(cfg.RaindropBaseURL, raindropTokens, logger)

	// Extraction pipeline: pattern fast path, then the model fallback
	pipeline := extract.NewPipeline(
		extract.NewPatternExtractor(),
		extract.NewGeminiExtractor(cfg.GeminiAPIKey, logger),
		logger,
	)

	// Initialize use cases (dependency injection)
	syncUsecase := usecase.NewSyncUsecase(runRepo, emailRepo, linkRepo, logRepo, senderRepo, settingsRepo, mailClient, pipeline, logger)
	linkUsecase := usecase.NewLinkUsecase(linkRepo, raindropClient, logger)

	// Background sync scheduler
	syncScheduler := scheduler.NewScheduler(syncUsecase, settingsRepo, logger)
	syncScheduler.Start()
	defer syncScheduler.Stop()

	// Initialize HTTP handler and start server
	handler := api.NewHandler(cfg, syncUsecase, linkUsecase, senderRepo, settingsRepo)

	logger.Info("server starting", zap.String("port", cfg.Port))
	if err := handler.Start(":" + cfg.Port); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}
