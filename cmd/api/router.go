package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"linkdeck-backend/internal/ingest/repository"
	"linkdeck-backend/internal/ingest/usecase"
	"linkdeck-backend/pkg/config"
)

func SetupRoutes(
	r *gin.Engine,
	cfg *config.Config,
	syncUsecase usecase.SyncUsecase,
	linkUsecase usecase.LinkUsecase,
	senders repository.SenderRepository,
	settings repository.SettingsRepository,
) {
	syncHandler := NewSyncHandler(syncUsecase)
	linkHandler := NewLinkHandler(linkUsecase)
	senderHandler := NewSenderHandler(senders)
	settingsHandler := NewSettingsHandler(settings)

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		auth := AuthMiddleware(cfg.JWTSecret)

		// Sync routes (protected)
		sync := api.Group("/sync")
		sync.Use(auth)
		{
			sync.POST("", syncHandler.TriggerSync)
			sync.GET("/active", syncHandler.GetActiveRun)
			sync.GET("/runs", syncHandler.ListRuns)
		}

		// Email routes (protected)
		emails := api.Group("/emails")
		emails.Use(auth)
		{
			emails.POST("/:id/retry", syncHandler.RetryEmail)
		}

		// Link routes (protected)
		links := api.Group("/links")
		links.Use(auth)
		{
			links.GET("", linkHandler.ListLinks)
			links.PATCH("/:id", linkHandler.UpdateLinkStatus)
		}

		// Sender routes (protected)
		sendersGroup := api.Group("/senders")
		sendersGroup.Use(auth)
		{
			sendersGroup.GET("", senderHandler.ListSenders)
			sendersGroup.POST("", senderHandler.CreateSender)
			sendersGroup.DELETE("/:id", senderHandler.DeleteSender)
		}

		// Settings routes (protected)
		settingsGroup := api.Group("/settings")
		settingsGroup.Use(auth)
		{
			settingsGroup.GET("", settingsHandler.GetSettings)
			settingsGroup.PUT("", settingsHandler.UpdateSettings)
		}
	}
}
