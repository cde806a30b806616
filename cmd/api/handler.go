package api

import (
	"github.com/gin-gonic/gin"

	"linkdeck-backend/internal/ingest/repository"
	"linkdeck-backend/internal/ingest/usecase"
	"linkdeck-backend/pkg/config"
)

type Handler struct {
	config      *config.Config
	syncUsecase usecase.SyncUsecase
	linkUsecase usecase.LinkUsecase
	senders     repository.SenderRepository
	settings    repository.SettingsRepository
}

func NewHandler(
	cfg *config.Config,
	syncUsecase usecase.SyncUsecase,
	linkUsecase usecase.LinkUsecase,
	senders repository.SenderRepository,
	settings repository.SettingsRepository,
) *Handler {
	return &Handler{
		config:      cfg,
		syncUsecase: syncUsecase,
		linkUsecase: linkUsecase,
		senders:     senders,
		settings:    settings,
	}
}

func (h *Handler) Start(addr string) error {
	return h.buildEngine().Run(addr)
}

func (h *Handler) buildEngine() *gin.Engine {
	// The mode must be set before the engine is built or the default engine
	// keeps debug logging.
	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	SetupRoutes(r, h.config, h.syncUsecase, h.linkUsecase, h.senders, h.settings)

	return r
}
