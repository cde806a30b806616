package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"linkdeck-backend/internal/ingest/domain"
	"linkdeck-backend/internal/ingest/repository"
)

type SettingsHandler struct {
	settings repository.SettingsRepository
}

func NewSettingsHandler(settings repository.SettingsRepository) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

func (h *SettingsHandler) GetSettings(c *gin.Context) {
	settings, err := h.settings.Get(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

type updateSettingsRequest struct {
	EmailFetchLimit       int    `json:"email_fetch_limit"`
	BackgroundSyncEnabled bool   `json:"background_sync_enabled"`
	SyncHour              int    `json:"sync_hour"`
	TimeZone              string `json:"time_zone"`
}

func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var req updateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.SyncHour < 0 || req.SyncHour > 23 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sync_hour must be between 0 and 23"})
		return
	}
	if req.TimeZone == "" {
		req.TimeZone = "UTC"
	}

	settings := &domain.Settings{
		EmailFetchLimit:       req.EmailFetchLimit,
		BackgroundSyncEnabled: req.BackgroundSyncEnabled,
		SyncHour:              req.SyncHour,
		TimeZone:              req.TimeZone,
	}
	settings.EmailFetchLimit = settings.NormalizedFetchLimit()

	if err := h.settings.Update(c.Request.Context(), settings); err != nil {
		respondError(c, err)
		return
	}

	updated, err := h.settings.Get(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
