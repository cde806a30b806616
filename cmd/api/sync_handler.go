package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"linkdeck-backend/internal/ingest/domain"
	"linkdeck-backend/internal/ingest/usecase"
)

type SyncHandler struct {
	syncUsecase usecase.SyncUsecase
}

func NewSyncHandler(syncUsecase usecase.SyncUsecase) *SyncHandler {
	return &SyncHandler{syncUsecase: syncUsecase}
}

// TriggerSync runs one ingestion synchronously. A concurrent run yields 409
// with the blocking run's id.
func (h *SyncHandler) TriggerSync(c *gin.Context) {
	summary, err := h.syncUsecase.RunSync(c.Request.Context())
	if err != nil {
		var running *domain.AlreadyRunningError
		if errors.As(err, &running) {
			c.JSON(http.StatusConflict, gin.H{
				"error":  "sync already running",
				"run_id": running.RunID,
			})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *SyncHandler) GetActiveRun(c *gin.Context) {
	run, err := h.syncUsecase.GetActiveRun(c.Request.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no active sync run"})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

func (h *SyncHandler) ListRuns(c *gin.Context) {
	status := domain.SyncRunStatus(c.Query("status"))
	limit := queryInt(c, "limit", 20)

	runs, err := h.syncUsecase.ListRuns(c.Request.Context(), status, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// RetryEmail re-processes one known email. Fetch or extraction failures come
// back as a 200 with status "error"; only an unknown email id is a 404.
func (h *SyncHandler) RetryEmail(c *gin.Context) {
	result, err := h.syncUsecase.RetryEmail(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "email not found"})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// respondError maps taxonomy errors to 502 with their tag, everything else to
// a plain 500.
func respondError(c *gin.Context, err error) {
	if tag := domain.ErrorTag(err); tag != "" {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "tag": tag})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
