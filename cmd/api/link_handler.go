package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"linkdeck-backend/internal/ingest/domain"
	"linkdeck-backend/internal/ingest/usecase"
)

type LinkHandler struct {
	linkUsecase usecase.LinkUsecase
}

func NewLinkHandler(linkUsecase usecase.LinkUsecase) *LinkHandler {
	return &LinkHandler{linkUsecase: linkUsecase}
}

func (h *LinkHandler) ListLinks(c *gin.Context) {
	status := domain.LinkStatus(c.Query("status"))
	limit := queryInt(c, "limit", 50)

	links, err := h.linkUsecase.ListLinks(c.Request.Context(), status, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"links": links})
}

type updateLinkStatusRequest struct {
	Status domain.LinkStatus `json:"status" binding:"required"`
}

func (h *LinkHandler) UpdateLinkStatus(c *gin.Context) {
	var req updateLinkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	link, err := h.linkUsecase.UpdateLinkStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "link not found"})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, link)
}
