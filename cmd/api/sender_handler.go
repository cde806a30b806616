package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"linkdeck-backend/internal/ingest/domain"
	"linkdeck-backend/internal/ingest/repository"
)

type SenderHandler struct {
	senders repository.SenderRepository
}

func NewSenderHandler(senders repository.SenderRepository) *SenderHandler {
	return &SenderHandler{senders: senders}
}

func (h *SenderHandler) ListSenders(c *gin.Context) {
	senders, err := h.senders.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"senders": senders})
}

type createSenderRequest struct {
	Email string `json:"email" binding:"required"`
}

func (h *SenderHandler) CreateSender(c *gin.Context) {
	var req createSenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}

	sender := &domain.Sender{Email: req.Email}
	if err := h.senders.Create(c.Request.Context(), sender); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sender)
}

func (h *SenderHandler) DeleteSender(c *gin.Context) {
	if err := h.senders.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "sender not found"})
			return
		}
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
