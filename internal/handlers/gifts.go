package handlers

import (
	"net/http"
	"time"

	"facematch/internal/config"
	"facematch/internal/logger"
	"facematch/internal/models"
	"facematch/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type GiftsHandler struct {
	db       *gorm.DB
	notifier services.Notifier
	cfg      *config.Config
}

type SendGiftRequest struct {
	ReceiverID string  `json:"receiverId" binding:"required,uuid"`
	GiftTypeID uint    `json:"giftTypeId" binding:"required"`
	Message    *string `json:"message,omitempty" binding:"omitempty,max=255"`
}

type GiftSummary struct {
	ID         uint         `json:"id"`
	SentAt     time.Time    `json:"sent_at"`
	Message    *string      `json:"message"`
	Type       GiftTypeView `json:"type"`
	SenderName string       `json:"sender_name"`
}

type GiftTypeView struct {
	ID       uint    `json:"id"`
	Name     string  `json:"name"`
	MediaURL *string `json:"media_url"`
}

func NewGiftsHandler(db *gorm.DB, notifier services.Notifier, cfg *config.Config) *GiftsHandler {
	return &GiftsHandler{db: db, notifier: notifier, cfg: cfg}
}

func (h *GiftsHandler) GiftTypes(c *gin.Context) {
	var giftTypes []models.GiftType
	if err := h.db.Order("id").Find(&giftTypes).Error; err != nil {
		logger.L().WithError(err).Error("Failed to fetch gift types")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch gift types"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"giftTypes": giftTypes})
}

// List returns gifts the caller has received, newest first.
func (h *GiftsHandler) List(c *gin.Context) {
	userID := c.GetString("user_id")

	var gifts []models.Gift
	err := h.db.
		Preload("GiftType").
		Preload("Sender").
		Where("receiver_id = ?", userID).
		Order("sent_at DESC").
		Find(&gifts).Error
	if err != nil {
		logger.L().WithError(err).Error("Failed to fetch gifts")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch gifts"})
		return
	}

	summaries := make([]GiftSummary, 0, len(gifts))
	for _, g := range gifts {
		summaries = append(summaries, GiftSummary{
			ID:      g.ID,
			SentAt:  g.SentAt,
			Message: g.Message,
			Type: GiftTypeView{
				ID:       g.GiftTypeID,
				Name:     g.GiftType.Name,
				MediaURL: g.GiftType.MediaURL,
			},
			SenderName: g.Sender.Name,
		})
	}

	c.JSON(http.StatusOK, gin.H{"gifts": summaries})
}

func (h *GiftsHandler) Send(c *gin.Context) {
	userID := c.GetString("user_id")

	var req SendGiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}

	var giftType models.GiftType
	if err := h.db.Where("id = ?", req.GiftTypeID).First(&giftType).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown gift type"})
		return
	}

	var receiver models.Profile
	if err := h.db.Where("id = ?", req.ReceiverID).First(&receiver).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Receiver not found"})
		return
	}

	gift := models.Gift{
		SenderID:   userID,
		ReceiverID: req.ReceiverID,
		GiftTypeID: req.GiftTypeID,
		Message:    req.Message,
		SentAt:     time.Now(),
	}

	if err := h.db.Create(&gift).Error; err != nil {
		logger.L().WithError(err).Error("Failed to send gift")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send gift"})
		return
	}

	if receiver.PushToken != nil {
		h.notifier.Push(c.Request.Context(), *receiver.PushToken,
			"You received a gift", "Someone sent you a "+giftType.Name)
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
