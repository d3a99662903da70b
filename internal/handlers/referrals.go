package handlers

import (
	"fmt"
	"net/http"
	"time"

	"facematch/internal/config"
	"facematch/internal/logger"
	"facematch/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ReferralsHandler struct {
	db  *gorm.DB
	cfg *config.Config
}

type ReferredUser struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	ReferredAt time.Time `json:"referred_at"`
}

func NewReferralsHandler(db *gorm.DB, cfg *config.Config) *ReferralsHandler {
	return &ReferralsHandler{db: db, cfg: cfg}
}

// List returns the caller's referral link and everyone who joined
// through it.
func (h *ReferralsHandler) List(c *gin.Context) {
	userID := c.GetString("user_id")

	var referrals []models.Referral
	err := h.db.
		Preload("ReferredUser").
		Where("referrer_id = ?", userID).
		Find(&referrals).Error
	if err != nil {
		logger.L().WithError(err).Error("Failed to fetch referrals")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch referrals"})
		return
	}

	referred := make([]ReferredUser, 0, len(referrals))
	for _, r := range referrals {
		name := r.ReferredUser.Name
		if name == "" {
			name = "User"
		}
		referred = append(referred, ReferredUser{
			ID:         r.ReferredUserID,
			Name:       name,
			ReferredAt: r.ReferredAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"link":          fmt.Sprintf("%s/?ref=%s", h.cfg.BaseURL, userID),
		"referredUsers": referred,
	})
}
