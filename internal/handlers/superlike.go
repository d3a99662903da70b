package handlers

import (
	"errors"
	"net/http"
	"time"

	"facematch/internal/config"
	"facematch/internal/logger"
	"facematch/internal/models"
	"facematch/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SuperlikeHandler struct {
	db       *gorm.DB
	notifier services.Notifier
	cfg      *config.Config
}

var errInsufficientPoints = errors.New("not enough points")

func NewSuperlikeHandler(db *gorm.DB, notifier services.Notifier, cfg *config.Config) *SuperlikeHandler {
	return &SuperlikeHandler{db: db, notifier: notifier, cfg: cfg}
}

// Send deducts the superlike cost and records the swipe in one
// transaction; a repeated superlike on the same target overwrites the
// previous swipe action.
func (h *SuperlikeHandler) Send(c *gin.Context) {
	userID := c.GetString("user_id")

	var req TargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}

	var newPoints int
	err := h.db.Transaction(func(tx *gorm.DB) error {
		var profile models.Profile
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", userID).First(&profile).Error; err != nil {
			return err
		}

		if profile.Points < h.cfg.SuperlikeCost {
			return errInsufficientPoints
		}

		newPoints = profile.Points - h.cfg.SuperlikeCost
		if err := tx.Model(&profile).Update("points", newPoints).Error; err != nil {
			return err
		}

		swipe := models.Swipe{
			UserID:    userID,
			TargetID:  req.TargetID,
			Action:    "superlike",
			CreatedAt: time.Now(),
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "target_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"action", "created_at"}),
		}).Create(&swipe).Error
	})
	if err != nil {
		if errors.Is(err, errInsufficientPoints) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Not enough points"})
			return
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
			return
		}
		logger.L().WithError(err).Error("Superlike failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Superlike failed"})
		return
	}

	var target models.Profile
	if err := h.db.Where("id = ?", req.TargetID).First(&target).Error; err == nil && target.PushToken != nil {
		h.notifier.Push(c.Request.Context(), *target.PushToken,
			"You got a superlike", "Someone really likes your profile")
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "newPoints": newPoints})
}
