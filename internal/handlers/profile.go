package handlers

import (
	"net/http"
	"time"

	"facematch/internal/config"
	"facematch/internal/logger"
	"facematch/internal/models"
	"facematch/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ProfileHandler struct {
	db  *gorm.DB
	cfg *config.Config
}

type UpdateFieldRequest struct {
	Field string      `json:"field" binding:"required"`
	Value interface{} `json:"value"`
}

type PushTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// mutableFields lists the profile columns update-field may touch.
// Identity, points, moderation flags and verification stay out.
var mutableFields = map[string]bool{
	"name":                true,
	"bio":                 true,
	"birth_date":          true,
	"gender":              true,
	"smoking":             true,
	"drinking":            true,
	"education":           true,
	"children":            true,
	"relationship_status": true,
	"looking_for":         true,
	"pets":                true,
	"height_cm":           true,
	"city":                true,
	"country":             true,
	"latitude":            true,
	"longitude":           true,
	"app_language":        true,
	"is_visible":          true,
}

var enumFields = map[string]bool{
	"gender":              true,
	"smoking":             true,
	"drinking":            true,
	"education":           true,
	"children":            true,
	"relationship_status": true,
	"looking_for":         true,
	"pets":                true,
}

func NewProfileHandler(db *gorm.DB, cfg *config.Config) *ProfileHandler {
	return &ProfileHandler{db: db, cfg: cfg}
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID := c.GetString("user_id")

	var profile models.Profile
	err := h.db.
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_active = ?", true).Order("sort_order ASC")
		}).
		Where("id = ?", userID).
		First(&profile).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// UpdateField applies one field edit. The client updates optimistically
// and reverts when this returns an error.
func (h *ProfileHandler) UpdateField(c *gin.Context) {
	userID := c.GetString("user_id")

	var req UpdateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !mutableFields[req.Field] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown or immutable field"})
		return
	}

	updates := map[string]interface{}{req.Field: req.Value}

	if enumFields[req.Field] {
		value, ok := req.Value.(string)
		if !ok || !models.ValidEnumValue(req.Field, value) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid value for " + req.Field})
			return
		}
	}

	// A birth date edit re-derives the zodiac sign.
	if req.Field == "birth_date" {
		raw, ok := req.Value.(string)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "birth_date must be YYYY-MM-DD"})
			return
		}
		birthDate, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "birth_date must be YYYY-MM-DD"})
			return
		}
		updates["birth_date"] = birthDate
		updates["zodiac"] = utils.ZodiacSign(birthDate)
	}

	result := h.db.Model(&models.Profile{}).Where("id = ?", userID).Updates(updates)
	if result.Error != nil {
		logger.L().WithError(result.Error).Error("Failed to update profile field")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SetPushToken stores the device token used for gift and superlike
// notifications.
func (h *ProfileHandler) SetPushToken(c *gin.Context) {
	userID := c.GetString("user_id")

	var req PushTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.db.Model(&models.Profile{}).Where("id = ?", userID).Update("push_token", req.Token)
	if result.Error != nil {
		logger.L().WithError(result.Error).Error("Failed to store push token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store push token"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
