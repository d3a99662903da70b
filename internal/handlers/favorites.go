package handlers

import (
	"net/http"

	"facematch/internal/config"
	"facematch/internal/logger"
	"facematch/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FavoritesHandler struct {
	db  *gorm.DB
	cfg *config.Config
}

type TargetRequest struct {
	TargetID string `json:"targetId" binding:"required,uuid"`
}

type FavoriteSummary struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	City     *string `json:"city"`
	Country  *string `json:"country"`
	ImageURL *string `json:"image_url"`
}

func NewFavoritesHandler(db *gorm.DB, cfg *config.Config) *FavoritesHandler {
	return &FavoritesHandler{db: db, cfg: cfg}
}

func (h *FavoritesHandler) List(c *gin.Context) {
	userID := c.GetString("user_id")

	var favorites []models.Favorite
	err := h.db.
		Preload("Favorite.Images", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_active = ?", true).Order("sort_order ASC")
		}).
		Preload("Favorite").
		Where("user_id = ?", userID).
		Find(&favorites).Error
	if err != nil {
		logger.L().WithError(err).Error("Failed to fetch favorites")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch favorites"})
		return
	}

	summaries := make([]FavoriteSummary, 0, len(favorites))
	for _, fav := range favorites {
		summaries = append(summaries, FavoriteSummary{
			ID:       fav.FavoriteID,
			Name:     fav.Favorite.Name,
			City:     fav.Favorite.City,
			Country:  fav.Favorite.Country,
			ImageURL: primaryImageURL(fav.Favorite.Images),
		})
	}

	c.JSON(http.StatusOK, gin.H{"favorites": summaries})
}

func (h *FavoritesHandler) Add(c *gin.Context) {
	userID := c.GetString("user_id")

	var req TargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}

	favorite := models.Favorite{
		UserID:     userID,
		FavoriteID: req.TargetID,
	}

	// Re-favoriting is idempotent.
	err := h.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "favorite_id"}},
		DoNothing: true,
	}).Create(&favorite).Error
	if err != nil {
		logger.L().WithError(err).Error("Failed to add favorite")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add favorite"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *FavoritesHandler) Remove(c *gin.Context) {
	userID := c.GetString("user_id")

	var req TargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}

	err := h.db.
		Where("user_id = ? AND favorite_id = ?", userID, req.TargetID).
		Delete(&models.Favorite{}).Error
	if err != nil {
		logger.L().WithError(err).Error("Failed to remove favorite")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove favorite"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
