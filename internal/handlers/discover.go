package handlers

import (
	"net/http"

	"facematch/internal/config"
	"facematch/internal/logger"
	"facematch/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type DiscoverHandler struct {
	db  *gorm.DB
	cfg *config.Config
}

const discoverLimit = 50

// filterFields are the equality filters the feed accepts as query
// parameters; names double as column names, so the list is closed.
var filterFields = []string{
	"city",
	"country",
	"gender",
	"relationship_status",
	"education",
	"looking_for",
	"smoking",
	"drinking",
	"pets",
}

var orderFields = map[string]bool{
	"last_seen_at": true,
	"created_at":   true,
	"points":       true,
}

type DiscoverProfile struct {
	models.Profile
	ImageURL *string `json:"image_url"`
}

func NewDiscoverHandler(db *gorm.DB, cfg *config.Config) *DiscoverHandler {
	return &DiscoverHandler{db: db, cfg: cfg}
}

// Feed returns up to 50 visible profiles matching the query filters,
// newest activity first, each annotated with its primary image URL.
func (h *DiscoverHandler) Feed(c *gin.Context) {
	query := h.db.Model(&models.Profile{}).
		Where("is_visible = ? AND is_banned = ?", true, false)

	for _, field := range filterFields {
		if val := c.Query(field); val != "" {
			query = query.Where(field+" = ?", val)
		}
	}

	orderField := c.DefaultQuery("order", "last_seen_at")
	if !orderFields[orderField] {
		orderField = "last_seen_at"
	}

	var profiles []models.Profile
	err := query.
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_active = ?", true).Order("sort_order ASC")
		}).
		Order(orderField + " DESC").
		Limit(discoverLimit).
		Find(&profiles).Error
	if err != nil {
		logger.L().WithError(err).Error("Discover query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch profiles"})
		return
	}

	results := make([]DiscoverProfile, 0, len(profiles))
	for _, p := range profiles {
		results = append(results, DiscoverProfile{
			Profile:  p,
			ImageURL: primaryImageURL(p.Images),
		})
	}

	c.JSON(http.StatusOK, results)
}

// primaryImageURL picks the lowest-sort-order active image, preferring
// the medium variant and falling back thumb then full size.
func primaryImageURL(images []models.UserImage) *string {
	var first *models.UserImage
	for i := range images {
		if !images[i].IsActive {
			continue
		}
		if first == nil || images[i].SortOrder < first.SortOrder {
			first = &images[i]
		}
	}
	if first == nil {
		return nil
	}

	for _, url := range []string{first.MediumURL, first.ThumbURL, first.ImageURL} {
		if url != "" {
			u := url
			return &u
		}
	}
	return nil
}
