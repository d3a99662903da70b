package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"facematch/internal/config"
	"facematch/internal/logger"
	"facematch/internal/models"
	"facematch/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ImageHandler struct {
	db     *gorm.DB
	photos services.PhotoPipeline
	store  services.ObjectStore
	cfg    *config.Config
}

type DeletePhotoRequest struct {
	PhotoID uint `json:"photoId" binding:"required"`
}

type ReorderRequest struct {
	Order []uint `json:"order" binding:"required,min=1"`
}

func NewImageHandler(db *gorm.DB, photos services.PhotoPipeline, store services.ObjectStore, cfg *config.Config) *ImageHandler {
	return &ImageHandler{
		db:     db,
		photos: photos,
		store:  store,
		cfg:    cfg,
	}
}

// Upload runs the pipeline without touching the database; the sign-up
// wizard uses it before a profile exists.
func (h *ImageHandler) Upload(c *gin.Context) {
	data, ok := h.readAvatar(c)
	if !ok {
		return
	}

	variants, err := h.photos.Process(c.Request.Context(), data)
	if err != nil {
		h.renderPipelineError(c, err)
		return
	}

	c.JSON(http.StatusOK, variants)
}

// UploadBatch processes several files independently; a rejected file
// never aborts its siblings.
func (h *ImageHandler) UploadBatch(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid multipart form"})
		return
	}

	headers := form.File["avatars"]
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No files provided"})
		return
	}

	files := make([][]byte, 0, len(headers))
	for _, header := range headers {
		if err := h.validateImageFile(header); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		data, err := readFileHeader(header)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
			return
		}
		files = append(files, data)
	}

	results := h.photos.ProcessBatch(c.Request.Context(), files)

	out := make([]gin.H, len(results))
	for i, r := range results {
		item := gin.H{"index": r.Index}
		if r.Err != nil {
			item["error"] = publicPipelineError(r.Err)
		} else {
			item["variants"] = r.Variants
		}
		out[i] = item
	}

	c.JSON(http.StatusOK, gin.H{"results": out})
}

// AddPhoto runs the pipeline and appends a row to the caller's gallery.
func (h *ImageHandler) AddPhoto(c *gin.Context) {
	userID := c.GetString("user_id")

	data, ok := h.readAvatar(c)
	if !ok {
		return
	}

	variants, err := h.photos.Process(c.Request.Context(), data)
	if err != nil {
		h.renderPipelineError(c, err)
		return
	}

	row := models.UserImage{
		UserID:     userID,
		ImageURL:   variants.Large,
		MediumURL:  variants.Medium,
		ThumbURL:   variants.Small,
		IsActive:   true,
		UploadedAt: time.Now(),
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		var maxOrder sql.NullInt64
		if err := tx.Model(&models.UserImage{}).
			Where("user_id = ? AND is_active = ?", userID, true).
			Select("MAX(sort_order)").Scan(&maxOrder).Error; err != nil {
			return err
		}
		if maxOrder.Valid {
			row.SortOrder = int(maxOrder.Int64) + 1
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		logger.L().WithError(err).Error("Failed to save photo record")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save photo"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":         row.ID,
		"small":      variants.Small,
		"medium":     variants.Medium,
		"large":      variants.Large,
		"sort_order": row.SortOrder,
	})
}

// UpdatePhoto swaps the variants on an existing row, keeping its
// identity and sort position. The replaced objects are deleted
// asynchronously; the row is the source of truth.
func (h *ImageHandler) UpdatePhoto(c *gin.Context) {
	userID := c.GetString("user_id")

	photoID := c.PostForm("photoId")
	if photoID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing photoId"})
		return
	}

	photo, ok := h.loadPhoto(c, photoID)
	if !ok {
		return
	}
	if photo.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	data, ok := h.readAvatar(c)
	if !ok {
		return
	}

	variants, err := h.photos.Process(c.Request.Context(), data)
	if err != nil {
		h.renderPipelineError(c, err)
		return
	}

	oldURLs := []string{photo.ImageURL, photo.MediumURL, photo.ThumbURL}

	updates := map[string]interface{}{
		"image_url":   variants.Large,
		"medium_url":  variants.Medium,
		"thumb_url":   variants.Small,
		"is_active":   true,
		"uploaded_at": time.Now(),
	}
	if err := h.db.Model(&photo).Updates(updates).Error; err != nil {
		logger.L().WithError(err).Error("Failed to update photo record")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update photo"})
		return
	}

	services.QueueURLs(h.db, h.store, oldURLs)

	c.JSON(http.StatusOK, variants)
}

// DeletePhoto soft-deletes the row and queues its objects for the
// sweeper. Ownership mismatch never flips the active flag.
func (h *ImageHandler) DeletePhoto(c *gin.Context) {
	userID := c.GetString("user_id")

	var req DeletePhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid photoId"})
		return
	}

	photo, ok := h.loadPhoto(c, req.PhotoID)
	if !ok {
		return
	}
	if photo.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	if err := h.db.Model(&photo).Update("is_active", false).Error; err != nil {
		logger.L().WithError(err).Error("Failed to soft-delete photo")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete photo"})
		return
	}

	services.QueueURLs(h.db, h.store, []string{photo.ImageURL, photo.MediumURL, photo.ThumbURL})

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Reorder assigns sort positions matching the submitted list order.
// The update is all-or-nothing: any id outside the caller's active
// gallery rejects the whole request with no positions changed.
func (h *ImageHandler) Reorder(c *gin.Context) {
	userID := c.GetString("user_id")

	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		var ownedIDs []uint
		if err := tx.Model(&models.UserImage{}).
			Where("user_id = ? AND is_active = ?", userID, true).
			Pluck("id", &ownedIDs).Error; err != nil {
			return err
		}

		owned := make(map[uint]bool, len(ownedIDs))
		for _, id := range ownedIDs {
			owned[id] = true
		}
		for _, id := range req.Order {
			if !owned[id] {
				return fmt.Errorf("image %d: %w", id, errNotOwned)
			}
		}

		for i, id := range req.Order {
			if err := tx.Model(&models.UserImage{}).
				Where("id = ?", id).
				Update("sort_order", i).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errNotOwned) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}
		logger.L().WithError(err).Error("Failed to reorder photos")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reorder photos"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

var errNotOwned = errors.New("not owned by caller")

// loadPhoto fetches one photo row, writing the error response itself.
// A missing row is 404; any other database failure is 500.
func (h *ImageHandler) loadPhoto(c *gin.Context, id interface{}) (models.UserImage, bool) {
	var photo models.UserImage
	if err := h.db.Where("id = ?", id).First(&photo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Photo not found"})
		} else {
			logger.L().WithError(err).Error("Failed to load photo")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load photo"})
		}
		return models.UserImage{}, false
	}
	return photo, true
}

func (h *ImageHandler) readAvatar(c *gin.Context) ([]byte, bool) {
	file, header, err := c.Request.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file"})
		return nil, false
	}
	defer file.Close()

	if err := h.validateImageFile(header); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return nil, false
	}
	return data, true
}

func (h *ImageHandler) validateImageFile(header *multipart.FileHeader) error {
	if header.Size > h.cfg.MaxFileSize {
		return fmt.Errorf("file too large, maximum size is %d bytes", h.cfg.MaxFileSize)
	}

	contentType := header.Header.Get("Content-Type")
	for _, allowedType := range h.cfg.AllowedImageTypes {
		if contentType == allowedType {
			return nil
		}
	}
	return fmt.Errorf("invalid file type, allowed types are: %s", strings.Join(h.cfg.AllowedImageTypes, ", "))
}

func (h *ImageHandler) renderPipelineError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrNoFace) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no face detected"})
		return
	}
	logger.L().WithError(err).Error("Photo pipeline failed")
	c.JSON(http.StatusBadRequest, gin.H{"error": publicPipelineError(err)})
}

// publicPipelineError keeps storage internals out of client responses.
func publicPipelineError(err error) string {
	if errors.Is(err, services.ErrNoFace) {
		return "no face detected"
	}
	return "failed to process image"
}

func readFileHeader(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
