package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"facematch/internal/config"
	"facematch/internal/logger"
	"facematch/internal/models"
	"facematch/internal/utils"
	"facematch/internal/wizard"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// DraftStore persists wizard drafts between requests.
type DraftStore interface {
	Load(ctx context.Context, userID string) (*wizard.Draft, error)
	Save(ctx context.Context, userID string, draft *wizard.Draft) error
	Delete(ctx context.Context, userID string) error
}

type SignupHandler struct {
	db     *gorm.DB
	drafts DraftStore
	cfg    *config.Config
}

var errProfileExists = errors.New("profile already exists")

// DraftUpdateRequest carries a partial draft merge; nil fields are left
// untouched.
type DraftUpdateRequest struct {
	Language   *string     `json:"language,omitempty"`
	Gender     *string     `json:"gender,omitempty" binding:"omitempty,oneof=male female"`
	Name       *string     `json:"name,omitempty"`
	Bio        *string     `json:"bio,omitempty"`
	DOB        *wizard.DOB `json:"dob,omitempty"`
	Reason     *string     `json:"reason,omitempty" binding:"omitempty,profile_enum=looking_for"`
	ReferredBy *string     `json:"referred_by,omitempty" binding:"omitempty,uuid"`
}

type DraftImageRequest struct {
	ID    string `json:"id" binding:"required"`
	URL   string `json:"url" binding:"required,url"`
	URLSm string `json:"url_sm" binding:"omitempty,url"`
	URLMd string `json:"url_md" binding:"omitempty,url"`
	URLLg string `json:"url_lg" binding:"omitempty,url"`
}

type SignupRequest struct {
	Language   *string              `json:"language"`
	Gender     *string              `json:"gender" binding:"omitempty,oneof=male female"`
	Name       string               `json:"name" binding:"required"`
	Bio        string               `json:"bio" binding:"required"`
	DOB        wizard.DOB           `json:"dob" binding:"required"`
	Reason     *string              `json:"reason" binding:"omitempty,profile_enum=looking_for"`
	Images     []wizard.ImageItem   `json:"images" binding:"max=6"`
	ReferredBy *string              `json:"referred_by,omitempty" binding:"omitempty,uuid"`
}

func NewSignupHandler(db *gorm.DB, drafts DraftStore, cfg *config.Config) *SignupHandler {
	return &SignupHandler{
		db:     db,
		drafts: drafts,
		cfg:    cfg,
	}
}

func (h *SignupHandler) GetDraft(c *gin.Context) {
	userID := c.GetString("user_id")

	draft, err := h.drafts.Load(c.Request.Context(), userID)
	if err != nil {
		logger.L().WithError(err).Error("Failed to load draft")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	c.JSON(http.StatusOK, h.draftView(draft))
}

func (h *SignupHandler) UpdateDraft(c *gin.Context) {
	userID := c.GetString("user_id")

	var req DraftUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	draft, err := h.drafts.Load(c.Request.Context(), userID)
	if err != nil {
		logger.L().WithError(err).Error("Failed to load draft")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	if req.Language != nil {
		draft.Language = req.Language
	}
	if req.Gender != nil {
		draft.Gender = req.Gender
	}
	if req.Name != nil {
		draft.Name = *req.Name
	}
	if req.Bio != nil {
		draft.Bio = *req.Bio
	}
	if req.DOB != nil {
		draft.DOB = *req.DOB
	}
	if req.Reason != nil {
		draft.Reason = req.Reason
	}
	if req.ReferredBy != nil {
		draft.ReferredBy = req.ReferredBy
	}

	if err := h.drafts.Save(c.Request.Context(), userID, draft); err != nil {
		logger.L().WithError(err).Error("Failed to save draft")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	c.JSON(http.StatusOK, h.draftView(draft))
}

// AdvanceDraft moves the wizard forward. Advancing an invalid step is a
// no-op, not an error: the response carries the per-field reasons so
// the client can render them. Reaching the final step submits.
func (h *SignupHandler) AdvanceDraft(c *gin.Context) {
	userID := c.GetString("user_id")

	draft, err := h.drafts.Load(c.Request.Context(), userID)
	if err != nil {
		logger.L().WithError(err).Error("Failed to load draft")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	moved := draft.Advance()

	if moved && draft.AtFinal() {
		profile, err := h.createProfile(userID, draft, draft.ReferredBy)
		if err != nil {
			if errors.Is(err, errProfileExists) {
				c.JSON(http.StatusConflict, gin.H{"error": "Profile already exists"})
				return
			}
			// Keep the draft so the client can retry the submission.
			logger.L().WithError(err).Error("Signup submission failed")
			draft.Retreat()
			_ = h.drafts.Save(c.Request.Context(), userID, draft)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Signup failed, please retry", "retryable": true})
			return
		}
		if err := h.drafts.Delete(c.Request.Context(), userID); err != nil {
			logger.L().WithError(err).Warn("Failed to drop submitted draft")
		}
		c.JSON(http.StatusCreated, gin.H{"step": draft.Step.String(), "profile": profile})
		return
	}

	if err := h.drafts.Save(c.Request.Context(), userID, draft); err != nil {
		logger.L().WithError(err).Error("Failed to save draft")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	resp := h.draftView(draft)
	resp["moved"] = moved
	if !moved {
		resp["errors"] = draft.FieldErrors()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SignupHandler) RetreatDraft(c *gin.Context) {
	userID := c.GetString("user_id")

	draft, err := h.drafts.Load(c.Request.Context(), userID)
	if err != nil {
		logger.L().WithError(err).Error("Failed to load draft")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	moved := draft.Retreat()
	if moved {
		if err := h.drafts.Save(c.Request.Context(), userID, draft); err != nil {
			logger.L().WithError(err).Error("Failed to save draft")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
			return
		}
	}

	resp := h.draftView(draft)
	resp["moved"] = moved
	c.JSON(http.StatusOK, resp)
}

// AttachDraftImage records an already-processed upload on the draft.
func (h *SignupHandler) AttachDraftImage(c *gin.Context) {
	userID := c.GetString("user_id")

	var req DraftImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	draft, err := h.drafts.Load(c.Request.Context(), userID)
	if err != nil {
		logger.L().WithError(err).Error("Failed to load draft")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	if len(draft.Images) >= wizard.MaxImages {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image limit reached"})
		return
	}

	draft.Images = append(draft.Images, wizard.ImageItem{
		ID:    req.ID,
		URL:   req.URL,
		URLSm: req.URLSm,
		URLMd: req.URLMd,
		URLLg: req.URLLg,
	})

	if err := h.drafts.Save(c.Request.Context(), userID, draft); err != nil {
		logger.L().WithError(err).Error("Failed to save draft")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	c.JSON(http.StatusOK, h.draftView(draft))
}

func (h *SignupHandler) RemoveDraftImage(c *gin.Context) {
	userID := c.GetString("user_id")
	imageID := c.Param("id")

	draft, err := h.drafts.Load(c.Request.Context(), userID)
	if err != nil {
		logger.L().WithError(err).Error("Failed to load draft")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	kept := draft.Images[:0]
	for _, img := range draft.Images {
		if img.ID != imageID {
			kept = append(kept, img)
		}
	}
	draft.Images = kept

	if err := h.drafts.Save(c.Request.Context(), userID, draft); err != nil {
		logger.L().WithError(err).Error("Failed to save draft")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	c.JSON(http.StatusOK, h.draftView(draft))
}

// Submit accepts the whole wizard payload in one request, the shape the
// mini app posts after its final step.
func (h *SignupHandler) Submit(c *gin.Context) {
	userID := c.GetString("user_id")

	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	draft := wizard.Draft{
		Language: req.Language,
		Gender:   req.Gender,
		Name:     req.Name,
		Bio:      req.Bio,
		DOB:      req.DOB,
		Reason:   req.Reason,
		Images:   req.Images,
	}

	if errs := draft.FieldErrors(); len(errs) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Payload validation failed", "errors": errs})
		return
	}

	profile, err := h.createProfile(userID, &draft, req.ReferredBy)
	if err != nil {
		if errors.Is(err, errProfileExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "Profile already exists"})
			return
		}
		logger.L().WithError(err).Error("Signup submission failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Signup failed, please retry", "retryable": true})
		return
	}

	if err := h.drafts.Delete(c.Request.Context(), userID); err != nil {
		logger.L().WithError(err).Warn("Failed to drop submitted draft")
	}

	c.JSON(http.StatusCreated, profile)
}

// createProfile inserts the profile and its image rows in one
// transaction, so a half-created account can never be observed.
func (h *SignupHandler) createProfile(userID string, draft *wizard.Draft, referredBy *string) (*models.Profile, error) {
	birthDate, ok := draft.BirthDate()
	if !ok {
		return nil, errors.New("invalid birth date")
	}
	zodiac := utils.ZodiacSign(birthDate)
	bio := draft.Bio

	profile := models.Profile{
		ID:          userID,
		Name:        draft.Name,
		BirthDate:   &birthDate,
		Gender:      draft.Gender,
		Bio:         &bio,
		LookingFor:  draft.Reason,
		Zodiac:      &zodiac,
		AppLanguage: draft.Language,
		IsVisible:   true,
		Points:      h.cfg.SignupPoints,
		ReferredBy:  referredBy,
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Profile{}).Where("id = ?", userID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errProfileExists
		}

		if err := tx.Create(&profile).Error; err != nil {
			return err
		}

		now := time.Now()
		for i, img := range draft.Images {
			large := img.URLLg
			if large == "" {
				large = img.URL
			}
			row := models.UserImage{
				UserID:     userID,
				ImageURL:   large,
				MediumURL:  img.URLMd,
				ThumbURL:   img.URLSm,
				SortOrder:  i,
				IsActive:   true,
				UploadedAt: now,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}

		if referredBy != nil && *referredBy != userID {
			referral := models.Referral{
				ReferrerID:     *referredBy,
				ReferredUserID: userID,
				ReferredAt:     now,
			}
			if err := tx.Create(&referral).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &profile, nil
}

func (h *SignupHandler) draftView(draft *wizard.Draft) gin.H {
	return gin.H{
		"step":       draft.Step.String(),
		"step_index": int(draft.Step),
		"valid":      draft.StepValid(draft.Step),
		"draft":      draft,
	}
}
