package handlers

import (
	"net/http"
	"time"

	"facematch/internal/config"
	"facematch/internal/logger"
	"facematch/internal/models"
	"facematch/internal/redis"
	"facematch/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuthHandler struct {
	db    *gorm.DB
	redis *redis.Client
	cfg   *config.Config
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func NewAuthHandler(db *gorm.DB, redis *redis.Client, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		db:    db,
		redis: redis,
		cfg:   cfg,
	}
}

// Register creates the auth identity only; the profile row is created
// once the sign-up wizard submits.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var existing models.Credential
	if err := h.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Account already exists with this email"})
		return
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process password"})
		return
	}

	credential := models.Credential{
		UserID:       uuid.New().String(),
		Email:        req.Email,
		PasswordHash: hashedPassword,
	}

	if err := h.db.Create(&credential).Error; err != nil {
		logger.L().WithError(err).Error("Failed to create credential")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	accessToken, refreshToken, err := h.issueTokens(c, credential.UserID, credential.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate tokens"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user_id":       credential.UserID,
		"access_token":  accessToken,
		"refresh_token": refreshToken,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var credential models.Credential
	if err := h.db.Where("email = ?", req.Email).First(&credential).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if !utils.VerifyPassword(req.Password, credential.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	var profile models.Profile
	hasProfile := h.db.Where("id = ?", credential.UserID).First(&profile).Error == nil
	if hasProfile && profile.IsBanned {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account is banned"})
		return
	}

	accessToken, refreshToken, err := h.issueTokens(c, credential.UserID, credential.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate tokens"})
		return
	}

	if hasProfile {
		now := time.Now()
		h.db.Model(&profile).Update("last_seen_at", now)
	}

	resp := gin.H{
		"user_id":       credential.UserID,
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"has_profile":   hasProfile,
	}
	if hasProfile {
		resp["profile"] = profile
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claims, err := utils.ParseToken(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}
	if tokenType, _ := claims["type"].(string); tokenType != "refresh" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}

	userID, _ := claims["user_id"].(string)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}

	var credential models.Credential
	if err := h.db.Where("user_id = ?", userID).First(&credential).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account not found"})
		return
	}

	accessToken, refreshToken, err := h.issueTokens(c, credential.UserID, credential.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate tokens"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	userID := c.GetString("user_id")
	if err := h.redis.Del(c.Request.Context(), "session:"+userID); err != nil {
		logger.L().WithError(err).Warn("Failed to drop session")
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *AuthHandler) issueTokens(c *gin.Context, userID, email string) (string, string, error) {
	accessToken, err := utils.GenerateToken(userID, email, h.cfg.JWTExpiry)
	if err != nil {
		return "", "", err
	}
	refreshToken, err := utils.GenerateRefreshToken(userID, h.cfg.RefreshExpiry)
	if err != nil {
		return "", "", err
	}

	sessionKey := "session:" + userID
	sessionData := map[string]interface{}{
		"user_id":      userID,
		"email":        email,
		"access_token": accessToken,
		"expires_at":   time.Now().Add(h.cfg.JWTExpiry).Unix(),
	}
	if err := h.redis.HSet(c.Request.Context(), sessionKey, sessionData); err != nil {
		logger.L().WithError(err).Warn("Failed to store session")
	}

	return accessToken, refreshToken, nil
}
