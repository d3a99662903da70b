package main

import (
	"context"
	"os"

	"facematch/internal/config"
	"facematch/internal/database"
	"facematch/internal/handlers"
	"facematch/internal/logger"
	"facematch/internal/middleware"
	"facematch/internal/redis"
	"facematch/internal/services"
	"facematch/internal/utils"
	"facematch/internal/wizard"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logger.L().Info("No .env file found")
	}

	// Load configuration
	cfg := config.Load()
	logger.Init(cfg.GinMode)
	gin.SetMode(cfg.GinMode)
	utils.SetJWTSecret(cfg.JWTSecret)

	handlers.RegisterValidators()

	// Initialize database
	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		logger.L().Fatal("Failed to connect to database: ", err)
	}
	if err := database.SeedGiftTypes(db); err != nil {
		logger.L().Fatal("Failed to seed gift types: ", err)
	}

	// Initialize Redis
	redisClient, err := redis.Initialize(cfg.RedisURL)
	if err != nil {
		logger.L().Fatal("Failed to connect to Redis: ", err)
	}

	// Initialize storage and the photo pipeline
	storage, err := services.NewStorageService(cfg)
	if err != nil {
		logger.L().Fatal("Failed to initialize storage: ", err)
	}
	if err := storage.EnsureBucket(context.Background()); err != nil {
		logger.L().Fatal("Failed to ensure storage bucket: ", err)
	}

	detector, err := services.NewPigoDetector(cfg.FaceCascadePath, cfg.FaceQualityThreshold)
	if err != nil {
		logger.L().Fatal("Failed to load face cascade: ", err)
	}
	photos := services.NewPhotoService(detector, storage)

	// Push notifications are optional; a nil service is a no-op.
	notifier, err := services.NewNotificationService(context.Background(), cfg)
	if err != nil {
		logger.L().Fatal("Failed to initialize Firebase: ", err)
	}

	// Background sweeper for soft-deleted storage objects
	cleanup := services.NewCleanupService(db, storage)
	if err := cleanup.Start(cfg.CleanupSchedule); err != nil {
		logger.L().Fatal("Failed to start cleanup job: ", err)
	}
	defer cleanup.Stop()

	drafts := wizard.NewStore(redisClient, cfg.DraftTTL)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(db, redisClient, cfg)
	signupHandler := handlers.NewSignupHandler(db, drafts, cfg)
	imageHandler := handlers.NewImageHandler(db, photos, storage, cfg)
	discoverHandler := handlers.NewDiscoverHandler(db, cfg)
	profileHandler := handlers.NewProfileHandler(db, cfg)
	favoritesHandler := handlers.NewFavoritesHandler(db, cfg)
	giftsHandler := handlers.NewGiftsHandler(db, notifier, cfg)
	superlikeHandler := handlers.NewSuperlikeHandler(db, notifier, cfg)
	referralsHandler := handlers.NewReferralsHandler(db, cfg)

	router := setupRoutes(cfg, db, redisClient,
		authHandler, signupHandler, imageHandler, discoverHandler,
		profileHandler, favoritesHandler, giftsHandler, superlikeHandler, referralsHandler)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}

	logger.L().Infof("Server starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		logger.L().Fatal("Failed to start server: ", err)
	}
}

func setupRoutes(cfg *config.Config, db *gorm.DB, redisClient *redis.Client,
	authHandler *handlers.AuthHandler, signupHandler *handlers.SignupHandler,
	imageHandler *handlers.ImageHandler, discoverHandler *handlers.DiscoverHandler,
	profileHandler *handlers.ProfileHandler, favoritesHandler *handlers.FavoritesHandler,
	giftsHandler *handlers.GiftsHandler, superlikeHandler *handlers.SuperlikeHandler,
	referralsHandler *handlers.ReferralsHandler) *gin.Engine {

	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))

	// Keyed by profile id once AuthRequired has run, by client IP on
	// public routes; registered per group so the user key applies.
	limit := middleware.RateLimit(redisClient, cfg.RateLimitPerMinute)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(limit)
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.POST("/logout", middleware.AuthRequired(), authHandler.Logout)
		}

		// Discovery feed is public
		v1.GET("/discover", limit, discoverHandler.Feed)
		v1.GET("/gift-types", limit, giftsHandler.GiftTypes)

		// Sign-up wizard
		signup := v1.Group("/signup")
		signup.Use(middleware.AuthRequired(), limit)
		{
			signup.POST("", signupHandler.Submit)
			signup.GET("/draft", signupHandler.GetDraft)
			signup.PUT("/draft", signupHandler.UpdateDraft)
			signup.POST("/draft/advance", signupHandler.AdvanceDraft)
			signup.POST("/draft/retreat", signupHandler.RetreatDraft)
			signup.POST("/draft/images", signupHandler.AttachDraftImage)
			signup.DELETE("/draft/images/:id", signupHandler.RemoveDraftImage)
		}

		// Authenticated routes
		authed := v1.Group("")
		authed.Use(middleware.AuthRequired(), limit, middleware.TouchLastSeen(db, redisClient))
		{
			authed.GET("/profile", profileHandler.GetProfile)
			authed.POST("/profile/update-field", profileHandler.UpdateField)
			authed.POST("/profile/push-token", profileHandler.SetPushToken)

			authed.POST("/image", imageHandler.Upload)
			authed.POST("/image/batch", imageHandler.UploadBatch)
			authed.POST("/image/add-photo", imageHandler.AddPhoto)
			authed.POST("/image/update-photo", imageHandler.UpdatePhoto)
			authed.POST("/image/delete-photo", imageHandler.DeletePhoto)
			authed.POST("/image/reorder", imageHandler.Reorder)

			authed.GET("/favorites", favoritesHandler.List)
			authed.POST("/favorites", favoritesHandler.Add)
			authed.DELETE("/favorites", favoritesHandler.Remove)

			authed.GET("/gifts", giftsHandler.List)
			authed.POST("/gifts/send", giftsHandler.Send)

			authed.POST("/superlike", superlikeHandler.Send)

			authed.GET("/referrals", referralsHandler.List)
		}
	}

	return router
}
