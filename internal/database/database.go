package database

import (
	"fmt"

	"facematch/internal/logger"
	"facematch/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func Initialize(databaseURL string) (*gorm.DB, error) {
	config := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	}

	db, err := gorm.Open(postgres.Open(databaseURL), config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.L().Info("Database connected and migrated")
	return db, nil
}

func migrate(db *gorm.DB) error {
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error; err != nil {
		logger.L().Warnf("Could not create uuid-ossp extension: %v", err)
	}

	return db.AutoMigrate(
		&models.Profile{},
		&models.Credential{},
		&models.UserImage{},
		&models.PendingDelete{},
		&models.Favorite{},
		&models.GiftType{},
		&models.Gift{},
		&models.Swipe{},
		&models.Referral{},
	)
}

func SeedGiftTypes(db *gorm.DB) error {
	giftTypes := []models.GiftType{
		{Name: "Rose"},
		{Name: "Bouquet"},
		{Name: "Chocolate"},
		{Name: "Teddy Bear"},
		{Name: "Ring"},
		{Name: "Diamond"},
		{Name: "Champagne"},
		{Name: "Heart"},
	}

	for _, giftType := range giftTypes {
		if err := db.FirstOrCreate(&giftType, models.GiftType{Name: giftType.Name}).Error; err != nil {
			return fmt.Errorf("failed to seed gift type %s: %w", giftType.Name, err)
		}
	}

	logger.L().Info("Gift types seeded")
	return nil
}
