package services

import (
	"context"
	"time"

	"facematch/internal/logger"
	"facematch/internal/models"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// CleanupService deletes storage objects queued by photo swaps and
// soft deletes. Metadata is updated synchronously; storage catches up
// here, and a failed delete simply stays queued for the next tick.
type CleanupService struct {
	db    *gorm.DB
	store ObjectStore
	cron  *cron.Cron
}

const cleanupBatchSize = 100

func NewCleanupService(db *gorm.DB, store ObjectStore) *CleanupService {
	return &CleanupService{db: db, store: store, cron: cron.New()}
}

// Start schedules the periodic sweep; schedule is a cron spec such as
// "@every 5m".
func (s *CleanupService) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, func() {
		s.Sweep(context.Background())
	}); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

func (s *CleanupService) Stop() {
	s.cron.Stop()
}

// QueueURLs records the backing objects of the given URLs for deletion.
func QueueURLs(db *gorm.DB, store ObjectStore, urls []string) {
	for _, u := range urls {
		key := store.KeyFromURL(u)
		if key == "" {
			continue
		}
		pending := models.PendingDelete{ObjectKey: key, QueuedAt: time.Now()}
		if err := db.Create(&pending).Error; err != nil {
			logger.L().WithError(err).WithField("key", key).Warn("Failed to queue storage delete")
		}
	}
}

// Sweep drains one batch of pending deletes.
func (s *CleanupService) Sweep(ctx context.Context) {
	var pending []models.PendingDelete
	if err := s.db.Order("queued_at ASC").Limit(cleanupBatchSize).Find(&pending).Error; err != nil {
		logger.L().WithError(err).Error("Cleanup sweep query failed")
		return
	}

	deleted := 0
	for _, p := range pending {
		if err := s.store.Delete(ctx, p.ObjectKey); err != nil {
			logger.L().WithError(err).WithField("key", p.ObjectKey).Warn("Storage delete failed, will retry")
			continue
		}
		if err := s.db.Delete(&models.PendingDelete{}, p.ID).Error; err != nil {
			logger.L().WithError(err).Error("Failed to dequeue deleted object")
			continue
		}
		deleted++
	}

	if deleted > 0 {
		logger.L().WithField("count", deleted).Debug("Swept storage objects")
	}
}
