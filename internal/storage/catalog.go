package storage

import (
	"context"
	"encoding/json"

	"advising_queue/internal/constant"
	"advising_queue/internal/models"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QueueCatalog serves queue metadata from the queues table, read through a Redis cache
// when one is configured. Unknown ids resolve to models.DefaultQueue.
type QueueCatalog struct {
	db     *gorm.DB
	cache  *redis.Client
	logger *logrus.Logger
}

func NewQueueCatalog(db *gorm.DB, cache *redis.Client, logger *logrus.Logger) *QueueCatalog {
	return &QueueCatalog{db: db, cache: cache, logger: logger}
}

func (c *QueueCatalog) Get(ctx context.Context, id string) (models.Queue, error) {
	cacheKey := constant.QueueCacheKeyBase + id

	if c.cache != nil {
		cached, err := c.cache.Get(ctx, cacheKey).Result()
		if err == nil && cached != "" {
			var q models.Queue
			if err := json.Unmarshal([]byte(cached), &q); err == nil {
				return q, nil
			}
		} else if err != nil && !errors.Is(err, redis.Nil) {
			c.logger.WithError(err).WithField("queue_id", id).Warn("queue cache read failed")
		}
	}

	var q models.Queue
	err := c.db.WithContext(ctx).Where("id = ?", id).First(&q).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		q = models.DefaultQueue(id)
	case err != nil:
		return models.Queue{}, infra(err, "load queue")
	}

	if c.cache != nil {
		if raw, err := json.Marshal(q); err == nil {
			if err := c.cache.Set(ctx, cacheKey, raw, constant.QueueCacheTTL).Err(); err != nil {
				c.logger.WithError(err).WithField("queue_id", id).Warn("queue cache write failed")
			}
		}
	}
	return q, nil
}

func (c *QueueCatalog) List(ctx context.Context) ([]models.Queue, error) {
	var queues []models.Queue
	if err := c.db.WithContext(ctx).Order("id ASC").Find(&queues).Error; err != nil {
		return nil, infra(err, "list queues")
	}
	return queues, nil
}

// Save upserts q and drops its cached copy.
func (c *QueueCatalog) Save(ctx context.Context, q models.Queue) error {
	err := c.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&q).Error
	if err != nil {
		return infra(err, "save queue")
	}
	if c.cache != nil {
		if err := c.cache.Del(ctx, constant.QueueCacheKeyBase+q.ID).Err(); err != nil {
			c.logger.WithError(err).WithField("queue_id", q.ID).Warn("queue cache invalidation failed")
		}
	}
	return nil
}

// Seed installs models.SeedQueues, leaving existing rows alone.
func (c *QueueCatalog) Seed(ctx context.Context) error {
	for _, q := range models.SeedQueues() {
		q := q
		if err := c.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&q).Error; err != nil {
			return infra(err, "seed queue "+q.ID)
		}
	}
	return nil
}
