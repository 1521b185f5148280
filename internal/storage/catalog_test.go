package storage_test

import (
	"context"
	"testing"

	"advising_queue/internal/models"
	"advising_queue/internal/storage"
	"advising_queue/internal/storage/storagetest"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogFallsBackToDefault(t *testing.T) {
	c := storage.NewQueueCatalog(storagetest.OpenMemory(t), nil, storagetest.Logger())

	q, err := c.Get(context.Background(), "walk-in")
	require.NoError(t, err)
	assert.Equal(t, "walk-in", q.ID)
	assert.Equal(t, "Academic Queue", q.Name)
	assert.Equal(t, models.DefaultAverageServiceTime, q.AverageServiceTime)
}

func TestCatalogSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	c := storage.NewQueueCatalog(storagetest.OpenMemory(t), nil, storagetest.Logger())

	require.NoError(t, c.Seed(ctx))
	require.NoError(t, c.Seed(ctx))

	queues, err := c.List(ctx)
	require.NoError(t, err)
	assert.Len(t, queues, 4)

	q, err := c.Get(ctx, "financial-aid")
	require.NoError(t, err)
	assert.Equal(t, "Financial Aid", q.Name)
}

func TestCatalogReadsThroughRedis(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	c := storage.NewQueueCatalog(storagetest.OpenMemory(t), rdb, storagetest.Logger())

	q := models.DefaultQueue("career-services")
	q.Name = "Career Services"
	q.AverageServiceTime = 15
	require.NoError(t, c.Save(ctx, q))

	got, err := c.Get(ctx, "career-services")
	require.NoError(t, err)
	assert.Equal(t, 15, got.AverageServiceTime)
	assert.True(t, mr.Exists("queue_meta_career-services"))

	// Save invalidates the cached copy
	q.AverageServiceTime = 20
	require.NoError(t, c.Save(ctx, q))
	assert.False(t, mr.Exists("queue_meta_career-services"))

	got, err = c.Get(ctx, "career-services")
	require.NoError(t, err)
	assert.Equal(t, 20, got.AverageServiceTime)
}
