package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, LocalEnv, cfg.AppEnv)
	assert.Equal(t, logrus.InfoLevel, cfg.LogLevel)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, PostgresDriver, cfg.Database.Driver)
	assert.Equal(t, 60*time.Second, cfg.Queue.NoShowGrace)
	assert.Equal(t, "general-advising", cfg.Queue.DefaultQueueID)
	assert.Equal(t, "my.yorku.ca", cfg.Queue.StudentEmailDomain)
	assert.False(t, cfg.Queue.TargetedEvents)
	assert.Equal(t, 30, cfg.Queue.RetentionDays)
	assert.Equal(t, time.UTC, cfg.Queue.Location)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "stage")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/q.db")
	t.Setenv("NOSHOW_GRACE", "90s")
	t.Setenv("TARGETED_EVENTS", "true")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, StageEnv, cfg.AppEnv)
	assert.Equal(t, logrus.DebugLevel, cfg.LogLevel)
	assert.Equal(t, SQLiteDriver, cfg.Database.Driver)
	assert.Equal(t, "/tmp/q.db", cfg.Database.SQLite.Path)
	assert.Equal(t, 90*time.Second, cfg.Queue.NoShowGrace)
	assert.True(t, cfg.Queue.TargetedEvents)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	cases := map[string][2]string{
		"port":     {"HTTP_PORT", "eighty"},
		"grace":    {"NOSHOW_GRACE", "soon"},
		"negative": {"NOSHOW_GRACE", "-1s"},
		"driver":   {"DB_DRIVER", "mongo"},
		"level":    {"LOG_LEVEL", "loud"},
		"bool":     {"TARGETED_EVENTS", "maybe"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestProductionNeedsSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	_, err := FromEnv()
	assert.Error(t, err)

	t.Setenv("JWT_ACCESS_SECRET", "s3cret")
	_, err = FromEnv()
	assert.NoError(t, err)
}

func TestRetention(t *testing.T) {
	assert.Equal(t, 48*time.Hour, Queue{RetentionDays: 2}.Retention())
	assert.Zero(t, Queue{}.Retention())
}
