package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"advising_queue/internal/config"
	"advising_queue/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to the configured database. Postgres is the deployment target,
// sqlite serves local runs.
func Open(cfg config.Database, logger *logrus.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.PostgresDriver:
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.Username, cfg.Postgres.Password, cfg.Postgres.Database)
		dialector = postgres.Open(dsn)
	case config.SQLiteDriver:
		dialector = sqlite.Open(sqliteDSN(cfg.SQLite.Path))
	default:
		return nil, errors.Errorf("storage : unsupported driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, errors.Wrap(err, "storage : failed to open database")
	}

	if cfg.Driver == config.SQLiteDriver {
		// sqlite serializes writers anyway; one connection avoids SQLITE_BUSY between them
		sqlDB, err := db.DB()
		if err != nil {
			return nil, errors.Wrap(err, "storage : sqlite handle")
		}
		sqlDB.SetMaxOpenConns(1)
	}

	logger.WithField("driver", cfg.Driver).Info("database connection established")
	return db, nil
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_pragma=busy_timeout(5000)"
}

// Migrate creates or updates the tables owned by this service.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Queue{}, &models.QueueEntry{}); err != nil {
		return errors.Wrap(err, "storage : migration failed")
	}
	return nil
}

// NewRedisClient returns nil without error when no address is configured.
func NewRedisClient(ctx context.Context, cfg config.Redis, logger *logrus.Logger) (*redis.Client, error) {
	if cfg.Addr == "" {
		logger.Info("redis disabled, running without metadata cache and event relay")
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.Database,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrapf(err, "storage : redis ping %s", cfg.Addr)
	}

	logger.Infof("redis is running on %s on db %d", cfg.Addr, cfg.Database)
	return rdb, nil
}

// Pinger checks the database and, when configured, Redis.
func Pinger(db *gorm.DB, rdb *redis.Client) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return errors.Wrap(err, "storage : database handle")
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return errors.Wrap(err, "storage : database ping")
		}
		if rdb != nil {
			if err := rdb.Ping(ctx).Err(); err != nil {
				return errors.Wrap(err, "storage : redis ping")
			}
		}
		return nil
	}
}
