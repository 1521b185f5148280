package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// localJWTSecret signs admin tokens outside production when no secret is configured.
const localJWTSecret = "advising-queue-local"

type AppEnv string

const (
	ProductionEnv AppEnv = "production"
	StageEnv      AppEnv = "stage"
	DevelopEnv    AppEnv = "develop"
	LocalEnv      AppEnv = "local"
	TestEnv       AppEnv = "test"
)

const (
	PostgresDriver = "postgres"
	SQLiteDriver   = "sqlite"
)

type (
	Config struct {
		AppEnv   AppEnv
		LogLevel logrus.Level
		HTTP     HTTP
		Database Database
		Redis    Redis
		Auth     Auth
		Queue    Queue
	}

	HTTP struct {
		Port int
	}

	Database struct {
		Driver   string
		Postgres Postgres
		SQLite   SQLite
	}

	Postgres struct {
		Host     string
		Port     int
		Username string
		Password string
		Database string
	}

	SQLite struct {
		Path string
	}

	// Redis is optional; an empty Addr disables the metadata cache and the cross-instance relay.
	Redis struct {
		Addr     string
		Password string
		Database int
		Channel  string
	}

	Auth struct {
		JWTSecret string
		TokenTTL  time.Duration
	}

	Queue struct {
		NoShowGrace        time.Duration
		DefaultQueueID     string
		StudentEmailDomain string
		TargetedEvents     bool
		RetentionDays      int
		Location           *time.Location
		DeferralSweep      string
		RetentionPurge     string
	}
)

// Load reads a .env file unless ENV_CHEK is set, then builds Config from the environment.
func Load() (*Config, error) {
	if os.Getenv("ENV_CHEK") == "" {
		// a missing .env is fine, variables may come from the process environment
		_ = godotenv.Load()
	}
	return FromEnv()
}

// FromEnv builds Config from the current environment without touching .env files.
func FromEnv() (*Config, error) {
	var err error
	cfg := &Config{
		AppEnv: AppEnv(getEnv("APP_ENV", string(LocalEnv))),
		Database: Database{
			Driver: strings.ToLower(getEnv("DB_DRIVER", PostgresDriver)),
			Postgres: Postgres{
				Host:     getEnv("DB_HOST", "localhost"),
				Username: getEnv("DB_USER", "postgres"),
				Password: getEnv("DB_PASSWORD", ""),
				Database: getEnv("DB_NAME", "advising_queue"),
			},
			SQLite: SQLite{Path: getEnv("SQLITE_PATH", "advising_queue.db")},
		},
		Redis: Redis{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			Channel:  getEnv("REDIS_CHANNEL", "advising_queue:events"),
		},
		Auth: Auth{JWTSecret: getEnv("JWT_ACCESS_SECRET", "")},
		Queue: Queue{
			DefaultQueueID:     getEnv("DEFAULT_QUEUE_ID", "general-advising"),
			StudentEmailDomain: getEnv("STUDENT_EMAIL_DOMAIN", "my.yorku.ca"),
			DeferralSweep:      getEnv("DEFERRAL_SWEEP", "*/30 * * * * *"),
			RetentionPurge:     getEnv("RETENTION_PURGE", "0 0 3 * * *"),
		},
	}

	if cfg.LogLevel, err = logrus.ParseLevel(getEnv("LOG_LEVEL", "info")); err != nil {
		return nil, errors.Wrap(err, "config : LOG_LEVEL")
	}
	if cfg.HTTP.Port, err = getEnvInt("HTTP_PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.Database.Postgres.Port, err = getEnvInt("DB_PORT", 5432); err != nil {
		return nil, err
	}
	if cfg.Redis.Database, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.Auth.TokenTTL, err = getEnvDuration("JWT_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.Queue.NoShowGrace, err = getEnvDuration("NOSHOW_GRACE", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.Queue.RetentionDays, err = getEnvInt("RETENTION_DAYS", 30); err != nil {
		return nil, err
	}
	if cfg.Queue.TargetedEvents, err = getEnvBool("TARGETED_EVENTS", false); err != nil {
		return nil, err
	}
	if cfg.Queue.Location, err = time.LoadLocation(getEnv("TIMEZONE", "Local")); err != nil {
		return nil, errors.Wrap(err, "config : TIMEZONE")
	}

	if cfg.Database.Driver != PostgresDriver && cfg.Database.Driver != SQLiteDriver {
		return nil, errors.Errorf("config : unsupported DB_DRIVER %q", cfg.Database.Driver)
	}
	if cfg.Queue.NoShowGrace <= 0 {
		return nil, errors.New("config : NOSHOW_GRACE must be positive")
	}
	if cfg.AppEnv == ProductionEnv && cfg.Auth.JWTSecret == "" {
		return nil, errors.New("config : JWT_ACCESS_SECRET is required in production")
	}
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = localJWTSecret
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.Wrapf(err, "config : %s", key)
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, errors.Wrapf(err, "config : %s", key)
	}
	return b, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, errors.Wrapf(err, "config : %s", key)
	}
	return d, nil
}

// Retention is how long terminal entries are kept; zero disables the purge.
func (q Queue) Retention() time.Duration {
	if q.RetentionDays <= 0 {
		return 0
	}
	return time.Duration(q.RetentionDays) * 24 * time.Hour
}
