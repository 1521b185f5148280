// Package storagetest opens throwaway in-memory databases for tests.
package storagetest

import (
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"testing"

	"advising_queue/internal/config"
	"advising_queue/internal/storage"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var seq atomic.Int64

// Logger discards output.
func Logger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// OpenMemory returns a migrated sqlite database private to the calling test.
func OpenMemory(t testing.TB) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_pragma=busy_timeout(5000)", name, seq.Add(1))

	db, err := storage.Open(config.Database{Driver: config.SQLiteDriver, SQLite: config.SQLite{Path: dsn}}, Logger())
	require.NoError(t, err)
	require.NoError(t, storage.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
