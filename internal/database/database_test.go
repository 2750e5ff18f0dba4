package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/deepsea-slots/internal/config"
	gormlogger "gorm.io/gorm/logger"
)

func TestOpen_MemoryAndMigrate(t *testing.T) {
	db, err := Open(&config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:", LogLevel: "silent"})
	require.NoError(t, err)
	defer func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	}()

	require.NoError(t, Migrate(db))
	for _, table := range []string{"player_profiles", "profile_writes", "spin_records"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.Empty(t, getDBPath(db))

	// 重复迁移无副作用
	assert.NoError(t, Migrate(db))
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(&config.DatabaseConfig{Driver: "oracle", DSN: "x"})
	assert.Error(t, err)
}

func TestOpen_SQLiteFileCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	dsn := filepath.Join(dir, "deepsea.db")

	db, err := Open(&config.DatabaseConfig{Driver: "sqlite", DSN: dsn, LogLevel: "silent"})
	require.NoError(t, err)
	defer func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	}()

	_, err = os.Stat(dir)
	assert.NoError(t, err)
	assert.Equal(t, filepath.Base(dsn), filepath.Base(getDBPath(db)))
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want gormlogger.LogLevel
	}{
		{"silent", gormlogger.Silent},
		{"error", gormlogger.Error},
		{"info", gormlogger.Info},
		{"warn", gormlogger.Warn},
		{"", gormlogger.Warn},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLogLevel(tt.in), tt.in)
	}
}

func TestMigrationLock(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "deepsea.db")

	lock, err := acquireMigrationLock(dbPath)
	require.NoError(t, err)
	_, err = os.Stat(dbPath + ".migration.lock")
	assert.NoError(t, err)

	releaseMigrationLock(lock)
	_, err = os.Stat(dbPath + ".migration.lock")
	assert.True(t, os.IsNotExist(err))

	// 释放后可以再次获取
	lock, err = acquireMigrationLock(dbPath)
	require.NoError(t, err)
	releaseMigrationLock(lock)
}
