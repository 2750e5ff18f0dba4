package database

import (
	"fmt"

	"github.com/wfunc/deepsea-slots/internal/logger"
	"github.com/wfunc/deepsea-slots/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// migrationModels 需要迁移的模型
func migrationModels() []interface{} {
	return []interface{}{
		&models.PlayerProfile{},
		&models.ProfileWrite{},
		&models.SpinRecord{},
	}
}

// AutoMigrate 迁移全局数据库
func AutoMigrate() error {
	if DB == nil {
		return fmt.Errorf("数据库未初始化")
	}

	// 多进程共用一个SQLite文件时串行迁移
	if dbPath := getDBPath(DB); dbPath != "" {
		CleanupStaleLocks(dbPath)
		lockFile, err := acquireMigrationLock(dbPath)
		if err != nil {
			logger.Error("无法获取迁移锁", zap.Error(err))
			return fmt.Errorf("获取迁移锁失败: %w", err)
		}
		defer releaseMigrationLock(lockFile)
	}

	return Migrate(DB)
}

// Migrate 在指定连接上迁移表结构并补建索引
func Migrate(db *gorm.DB) error {
	logger.Info("开始数据库迁移...")

	for _, model := range migrationModels() {
		if err := db.AutoMigrate(model); err != nil {
			logger.Error("迁移失败",
				zap.String("model", fmt.Sprintf("%T", model)),
				zap.Error(err),
			)
			return err
		}
		logger.Debug("迁移成功", zap.String("model", fmt.Sprintf("%T", model)))
	}

	createIndexes(db)

	logger.Info("数据库迁移完成")
	return nil
}

// createIndexes 创建复合索引，失败只告警
func createIndexes(db *gorm.DB) {
	indexes := []struct {
		name string
		sql  string
	}{
		{"idx_spin_records_player_created", "CREATE INDEX IF NOT EXISTS idx_spin_records_player_created ON spin_records(player_id, created_at)"},
		{"idx_profile_writes_player_created", "CREATE INDEX IF NOT EXISTS idx_profile_writes_player_created ON profile_writes(player_id, created_at)"},
	}
	for _, idx := range indexes {
		if err := db.Exec(idx.sql).Error; err != nil {
			logger.Warn("创建索引失败", zap.String("index", idx.name), zap.Error(err))
		}
	}
}
