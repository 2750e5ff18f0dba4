package repository

import (
	"fmt"
	"time"

	"github.com/wfunc/deepsea-slots/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB 为测试套件设置内存数据库
func SetupTestDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(err)
	}

	// 每个连接都是独立的内存库
	sqlDB, err := db.DB()
	if err != nil {
		panic(err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.PlayerProfile{},
		&models.ProfileWrite{},
		&models.SpinRecord{},
	)
	if err != nil {
		panic(err)
	}

	return db
}

// CleanupTestDB 清理测试数据库
func CleanupTestDB(db *gorm.DB) {
	sqlDB, _ := db.DB()
	if sqlDB != nil {
		sqlDB.Close()
	}
}

// CreateTestSpin 创建测试旋转记录
func CreateTestSpin(db *gorm.DB, playerID string, bet, payout int) *models.SpinRecord {
	record := &models.SpinRecord{
		PlayerID:   playerID,
		SessionID:  fmt.Sprintf("sess-%s", playerID),
		Mode:       "main",
		Bet:        bet,
		LineTotal:  payout,
		Payout:     payout,
		Multiplier: "1",
		Grid:       "0,0,0,1,1,1,2,2,2",
		CreatedAt:  time.Now(),
	}
	if err := db.Create(record).Error; err != nil {
		panic(err)
	}
	return record
}
