package models

import (
	"time"
)

// PlayerProfile 玩家档案最新快照
type PlayerProfile struct {
	BaseModel
	PlayerID     string    `gorm:"uniqueIndex;size:64;not null" json:"player_id"`
	Version      int       `gorm:"not null;default:3" json:"version"`
	Coins        int       `gorm:"not null;default:0" json:"coins"`
	BonusEntries int       `gorm:"not null;default:0" json:"bonus_entries"`
	SyncedAt     time.Time `json:"synced_at"` // 令牌中的 updated_at
	Catalog      JSONMap   `gorm:"type:json" json:"catalog,omitempty"`
}

// TableName 指定表名
func (PlayerProfile) TableName() string {
	return "player_profiles"
}

// 档案写入结果
const (
	WriteAccepted = "accepted"
	WriteRejected = "rejected"
)

// ProfileWrite 档案写入审计
type ProfileWrite struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	PlayerID         string    `gorm:"index;size:64;not null" json:"player_id"`
	Result           string    `gorm:"size:20;not null;index" json:"result"` // accepted, rejected
	Reason           string    `gorm:"size:50" json:"reason,omitempty"`      // 拒绝时的错误键
	PrevCoins        int       `json:"prev_coins"`
	NewCoins         int       `json:"new_coins"`
	PrevBonusEntries int       `json:"prev_bonus_entries"`
	NewBonusEntries  int       `json:"new_bonus_entries"`
	ClientIP         string    `gorm:"size:50" json:"client_ip"`
	CreatedAt        time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (ProfileWrite) TableName() string {
	return "profile_writes"
}
