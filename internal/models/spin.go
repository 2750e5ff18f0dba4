package models

import (
	"time"
)

// SpinRecord 旋转结算记录
type SpinRecord struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	PlayerID   string    `gorm:"index;size:64;not null" json:"player_id"`
	SessionID  string    `gorm:"index;size:64;not null" json:"session_id"`
	Mode       string    `gorm:"size:20;not null" json:"mode"` // main, bonus, special
	Bet        int       `json:"bet"`
	LineTotal  int       `json:"line_total"`
	Payout     int       `json:"payout"`
	Multiplier string    `gorm:"size:16" json:"multiplier"`
	Streak     int       `json:"streak"`
	Jackpot    bool      `gorm:"default:false" json:"jackpot"`
	Trigger    string    `gorm:"size:20" json:"trigger,omitempty"` // standard, enhanced
	Grid       string    `gorm:"size:64" json:"grid"`              // 行优先，逗号分隔
	Detail     JSONMap   `gorm:"type:json" json:"detail,omitempty"`
	CoinsAfter int       `json:"coins_after"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (SpinRecord) TableName() string {
	return "spin_records"
}
