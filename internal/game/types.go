package game

import (
	"time"

	"github.com/wfunc/deepsea-slots/internal/game/slot"
)

// OutputType 会话输出类型
type OutputType string

const (
	OutputSnapshot OutputType = "snapshot"
	OutputNotice   OutputType = "notice"
	OutputProfile  OutputType = "profile"
	OutputError    OutputType = "error"
)

// ProfileUpdate 档案同步成功后下发的新令牌
type ProfileUpdate struct {
	Token        string `json:"token"`
	Coins        int    `json:"coins"`
	BonusEntries int    `json:"bonusEntries"`
}

// Output 会话向连接推送的一条消息
type Output struct {
	Type     OutputType     `json:"type"`
	Snapshot *slot.Snapshot `json:"snapshot,omitempty"`
	Notice   *slot.Notice   `json:"notice,omitempty"`
	Profile  *ProfileUpdate `json:"profile,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// SessionInfo 会话信息
type SessionInfo struct {
	SessionID string    `json:"session_id"`
	PlayerID  string    `json:"player_id"`
	StartTime time.Time `json:"start_time"`
	Duration  float64   `json:"duration"`
	Spins     int64     `json:"spins"`
	Wagered   int64     `json:"wagered"`
	Paid      int64     `json:"paid"`
	Mode      string    `json:"mode"`
}
