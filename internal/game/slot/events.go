package slot

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event 引擎输入事件
type Event interface {
	eventName() string
}

// SpinRequested 请求旋转
type SpinRequested struct{}

// StopRequested 请求停止下一个卷轴
type StopRequested struct{}

// TickElapsed 帧推进
type TickElapsed struct {
	Dt time.Duration
}

// BonusEnded 玩家确认结束奖励模式
type BonusEnded struct{}

// BetChanged 修改下注
type BetChanged struct {
	Bet int
}

// KeyPressed 原始按键，用于暗号识别
type KeyPressed struct {
	Key string
}

// ActionPressed 单按钮操作，按当前模式路由为旋转/停止/确认
type ActionPressed struct{}

// SpecialConfirmed 确认特殊事件结果并返回主模式
type SpecialConfirmed struct{}

// UpgradePurchased 购买图鉴条目或升级
type UpgradePurchased struct {
	ID int
}

// Restarted 硬重置
type Restarted struct{}

// ProfileHydrated 用持久化的玩家档案初始化余额
type ProfileHydrated struct {
	Coins        int
	BonusEntries int
}

// CatalogHydrated 用持久化的图鉴恢复
type CatalogHydrated struct {
	Entries []CatalogEntry
}

func (SpinRequested) eventName() string    { return "spin_requested" }
func (StopRequested) eventName() string    { return "stop_requested" }
func (TickElapsed) eventName() string      { return "tick_elapsed" }
func (BonusEnded) eventName() string       { return "bonus_ended" }
func (BetChanged) eventName() string       { return "bet_changed" }
func (KeyPressed) eventName() string       { return "key_pressed" }
func (ActionPressed) eventName() string    { return "action_pressed" }
func (SpecialConfirmed) eventName() string { return "special_confirmed" }
func (UpgradePurchased) eventName() string { return "upgrade_purchased" }
func (Restarted) eventName() string        { return "restarted" }
func (ProfileHydrated) eventName() string  { return "profile_hydrated" }
func (CatalogHydrated) eventName() string  { return "catalog_hydrated" }

// NoticeKind 引擎输出通知类型
type NoticeKind string

const (
	NoticeSpinStarted       NoticeKind = "spin_started"
	NoticeReelStopped       NoticeKind = "reel_stopped"
	NoticeReach             NoticeKind = "reach"
	NoticeSpinResolved      NoticeKind = "spin_resolved"
	NoticeBonusPending      NoticeKind = "bonus_pending"
	NoticeBonusStarted      NoticeKind = "bonus_started"
	NoticeBonusSpinResolved NoticeKind = "bonus_spin_resolved"
	NoticeBonusEnded        NoticeKind = "bonus_ended"
	NoticeSpecialStarted    NoticeKind = "special_started"
	NoticeSpecialSpinning   NoticeKind = "special_spinning"
	NoticeSpecialResult     NoticeKind = "special_result"
	NoticeSpecialEnded      NoticeKind = "special_ended"
	NoticeCodeAccepted      NoticeKind = "code_accepted"
	NoticePurchased         NoticeKind = "purchased"
	NoticeRestarted         NoticeKind = "restarted"
	NoticeHint              NoticeKind = "hint"
)

// 提示文案键
const (
	HintModeBusy          = "mode_busy"
	HintSpinInProgress    = "spin_in_progress"
	HintInsufficientCoins = "insufficient_coins"
	HintCodeNotEligible   = "code_not_eligible"
	HintLocked            = "locked"
	HintNotUnlocked       = "not_unlocked"
	HintAlreadyPurchased  = "already_purchased"
	HintUnknownItem       = "unknown_item"
)

// SpinOutcome 一次旋转的结算结果
type SpinOutcome struct {
	Bonus      bool            `json:"bonus"` // 奖励模式中的免费旋转
	Bet        int             `json:"bet"`
	Grid       Grid            `json:"grid"`
	Wins       []WinLine       `json:"wins"`
	Total      int             `json:"total"`  // 倍率前的线赔付合计
	Payout     int             `json:"payout"` // 实际入账
	Multiplier decimal.Decimal `json:"multiplier"`
	Streak     int             `json:"streak"`
	Jackpot    bool            `json:"jackpot"`
	Trigger    BonusTrigger    `json:"trigger"`
	Special    bool            `json:"special"` // 转入特殊事件，未做常规结算
}

// Notice 引擎通知，由宿主取走
type Notice struct {
	Kind     NoticeKind   `json:"kind"`
	AtMs     int64        `json:"at_ms"`
	Reel     int          `json:"reel,omitempty"`
	Amount   int          `json:"amount,omitempty"`
	Hint     string       `json:"hint,omitempty"`
	Code     string       `json:"code,omitempty"`
	ItemID   int          `json:"item_id,omitempty"`
	Creature SymbolID     `json:"creature,omitempty"`
	Outcome  *SpinOutcome `json:"outcome,omitempty"`
	Reward   *RewardTier  `json:"reward,omitempty"`
}
