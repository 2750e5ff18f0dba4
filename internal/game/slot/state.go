package slot

import "time"

// Mode 当前接收旋转/停止输入的模式
type Mode int

const (
	ModeMain Mode = iota
	ModeBonus
	ModeSpecial
)

func (m Mode) String() string {
	switch m {
	case ModeBonus:
		return "bonus"
	case ModeSpecial:
		return "special"
	default:
		return "main"
	}
}

// SpinPhase 主旋转阶段
type SpinPhase int

const (
	SpinIdle SpinPhase = iota
	SpinSpinning
	SpinResolving
)

func (p SpinPhase) String() string {
	switch p {
	case SpinSpinning:
		return "spinning"
	case SpinResolving:
		return "resolving"
	default:
		return "idle"
	}
}

// BonusPhase 奖励模式阶段
type BonusPhase int

const (
	BonusInactive BonusPhase = iota
	BonusPending             // 已触发，等待延迟进入
	BonusReady
	BonusSpinning
	BonusFinished // 免费次数用完，等待玩家确认退出
)

func (p BonusPhase) String() string {
	switch p {
	case BonusPending:
		return "pending"
	case BonusReady:
		return "ready"
	case BonusSpinning:
		return "spinning"
	case BonusFinished:
		return "ended"
	default:
		return "inactive"
	}
}

// SpecialPhase 特殊事件阶段
type SpecialPhase int

const (
	SpecialInactive SpecialPhase = iota
	SpecialIntro
	SpecialSpinning
	SpecialResultFlash
	SpecialReadyExit
)

func (p SpecialPhase) String() string {
	switch p {
	case SpecialIntro:
		return "intro"
	case SpecialSpinning:
		return "spinning"
	case SpecialResultFlash:
		return "result_flash"
	case SpecialReadyExit:
		return "ready_exit"
	default:
		return "inactive"
	}
}

// BonusTrigger 奖励触发等级
type BonusTrigger int

const (
	TriggerNone     BonusTrigger = iota
	TriggerStandard              // 一条有效线三连奖励符号
	TriggerEnhanced              // 两条及以上有效线同时三连
)

func (t BonusTrigger) String() string {
	switch t {
	case TriggerStandard:
		return "standard"
	case TriggerEnhanced:
		return "enhanced"
	default:
		return "none"
	}
}

// TriggerFor 根据三连奖励符号的线数判定触发等级
func TriggerFor(bonusLines int) BonusTrigger {
	switch {
	case bonusLines >= 2:
		return TriggerEnhanced
	case bonusLines == 1:
		return TriggerStandard
	default:
		return TriggerNone
	}
}

// MainSpin 主旋转状态
type MainSpin struct {
	Phase  SpinPhase
	Reels  *ReelBank
	Bet    int       // 本次旋转的下注
	Reach  bool      // 听牌提示
	Forced *SymbolID // 暗号指定的第一卷轴符号
}

// BonusState 奖励模式状态
type BonusState struct {
	Phase              BonusPhase
	Trigger            BonusTrigger
	FreeSpinsRemaining int
	TotalWon           int
	LastWin            int
	Multiplier         int
	Reels              *ReelBank
}

// Active 奖励模式已进入（不含等待阶段）
func (b *BonusState) Active() bool {
	return b.Phase >= BonusReady
}

// SpecialState 特殊事件状态
type SpecialState struct {
	Phase     SpecialPhase
	Kind      SymbolID
	Reward    RewardTier
	LockUntil time.Duration
	Reels     *ReelBank
}

// Locked 锁定窗口内不接受输入
func (s *SpecialState) Locked(now time.Duration) bool {
	return now < s.LockUntil
}

// State 引擎唯一持有的可变状态
type State struct {
	Now          time.Duration
	Coins        int
	BonusEntries int
	Bet          int
	LastWin      int
	Main         MainSpin
	Combo        ComboState
	Bonus        BonusState
	Special      SpecialState
	SpecialArmed bool
	Catalog      *Catalog
}

// Mode 当前接收输入的模式，三者互斥
func (s *State) Mode() Mode {
	switch {
	case s.Special.Phase != SpecialInactive:
		return ModeSpecial
	case s.Bonus.Phase != BonusInactive:
		return ModeBonus
	default:
		return ModeMain
	}
}
