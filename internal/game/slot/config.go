package slot

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidConfig = errors.New("无效的引擎配置")
)

// Config 引擎参数
type Config struct {
	Symbols   SymbolTable
	StripMode StripMode

	MainSpeeds    [ReelCount]float64
	BonusSpeeds   [ReelCount]float64
	SpecialSpeeds [ReelCount]float64

	FrameUnit     float64       // 速度换算的帧时长（毫秒）
	MaxFrameDelta time.Duration // 单帧最大时长
	SnapDuration  time.Duration // 吸附时长
	ShortWayRatio float64       // 超过 L*ratio 时反向吸附
	ForcedRow     int           // 暗号指定符号停留的行

	InitialCoins int
	MaxCoins     int

	Combo    ComboTable
	Bonus    BonusConfig
	Special  SpecialConfig
	Override OverrideConfig
}

// BonusConfig 奖励模式参数
type BonusConfig struct {
	FreeSpins          int
	Multiplier         int           // 普通触发倍率
	EnhancedMultiplier int           // 多线同时触发倍率
	StartDelay         time.Duration // 主旋转结算后进入奖励模式的延迟
}

// SpecialConfig 特殊事件参数
type SpecialConfig struct {
	Chance        float64
	IntroDelay    time.Duration
	FlashDelay    time.Duration
	ReelLength    int
	CanonicalCell int
	Kinds         []SymbolID
	Tiers         []RewardTier
}

// RewardTier 特殊事件奖励档位
type RewardTier struct {
	Name            string  `json:"name"`
	Coins           int     `json:"coins"`
	Weight          float64 `json:"weight"`
	RequiresCatalog bool    `json:"requires_catalog"` // 需要基础图鉴全部购买
}

// OverrideConfig 暗号参数
type OverrideConfig struct {
	Enabled    bool
	BufferSize int
	Timeout    time.Duration
	Codes      []SecretCode
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Symbols:   DefaultSymbols(),
		StripMode: StripModeWeighted,

		MainSpeeds:    [ReelCount]float64{0.32, 0.30, 0.28},
		BonusSpeeds:   [ReelCount]float64{0.30, 0.28, 0.26},
		SpecialSpeeds: [ReelCount]float64{0.22, 0.20, 0.18},

		FrameUnit:     DefaultFrameUnit,
		MaxFrameDelta: 34 * time.Millisecond,
		SnapDuration:  150 * time.Millisecond,
		ShortWayRatio: 0.3,
		ForcedRow:     1,

		InitialCoins: 100,
		MaxCoins:     9_999_999,

		Combo: DefaultComboTable(),
		Bonus: BonusConfig{
			FreeSpins:          8,
			Multiplier:         2,
			EnhancedMultiplier: 4,
			StartDelay:         500 * time.Millisecond,
		},
		Special: SpecialConfig{
			Chance:        0.01,
			IntroDelay:    1500 * time.Millisecond,
			FlashDelay:    1200 * time.Millisecond,
			ReelLength:    6,
			CanonicalCell: 0,
			Kinds:         []SymbolID{ExtraMendako, ExtraIsopod, ExtraOarfish},
			Tiers: []RewardTier{
				{Name: "small", Coins: 100, Weight: 60},
				{Name: "medium", Coins: 300, Weight: 30},
				{Name: "large", Coins: 1000, Weight: 10, RequiresCatalog: true},
			},
		},
		Override: OverrideConfig{
			Enabled:    true,
			BufferSize: 16,
			Timeout:    1500 * time.Millisecond,
			Codes:      DefaultSecretCodes(),
		},
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if err := c.Symbols.Validate(); err != nil {
		return err
	}
	switch c.StripMode {
	case StripModeWeighted, StripModeFixed:
	default:
		return fmt.Errorf("%w: 未知的条带模式 %q", ErrInvalidConfig, c.StripMode)
	}
	if c.FrameUnit <= 0 || c.MaxFrameDelta <= 0 || c.SnapDuration <= 0 {
		return fmt.Errorf("%w: 时间参数必须为正", ErrInvalidConfig)
	}
	if c.ShortWayRatio <= 0 || c.ShortWayRatio >= 1 {
		return fmt.Errorf("%w: short_way_ratio 必须在(0,1)之间", ErrInvalidConfig)
	}
	if c.ForcedRow < 0 || c.ForcedRow >= RowCount {
		return fmt.Errorf("%w: forced_row 越界", ErrInvalidConfig)
	}
	if c.InitialCoins < 0 || c.MaxCoins < c.InitialCoins {
		return fmt.Errorf("%w: 金币上下限无效", ErrInvalidConfig)
	}
	if err := c.Combo.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Bonus.FreeSpins <= 0 || c.Bonus.Multiplier <= 0 || c.Bonus.EnhancedMultiplier < c.Bonus.Multiplier {
		return fmt.Errorf("%w: 奖励模式参数无效", ErrInvalidConfig)
	}
	if c.Special.Chance < 0 || c.Special.Chance > 1 {
		return fmt.Errorf("%w: 特殊事件概率必须在[0,1]", ErrInvalidConfig)
	}
	if c.Special.ReelLength <= 0 || len(c.Special.Kinds) == 0 {
		return fmt.Errorf("%w: 特殊事件卷轴无效", ErrInvalidConfig)
	}
	for _, t := range c.Special.Tiers {
		if t.Weight < 0 || t.Coins < 0 {
			return fmt.Errorf("%w: 奖励档位 %s 无效", ErrInvalidConfig, t.Name)
		}
	}
	return nil
}
