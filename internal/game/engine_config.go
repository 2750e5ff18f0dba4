package game

import (
	"fmt"

	"github.com/wfunc/deepsea-slots/internal/config"
	"github.com/wfunc/deepsea-slots/internal/game/slot"
)

// EngineConfig 把配置文件中的游戏调参转换为引擎参数，未设置的项沿用默认值
func EngineConfig(gc *config.GameConfig) (*slot.Config, error) {
	cfg := slot.DefaultConfig()
	if gc == nil {
		return cfg, nil
	}

	if gc.SymbolsFile != "" {
		symbols, err := slot.LoadSymbolsFile(gc.SymbolsFile)
		if err != nil {
			return nil, fmt.Errorf("加载符号表失败: %w", err)
		}
		cfg.Symbols = symbols
	}
	if gc.StripMode != "" {
		cfg.StripMode = slot.StripMode(gc.StripMode)
	}
	if gc.InitialCoins > 0 {
		cfg.InitialCoins = gc.InitialCoins
	}
	if gc.MaxCoins > 0 {
		cfg.MaxCoins = gc.MaxCoins
	}

	if err := copySpeeds(&cfg.MainSpeeds, gc.Speeds.Main); err != nil {
		return nil, fmt.Errorf("speeds.main: %w", err)
	}
	if err := copySpeeds(&cfg.BonusSpeeds, gc.Speeds.Bonus); err != nil {
		return nil, fmt.Errorf("speeds.bonus: %w", err)
	}
	if err := copySpeeds(&cfg.SpecialSpeeds, gc.Speeds.Special); err != nil {
		return nil, fmt.Errorf("speeds.special: %w", err)
	}

	if gc.Snap.Duration > 0 {
		cfg.SnapDuration = gc.Snap.Duration
	}
	if gc.Snap.ShortWayRatio > 0 {
		cfg.ShortWayRatio = gc.Snap.ShortWayRatio
	}
	if gc.Snap.MaxFrameDelta > 0 {
		cfg.MaxFrameDelta = gc.Snap.MaxFrameDelta
	}

	if len(gc.Combo) > 0 {
		table, err := slot.ParseComboTable(gc.Combo)
		if err != nil {
			return nil, fmt.Errorf("combo: %w", err)
		}
		cfg.Combo = table
	}

	b := gc.Bonus
	if b.FreeSpins > 0 {
		cfg.Bonus.FreeSpins = b.FreeSpins
	}
	if b.Multiplier > 0 {
		cfg.Bonus.Multiplier = b.Multiplier
	}
	if b.EnhancedMultiplier > 0 {
		cfg.Bonus.EnhancedMultiplier = b.EnhancedMultiplier
	}
	if b.StartDelay > 0 {
		cfg.Bonus.StartDelay = b.StartDelay
	}

	sp := gc.Special
	cfg.Special.Chance = sp.Chance
	if sp.IntroDelay > 0 {
		cfg.Special.IntroDelay = sp.IntroDelay
	}
	if sp.FlashDelay > 0 {
		cfg.Special.FlashDelay = sp.FlashDelay
	}
	if sp.ReelLength > 0 {
		cfg.Special.ReelLength = sp.ReelLength
	}
	if len(sp.Tiers) > 0 {
		tiers := make([]slot.RewardTier, 0, len(sp.Tiers))
		for _, t := range sp.Tiers {
			tiers = append(tiers, slot.RewardTier{
				Name:            t.Name,
				Coins:           t.Coins,
				Weight:          t.Weight,
				RequiresCatalog: t.RequiresCatalog,
			})
		}
		cfg.Special.Tiers = tiers
	}

	cfg.Override.Enabled = gc.Override.Enabled
	if gc.Override.BufferSize > 0 {
		cfg.Override.BufferSize = gc.Override.BufferSize
	}
	if gc.Override.Timeout > 0 {
		cfg.Override.Timeout = gc.Override.Timeout
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// copySpeeds 长度必须与卷轴数一致，空切片表示沿用默认
func copySpeeds(dst *[slot.ReelCount]float64, src []float64) error {
	if len(src) == 0 {
		return nil
	}
	if len(src) != slot.ReelCount {
		return fmt.Errorf("需要 %d 个速度，实际 %d 个", slot.ReelCount, len(src))
	}
	copy(dst[:], src)
	return nil
}
