package slot

import (
	"context"
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat/distuv"
)

// SimOptions 离线模拟参数
type SimOptions struct {
	Spins         int    // 主旋转次数
	Bet           int    // 每次下注
	Seed          uint64 // 随机种子
	ProgressEvery int    // 每多少次旋转回调一次进度，0表示不回调
}

// SimStats 模拟统计
type SimStats struct {
	Spins         int           `json:"spins"`
	Wagered       int64         `json:"wagered"`
	Returned      int64         `json:"returned"`
	MainReturned  int64         `json:"main_returned"`
	BonusReturned int64         `json:"bonus_returned"`
	SpecialPaid   int64         `json:"special_paid"`
	Hits          int           `json:"hits"`
	BonusTriggers int           `json:"bonus_triggers"`
	EnhancedBonus int           `json:"enhanced_bonus"`
	Specials      int           `json:"specials"`
	Jackpots      int           `json:"jackpots"`
	MaxWin        int           `json:"max_win"`
	LongestStreak int           `json:"longest_streak"`
	Elapsed       time.Duration `json:"elapsed"`
}

// RTP 返还率
func (s *SimStats) RTP() float64 {
	if s.Wagered == 0 {
		return 0
	}
	return float64(s.Returned) / float64(s.Wagered)
}

// HitRate 命中率
func (s *SimStats) HitRate() float64 {
	if s.Spins == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Spins)
}

// HitRateInterval 命中率的 Clopper-Pearson 置信区间
func (s *SimStats) HitRateInterval(confidence float64) (lo, hi float64) {
	n, k := s.Spins, s.Hits
	if n == 0 {
		return 0, 1
	}
	alpha := 1 - confidence
	if k > 0 {
		b := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
		lo = b.Quantile(alpha / 2)
	}
	hi = 1
	if k < n {
		b := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
		hi = b.Quantile(1 - alpha/2)
	}
	return lo, hi
}

// maxSimSteps 单次旋转最多推进的输入步数，防止配置异常时死循环
const maxSimSteps = 10_000

// Simulate 无界面驱动引擎，按随机节奏停止卷轴，统计返还率
// 奖励模式和特殊事件自动推进到结束，金币不足时自动补满
func Simulate(ctx context.Context, cfg *Config, opts SimOptions, progress func(done int, stats *SimStats)) (*SimStats, error) {
	if opts.Spins <= 0 {
		return nil, fmt.Errorf("%w: 模拟次数必须为正", ErrInvalidConfig)
	}
	if opts.Bet < MinBet || opts.Bet > MaxBet {
		return nil, fmt.Errorf("%w: 下注必须在%d到%d之间", ErrInvalidConfig, MinBet, MaxBet)
	}

	rng := NewSeededRand(opts.Seed)
	sim := *cfg
	sim.Override.Enabled = false
	e, err := NewEngine(&sim, WithRand(rng))
	if err != nil {
		return nil, err
	}
	e.Dispatch(BetChanged{Bet: opts.Bet})

	stats := &SimStats{}
	start := time.Now()
	frame := 16 * time.Millisecond

	for stats.Spins < opts.Spins {
		if err := ctx.Err(); err != nil {
			stats.Elapsed = time.Since(start)
			return stats, err
		}
		if e.state.Coins < opts.Bet {
			e.state.Coins = cfg.MaxCoins / 2
		}

		e.RequestSpin()
		stats.Spins++

		for steps := 0; ; steps++ {
			if steps > maxSimSteps {
				return stats, fmt.Errorf("第%d次旋转未能在%d步内结束", stats.Spins, maxSimSteps)
			}
			frames := 1 + rng.IntN(30)
			for i := 0; i < frames; i++ {
				e.Tick(frame)
			}
			if e.Mode() == ModeMain && e.state.Main.Phase == SpinIdle {
				break
			}
			e.Dispatch(ActionPressed{})
		}
		stats.collect(e.DrainNotices())

		if opts.ProgressEvery > 0 && progress != nil && stats.Spins%opts.ProgressEvery == 0 {
			progress(stats.Spins, stats)
		}
	}

	stats.Elapsed = time.Since(start)
	return stats, nil
}

// collect 从通知累计统计
func (s *SimStats) collect(notices []Notice) {
	for _, n := range notices {
		switch n.Kind {
		case NoticeSpinStarted:
			if n.Amount > 0 {
				s.Wagered += int64(n.Amount)
			}
		case NoticeSpinResolved:
			o := n.Outcome
			if o == nil {
				continue
			}
			if o.Special {
				s.Specials++
			}
			if o.Payout > 0 {
				s.Hits++
			}
			s.Returned += int64(o.Payout)
			s.MainReturned += int64(o.Payout)
			s.MaxWin = max(s.MaxWin, o.Payout)
			s.LongestStreak = max(s.LongestStreak, o.Streak)
			if o.Jackpot {
				s.Jackpots++
			}
			switch o.Trigger {
			case TriggerEnhanced:
				s.EnhancedBonus++
				s.BonusTriggers++
			case TriggerStandard:
				s.BonusTriggers++
			}
		case NoticeBonusEnded:
			s.Returned += int64(n.Amount)
			s.BonusReturned += int64(n.Amount)
			s.MaxWin = max(s.MaxWin, n.Amount)
		case NoticeSpecialEnded:
			s.Returned += int64(n.Amount)
			s.SpecialPaid += int64(n.Amount)
		}
	}
}
