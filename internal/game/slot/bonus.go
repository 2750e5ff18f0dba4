package slot

import (
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// enterBonus 延迟进入奖励模式；状态已被重置或改变时不做任何事
func (e *Engine) enterBonus() {
	s := &e.state
	if s.Bonus.Phase != BonusPending || s.Mode() != ModeBonus {
		return
	}

	mult := e.cfg.Bonus.Multiplier
	if s.Bonus.Trigger == TriggerEnhanced {
		mult = e.cfg.Bonus.EnhancedMultiplier
	}

	reels := NewReelBank(BuildReelSet(e.bonusStrips), e.cfg.BonusSpeeds)
	for r := 0; r < ReelCount; r++ {
		reels.Positions[r] = float64(e.rng.IntN(reels.Len(r)))
	}

	s.Bonus.Phase = BonusReady
	s.Bonus.FreeSpinsRemaining = e.cfg.Bonus.FreeSpins
	s.Bonus.Multiplier = mult
	s.Bonus.TotalWon = 0
	s.Bonus.LastWin = 0
	s.Bonus.Reels = reels
	s.BonusEntries++

	e.logger.Info("进入奖励模式",
		zap.String("trigger", s.Bonus.Trigger.String()),
		zap.Int("multiplier", mult),
		zap.Int("bonus_entries", s.BonusEntries),
	)
	e.emit(Notice{Kind: NoticeBonusStarted, Amount: mult})
}

// spinBonus 消耗一次免费旋转
func (e *Engine) spinBonus() {
	b := &e.state.Bonus
	switch b.Phase {
	case BonusReady:
	case BonusPending:
		e.hint(HintModeBusy)
		return
	default:
		e.hint(HintSpinInProgress)
		return
	}
	if b.FreeSpinsRemaining <= 0 {
		return
	}

	b.FreeSpinsRemaining--
	b.LastWin = 0
	b.Phase = BonusSpinning
	b.Reels.Start()
	e.emit(Notice{Kind: NoticeSpinStarted})
}

// stopBonusReel 奖励模式的停止按原位最近格吸附
func (e *Engine) stopBonusReel() {
	b := &e.state.Bonus
	if b.Phase != BonusSpinning || !b.Reels.AwaitingStop() {
		return
	}
	reel := b.Reels.StopIndex - 1
	b.Reels.BeginStop(b.Reels.NearestCell(reel), e.cfg.SnapDuration, e.cfg.ShortWayRatio)
}

// advanceBonus 奖励卷轴逐帧推进
func (e *Engine) advanceBonus(dt time.Duration) {
	b := &e.state.Bonus
	if b.Phase != BonusSpinning {
		return
	}

	settled := b.Reels.Advance(dt, e.cfg.FrameUnit)
	if settled < 0 {
		return
	}
	e.emit(Notice{Kind: NoticeReelStopped, Reel: settled})

	if b.Reels.Settled() {
		e.resolveBonus()
	}
}

// resolveBonus 全线结算，线赔付乘以奖励倍率后累加
func (e *Engine) resolveBonus() {
	s := &e.state
	b := &s.Bonus

	grid := b.Reels.Grid()
	res := e.evaluator.Evaluate(grid, AllLines(), EvalOptions{Pay2Bonus: s.Catalog.Pay2Bonus()})
	for _, w := range res.Wins {
		if w.Count == 3 {
			s.Catalog.Record3x(w.Symbols[0])
		}
	}

	won := res.Total * b.Multiplier
	b.LastWin = won
	b.TotalWon = e.clampCoins(b.TotalWon + won)
	b.Reels.Halt()
	if b.FreeSpinsRemaining > 0 {
		b.Phase = BonusReady
	} else {
		b.Phase = BonusFinished
	}

	e.emit(Notice{
		Kind:   NoticeBonusSpinResolved,
		Amount: won,
		Outcome: &SpinOutcome{
			Bonus:      true,
			Grid:       grid,
			Wins:       res.Wins,
			Total:      res.Total,
			Payout:     won,
			Multiplier: decimal.NewFromInt(int64(b.Multiplier)),
			Jackpot:    IsJackpot(res.Wins),
		},
	})
}

// endBonus 结束奖励模式，累计奖金一次性入账
func (e *Engine) endBonus() {
	s := &e.state
	switch s.Bonus.Phase {
	case BonusReady, BonusFinished:
	default:
		if s.Bonus.Phase == BonusSpinning {
			e.hint(HintSpinInProgress)
		}
		return
	}

	won := s.Bonus.TotalWon
	s.Coins = e.clampCoins(s.Coins + won)
	s.LastWin = won
	s.Bonus = BonusState{}

	e.logger.Info("奖励模式结束", zap.Int("total_won", won), zap.Int("coins", s.Coins))
	e.emit(Notice{Kind: NoticeBonusEnded, Amount: won})
}
