package slot

import (
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// enterSpecial 主旋转结算转入特殊事件
func (e *Engine) enterSpecial() {
	s := &e.state
	cfg := e.cfg.Special

	kind := cfg.Kinds[e.rng.IntN(len(cfg.Kinds))]
	var set ReelSet
	for r := 0; r < ReelCount; r++ {
		set[r] = specialStrip(kind, cfg.ReelLength, cfg.CanonicalCell)
	}
	reels := NewReelBank(set, e.cfg.SpecialSpeeds)
	for r := 0; r < ReelCount; r++ {
		reels.Positions[r] = float64(e.rng.IntN(cfg.ReelLength))
	}

	s.Special = SpecialState{
		Phase:     SpecialIntro,
		Kind:      kind,
		LockUntil: s.Now + cfg.IntroDelay,
		Reels:     reels,
	}
	e.schedule(timerSpecialIntro, cfg.IntroDelay)

	e.logger.Info("特殊事件开始", zap.Int("kind", int(kind)))
	e.emit(Notice{Kind: NoticeSpecialStarted, Creature: kind})
}

// finishSpecialIntro 开场结束，卷轴开始转动
func (e *Engine) finishSpecialIntro() {
	sp := &e.state.Special
	if sp.Phase != SpecialIntro {
		return
	}
	sp.Phase = SpecialSpinning
	sp.Reels.Start()
	e.emit(Notice{Kind: NoticeSpecialSpinning, Creature: sp.Kind})
}

// stopSpecialReel 特殊卷轴每次停止都吸附到基准格，让事件生物落在中间行
func (e *Engine) stopSpecialReel() {
	sp := &e.state.Special
	if sp.Locked(e.state.Now) {
		e.hint(HintLocked)
		return
	}
	if sp.Phase != SpecialSpinning || !sp.Reels.AwaitingStop() {
		return
	}

	target := float64(e.cfg.Special.CanonicalCell - e.cfg.ForcedRow)
	sp.Reels.BeginStop(target, e.cfg.SnapDuration, e.cfg.ShortWayRatio)
}

// advanceSpecial 特殊卷轴逐帧推进
func (e *Engine) advanceSpecial(dt time.Duration) {
	sp := &e.state.Special
	if sp.Phase != SpecialSpinning {
		return
	}

	settled := sp.Reels.Advance(dt, e.cfg.FrameUnit)
	if settled < 0 {
		return
	}
	e.emit(Notice{Kind: NoticeReelStopped, Reel: settled})

	if sp.Reels.Settled() {
		e.resolveSpecial()
	}
}

// resolveSpecial 三个卷轴停稳后抽取奖励档位
func (e *Engine) resolveSpecial() {
	s := &e.state
	sp := &s.Special

	reward, ok := e.drawReward()
	if !ok {
		e.logger.Warn("特殊事件没有可用的奖励档位")
	}

	sp.Reels.Halt()
	sp.Phase = SpecialResultFlash
	sp.Reward = reward
	sp.LockUntil = s.Now + e.cfg.Special.FlashDelay
	e.schedule(timerSpecialFlash, e.cfg.Special.FlashDelay)

	tier := reward
	e.emit(Notice{Kind: NoticeSpecialResult, Creature: sp.Kind, Amount: reward.Coins, Reward: &tier})
}

// finishSpecialFlash 结果展示结束，等待玩家确认
func (e *Engine) finishSpecialFlash() {
	sp := &e.state.Special
	if sp.Phase != SpecialResultFlash {
		return
	}
	sp.Phase = SpecialReadyExit
}

// confirmSpecial 确认奖励并回到主模式
func (e *Engine) confirmSpecial() {
	s := &e.state
	sp := &s.Special
	if sp.Phase == SpecialInactive {
		return
	}
	if sp.Locked(s.Now) {
		e.hint(HintLocked)
		return
	}
	if sp.Phase != SpecialReadyExit {
		return
	}

	kind, reward := sp.Kind, sp.Reward.Coins
	s.Coins = e.clampCoins(s.Coins + reward)
	s.LastWin = reward
	s.Catalog.RecordEncounter(kind)
	s.Special = SpecialState{}

	e.logger.Info("特殊事件结束", zap.Int("kind", int(kind)), zap.Int("reward", reward))
	e.emit(Notice{Kind: NoticeSpecialEnded, Creature: kind, Amount: reward})
}

// drawReward 在已解锁的档位中按权重抽取
func (e *Engine) drawReward() (RewardTier, bool) {
	complete := e.state.Catalog.BaseComplete()

	var tiers []RewardTier
	var weights []float64
	for _, t := range e.cfg.Special.Tiers {
		if t.RequiresCatalog && !complete {
			continue
		}
		if t.Weight <= 0 {
			continue
		}
		tiers = append(tiers, t)
		weights = append(weights, t.Weight)
	}
	if len(tiers) == 0 {
		return RewardTier{}, false
	}

	idx, ok := sampleuv.NewWeighted(weights, e.rng).Take()
	if !ok {
		return RewardTier{}, false
	}
	return tiers[idx], true
}
