package slot

import (
	"sort"
	"time"

	"go.uber.org/zap"
)

// Engine 旋转引擎
//
// 引擎持有唯一的状态聚合，所有变更都通过 Dispatch 同步完成，
// 不做任何加锁；宿主需保证同一时刻只有一个调用方（单写者、执行到底）。
type Engine struct {
	cfg         *Config
	rng         Rand
	strips      StripSource
	bonusStrips StripSource
	evaluator   *Evaluator
	matcher     *CodeMatcher
	logger      *zap.Logger
	state       State
	timers      []timer
	timerSeq    uint64
	notices     []Notice
}

// Option 引擎选项
type Option func(*Engine)

// WithRand 注入随机源
func WithRand(rng Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// WithStripSource 指定主卷轴条带来源
func WithStripSource(src StripSource) Option {
	return func(e *Engine) { e.strips = src }
}

// WithBonusStripSource 指定奖励模式条带来源
func WithBonusStripSource(src StripSource) Option {
	return func(e *Engine) { e.bonusStrips = src }
}

// WithLogger 设置日志器
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine 创建引擎
func NewEngine(cfg *Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:       cfg,
		evaluator: NewEvaluator(cfg.Symbols),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.rng == nil {
		e.rng = NewCryptoSeededRand()
	}
	if e.strips == nil {
		if cfg.StripMode == StripModeFixed {
			e.strips = DefaultFixedStrips()
		} else {
			e.strips = NewWeightedStripSource(cfg.Symbols, e.rng)
		}
	}
	if e.bonusStrips == nil {
		e.bonusStrips = DefaultFixedStrips()
	}
	if cfg.Override.Enabled {
		e.matcher = NewCodeMatcher(cfg.Override.Codes, cfg.Override.BufferSize, cfg.Override.Timeout)
	}

	e.state = State{
		Coins:   cfg.InitialCoins,
		Bet:     MinBet,
		Catalog: NewCatalog(cfg.Symbols),
	}
	e.state.Main.Reels = e.newMainReels()
	return e, nil
}

// Config 引擎配置
func (e *Engine) Config() *Config {
	return e.cfg
}

// Dispatch 应用一个事件，未知事件忽略
func (e *Engine) Dispatch(ev Event) {
	switch ev := ev.(type) {
	case TickElapsed:
		e.tick(ev.Dt)
	case SpinRequested:
		e.requestSpin()
	case StopRequested:
		e.requestStop()
	case ActionPressed:
		e.action()
	case BonusEnded:
		e.endBonus()
	case SpecialConfirmed:
		e.confirmSpecial()
	case BetChanged:
		e.changeBet(ev.Bet)
	case KeyPressed:
		e.pressKey(ev.Key)
	case UpgradePurchased:
		e.purchase(ev.ID)
	case Restarted:
		e.restart()
	case ProfileHydrated:
		e.hydrateProfile(ev)
	case CatalogHydrated:
		e.state.Catalog.Restore(ev.Entries)
	default:
		e.logger.Debug("忽略未知事件")
	}
}

// RequestSpin 请求旋转
func (e *Engine) RequestSpin() { e.Dispatch(SpinRequested{}) }

// RequestStop 请求停止
func (e *Engine) RequestStop() { e.Dispatch(StopRequested{}) }

// Tick 推进时间
func (e *Engine) Tick(dt time.Duration) { e.Dispatch(TickElapsed{Dt: dt}) }

// EndBonus 结束奖励模式
func (e *Engine) EndBonus() { e.Dispatch(BonusEnded{}) }

// PurchaseUpgrade 购买图鉴条目或升级
func (e *Engine) PurchaseUpgrade(id int) { e.Dispatch(UpgradePurchased{ID: id}) }

// Mode 当前模式
func (e *Engine) Mode() Mode {
	return e.state.Mode()
}

// Balance 当前金币和奖励模式进入次数
func (e *Engine) Balance() (coins, bonusEntries int) {
	return e.state.Coins, e.state.BonusEntries
}

// Catalog 图鉴条目副本
func (e *Engine) Catalog() []CatalogEntry {
	return e.state.Catalog.Entries()
}

// DrainNotices 取走累积的通知
func (e *Engine) DrainNotices() []Notice {
	out := e.notices
	e.notices = nil
	return out
}

// tick 推进一帧：计时器先于卷轴运动处理
func (e *Engine) tick(dt time.Duration) {
	if dt <= 0 {
		return
	}
	if dt > e.cfg.MaxFrameDelta {
		dt = e.cfg.MaxFrameDelta
	}
	e.state.Now += dt

	e.fireTimers()
	e.advanceMain(dt)
	e.advanceBonus(dt)
	e.advanceSpecial(dt)
}

// action 单按钮路由
func (e *Engine) action() {
	s := &e.state
	switch s.Mode() {
	case ModeSpecial:
		switch s.Special.Phase {
		case SpecialSpinning:
			e.stopSpecialReel()
		case SpecialReadyExit:
			e.confirmSpecial()
		}
	case ModeBonus:
		switch s.Bonus.Phase {
		case BonusReady:
			e.spinBonus()
		case BonusSpinning:
			e.stopBonusReel()
		case BonusFinished:
			e.endBonus()
		}
	default:
		if s.Main.Phase == SpinIdle {
			e.requestSpin()
		} else {
			e.requestStop()
		}
	}
}

// requestSpin 旋转请求按模式分派
func (e *Engine) requestSpin() {
	s := &e.state
	switch s.Mode() {
	case ModeBonus:
		e.spinBonus()
		return
	case ModeSpecial:
		e.hint(HintModeBusy)
		return
	}

	m := &s.Main
	if m.Phase != SpinIdle {
		e.hint(HintSpinInProgress)
		return
	}
	if s.Coins < s.Bet {
		e.hint(HintInsufficientCoins)
		return
	}

	s.Coins -= s.Bet
	s.LastWin = 0
	m.Bet = s.Bet
	m.Reach = false
	m.Forced = nil
	m.Phase = SpinSpinning
	m.Reels.Start()

	e.emit(Notice{Kind: NoticeSpinStarted, Amount: m.Bet})
}

// requestStop 停止请求按模式分派
func (e *Engine) requestStop() {
	switch e.state.Mode() {
	case ModeBonus:
		e.stopBonusReel()
		return
	case ModeSpecial:
		e.stopSpecialReel()
		return
	}

	m := &e.state.Main
	if m.Phase != SpinSpinning || !m.Reels.AwaitingStop() {
		return
	}

	b := m.Reels
	reel := b.StopIndex - 1
	target := b.NearestCell(reel)
	if m.Forced != nil && b.StopIndex == 1 {
		if t, ok := b.NearestOccurrence(reel, *m.Forced, e.cfg.ForcedRow); ok {
			target = t
		}
		m.Forced = nil
	}
	b.BeginStop(target, e.cfg.SnapDuration, e.cfg.ShortWayRatio)
}

// advanceMain 主卷轴逐帧推进
func (e *Engine) advanceMain(dt time.Duration) {
	m := &e.state.Main
	if m.Phase != SpinSpinning {
		return
	}

	settled := m.Reels.Advance(dt, e.cfg.FrameUnit)
	if settled < 0 {
		return
	}
	e.emit(Notice{Kind: NoticeReelStopped, Reel: settled})

	lines := ActiveLines(m.Bet)
	switch settled {
	case 0:
		if HasReach(m.Reels.Grid(), lines) {
			m.Reach = true
			e.emit(Notice{Kind: NoticeReach})
		}
	case 1:
		if !HasReach(m.Reels.Grid(), lines) {
			m.Reach = false
		}
	}

	if m.Reels.Settled() {
		e.resolveMain()
	}
}

// resolveMain 三个卷轴停稳后结算主旋转
func (e *Engine) resolveMain() {
	s := &e.state
	m := &s.Main
	m.Phase = SpinResolving

	grid := m.Reels.Grid()
	lines := ActiveLines(m.Bet)
	bonusLines := CountBonusLines(grid, lines, BonusSymbol)
	outcome := &SpinOutcome{Bet: m.Bet, Grid: grid, Multiplier: e.cfg.Combo.Multiplier(0)}

	// 暗号触发的特殊事件代替本次结算
	if s.SpecialArmed {
		s.SpecialArmed = false
		outcome.Special = true
		outcome.Streak = s.Combo.Streak
		e.cleanupMain()
		e.emit(Notice{Kind: NoticeSpinResolved, Outcome: outcome})
		e.enterSpecial()
		return
	}

	res := e.evaluator.Evaluate(grid, lines, EvalOptions{Pay2Bonus: s.Catalog.Pay2Bonus()})
	final, mult := s.Combo.Apply(res.Total, e.cfg.Combo)
	s.Coins = e.clampCoins(s.Coins + final)
	s.LastWin = final

	for _, w := range res.Wins {
		if w.Count == 3 {
			s.Catalog.Record3x(w.Symbols[0])
		}
	}

	outcome.Wins = res.Wins
	outcome.Total = res.Total
	outcome.Payout = final
	outcome.Multiplier = mult
	outcome.Streak = s.Combo.Streak
	outcome.Jackpot = IsJackpot(res.Wins)
	outcome.Trigger = TriggerFor(bonusLines)

	// 随机特殊事件与本次结算相互独立，奖励线出现时不掷
	if bonusLines == 0 && e.cfg.Special.Chance > 0 && e.rng.Float64() < e.cfg.Special.Chance {
		outcome.Special = true
	}

	e.cleanupMain()
	e.emit(Notice{Kind: NoticeSpinResolved, Amount: final, Outcome: outcome})

	switch {
	case outcome.Trigger != TriggerNone:
		s.Bonus = BonusState{Phase: BonusPending, Trigger: outcome.Trigger}
		e.schedule(timerBonusEntry, e.cfg.Bonus.StartDelay)
		e.emit(Notice{Kind: NoticeBonusPending})
	case outcome.Special:
		e.enterSpecial()
	}
}

// cleanupMain 主旋转收尾，清掉一次性暗号
func (e *Engine) cleanupMain() {
	m := &e.state.Main
	m.Reels.Halt()
	m.Phase = SpinIdle
	m.Reach = false
	m.Forced = nil
}

// changeBet 仅在主模式空闲时可改
func (e *Engine) changeBet(bet int) {
	s := &e.state
	if s.Mode() != ModeMain || s.Main.Phase != SpinIdle {
		e.hint(HintSpinInProgress)
		return
	}
	if bet < MinBet || bet > MaxBet {
		return
	}
	s.Bet = bet
}

// pressKey 暗号输入
func (e *Engine) pressKey(key string) {
	if e.matcher == nil {
		return
	}
	code, ok := e.matcher.Feed(key, e.state.Now)
	if !ok {
		return
	}

	s := &e.state
	switch code.Effect {
	case EffectForceSymbol:
		m := &s.Main
		if s.Mode() != ModeMain || m.Phase != SpinSpinning || m.Reels.StopIndex != 1 || m.Reels.Snap != nil {
			e.hint(HintCodeNotEligible)
			return
		}
		sym := code.Symbol
		m.Forced = &sym
	case EffectArmSpecial:
		if s.Mode() == ModeSpecial {
			e.hint(HintCodeNotEligible)
			return
		}
		s.SpecialArmed = true
	default:
		return
	}

	e.logger.Info("暗号生效", zap.String("code", code.Name), zap.String("effect", string(code.Effect)))
	e.emit(Notice{Kind: NoticeCodeAccepted, Code: code.Name})
}

// purchase 图鉴购买，只在主模式空闲时受理
func (e *Engine) purchase(id int) {
	s := &e.state
	if s.Mode() != ModeMain || s.Main.Phase != SpinIdle {
		e.hint(HintSpinInProgress)
		return
	}

	price, err := s.Catalog.Purchase(id, s.Coins)
	switch err {
	case nil:
	case ErrCatalogLocked:
		e.hint(HintNotUnlocked)
		return
	case ErrCatalogPurchased:
		e.hint(HintAlreadyPurchased)
		return
	case ErrCatalogNoCoins:
		e.hint(HintInsufficientCoins)
		return
	default:
		e.hint(HintUnknownItem)
		return
	}

	s.Coins -= price
	e.emit(Notice{Kind: NoticePurchased, ItemID: id, Amount: price})
}

// restart 硬重置：在一次处理内清空所有转动、吸附和模式状态
func (e *Engine) restart() {
	s := &e.state
	s.Coins = e.cfg.InitialCoins
	s.LastWin = 0
	s.Combo.Reset()
	s.Main = MainSpin{Reels: e.newMainReels()}
	s.Bonus = BonusState{}
	s.Special = SpecialState{}
	s.SpecialArmed = false
	e.timers = nil
	if e.matcher != nil {
		e.matcher.Reset()
	}
	e.emit(Notice{Kind: NoticeRestarted})
}

// hydrateProfile 用档案初始化余额，仅在空闲时生效
func (e *Engine) hydrateProfile(ev ProfileHydrated) {
	s := &e.state
	if s.Mode() != ModeMain || s.Main.Phase != SpinIdle {
		return
	}
	s.Coins = e.clampCoins(ev.Coins)
	s.BonusEntries = max(0, ev.BonusEntries)
}

// newMainReels 重新生成主卷轴条带，起始位置随机落在整数格
func (e *Engine) newMainReels() *ReelBank {
	b := NewReelBank(BuildReelSet(e.strips), e.cfg.MainSpeeds)
	for r := 0; r < ReelCount; r++ {
		if l := b.Len(r); l > 0 {
			b.Positions[r] = float64(e.rng.IntN(l))
		}
	}
	return b
}

func (e *Engine) clampCoins(coins int) int {
	return min(max(coins, 0), e.cfg.MaxCoins)
}

func (e *Engine) hint(key string) {
	e.emit(Notice{Kind: NoticeHint, Hint: key})
}

func (e *Engine) emit(n Notice) {
	n.AtMs = e.state.Now.Milliseconds()
	e.notices = append(e.notices, n)
}

// timerKind 延迟回调类型
type timerKind int

const (
	timerBonusEntry timerKind = iota
	timerSpecialIntro
	timerSpecialFlash
)

// timer 基于引擎时钟的延迟回调
type timer struct {
	kind timerKind
	due  time.Duration
	seq  uint64
}

func (e *Engine) schedule(kind timerKind, delay time.Duration) {
	e.timerSeq++
	e.timers = append(e.timers, timer{kind: kind, due: e.state.Now + delay, seq: e.timerSeq})
}

// fireTimers 触发到期回调，回调自行校验状态
func (e *Engine) fireTimers() {
	if len(e.timers) == 0 {
		return
	}
	sort.Slice(e.timers, func(i, j int) bool {
		if e.timers[i].due != e.timers[j].due {
			return e.timers[i].due < e.timers[j].due
		}
		return e.timers[i].seq < e.timers[j].seq
	})

	for len(e.timers) > 0 && e.timers[0].due <= e.state.Now {
		t := e.timers[0]
		e.timers = e.timers[1:]
		switch t.kind {
		case timerBonusEntry:
			e.enterBonus()
		case timerSpecialIntro:
			e.finishSpecialIntro()
		case timerSpecialFlash:
			e.finishSpecialFlash()
		}
	}
}
