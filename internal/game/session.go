package game

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	apperrors "github.com/wfunc/deepsea-slots/internal/errors"
	"github.com/wfunc/deepsea-slots/internal/game/slot"
	"github.com/wfunc/deepsea-slots/internal/logger"
	"github.com/wfunc/deepsea-slots/internal/models"
	"github.com/wfunc/deepsea-slots/internal/profile"
	"github.com/wfunc/deepsea-slots/internal/repository"
	"go.uber.org/zap"
)

// SessionOptions 会话参数
type SessionOptions struct {
	Engine           *slot.Engine
	Profile          profile.State
	Committer        ProfileCommitter              // 为空时不同步档案
	Profiles         repository.ProfileRepository // 为空时不持久化图鉴
	Recorder         *SpinRecorder                // 为空时不记录旋转
	TickRate         int
	SnapshotInterval time.Duration
	SyncInterval     time.Duration
	OutputBuffer     int
	Logger           *zap.Logger
}

// PlaySession 一个玩家的游戏会话
// 引擎只在 Run 所在协程内读写，输入经 input 串行进入
type PlaySession struct {
	id       string
	playerID string
	engine   *slot.Engine
	opts     SessionOptions
	logger   *zap.Logger

	input chan slot.Event
	out   chan Output
	done  chan struct{}
	once  sync.Once

	syncer        *profileSyncer
	catalogDirty  bool
	catalogSaved  time.Time
	lastSnapshot  time.Time
	bg            sync.WaitGroup
	startTime     time.Time
	mode          atomic.Int32
	spins         atomic.Int64
	wagered       atomic.Int64
	paid          atomic.Int64
	droppedOutput atomic.Int64
}

// NewPlaySession 创建会话，调用方负责运行 Run
func NewPlaySession(id string, opts SessionOptions) *PlaySession {
	if opts.TickRate <= 0 {
		opts.TickRate = 60
	}
	if opts.SnapshotInterval <= 0 {
		opts.SnapshotInterval = 50 * time.Millisecond
	}
	if opts.SyncInterval <= 0 {
		opts.SyncInterval = 2 * time.Second
	}
	if opts.OutputBuffer <= 0 {
		opts.OutputBuffer = 256
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	s := &PlaySession{
		id:        id,
		playerID:  opts.Profile.PlayerID,
		engine:    opts.Engine,
		opts:      opts,
		logger:    opts.Logger.With(zap.String("session_id", id), zap.String("player_id", opts.Profile.PlayerID)),
		input:     make(chan slot.Event, 32),
		out:       make(chan Output, opts.OutputBuffer),
		done:      make(chan struct{}),
		startTime: time.Now(),
	}
	if opts.Committer != nil {
		s.syncer = newProfileSyncer(opts.Committer, opts.Profile, opts.SyncInterval)
	}
	return s
}

// ID 会话ID
func (s *PlaySession) ID() string {
	return s.id
}

// PlayerID 玩家ID
func (s *PlaySession) PlayerID() string {
	return s.playerID
}

// Outputs 输出通道，会话结束时关闭
func (s *PlaySession) Outputs() <-chan Output {
	return s.out
}

// Done 会话结束信号
func (s *PlaySession) Done() <-chan struct{} {
	return s.done
}

// Submit 投递一个输入事件
func (s *PlaySession) Submit(ctx context.Context, ev slot.Event) error {
	select {
	case <-s.done:
		return apperrors.New(apperrors.ErrSessionClosed)
	default:
	}

	select {
	case s.input <- ev:
		return nil
	case <-s.done:
		return apperrors.New(apperrors.ErrSessionClosed)
	case <-ctx.Done():
		return apperrors.Wrap(ctx.Err(), apperrors.ErrCanceled)
	}
}

// Info 会话信息
func (s *PlaySession) Info() SessionInfo {
	return SessionInfo{
		SessionID: s.id,
		PlayerID:  s.playerID,
		StartTime: s.startTime,
		Duration:  time.Since(s.startTime).Seconds(),
		Spins:     s.spins.Load(),
		Wagered:   s.wagered.Load(),
		Paid:      s.paid.Load(),
		Mode:      slot.Mode(s.mode.Load()).String(),
	}
}

// Run 会话主循环，ctx 取消后收尾并关闭输出
func (s *PlaySession) Run(ctx context.Context) {
	defer s.once.Do(func() { close(s.done) })
	defer close(s.out)

	s.hydrate(ctx)
	s.afterDispatch(time.Now(), true)

	ticker := time.NewTicker(time.Second / time.Duration(s.opts.TickRate))
	defer ticker.Stop()

	var syncDone <-chan syncResult
	if s.syncer != nil {
		syncDone = s.syncer.done
	}

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return

		case ev := <-s.input:
			s.engine.Dispatch(ev)
			s.afterDispatch(time.Now(), true)

		case now := <-ticker.C:
			s.engine.Tick(now.Sub(last))
			last = now
			s.afterDispatch(now, false)

		case res := <-syncDone:
			s.syncer.complete(res)
			s.onSynced(res)
		}
	}
}

// hydrate 用档案和图鉴初始化引擎
func (s *PlaySession) hydrate(ctx context.Context) {
	s.engine.Dispatch(slot.ProfileHydrated{
		Coins:        s.opts.Profile.Coins,
		BonusEntries: s.opts.Profile.BonusEntries,
	})

	if s.opts.Profiles == nil || s.playerID == "" {
		return
	}
	saved, err := s.opts.Profiles.FindByPlayerID(ctx, s.playerID)
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrNotFound) {
			s.logger.Warn("读取图鉴失败", zap.Error(err))
		}
		return
	}
	entries, err := decodeCatalog(saved.Catalog)
	if err != nil {
		s.logger.Warn("图鉴数据无效，忽略", zap.Error(err))
		return
	}
	if len(entries) > 0 {
		s.engine.Dispatch(slot.CatalogHydrated{Entries: entries})
	}
}

// afterDispatch 取走通知并推送；输入后总是推送快照，帧推进按间隔节流
func (s *PlaySession) afterDispatch(now time.Time, force bool) {
	notices := s.engine.DrainNotices()
	coins, entries := s.engine.Balance()
	s.mode.Store(int32(s.engine.Mode()))

	for i := range notices {
		n := notices[i]
		s.handleNotice(&n, coins)
		s.emit(Output{Type: OutputNotice, Notice: &n})
	}

	if force || len(notices) > 0 || now.Sub(s.lastSnapshot) >= s.opts.SnapshotInterval {
		snap := s.engine.Snapshot()
		s.emit(Output{Type: OutputSnapshot, Snapshot: &snap})
		s.lastSnapshot = now
	}

	if s.syncer != nil {
		s.syncer.observe(coins, entries)
		s.syncer.maybeFlush(now, false)
	}
	if s.catalogDirty && now.Sub(s.catalogSaved) >= s.opts.SyncInterval {
		s.saveCatalog(now)
	}
}

// handleNotice 记录旋转、统计和图鉴变化
func (s *PlaySession) handleNotice(n *slot.Notice, coins int) {
	switch n.Kind {
	case slot.NoticeSpinResolved:
		if n.Outcome == nil {
			return
		}
		s.spins.Add(1)
		s.wagered.Add(int64(n.Outcome.Bet))
		s.paid.Add(int64(n.Outcome.Payout))
		s.record("main", n.Outcome, n.Outcome.Bet, n.Outcome.Payout, coins, nil)
		if hasThreeOfKind(n.Outcome.Wins) {
			s.catalogDirty = true
		}
		if n.Outcome.Jackpot {
			logger.LogGameEvent("jackpot", s.id, zap.String("player_id", s.playerID), zap.Int("payout", n.Outcome.Payout))
		}

	case slot.NoticeBonusSpinResolved:
		if n.Outcome == nil {
			return
		}
		s.paid.Add(int64(n.Amount))
		s.record("bonus", n.Outcome, 0, n.Amount, coins, nil)
		if hasThreeOfKind(n.Outcome.Wins) {
			s.catalogDirty = true
		}

	case slot.NoticeBonusStarted:
		logger.LogGameEvent("bonus_started", s.id, zap.String("player_id", s.playerID), zap.Int("multiplier", n.Amount))

	case slot.NoticeBonusEnded:
		logger.LogGameEvent("bonus_ended", s.id, zap.String("player_id", s.playerID), zap.Int("total_won", n.Amount))

	case slot.NoticeSpecialEnded:
		s.paid.Add(int64(n.Amount))
		s.record("special", nil, 0, n.Amount, coins, models.JSONMap{"creature": int(n.Creature)})
		s.catalogDirty = true
		logger.LogGameEvent("special_ended", s.id, zap.String("player_id", s.playerID), zap.Int("reward", n.Amount))

	case slot.NoticePurchased:
		s.catalogDirty = true
	}
}

// record 投递一条旋转记录
func (s *PlaySession) record(mode string, out *slot.SpinOutcome, bet, payout, coins int, detail models.JSONMap) {
	if s.opts.Recorder == nil {
		return
	}
	rec := &models.SpinRecord{
		PlayerID:   s.playerID,
		SessionID:  s.id,
		Mode:       mode,
		Bet:        bet,
		Payout:     payout,
		CoinsAfter: coins,
		Detail:     detail,
		CreatedAt:  time.Now(),
	}
	if out != nil {
		rec.LineTotal = out.Total
		rec.Multiplier = out.Multiplier.String()
		rec.Streak = out.Streak
		rec.Jackpot = out.Jackpot
		rec.Grid = formatGrid(out.Grid)
		if out.Trigger != slot.TriggerNone {
			rec.Trigger = out.Trigger.String()
		}
		rec.Detail = models.JSONMap{"wins": out.Wins, "special": out.Special}
	}
	s.opts.Recorder.Record(rec)
}

// onSynced 同步成功后把新令牌推给客户端
func (s *PlaySession) onSynced(res syncResult) {
	if res.err != nil {
		s.logger.Warn("档案同步失败，稍后重试", zap.Int("failures", s.syncer.failures), zap.Error(res.err))
		return
	}
	s.emit(Output{Type: OutputProfile, Profile: &ProfileUpdate{
		Token:        res.token,
		Coins:        res.state.Coins,
		BonusEntries: res.state.BonusEntries,
	}})
}

// shutdown 结束前同步档案和图鉴
func (s *PlaySession) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.syncer != nil {
		coins, entries := s.engine.Balance()
		s.syncer.observe(coins, entries)
		if res, ok := s.syncer.flushSync(ctx); ok {
			s.onSynced(res)
		}
	}
	s.bg.Wait()
	if s.catalogDirty && s.opts.Profiles != nil && s.playerID != "" {
		if err := s.opts.Profiles.SaveCatalog(ctx, s.playerID, encodeCatalog(s.engine.Catalog())); err != nil {
			s.logger.Warn("保存图鉴失败", zap.Error(err))
		}
		s.catalogDirty = false
	}

	info := s.Info()
	s.logger.Info("会话结束",
		zap.Int64("spins", info.Spins),
		zap.Int64("wagered", info.Wagered),
		zap.Int64("paid", info.Paid),
		zap.Int64("dropped_output", s.droppedOutput.Load()),
	)
}

// saveCatalog 异步保存图鉴
func (s *PlaySession) saveCatalog(now time.Time) {
	s.catalogDirty = false
	s.catalogSaved = now
	if s.opts.Profiles == nil || s.playerID == "" {
		return
	}
	data := encodeCatalog(s.engine.Catalog())
	repo, playerID, log := s.opts.Profiles, s.playerID, s.logger
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := repo.SaveCatalog(ctx, playerID, data); err != nil {
			log.Warn("保存图鉴失败", zap.Error(err))
		}
	}()
}

// emit 非阻塞推送，连接消费过慢时丢弃
func (s *PlaySession) emit(o Output) {
	select {
	case s.out <- o:
	default:
		if s.droppedOutput.Add(1)%100 == 1 {
			s.logger.Warn("输出缓冲已满，丢弃消息", zap.String("type", string(o.Type)))
		}
	}
}

func hasThreeOfKind(wins []slot.WinLine) bool {
	for _, w := range wins {
		if w.Count == 3 {
			return true
		}
	}
	return false
}

// formatGrid 行优先，逗号分隔
func formatGrid(g slot.Grid) string {
	parts := make([]string, 0, slot.ReelCount*slot.RowCount)
	for row := 0; row < slot.RowCount; row++ {
		for reel := 0; reel < slot.ReelCount; reel++ {
			parts = append(parts, strconv.Itoa(int(g[reel][row])))
		}
	}
	return strings.Join(parts, ",")
}

func encodeCatalog(entries []slot.CatalogEntry) models.JSONMap {
	return models.JSONMap{"entries": entries}
}

func decodeCatalog(m models.JSONMap) ([]slot.CatalogEntry, error) {
	raw, ok := m["entries"]
	if !ok {
		return nil, nil
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var entries []slot.CatalogEntry
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
