package profile

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/wfunc/deepsea-slots/internal/errors"
	"github.com/wfunc/deepsea-slots/internal/models"
	"github.com/wfunc/deepsea-slots/internal/repository"
	"go.uber.org/zap"
)

// Update 客户端提交的档案
type Update struct {
	Coins        *float64 `json:"coins"`
	BonusEntries *float64 `json:"bonusEntries"`
}

// Rules 写入校验规则
type Rules struct {
	MaxDelta     int // 单次写入金币变化上限
	MaxCoins     int
	DefaultCoins int
}

// DefaultRules 默认规则
func DefaultRules() Rules {
	return Rules{MaxDelta: 5000, MaxCoins: MaxCoins, DefaultCoins: DefaultCoins}
}

// Apply 校验一次写入：先夹紧再比较变化量
func (r Rules) Apply(current State, upd Update) (State, error) {
	if !finite(upd.Coins) || !finite(upd.BonusEntries) {
		return current, apperrors.New(apperrors.ErrInvalidPayload)
	}

	next := current
	next.Version = StateVersion
	next.Coins = clampCoins(*upd.Coins, r.MaxCoins)
	next.BonusEntries = clampEntries(*upd.BonusEntries)

	if delta := next.Coins - current.Coins; abs(delta) > r.MaxDelta {
		return current, apperrors.Newf(apperrors.ErrSuspiciousDelta, "delta %d 超过 %d", delta, r.MaxDelta)
	}
	if next.BonusEntries < current.BonusEntries || next.BonusEntries-current.BonusEntries > 1 {
		return current, apperrors.Newf(apperrors.ErrInvalidBonusEntries, "%d -> %d", current.BonusEntries, next.BonusEntries)
	}
	return next, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Service 玩家档案同步服务
type Service struct {
	codec  *Codec
	rules  Rules
	repo   repository.ProfileRepository // 可为空，为空时不落库
	logger *zap.Logger
	now    func() time.Time
}

// NewService 创建档案服务
func NewService(codec *Codec, rules Rules, repo repository.ProfileRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		codec:  codec,
		rules:  rules,
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// Codec 令牌编解码器
func (s *Service) Codec() *Codec {
	return s.codec
}

// Load 读取令牌中的档案，无效时返回新玩家
func (s *Service) Load(token string) State {
	st, ok := s.codec.DecodeOrDefault(token, s.rules.DefaultCoins)
	if !ok && token != "" {
		s.logger.Debug("档案令牌无效，使用默认档案", zap.String("player_id", st.PlayerID))
	}
	return st
}

// Resume 会话入场时读取档案：令牌之后若有更新的服务端快照，以快照为准
func (s *Service) Resume(ctx context.Context, token string) State {
	st := s.Load(token)
	if s.repo == nil {
		return st
	}
	saved, err := s.repo.FindByPlayerID(ctx, st.PlayerID)
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrNotFound) {
			s.logger.Warn("读取档案快照失败", zap.String("player_id", st.PlayerID), zap.Error(err))
		}
		return st
	}
	if saved.SyncedAt.After(st.UpdatedAt) {
		st.Coins = min(max(saved.Coins, 0), s.rules.MaxCoins)
		st.BonusEntries = max(saved.BonusEntries, 0)
		st.UpdatedAt = saved.SyncedAt
	}
	return st
}

// Issue 签发令牌
func (s *Service) Issue(st State) (string, error) {
	token, err := s.codec.Encode(st)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrEncryption)
	}
	return token, nil
}

// Write 处理一次客户端写入，返回新状态和新令牌
func (s *Service) Write(ctx context.Context, token string, upd Update, clientIP string) (State, string, error) {
	current := s.Load(token)

	next, err := s.rules.Apply(current, upd)
	if err != nil {
		s.audit(ctx, current, next, upd, clientIP, err)
		return current, "", err
	}
	next.UpdatedAt = s.now()

	newToken, err := s.Issue(next)
	if err != nil {
		return current, "", err
	}
	s.persist(ctx, current, next, upd, clientIP)
	return next, newToken, nil
}

// Commit 服务端权威写入（游戏会话），只夹紧不做变化量校验
func (s *Service) Commit(ctx context.Context, st State) (State, string, error) {
	if _, err := uuid.Parse(st.PlayerID); err != nil {
		return st, "", apperrors.New(apperrors.ErrInvalidParam, "player id 无效")
	}
	st.Version = StateVersion
	st.Coins = min(max(st.Coins, 0), s.rules.MaxCoins)
	st.BonusEntries = max(st.BonusEntries, 0)
	st.UpdatedAt = s.now()

	token, err := s.Issue(st)
	if err != nil {
		return st, "", err
	}
	s.snapshot(ctx, st)
	return st, token, nil
}

// audit 记录被拒绝的写入，失败只记日志
func (s *Service) audit(ctx context.Context, prev, next State, upd Update, clientIP string, cause error) {
	if s.repo == nil {
		return
	}
	if err := s.repo.AppendWrite(ctx, writeRecord(prev, next, upd, clientIP, cause)); err != nil {
		s.logger.Warn("写入档案审计失败", zap.String("player_id", prev.PlayerID), zap.Error(err))
	}
}

// persist 接受的写入：审计与快照在同一事务内保存，失败只记日志
func (s *Service) persist(ctx context.Context, prev, next State, upd Update, clientIP string) {
	if s.repo == nil {
		return
	}
	err := s.repo.SaveWrite(ctx, writeRecord(prev, next, upd, clientIP, nil), profileRecord(next))
	if err != nil {
		s.logger.Warn("保存档案写入失败", zap.String("player_id", next.PlayerID), zap.Error(err))
	}
}

func writeRecord(prev, next State, upd Update, clientIP string, cause error) *models.ProfileWrite {
	w := &models.ProfileWrite{
		PlayerID:         prev.PlayerID,
		Result:           models.WriteAccepted,
		PrevCoins:        prev.Coins,
		NewCoins:         next.Coins,
		PrevBonusEntries: prev.BonusEntries,
		NewBonusEntries:  next.BonusEntries,
		ClientIP:         clientIP,
	}
	if cause != nil {
		w.Result = models.WriteRejected
		if appErr, ok := cause.(*apperrors.AppError); ok {
			w.Reason = appErr.Key()
		}
		// 被拒绝时记录客户端提交的原值
		if finite(upd.Coins) {
			w.NewCoins = int(math.Max(math.Min(*upd.Coins, math.MaxInt32), math.MinInt32))
		}
		if finite(upd.BonusEntries) {
			w.NewBonusEntries = int(math.Max(math.Min(*upd.BonusEntries, math.MaxInt32), math.MinInt32))
		}
	}

	return w
}

func profileRecord(st State) *models.PlayerProfile {
	return &models.PlayerProfile{
		PlayerID:     st.PlayerID,
		Version:      st.Version,
		Coins:        st.Coins,
		BonusEntries: st.BonusEntries,
		SyncedAt:     st.UpdatedAt,
	}
}

// snapshot 保存最新档案，失败只记日志
func (s *Service) snapshot(ctx context.Context, st State) {
	if s.repo == nil {
		return
	}
	if err := s.repo.Upsert(ctx, profileRecord(st)); err != nil {
		s.logger.Warn("保存档案快照失败", zap.String("player_id", st.PlayerID), zap.Error(err))
	}
}
