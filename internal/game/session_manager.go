package game

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/wfunc/deepsea-slots/internal/config"
	apperrors "github.com/wfunc/deepsea-slots/internal/errors"
	"github.com/wfunc/deepsea-slots/internal/game/slot"
	"github.com/wfunc/deepsea-slots/internal/profile"
	"github.com/wfunc/deepsea-slots/internal/repository"
	"go.uber.org/zap"
)

// ManagerConfig 会话管理器配置
type ManagerConfig struct {
	Logger    *zap.Logger
	Committer ProfileCommitter
	Profiles  repository.ProfileRepository
	Recorder  *SpinRecorder
	// Config 每次创建会话时读取，配置重载后新会话即生效
	Config      func() *config.Config
	MaxSessions int
	// EngineOptions 测试注入随机源等
	EngineOptions []slot.Option
}

// SessionManager 游戏会话管理器
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*managedSession
	cfg      ManagerConfig
	logger   *zap.Logger
	wg       sync.WaitGroup
	closed   bool
}

type managedSession struct {
	session *PlaySession
	cancel  context.CancelFunc
}

// NewSessionManager 创建会话管理器
func NewSessionManager(cfg ManagerConfig) *SessionManager {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Config == nil {
		cfg.Config = config.Get
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = 1000
	}
	return &SessionManager{
		sessions: make(map[string]*managedSession),
		cfg:      cfg,
		logger:   cfg.Logger,
	}
}

// CreateSession 为玩家创建并启动会话
func (sm *SessionManager) CreateSession(st profile.State) (*PlaySession, error) {
	appCfg := sm.cfg.Config()
	var gameCfg *config.GameConfig
	var wsCfg config.WebSocketConfig
	var profCfg config.ProfileConfig
	if appCfg != nil {
		gameCfg = &appCfg.Game
		wsCfg = appCfg.WebSocket
		profCfg = appCfg.Profile
	}

	engineCfg, err := EngineConfig(gameCfg)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrEngineConfig)
	}

	id := uuid.New().String()
	engineOpts := append([]slot.Option{slot.WithLogger(sm.logger.Named("engine").With(zap.String("session_id", id)))}, sm.cfg.EngineOptions...)
	engine, err := slot.NewEngine(engineCfg, engineOpts...)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrEngineConfig)
	}

	opts := SessionOptions{
		Engine:           engine,
		Profile:          st,
		Committer:        sm.cfg.Committer,
		Profiles:         sm.cfg.Profiles,
		Recorder:         sm.cfg.Recorder,
		SnapshotInterval: wsCfg.SnapshotInterval,
		SyncInterval:     profCfg.SyncInterval,
		Logger:           sm.logger,
	}
	if gameCfg != nil {
		opts.TickRate = gameCfg.TickRate
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.closed {
		return nil, apperrors.New(apperrors.ErrSessionClosed)
	}
	if len(sm.sessions) >= sm.cfg.MaxSessions {
		return nil, apperrors.New(apperrors.ErrRateLimitExceeded, "会话数量已达上限")
	}

	session := NewPlaySession(id, opts)
	ctx, cancel := context.WithCancel(context.Background())
	sm.sessions[id] = &managedSession{session: session, cancel: cancel}

	sm.wg.Add(1)
	go func() {
		defer sm.wg.Done()
		session.Run(ctx)
		sm.forget(id)
	}()

	sm.logger.Info("创建游戏会话",
		zap.String("session_id", id),
		zap.String("player_id", st.PlayerID),
		zap.Int("coins", st.Coins),
	)
	return session, nil
}

// GetSession 获取会话
func (sm *SessionManager) GetSession(id string) (*PlaySession, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	m, ok := sm.sessions[id]
	if !ok {
		return nil, false
	}
	return m.session, true
}

// EndSession 结束会话，档案在会话协程内完成最后一次同步
func (sm *SessionManager) EndSession(id string) {
	sm.mu.RLock()
	m, ok := sm.sessions[id]
	sm.mu.RUnlock()
	if ok {
		m.cancel()
	}
}

// Count 活跃会话数
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// List 活跃会话信息
func (sm *SessionManager) List() []SessionInfo {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	infos := make([]SessionInfo, 0, len(sm.sessions))
	for _, m := range sm.sessions {
		infos = append(infos, m.session.Info())
	}
	return infos
}

// Shutdown 结束所有会话并等待收尾
func (sm *SessionManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	sm.closed = true
	for _, m := range sm.sessions {
		m.cancel()
	}
	sm.mu.Unlock()

	done := make(chan struct{})
	go func() {
		sm.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		sm.logger.Info("所有游戏会话已结束")
		return nil
	case <-ctx.Done():
		return apperrors.Wrap(ctx.Err(), apperrors.ErrTimeout, "等待会话结束超时")
	}
}

func (sm *SessionManager) forget(id string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if m, ok := sm.sessions[id]; ok {
		m.cancel()
		delete(sm.sessions, id)
	}
}
