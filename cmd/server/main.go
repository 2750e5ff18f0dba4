package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/wfunc/deepsea-slots/internal/api"
	"github.com/wfunc/deepsea-slots/internal/config"
	"github.com/wfunc/deepsea-slots/internal/database"
	apperrors "github.com/wfunc/deepsea-slots/internal/errors"
	"github.com/wfunc/deepsea-slots/internal/game"
	"github.com/wfunc/deepsea-slots/internal/logger"
	"github.com/wfunc/deepsea-slots/internal/profile"
	"github.com/wfunc/deepsea-slots/internal/repository"
	"github.com/wfunc/deepsea-slots/internal/websocket"
	"go.uber.org/zap"
)

// 版本信息
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Server 服务器实例
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	recorder *game.SpinRecorder
	sessions *game.SessionManager
	hub      *websocket.Hub
	http     *http.Server

	ctx    context.Context
	cancel context.CancelFunc
}

func main() {
	var (
		configPath  = flag.String("config", "", "配置文件路径")
		envFile     = flag.String("env", ".env", "环境变量文件")
		showVersion = flag.Bool("version", false, "显示版本信息")
	)
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	// .env 不存在时忽略
	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		fmt.Printf("加载环境变量文件失败: %v\n", err)
	}

	if err := config.Init(*configPath); err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Get()

	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Printf("初始化日志失败: %v\n", err)
		os.Exit(1)
	}

	server := NewServer(cfg)
	if err := server.Start(); err != nil {
		logger.Fatal("服务器启动失败", zap.Error(err))
	}

	server.WaitForShutdown()

	if err := server.Shutdown(); err != nil {
		logger.Error("服务器关闭失败", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("服务器已安全关闭")
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:    cfg,
		logger: logger.GetLogger(),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start 初始化组件并开始监听
func (s *Server) Start() error {
	s.logger.Info("正在启动深海老虎机服务器...",
		zap.String("version", Version),
		zap.String("mode", s.cfg.Server.Mode),
	)

	if s.cfg.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := s.initDatabase(); err != nil {
		return err
	}

	router, err := s.initComponents()
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrUnknown, "初始化组件失败")
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.http = &http.Server{
		Addr:        addr,
		Handler:     router.Engine(),
		ReadTimeout: s.cfg.Server.ReadTimeout,
		// 写超时会切断长连接，WebSocket 由自己的写超时控制
		IdleTimeout: 2 * time.Minute,
	}

	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Fatal("HTTP服务异常退出", zap.Error(err))
		}
	}()

	// 调参变化只影响之后新建的会话
	config.Watch(func(newCfg *config.Config) {
		logger.SetLevel(newCfg.Log.Level)
		s.logger.Info("配置已更新",
			zap.Int("tick_rate", newCfg.Game.TickRate),
			zap.Float64("special_chance", newCfg.Game.Special.Chance))
	})

	s.logger.Info("服务器启动成功",
		zap.String("http", addr),
		zap.String("websocket", s.cfg.WebSocket.Path),
	)
	return nil
}

// initDatabase 初始化数据库
func (s *Server) initDatabase() error {
	if err := database.Init(&s.cfg.Database); err != nil {
		return apperrors.Wrap(err, apperrors.ErrDatabaseConnect, "初始化数据库连接失败")
	}
	if s.cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(); err != nil {
			return apperrors.Wrap(err, apperrors.ErrDatabaseConnect, "数据库迁移失败")
		}
	}
	if !database.IsConnected() {
		return apperrors.New(apperrors.ErrDatabaseConnect, "数据库连接检查失败")
	}
	return nil
}

// initComponents 组装档案服务、会话管理与路由
func (s *Server) initComponents() (*api.Router, error) {
	db := database.GetDB()
	profiles := repository.NewProfileRepository(db)
	spins := repository.NewSpinRecordRepository(db)

	codec, err := profile.NewCodec(s.cfg.Profile.Secret, s.cfg.Profile.MaxCoins)
	if err != nil {
		return nil, err
	}
	var auditRepo repository.ProfileRepository = profiles
	if s.cfg.Profile.AuditDisabled {
		auditRepo = nil
	}
	svc := profile.NewService(codec, profile.Rules{
		MaxDelta:     s.cfg.Profile.MaxDelta,
		MaxCoins:     s.cfg.Profile.MaxCoins,
		DefaultCoins: s.cfg.Profile.DefaultCoins,
	}, auditRepo, logger.GetModuleLogger("profile"))

	if s.cfg.Game.Recorder.Enabled {
		s.recorder = game.NewSpinRecorder(spins, s.cfg.Game.Recorder.BufferSize, logger.GetModuleLogger("recorder"))
		s.recorder.Start()
	}

	s.sessions = game.NewSessionManager(game.ManagerConfig{
		Logger:      logger.GetModuleLogger("session"),
		Committer:   svc,
		Profiles:    profiles,
		Recorder:    s.recorder,
		MaxSessions: s.cfg.Game.MaxSessions,
	})

	s.hub = websocket.NewHub(logger.GetModuleLogger("websocket"))
	go s.hub.Run(s.ctx)

	cookie := profile.CookieOptions{
		Name:   s.cfg.Profile.CookieName,
		MaxAge: s.cfg.Profile.CookieMaxAge,
		Secure: s.cfg.Profile.SecureCookie,
	}
	ws := s.cfg.WebSocket
	play := websocket.NewPlayHandler(s.hub, s.sessions, svc, websocket.PlayConfig{
		ReadBufferSize:    ws.ReadBufferSize,
		WriteBufferSize:   ws.WriteBufferSize,
		EnableCompression: ws.EnableCompression,
		Pump: websocket.PumpConfig{
			WriteWait:      ws.WriteTimeout,
			PongWait:       ws.PongTimeout,
			PingPeriod:     ws.PingInterval,
			MaxMessageSize: ws.MaxMessageSize,
		},
		Cookie: cookie,
	}, logger.GetModuleLogger("play"))

	return api.NewRouter(api.Deps{
		DB:       db,
		Profiles: profile.NewHandler(svc, cookie, logger.GetModuleLogger("profile")),
		Spins:    spins,
		Sessions: s.sessions,
		Hub:      s.hub,
		Play:     play,
		Logger:   s.logger,
	}), nil
}

// WaitForShutdown 等待关闭信号
func (s *Server) WaitForShutdown() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	sig := <-sigCh
	s.logger.Info("收到退出信号", zap.String("signal", sig.String()))
}

// Shutdown 优雅关闭：先通知客户端，再结束会话提交档案，最后落盘旋转记录
func (s *Server) Shutdown() error {
	timeout := s.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var firstErr error
	if s.hub != nil {
		_ = s.hub.Broadcast(websocket.MessageTypeShutdown, map[string]string{"reason": "server_shutdown"})
	}
	if s.sessions != nil {
		if err := s.sessions.Shutdown(ctx); err != nil {
			s.logger.Warn("会话关闭超时", zap.Error(err))
			firstErr = err
		}
	}
	if s.http != nil {
		if err := s.http.Shutdown(ctx); err != nil {
			s.logger.Warn("HTTP服务关闭失败", zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	s.cancel()
	if s.recorder != nil {
		s.recorder.Stop()
		s.logger.Info("旋转记录已落盘",
			zap.Int64("written", s.recorder.Written()),
			zap.Int64("dropped", s.recorder.Dropped()))
	}

	if err := database.Close(); err != nil {
		s.logger.Error("关闭数据库失败", zap.Error(err))
	}
	if err := logger.Sync(); err != nil {
		fmt.Printf("同步日志失败: %v\n", err)
	}
	return firstErr
}

// printVersion 打印版本信息
func printVersion() {
	fmt.Printf("深海老虎机服务器\n")
	fmt.Printf("版本: %s\n", Version)
	fmt.Printf("构建时间: %s\n", BuildTime)
	fmt.Printf("Git提交: %s\n", GitCommit)
	fmt.Printf("Go版本: %s\n", runtime.Version())
	fmt.Printf("操作系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}
