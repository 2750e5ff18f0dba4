package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/deepsea-slots/internal/config"
	apperrors "github.com/wfunc/deepsea-slots/internal/errors"
	"github.com/wfunc/deepsea-slots/internal/game"
	"github.com/wfunc/deepsea-slots/internal/game/slot"
	"github.com/wfunc/deepsea-slots/internal/middleware"
	"github.com/wfunc/deepsea-slots/internal/profile"
	"github.com/wfunc/deepsea-slots/internal/repository"
	"github.com/wfunc/deepsea-slots/internal/websocket"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps 路由依赖
type Deps struct {
	DB       *gorm.DB
	Config   func() *config.Config
	Profiles *profile.Handler
	Spins    repository.SpinRecordRepository
	Sessions *game.SessionManager
	Hub      *websocket.Hub
	Play     *websocket.PlayHandler
	Logger   *zap.Logger
}

// Router API路由器
type Router struct {
	engine  *gin.Engine
	deps    Deps
	log     *zap.Logger
	started time.Time
}

// NewRouter 创建路由器
func NewRouter(deps Deps) *Router {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Config == nil {
		deps.Config = config.Get
	}

	compression := middleware.CompressNone
	if cfg := deps.Config(); cfg != nil {
		compression = cfg.Server.Compression
	}

	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		middleware.AccessLog(deps.Logger.Named("http")),
		middleware.Recovery(),
		middleware.Compression(compression),
	)

	router := &Router{
		engine:  engine,
		deps:    deps,
		log:     deps.Logger,
		started: time.Now(),
	}
	router.setupRoutes()
	return router
}

// setupRoutes 设置路由
func (r *Router) setupRoutes() {
	r.engine.GET("/health", r.healthCheck)

	if r.deps.Profiles != nil {
		r.deps.Profiles.Register(r.engine)
	}

	v1 := r.engine.Group("/api/v1")
	{
		v1.GET("/paytable", r.paytable)
		v1.GET("/spins", r.spins)
	}

	if r.deps.Play != nil {
		path := "/ws/play"
		if cfg := r.deps.Config(); cfg != nil && cfg.WebSocket.Path != "" {
			path = cfg.WebSocket.Path
		}
		r.engine.GET(path, r.deps.Play.ServeWS)
	}

	registerOpenAPIRoutes(r.engine)
	registerSwaggerRoutes(r.engine)

	r.engine.NoRoute(func(c *gin.Context) {
		r.fail(c, apperrors.New(apperrors.ErrNotFound, "接口不存在"))
	})
}

// healthCheck 健康检查
func (r *Router) healthCheck(c *gin.Context) {
	resp := gin.H{
		"status": "healthy",
		"uptime": time.Since(r.started).Truncate(time.Second).String(),
	}
	if r.deps.Sessions != nil {
		resp["sessions"] = r.deps.Sessions.Count()
	}
	if r.deps.Hub != nil {
		resp["online"] = r.deps.Hub.GetOnlineCount()
	}

	if r.deps.DB != nil {
		sqlDB, err := r.deps.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			r.log.Warn("数据库健康检查失败", zap.Error(err))
			resp["status"] = "unhealthy"
			resp["database"] = "down"
			c.JSON(http.StatusServiceUnavailable, resp)
			return
		}
		resp["database"] = "up"
	}

	c.JSON(http.StatusOK, resp)
}

// PaytableResponse 赔付表
type PaytableResponse struct {
	Symbols  []slot.SymbolDef `json:"symbols"`
	Lines    []slot.Payline   `json:"lines"`
	MinBet   int              `json:"min_bet"`
	MaxBet   int              `json:"max_bet"`
	Combo    slot.ComboTable  `json:"combo"`
	Bonus    BonusInfo        `json:"bonus"`
	Jackpot  string           `json:"jackpot_symbol"`
	BonusSym string           `json:"bonus_symbol"`
}

// BonusInfo 奖励模式参数
type BonusInfo struct {
	FreeSpins          int `json:"free_spins"`
	Multiplier         int `json:"multiplier"`
	EnhancedMultiplier int `json:"enhanced_multiplier"`
}

// paytable 当前配置下的符号赔付、赔付线与连胜倍率
func (r *Router) paytable(c *gin.Context) {
	var gc *config.GameConfig
	if cfg := r.deps.Config(); cfg != nil {
		gc = &cfg.Game
	}
	engineCfg, err := game.EngineConfig(gc)
	if err != nil {
		r.fail(c, apperrors.Wrap(err, apperrors.ErrEngineConfig))
		return
	}

	c.JSON(http.StatusOK, PaytableResponse{
		Symbols: engineCfg.Symbols,
		Lines:   slot.AllLines(),
		MinBet:  slot.MinBet,
		MaxBet:  slot.MaxBet,
		Combo:   engineCfg.Combo,
		Bonus: BonusInfo{
			FreeSpins:          engineCfg.Bonus.FreeSpins,
			Multiplier:         engineCfg.Bonus.Multiplier,
			EnhancedMultiplier: engineCfg.Bonus.EnhancedMultiplier,
		},
		Jackpot:  engineCfg.Symbols.Get(slot.TopSymbol).Name,
		BonusSym: engineCfg.Symbols.Get(slot.BonusSymbol).Name,
	})
}

// spins 玩家最近的旋转记录
func (r *Router) spins(c *gin.Context) {
	if r.deps.Spins == nil {
		r.fail(c, apperrors.New(apperrors.ErrNotFound, "未启用旋转记录"))
		return
	}

	playerID := c.Query("player_id")
	if playerID == "" {
		r.fail(c, apperrors.New(apperrors.ErrInvalidParam, "缺少 player_id"))
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	pagination := repository.NewPagination(page, pageSize)

	records, err := r.deps.Spins.ListRecent(c.Request.Context(), playerID, pagination)
	if err != nil {
		r.fail(c, err)
		return
	}
	stats, err := r.deps.Spins.Stats(c.Request.Context(), playerID)
	if err != nil {
		r.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"records":    records,
		"pagination": pagination,
		"stats":      stats,
	})
}

// fail 统一错误响应
func (r *Router) fail(c *gin.Context, err error) {
	appErr, ok := err.(*apperrors.AppError)
	if !ok {
		appErr = apperrors.Wrap(err, apperrors.ErrUnknown)
	}
	c.AbortWithStatusJSON(appErr.HTTPStatus(), apperrors.NewErrorResponse(appErr, c.GetString("request_id")))
}

// Engine 获取Gin引擎
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
