package websocket

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	apperrors "github.com/wfunc/deepsea-slots/internal/errors"
	"github.com/wfunc/deepsea-slots/internal/game"
	"github.com/wfunc/deepsea-slots/internal/logger"
	"github.com/wfunc/deepsea-slots/internal/profile"
	"go.uber.org/zap"
)

// submitTimeout 会话输入队列满时的最长等待
const submitTimeout = time.Second

// PlayConfig 游戏连接参数
type PlayConfig struct {
	ReadBufferSize    int
	WriteBufferSize   int
	EnableCompression bool
	Pump              PumpConfig
	Cookie            profile.CookieOptions
}

// PlayHandler /ws/play 处理器：一个连接对应一个游戏会话
type PlayHandler struct {
	hub      *Hub
	sessions *game.SessionManager
	profiles *profile.Service
	cfg      PlayConfig
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewPlayHandler 创建处理器
func NewPlayHandler(hub *Hub, sessions *game.SessionManager, profiles *profile.Service, cfg PlayConfig, log *zap.Logger) *PlayHandler {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Cookie.Name == "" {
		cfg.Cookie = profile.DefaultCookieOptions()
	}
	if cfg.Pump.PongWait <= 0 {
		cfg.Pump = DefaultPumpConfig()
	}
	return &PlayHandler{
		hub:      hub,
		sessions: sessions,
		profiles: profiles,
		cfg:      cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:    cfg.ReadBufferSize,
			WriteBufferSize:   cfg.WriteBufferSize,
			EnableCompression: cfg.EnableCompression,
			CheckOrigin: func(r *http.Request) bool {
				// 状态Cookie为 SameSite=Lax，跨站请求带不上玩家档案
				return true
			},
		},
		logger: log,
	}
}

// ServeWS 升级连接并启动会话
func (h *PlayHandler) ServeWS(c *gin.Context) {
	token, _ := c.Cookie(h.cfg.Cookie.Name)
	st := h.profiles.Resume(c.Request.Context(), token)

	fresh, err := h.profiles.Issue(st)
	if err != nil {
		h.reject(c, err)
		return
	}

	session, err := h.sessions.CreateSession(st)
	if err != nil {
		h.reject(c, err)
		return
	}

	header := http.Header{}
	header.Add("Set-Cookie", h.cfg.Cookie.Cookie(fresh).String())
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, header)
	if err != nil {
		h.logger.Error("WebSocket升级失败", zap.String("player_id", st.PlayerID), zap.Error(err))
		h.sessions.EndSession(session.ID())
		return
	}

	client := NewClient(h.hub, conn, st.PlayerID, h.cfg.Pump)
	client.SessionID = session.ID()
	h.hub.Register(client)

	go client.WritePump()
	go h.forward(session, client)
	go func() {
		client.ReadPump(func(data []byte) {
			h.handleCommand(session, client, data)
		})
		h.sessions.EndSession(session.ID())
	}()
}

// forward 把会话输出转发到连接，会话结束后注销连接
func (h *PlayHandler) forward(session *game.PlaySession, client *Client) {
	defer h.hub.Unregister(client)

	var dropped int
	for out := range session.Outputs() {
		var data interface{}
		switch out.Type {
		case game.OutputSnapshot:
			data = out.Snapshot
		case game.OutputNotice:
			data = out.Notice
		case game.OutputProfile:
			data = out.Profile
		default:
			data = gin.H{"error": out.Error}
		}

		if err := client.SendMessage(string(out.Type), data); err != nil {
			dropped++
			if dropped%100 == 1 {
				h.logger.Warn("连接发送缓冲区满，丢弃消息",
					zap.String("client_id", client.ID),
					zap.String("type", string(out.Type)),
					zap.Int("dropped", dropped))
			}
		}
	}
}

// handleCommand 解析并投递一条客户端指令
func (h *PlayHandler) handleCommand(session *game.PlaySession, client *Client, data []byte) {
	ev, err := ParseCommand(data)
	if err != nil {
		h.sendError(client, apperrors.Wrap(err, apperrors.ErrMessageFormat))
		return
	}
	logger.LogWebSocketMessage("receive", string(data), nil)

	ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
	defer cancel()
	if err := session.Submit(ctx, ev); err != nil {
		h.sendError(client, err)
	}
}

func (h *PlayHandler) sendError(client *Client, err error) {
	appErr, ok := err.(*apperrors.AppError)
	if !ok {
		appErr = apperrors.Wrap(err, apperrors.ErrUnknown)
	}
	_ = client.SendMessage(MessageTypeError, gin.H{"error": appErr.Key(), "message": appErr.Error()})
}

// reject 升级前失败，按普通HTTP错误返回
func (h *PlayHandler) reject(c *gin.Context, err error) {
	appErr, ok := err.(*apperrors.AppError)
	if !ok {
		appErr = apperrors.Wrap(err, apperrors.ErrWebSocketConnect)
	}
	h.logger.Warn("拒绝游戏连接", zap.Error(err))
	c.AbortWithStatusJSON(appErr.HTTPStatus(), apperrors.NewErrorResponse(appErr, c.GetString("request_id")))
}
