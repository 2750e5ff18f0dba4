package websocket

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// 错误定义
var (
	ErrSendBufferFull = errors.New("发送缓冲区已满")
	ErrInvalidMessage = errors.New("无效的消息格式")
)

// PumpConfig 读写协程参数
type PumpConfig struct {
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
	MaxMessageSize int64
}

// DefaultPumpConfig 默认参数，ping周期必须小于pong超时
func DefaultPumpConfig() PumpConfig {
	return PumpConfig{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     54 * time.Second,
		MaxMessageSize: 4096,
	}
}

// Client WebSocket客户端
type Client struct {
	ID        string
	PlayerID  string
	SessionID string
	Conn      *websocket.Conn

	hub    *Hub
	cfg    PumpConfig
	logger *zap.Logger

	send     chan []byte
	sendMu   sync.Mutex
	sendDone bool
}

// NewClient 创建新客户端
func NewClient(hub *Hub, conn *websocket.Conn, playerID string, cfg PumpConfig) *Client {
	if cfg.PingPeriod <= 0 || cfg.PingPeriod >= cfg.PongWait {
		cfg.PingPeriod = (cfg.PongWait * 9) / 10
	}
	return &Client{
		ID:       uuid.New().String(),
		PlayerID: playerID,
		Conn:     conn,
		hub:      hub,
		cfg:      cfg,
		logger:   hub.logger,
		send:     make(chan []byte, 256),
	}
}

// ReadPump 读取消息直到连接断开，每条消息交给 handle
func (c *Client) ReadPump(handle func(data []byte)) {
	defer func() {
		c.hub.Unregister(c)
		c.Conn.Close()
	}()

	if c.cfg.MaxMessageSize > 0 {
		c.Conn.SetReadLimit(c.cfg.MaxMessageSize)
	}
	c.Conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket读取错误",
					zap.String("client_id", c.ID),
					zap.Error(err))
			}
			return
		}
		handle(message)
	}
}

// WritePump 写入消息，发送通道关闭后发出关闭帧
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			// 每条消息一帧，客户端按帧解析JSON
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendMessage 发送消息给客户端
func (c *Client) SendMessage(msgType string, data interface{}) error {
	payload, err := encodeMessage(msgType, data)
	if err != nil {
		return err
	}
	if !c.enqueue(payload) {
		return ErrSendBufferFull
	}
	return nil
}

// enqueue 非阻塞入队，通道已关闭或已满时返回false
func (c *Client) enqueue(data []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.sendDone {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.sendDone {
		c.sendDone = true
		close(c.send)
	}
}
