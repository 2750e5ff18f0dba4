package profile

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	apperrors "github.com/wfunc/deepsea-slots/internal/errors"
	"go.uber.org/zap"
)

// maxBodyBytes 写入请求体上限
const maxBodyBytes = 4 << 10

// CookieOptions 状态Cookie参数
type CookieOptions struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

// DefaultCookieOptions 默认Cookie参数
func DefaultCookieOptions() CookieOptions {
	return CookieOptions{Name: "dss_state", MaxAge: 365 * 24 * time.Hour}
}

// Cookie 生成状态Cookie
func (o CookieOptions) Cookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     o.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(o.MaxAge / time.Second),
		Secure:   o.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// Response 档案响应
type Response struct {
	Coins        int `json:"coins"`
	BonusEntries int `json:"bonusEntries"`
}

// Handler /player 处理器
type Handler struct {
	svc    *Service
	cookie CookieOptions
	logger *zap.Logger
}

// NewHandler 创建处理器
func NewHandler(svc *Service, cookie CookieOptions, logger *zap.Logger) *Handler {
	if cookie.Name == "" {
		cookie.Name = DefaultCookieOptions().Name
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, cookie: cookie, logger: logger}
}

// CookieName 状态Cookie名
func (h *Handler) CookieName() string {
	return h.cookie.Name
}

// Register 注册路由，其他方法统一返回405
func (h *Handler) Register(r gin.IRoutes) {
	r.Any("/player", h.Serve)
}

// Serve 按方法分派
func (h *Handler) Serve(c *gin.Context) {
	switch c.Request.Method {
	case http.MethodGet:
		h.get(c)
	case http.MethodPost:
		h.post(c)
	default:
		c.Header("Allow", "GET, POST")
		h.fail(c, apperrors.New(apperrors.ErrMethodNotAllowed))
	}
}

func (h *Handler) get(c *gin.Context) {
	token, _ := c.Cookie(h.cookie.Name)
	st := h.svc.Load(token)

	fresh, err := h.svc.Issue(st)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.setCookie(c, fresh)
	c.JSON(http.StatusOK, Response{Coins: st.Coins, BonusEntries: st.BonusEntries})
}

func (h *Handler) post(c *gin.Context) {
	var upd Update
	// 解析失败或超长按缺字段处理
	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&upd); err != nil {
		upd = Update{}
	}

	token, _ := c.Cookie(h.cookie.Name)
	st, fresh, err := h.svc.Write(c.Request.Context(), token, upd, c.ClientIP())
	if err != nil {
		h.logger.Info("拒绝档案写入", zap.String("player_id", st.PlayerID), zap.Error(err))
		h.fail(c, err)
		return
	}
	h.setCookie(c, fresh)
	c.JSON(http.StatusOK, Response{Coins: st.Coins, BonusEntries: st.BonusEntries})
}

func (h *Handler) setCookie(c *gin.Context, token string) {
	http.SetCookie(c.Writer, h.cookie.Cookie(token))
}

// fail 输出 {error: key}
func (h *Handler) fail(c *gin.Context, err error) {
	appErr, ok := err.(*apperrors.AppError)
	if !ok {
		appErr = apperrors.Wrap(err, apperrors.ErrProfileSyncFailed)
	}
	resp := apperrors.NewErrorResponse(appErr, c.GetString("request_id"))
	resp.Detail = nil
	c.AbortWithStatusJSON(appErr.HTTPStatus(), resp)
}
