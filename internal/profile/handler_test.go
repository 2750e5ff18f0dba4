package profile

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
)

// HandlerTestSuite /player 处理器测试套件
type HandlerTestSuite struct {
	suite.Suite
	router  *gin.Engine
	handler *Handler
}

func (suite *HandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	svc, _ := newTestService(suite.T())
	suite.handler = NewHandler(svc, DefaultCookieOptions(), nil)
	suite.router = gin.New()
	suite.handler.Register(suite.router)
}

func (suite *HandlerTestSuite) do(method, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, "/player", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, "/player", nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *HandlerTestSuite) stateCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == "dss_state" {
			return c
		}
	}
	return nil
}

func (suite *HandlerTestSuite) decode(w *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// TestGet_Default 无Cookie时返回默认档案并下发新令牌
func (suite *HandlerTestSuite) TestGet_Default() {
	w := suite.do(http.MethodGet, "", nil)
	suite.Equal(http.StatusOK, w.Code)

	body := suite.decode(w)
	suite.Equal(float64(100), body["coins"])
	suite.Equal(float64(0), body["bonusEntries"])

	cookie := suite.stateCookie(w)
	suite.Require().NotNil(cookie)
	suite.NotEmpty(cookie.Value)
	suite.True(cookie.HttpOnly)
	suite.Equal("/", cookie.Path)
}

// TestGet_InvalidCookie 坏令牌按新玩家处理
func (suite *HandlerTestSuite) TestGet_InvalidCookie() {
	w := suite.do(http.MethodGet, "", &http.Cookie{Name: "dss_state", Value: "forged.token.value"})
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal(float64(100), suite.decode(w)["coins"])
}

// TestPost_Flow 写入成功后用新令牌继续
func (suite *HandlerTestSuite) TestPost_Flow() {
	cookie := suite.stateCookie(suite.do(http.MethodGet, "", nil))

	w := suite.do(http.MethodPost, `{"coins": 260.7, "bonusEntries": 1}`, cookie)
	suite.Equal(http.StatusOK, w.Code)
	body := suite.decode(w)
	suite.Equal(float64(260), body["coins"])
	suite.Equal(float64(1), body["bonusEntries"])

	next := suite.stateCookie(w)
	suite.Require().NotNil(next)

	w = suite.do(http.MethodGet, "", next)
	suite.Equal(float64(260), suite.decode(w)["coins"])
}

// TestPost_Rejections 各类拒绝
func (suite *HandlerTestSuite) TestPost_Rejections() {
	cookie := suite.stateCookie(suite.do(http.MethodGet, "", nil))

	tests := []struct {
		name string
		body string
		key  string
	}{
		{"空请求体", "", "invalid_payload"},
		{"非JSON", "coins=1", "invalid_payload"},
		{"缺字段", `{"coins": 100}`, "invalid_payload"},
		{"类型错误", `{"coins": "100", "bonusEntries": 0}`, "invalid_payload"},
		{"变化量过大", `{"coins": 6200, "bonusEntries": 0}`, "suspicious_delta"},
		{"奖励次数跳增", `{"coins": 100, "bonusEntries": 2}`, "invalid_bonus_entries"},
	}
	for _, tt := range tests {
		suite.Run(tt.name, func() {
			w := suite.do(http.MethodPost, tt.body, cookie)
			suite.Equal(http.StatusBadRequest, w.Code)
			body := suite.decode(w)
			suite.Equal(tt.key, body["error"])
			suite.NotContains(body, "detail")
			suite.Nil(suite.stateCookie(w))
		})
	}

	// 被拒绝后存量不变
	w := suite.do(http.MethodGet, "", cookie)
	suite.Equal(float64(100), suite.decode(w)["coins"])
}

// TestMethodNotAllowed 其他方法返回405和Allow头
func (suite *HandlerTestSuite) TestMethodNotAllowed() {
	for _, method := range []string{http.MethodPut, http.MethodDelete, http.MethodPatch} {
		w := suite.do(method, "", nil)
		suite.Equal(http.StatusMethodNotAllowed, w.Code, method)
		suite.Equal("GET, POST", w.Header().Get("Allow"))
		body := suite.decode(w)
		suite.Equal("method_not_allowed", body["error"])
		suite.NotContains(body, "detail")
	}
}

// TestPost_BodyTooLarge 超长请求体即使是合法JSON也拒绝
func (suite *HandlerTestSuite) TestPost_BodyTooLarge() {
	cookie := suite.stateCookie(suite.do(http.MethodGet, "", nil))

	pad := strings.Repeat("x", maxBodyBytes)
	w := suite.do(http.MethodPost, `{"coins": 100, "bonusEntries": 0, "pad": "`+pad+`"}`, cookie)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("invalid_payload", suite.decode(w)["error"])
	suite.Nil(suite.stateCookie(w))

	// 同样内容不超长时正常写入
	w = suite.do(http.MethodPost, `{"coins": 100, "bonusEntries": 0, "pad": "x"}`, cookie)
	suite.Equal(http.StatusOK, w.Code)
}

func TestHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}
