package errors

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"
)

// ErrorCode 错误码类型
type ErrorCode int

// 错误码定义（按模块分组）
const (
	// 通用错误 (1000-1999)
	ErrUnknown          ErrorCode = 1000
	ErrInvalidParam     ErrorCode = 1001
	ErrNotFound         ErrorCode = 1002
	ErrAlreadyExists    ErrorCode = 1003
	ErrPermissionDenied ErrorCode = 1004
	ErrTimeout          ErrorCode = 1005
	ErrCanceled         ErrorCode = 1006
	ErrMethodNotAllowed ErrorCode = 1007

	// 游戏错误 (2000-2999)
	ErrInsufficientCoins ErrorCode = 2000
	ErrInvalidBet        ErrorCode = 2001
	ErrModeBusy          ErrorCode = 2002
	ErrSpinInProgress    ErrorCode = 2003
	ErrSessionClosed     ErrorCode = 2004
	ErrEngineConfig      ErrorCode = 2005

	// 档案同步错误 (3000-3999)
	ErrInvalidPayload      ErrorCode = 3000
	ErrSuspiciousDelta     ErrorCode = 3001
	ErrInvalidBonusEntries ErrorCode = 3002
	ErrProfileTokenInvalid ErrorCode = 3003
	ErrProfileSyncFailed   ErrorCode = 3004

	// 通信错误 (4000-4999)
	ErrWebSocketConnect ErrorCode = 4000
	ErrWebSocketSend    ErrorCode = 4001
	ErrWebSocketClosed  ErrorCode = 4002
	ErrMessageFormat    ErrorCode = 4003

	// 数据库错误 (5000-5999)
	ErrDatabaseConnect ErrorCode = 5000
	ErrDatabaseQuery   ErrorCode = 5001
	ErrDatabaseInsert  ErrorCode = 5002
	ErrDatabaseUpdate  ErrorCode = 5003
	ErrTransaction     ErrorCode = 5004

	// 配置错误 (6000-6999)
	ErrConfigLoad     ErrorCode = 6000
	ErrConfigParse    ErrorCode = 6001
	ErrConfigValidate ErrorCode = 6002
	ErrConfigMissing  ErrorCode = 6003

	// 安全错误 (7000-7999)
	ErrTokenExpired      ErrorCode = 7000
	ErrTokenInvalid      ErrorCode = 7001
	ErrRateLimitExceeded ErrorCode = 7002
	ErrEncryption        ErrorCode = 7003
)

// 错误码消息映射
var errorMessages = map[ErrorCode]string{
	ErrUnknown:          "未知错误",
	ErrInvalidParam:     "无效的参数",
	ErrNotFound:         "资源未找到",
	ErrAlreadyExists:    "资源已存在",
	ErrPermissionDenied: "权限不足",
	ErrTimeout:          "操作超时",
	ErrCanceled:         "操作已取消",
	ErrMethodNotAllowed: "不支持的请求方法",

	ErrInsufficientCoins: "金币不足",
	ErrInvalidBet:        "无效的下注",
	ErrModeBusy:          "当前模式不接受该操作",
	ErrSpinInProgress:    "卷轴正在转动",
	ErrSessionClosed:     "游戏会话已关闭",
	ErrEngineConfig:      "引擎配置无效",

	ErrInvalidPayload:      "无效的档案数据",
	ErrSuspiciousDelta:     "金币变化异常",
	ErrInvalidBonusEntries: "无效的奖励次数",
	ErrProfileTokenInvalid: "档案令牌无效",
	ErrProfileSyncFailed:   "档案同步失败",

	ErrWebSocketConnect: "WebSocket连接失败",
	ErrWebSocketSend:    "WebSocket发送失败",
	ErrWebSocketClosed:  "WebSocket连接已关闭",
	ErrMessageFormat:    "消息格式错误",

	ErrDatabaseConnect: "数据库连接失败",
	ErrDatabaseQuery:   "数据库查询失败",
	ErrDatabaseInsert:  "数据库插入失败",
	ErrDatabaseUpdate:  "数据库更新失败",
	ErrTransaction:     "事务处理失败",

	ErrConfigLoad:     "配置加载失败",
	ErrConfigParse:    "配置解析失败",
	ErrConfigValidate: "配置验证失败",
	ErrConfigMissing:  "配置项缺失",

	ErrTokenExpired:      "令牌已过期",
	ErrTokenInvalid:      "无效的令牌",
	ErrRateLimitExceeded: "请求频率超限",
	ErrEncryption:        "加密失败",
}

// errorKeys 对外暴露的机器可读错误键
var errorKeys = map[ErrorCode]string{
	ErrInvalidParam:        "invalid_param",
	ErrNotFound:            "not_found",
	ErrMethodNotAllowed:    "method_not_allowed",
	ErrInsufficientCoins:   "insufficient_coins",
	ErrInvalidBet:          "invalid_bet",
	ErrModeBusy:            "mode_busy",
	ErrSpinInProgress:      "spin_in_progress",
	ErrSessionClosed:       "session_closed",
	ErrInvalidPayload:      "invalid_payload",
	ErrSuspiciousDelta:     "suspicious_delta",
	ErrInvalidBonusEntries: "invalid_bonus_entries",
	ErrProfileTokenInvalid: "invalid_token",
	ErrMessageFormat:       "invalid_message",
	ErrRateLimitExceeded:   "rate_limited",
}

// AppError 应用错误结构
type AppError struct {
	Code    ErrorCode    `json:"code"`            // 错误码
	Message string       `json:"message"`         // 错误消息
	Details string       `json:"details"`         // 详细信息
	Cause   error        `json:"-"`               // 原始错误
	Stack   []StackFrame `json:"stack,omitempty"` // 调用栈
}

// StackFrame 调用栈帧
type StackFrame struct {
	Function string `json:"function"`
	File     string `json:"file"`
	Line     int    `json:"line"`
}

// Error 实现error接口
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%d] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 返回原始错误
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Key 机器可读的错误键
func (e *AppError) Key() string {
	if k, ok := errorKeys[e.Code]; ok {
		return k
	}
	return "internal_error"
}

// WithDetails 添加详细信息
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithCause 添加原因错误
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	if cause != nil && e.Details == "" {
		e.Details = cause.Error()
	}
	return e
}

// New 创建新的应用错误
func New(code ErrorCode, details ...string) *AppError {
	message, ok := errorMessages[code]
	if !ok {
		message = errorMessages[ErrUnknown]
	}

	err := &AppError{
		Code:    code,
		Message: message,
	}
	if len(details) > 0 {
		err.Details = strings.Join(details, "; ")
	}

	err.captureStack(2)
	return err
}

// Newf 创建格式化的应用错误
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap 包装错误，已经是AppError时保留原始错误码
func Wrap(err error, code ErrorCode, details ...string) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		if len(details) > 0 {
			appErr.Details = strings.Join(details, "; ") + "; " + appErr.Details
		}
		return appErr
	}

	appErr = New(code, details...)
	appErr.Cause = err
	if appErr.Details == "" {
		appErr.Details = err.Error()
	}
	return appErr
}

// Wrapf 包装格式化错误
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// Is 判断错误链中是否有指定错误码
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// GetCode 获取错误码
func GetCode(err error) ErrorCode {
	if err == nil {
		return 0
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrUnknown
}

// captureStack 捕获调用栈
func (e *AppError) captureStack(skip int) {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(skip+1, pcs)
	if n == 0 {
		return
	}

	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()

		// 跳过runtime和本包的调用
		if !strings.Contains(frame.Function, "runtime.") &&
			!strings.Contains(frame.Function, "github.com/wfunc/deepsea-slots/internal/errors") {
			e.Stack = append(e.Stack, StackFrame{
				Function: frame.Function,
				File:     frame.File,
				Line:     frame.Line,
			})
		}

		// 只保留前10个栈帧
		if !more || len(e.Stack) >= 10 {
			break
		}
	}
}

// GetStack 获取格式化的调用栈
func (e *AppError) GetStack() string {
	if len(e.Stack) == 0 {
		return ""
	}

	var builder strings.Builder
	for i, frame := range e.Stack {
		builder.WriteString(fmt.Sprintf("%d. %s\n   %s:%d\n",
			i+1, frame.Function, frame.File, frame.Line))
	}
	return builder.String()
}

// HTTPStatus 返回对应的HTTP状态码
func (e *AppError) HTTPStatus() int {
	switch {
	case e.Code == ErrInvalidParam, e.Code == ErrAlreadyExists:
		return http.StatusBadRequest
	case e.Code >= 3000 && e.Code <= 3003:
		return http.StatusBadRequest
	case e.Code == ErrMessageFormat:
		return http.StatusBadRequest
	case e.Code == ErrNotFound:
		return http.StatusNotFound
	case e.Code == ErrMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case e.Code == ErrPermissionDenied:
		return http.StatusForbidden
	case e.Code == ErrTimeout:
		return http.StatusRequestTimeout
	case e.Code >= 2000 && e.Code <= 2003:
		return http.StatusConflict
	case e.Code == ErrTokenExpired, e.Code == ErrTokenInvalid:
		return http.StatusUnauthorized
	case e.Code == ErrRateLimitExceeded:
		return http.StatusTooManyRequests
	case e.Code >= 5000 && e.Code <= 5999:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// IsRetryable 判断错误是否可重试
func IsRetryable(err error) bool {
	switch GetCode(err) {
	case ErrTimeout,
		ErrWebSocketConnect,
		ErrDatabaseConnect,
		ErrProfileSyncFailed:
		return true
	default:
		return false
	}
}

// IsCritical 判断是否为严重错误
func IsCritical(err error) bool {
	switch GetCode(err) {
	case ErrDatabaseConnect,
		ErrConfigLoad,
		ErrConfigMissing,
		ErrEngineConfig:
		return true
	default:
		return false
	}
}

// ErrorResponse API错误响应结构
type ErrorResponse struct {
	Success   bool      `json:"success"`
	Error     string    `json:"error"` // 机器可读错误键
	Detail    *AppError `json:"detail,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp int64     `json:"timestamp"`
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(err *AppError, requestID string) *ErrorResponse {
	return &ErrorResponse{
		Success:   false,
		Error:     err.Key(),
		Detail:    err,
		RequestID: requestID,
		Timestamp: time.Now().Unix(),
	}
}
