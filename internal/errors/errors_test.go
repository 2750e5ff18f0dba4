package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/suite"
)

// ErrorsTestSuite 错误包测试套件
type ErrorsTestSuite struct {
	suite.Suite
}

func (suite *ErrorsTestSuite) TestNew() {
	err := New(ErrInvalidParam)
	suite.NotNil(err)
	suite.Equal(ErrInvalidParam, err.Code)
	suite.Equal("无效的参数", err.Message)
	suite.Empty(err.Details)

	err = New(ErrSuspiciousDelta, "delta 9000", "limit 5000")
	suite.Equal("金币变化异常", err.Message)
	suite.Equal("delta 9000; limit 5000", err.Details)

	// 未登记的错误码使用未知错误消息
	err = New(ErrorCode(42))
	suite.Equal("未知错误", err.Message)
}

func (suite *ErrorsTestSuite) TestNewf() {
	err := Newf(ErrInvalidBet, "下注 %d 超出范围", 9)
	suite.Equal(ErrInvalidBet, err.Code)
	suite.Equal("下注 9 超出范围", err.Details)
}

func (suite *ErrorsTestSuite) TestWrap() {
	originalErr := errors.New("原始错误")
	wrappedErr := Wrap(originalErr, ErrDatabaseQuery)
	suite.Equal(ErrDatabaseQuery, wrappedErr.Code)
	suite.Equal("原始错误", wrappedErr.Details)
	suite.Equal(originalErr, wrappedErr.Cause)

	suite.Nil(Wrap(nil, ErrUnknown))

	// 包装已有的AppError保留原始错误码
	appErr := New(ErrNotFound, "档案不存在")
	wrappedAppErr := Wrap(appErr, ErrInvalidParam, "额外信息")
	suite.Equal(ErrNotFound, wrappedAppErr.Code)
	suite.Contains(wrappedAppErr.Details, "额外信息")
	suite.Contains(wrappedAppErr.Details, "档案不存在")
}

func (suite *ErrorsTestSuite) TestWrapf() {
	originalErr := errors.New("连接超时")
	wrappedErr := Wrapf(originalErr, ErrDatabaseConnect, "数据库 %s 连接失败", "sqlite")
	suite.Equal(ErrDatabaseConnect, wrappedErr.Code)
	suite.Equal("数据库 sqlite 连接失败", wrappedErr.Details)
	suite.Equal(originalErr, wrappedErr.Cause)
}

func (suite *ErrorsTestSuite) TestIs() {
	err := New(ErrPermissionDenied)
	suite.True(Is(err, ErrPermissionDenied))
	suite.False(Is(err, ErrNotFound))
	suite.False(Is(nil, ErrPermissionDenied))
	suite.False(Is(errors.New("标准错误"), ErrUnknown))

	// 经 fmt.Errorf 包装后仍能识别
	chained := fmt.Errorf("同步失败: %w", New(ErrInvalidPayload))
	suite.True(Is(chained, ErrInvalidPayload))
	suite.Equal(ErrInvalidPayload, GetCode(chained))
}

func (suite *ErrorsTestSuite) TestGetCode() {
	suite.Equal(ErrTokenExpired, GetCode(New(ErrTokenExpired)))
	suite.Equal(ErrUnknown, GetCode(errors.New("标准错误")))
	suite.Equal(ErrorCode(0), GetCode(nil))
}

func (suite *ErrorsTestSuite) TestError() {
	err := &AppError{Code: ErrNotFound, Message: "资源未找到"}
	suite.Equal("[1002] 资源未找到", err.Error())

	err.Details = "玩家ID: abc"
	suite.Equal("[1002] 资源未找到: 玩家ID: abc", err.Error())
}

func (suite *ErrorsTestSuite) TestUnwrap() {
	originalErr := errors.New("原始错误")
	suite.Equal(originalErr, Wrap(originalErr, ErrUnknown).Unwrap())
	suite.Nil(New(ErrUnknown).Unwrap())
}

func (suite *ErrorsTestSuite) TestWithCause() {
	cause := errors.New("SQL语法错误")

	err := New(ErrDatabaseQuery).WithCause(cause)
	suite.Equal(cause, err.Cause)
	suite.Equal("SQL语法错误", err.Details)

	err2 := New(ErrDatabaseQuery, "查询失败").WithCause(cause)
	suite.Equal("查询失败", err2.Details)

	suite.Equal("参数不能为空", New(ErrInvalidParam).WithDetails("参数不能为空").Details)
}

func (suite *ErrorsTestSuite) TestKey() {
	testCases := []struct {
		code ErrorCode
		key  string
	}{
		{ErrInvalidPayload, "invalid_payload"},
		{ErrSuspiciousDelta, "suspicious_delta"},
		{ErrInvalidBonusEntries, "invalid_bonus_entries"},
		{ErrMethodNotAllowed, "method_not_allowed"},
		{ErrDatabaseQuery, "internal_error"},
	}
	for _, tc := range testCases {
		suite.Equal(tc.key, New(tc.code).Key(), "code %d", tc.code)
	}
}

func (suite *ErrorsTestSuite) TestHTTPStatus() {
	testCases := []struct {
		code   ErrorCode
		status int
	}{
		{ErrInvalidParam, http.StatusBadRequest},
		{ErrInvalidPayload, http.StatusBadRequest},
		{ErrSuspiciousDelta, http.StatusBadRequest},
		{ErrInvalidBonusEntries, http.StatusBadRequest},
		{ErrNotFound, http.StatusNotFound},
		{ErrMethodNotAllowed, http.StatusMethodNotAllowed},
		{ErrInsufficientCoins, http.StatusConflict},
		{ErrTokenInvalid, http.StatusUnauthorized},
		{ErrRateLimitExceeded, http.StatusTooManyRequests},
		{ErrDatabaseConnect, http.StatusServiceUnavailable},
		{ErrProfileSyncFailed, http.StatusInternalServerError},
		{ErrUnknown, http.StatusInternalServerError},
	}
	for _, tc := range testCases {
		suite.Equal(tc.status, New(tc.code).HTTPStatus(), "code %d", tc.code)
	}
}

func (suite *ErrorsTestSuite) TestRetryableAndCritical() {
	suite.True(IsRetryable(New(ErrProfileSyncFailed)))
	suite.True(IsRetryable(New(ErrDatabaseConnect)))
	suite.False(IsRetryable(New(ErrInvalidPayload)))
	suite.False(IsRetryable(nil))

	suite.True(IsCritical(New(ErrEngineConfig)))
	suite.False(IsCritical(New(ErrInvalidBet)))
	suite.False(IsCritical(nil))
}

func (suite *ErrorsTestSuite) TestStack() {
	err := New(ErrUnknown)
	suite.NotEmpty(err.Stack)
	suite.LessOrEqual(len(err.Stack), 10)
	for _, f := range err.Stack {
		suite.NotContains(f.Function, "deepsea-slots/internal/errors.New")
	}
	suite.NotEmpty(err.GetStack())
	suite.Empty((&AppError{}).GetStack())
}

func (suite *ErrorsTestSuite) TestErrorResponse() {
	resp := NewErrorResponse(New(ErrSuspiciousDelta), "req-1")
	suite.False(resp.Success)
	suite.Equal("suspicious_delta", resp.Error)
	suite.Equal("req-1", resp.RequestID)
	suite.NotZero(resp.Timestamp)
}

func TestErrorsTestSuite(t *testing.T) {
	suite.Run(t, new(ErrorsTestSuite))
}
