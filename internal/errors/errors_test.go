package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

// ErrorsTestSuite 错误包测试套件
type ErrorsTestSuite struct {
	suite.Suite
}

// 测试创建新错误
func (suite *ErrorsTestSuite) TestNew() {
	err := New(ErrInvalidParam)
	suite.NotNil(err)
	suite.Equal(ErrInvalidParam, err.Code)
	suite.Equal("无效的参数", err.Message)
	suite.Empty(err.Details)

	// 带详情
	err = New(ErrInsufficientFunds, "需要 1200")
	suite.Equal(ErrInsufficientFunds, err.Code)
	suite.Equal("资金不足", err.Message)
	suite.Equal("需要 1200", err.Details)

	// 多个详情
	err = New(ErrDatabaseConnect, "连接失败", "driver: sqlite")
	suite.Equal("连接失败; driver: sqlite", err.Details)
}

// 测试格式化错误创建
func (suite *ErrorsTestSuite) TestNewf() {
	err := Newf(ErrInsufficientFunds, "需要 %d，当前 %d", 1200, 300)
	suite.Equal(ErrInsufficientFunds, err.Code)
	suite.Equal("需要 1200，当前 300", err.Details)
}

// 测试错误包装
func (suite *ErrorsTestSuite) TestWrap() {
	originalErr := errors.New("磁盘已满")
	wrappedErr := Wrap(originalErr, ErrPersistence)
	suite.Equal(ErrPersistence, wrappedErr.Code)
	suite.Equal("磁盘已满", wrappedErr.Details)
	suite.Equal(originalErr, wrappedErr.Cause)

	suite.Nil(Wrap(nil, ErrUnknown))

	// 包装已有的AppError，保留原始错误码
	appErr := New(ErrEmployeeNotFound, "emp-9")
	wrappedAppErr := Wrap(appErr, ErrInvalidParam, "解雇")
	suite.Equal(ErrEmployeeNotFound, wrappedAppErr.Code)
	suite.Contains(wrappedAppErr.Details, "解雇")
}

// 测试格式化错误包装
func (suite *ErrorsTestSuite) TestWrapf() {
	originalErr := errors.New("unexpected EOF")
	wrappedErr := Wrapf(originalErr, ErrSaveCorrupted, "存档 %s 解析失败", "current_save")
	suite.Equal(ErrSaveCorrupted, wrappedErr.Code)
	suite.Equal("存档 current_save 解析失败", wrappedErr.Details)
	suite.Equal(originalErr, wrappedErr.Cause)
}

// 测试错误码判断
func (suite *ErrorsTestSuite) TestIs() {
	err := New(ErrSocialActionDone)
	suite.True(Is(err, ErrSocialActionDone))
	suite.False(Is(err, ErrNotFound))
	suite.False(Is(nil, ErrSocialActionDone))
	suite.False(Is(errors.New("标准错误"), ErrUnknown))

	// fmt.Errorf 包装链
	chained := fmt.Errorf("社交活动: %w", err)
	suite.True(Is(chained, ErrSocialActionDone))
}

// 测试获取错误码
func (suite *ErrorsTestSuite) TestGetCode() {
	suite.Equal(ErrNoCandidate, GetCode(New(ErrNoCandidate)))
	suite.Equal(ErrUnknown, GetCode(errors.New("标准错误")))
	suite.Equal(ErrorCode(0), GetCode(nil))
}

// 测试错误消息
func (suite *ErrorsTestSuite) TestError() {
	err := &AppError{
		Code:    ErrNotFound,
		Message: "资源未找到",
	}
	suite.Equal("[1002] 资源未找到", err.Error())

	err.Details = "bar-3"
	suite.Equal("[1002] 资源未找到: bar-3", err.Error())
}

// 测试Unwrap
func (suite *ErrorsTestSuite) TestUnwrap() {
	originalErr := errors.New("原始错误")
	wrappedErr := Wrap(originalErr, ErrUnknown)
	suite.Equal(originalErr, wrappedErr.Unwrap())
	suite.Nil(New(ErrUnknown).Unwrap())
}

// 测试WithCause
func (suite *ErrorsTestSuite) TestWithCause() {
	cause := errors.New("SQL语法错误")
	err := New(ErrDatabaseQuery).WithCause(cause)
	suite.Equal(cause, err.Cause)
	suite.Equal("SQL语法错误", err.Details)

	err2 := New(ErrDatabaseQuery, "查询失败").WithCause(cause)
	suite.Equal("查询失败", err2.Details)
}

// 测试HTTP状态码映射
func (suite *ErrorsTestSuite) TestHTTPStatus() {
	testCases := []struct {
		code     ErrorCode
		expected int
	}{
		{ErrInvalidParam, 400},
		{ErrNotFound, 404},
		{ErrEmployeeNotFound, 404},
		{ErrTimeout, 408},
		{ErrInsufficientFunds, 409},
		{ErrSocialActionDone, 409},
		{ErrDatabaseConnect, 503},
		{ErrUnknown, 500},
	}

	for _, tc := range testCases {
		err := New(tc.code)
		suite.Equal(tc.expected, err.HTTPStatus(), "错误码 %d 应该返回HTTP状态码 %d", tc.code, tc.expected)
	}
}

// 测试拒绝操作判断
func (suite *ErrorsTestSuite) TestIsDeclined() {
	suite.True(IsDeclined(New(ErrInsufficientFunds)))
	suite.True(IsDeclined(New(ErrEmployeeProtected)))
	suite.False(IsDeclined(New(ErrDatabaseQuery)))
	suite.False(IsDeclined(nil))
}

// 测试可重试与严重错误判断
func (suite *ErrorsTestSuite) TestRetryableAndCritical() {
	suite.True(IsRetryable(New(ErrPersistence)))
	suite.False(IsRetryable(New(ErrInsufficientFunds)))
	suite.False(IsRetryable(nil))

	suite.True(IsCritical(New(ErrConfigLoad)))
	suite.True(IsCritical(New(ErrConfigValidate)))
	suite.False(IsCritical(New(ErrTimeout)))
	suite.False(IsCritical(nil))
}

// 测试调用栈捕获
func (suite *ErrorsTestSuite) TestStackCapture() {
	err := New(ErrUnknown)
	suite.Greater(len(err.Stack), 0)
	suite.NotEmpty(err.GetStack())
}

// 测试错误响应
func (suite *ErrorsTestSuite) TestErrorResponse() {
	err := New(ErrNotFound, "bar-1")
	response := NewErrorResponse(err, "req-123")

	suite.False(response.Success)
	suite.Equal(err, response.Error)
	suite.Equal("req-123", response.RequestID)
	suite.Greater(response.Timestamp, int64(0))
}

// 测试未知错误码
func (suite *ErrorsTestSuite) TestUnknownErrorCode() {
	err := New(ErrorCode(99999))
	suite.Equal(ErrorCode(99999), err.Code)
	suite.Equal("未知错误", err.Message)
}

// 测试游戏相关错误
func (suite *ErrorsTestSuite) TestGameErrors() {
	gameErrors := map[ErrorCode]string{
		ErrInsufficientFunds: "资金不足",
		ErrGameStateError:    "游戏状态错误",
		ErrSocialActionDone:  "本周期已进行过社交活动",
		ErrEmployeeProtected: "该员工受保护，无法解雇",
		ErrNoCandidate:       "没有可用的候选人",
	}

	for code, expectedMsg := range gameErrors {
		suite.Equal(expectedMsg, New(code).Message)
	}
}

func TestErrorsSuite(t *testing.T) {
	suite.Run(t, new(ErrorsTestSuite))
}
