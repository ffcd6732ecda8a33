package api

import (
	stderrors "errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wfunc/noodle-rush/internal/errors"
	"github.com/wfunc/noodle-rush/internal/middleware"
)

// SuccessResponse API成功响应
type SuccessResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, SuccessResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().Unix(),
	})
}

// fail 按错误码映射HTTP状态，响应中不带调用栈
func fail(c *gin.Context, err error) {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		appErr = errors.Wrap(err, errors.ErrUnknown)
	}

	public := &errors.AppError{
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	}
	_ = c.Error(err)
	c.JSON(appErr.HTTPStatus(), errors.NewErrorResponse(public, middleware.GetRequestID(c)))
}

// bindJSON 解析请求体，失败时写入 ErrInvalidParam 响应
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		fail(c, errors.New(errors.ErrInvalidParam, err.Error()))
		return false
	}
	return true
}
