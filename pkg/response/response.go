// Package response 统一的 JSON 响应信封
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/travelfeed/internal/domain"
	"github.com/d60-Lab/travelfeed/pkg/logger"
)

// Response 响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: 0, Message: "success", Data: data})
}

func BadRequest(c *gin.Context, msg string) {
	Fail(c, http.StatusBadRequest, msg)
}

func Unauthorized(c *gin.Context, msg string) {
	Fail(c, http.StatusUnauthorized, msg)
}

func NotFound(c *gin.Context, msg string) {
	Fail(c, http.StatusNotFound, msg)
}

func Conflict(c *gin.Context, msg string) {
	Fail(c, http.StatusConflict, msg)
}

func TooManyRequests(c *gin.Context) {
	Fail(c, http.StatusTooManyRequests, "too many requests")
}

func ServiceUnavailable(c *gin.Context, msg string) {
	Fail(c, http.StatusServiceUnavailable, msg)
}

// InternalError 不向客户端暴露内部错误
func InternalError(c *gin.Context, err error) {
	logger.Error("internal error", zap.String("path", c.FullPath()), zap.Error(err))
	_ = c.Error(err)
	Fail(c, http.StatusInternalServerError, "internal server error")
}

func Fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, Response{Code: status, Message: msg})
}

// Error 按领域错误选择状态码
func Error(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotAuthenticated):
		Unauthorized(c, err.Error())
	case errors.Is(err, domain.ErrInvalidVoteType),
		errors.Is(err, domain.ErrInvalidAudience),
		errors.Is(err, domain.ErrFollowSelf),
		errors.Is(err, domain.ErrBlockSelf),
		errors.Is(err, domain.ErrFeedNotLoaded),
		errors.Is(err, domain.ErrNoActiveSearch):
		BadRequest(c, err.Error())
	case errors.Is(err, domain.ErrUserNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, domain.ErrConflictingVote),
		errors.Is(err, domain.ErrToggleInProgress):
		Conflict(c, err.Error())
	case errors.Is(err, domain.ErrStoreUnavailable):
		logger.Warn("store unavailable", zap.String("path", c.FullPath()), zap.Error(err))
		_ = c.Error(err)
		ServiceUnavailable(c, "store unavailable, retry later")
	default:
		InternalError(c, err)
	}
}
