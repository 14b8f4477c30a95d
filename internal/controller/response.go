package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"shopify_split_v1_202610/internal/service"
	"shopify_split_v1_202610/internal/task"
	"shopify_split_v1_202610/pkg/shopify"
)

// ==================== 统一响应 ====================

func ok(ctx *gin.Context, message string, data interface{}) {
	ctx.JSON(http.StatusOK, gin.H{"code": 0, "message": message, "data": data})
}

func fail(ctx *gin.Context, status int, message string) {
	ctx.AbortWithStatusJSON(status, gin.H{"code": status, "message": message})
}

// respondError 业务错误映射为 HTTP 状态码
func respondError(ctx *gin.Context, err error) {
	_ = ctx.Error(err)

	var apiErr *shopify.APIError
	switch {
	case errors.Is(err, task.ErrTaskRunning):
		fail(ctx, http.StatusConflict, "同步任务正在运行，请稍后再试")
	case errors.Is(err, task.ErrTaskDisabled):
		fail(ctx, http.StatusServiceUnavailable, "同步任务未启用")
	case errors.Is(err, service.ErrInstanceNotFound):
		fail(ctx, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidInstance), errors.Is(err, service.ErrProductNotMapped):
		fail(ctx, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &apiErr):
		fail(ctx, http.StatusBadGateway, err.Error())
	default:
		fail(ctx, http.StatusInternalServerError, err.Error())
	}
}

// ==================== 工具函数 ====================

func parseID(ctx *gin.Context, key string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(key), 10, 64)
	if err != nil || id <= 0 {
		fail(ctx, http.StatusBadRequest, "无效的 ID")
		return 0, false
	}
	return id, true
}
