package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// ==================== 同步冷却中间件 ====================

// SyncCooldown 手动同步冷却中间件
// 路径或查询参数带 instance_id 时按店铺 + 同步类型限流，否则按同步类型全局限流
//
// 使用示例:
//
//	sync.POST("/orders/import",
//	    middleware.SyncCooldown(limiter, middleware.SyncTypeOrderImport, cfg.Middleware.SyncCooldown),
//	    syncCtl.ImportOrders,
//	)
func SyncCooldown(limiter *SyncRateLimiter, syncType SyncType, interval time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if interval <= 0 {
			c.Next()
			return
		}

		idStr := c.Param("id")
		if idStr == "" {
			idStr = c.Query("instance_id")
		}

		key := GlobalSyncKey(syncType)
		if idStr != "" {
			id, err := strconv.ParseInt(idStr, 10, 64)
			if err != nil || id <= 0 {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
					"code":    http.StatusBadRequest,
					"message": "无效的店铺 ID",
				})
				return
			}
			key = InstanceSyncKey(id, syncType)
		}

		result := limiter.Check(key, interval)
		if !result.Allowed {
			c.Header("Retry-After", strconv.Itoa(retrySeconds(result.RetryAfter)))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":    http.StatusTooManyRequests,
				"message": formatRetryMessage(result.RetryAfter),
				"data": gin.H{
					"retry_after": retrySeconds(result.RetryAfter),
					"sync_type":   syncType,
				},
			})
			return
		}

		c.Next()
	}
}

// ==================== 辅助函数 ====================

func retrySeconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}

// formatRetryMessage 格式化重试提示信息
func formatRetryMessage(d time.Duration) string {
	seconds := retrySeconds(d)

	if seconds < 60 {
		return fmt.Sprintf("同步冷却中，请 %d 秒后重试", seconds)
	}

	minutes := seconds / 60
	remainingSeconds := seconds % 60

	if remainingSeconds == 0 {
		return fmt.Sprintf("同步冷却中，请 %d 分钟后重试", minutes)
	}

	return fmt.Sprintf("同步冷却中，请 %d 分 %d 秒后重试", minutes, remainingSeconds)
}
