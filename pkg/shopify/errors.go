package shopify

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError Shopify 返回非 2xx 时的错误，Body 保留原始响应
type APIError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Shopify API 错误 [%d] %s %s: %s", e.StatusCode, e.Method, e.URL, e.Body)
}

// IsNotFound 判断远端资源是否不存在
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsRateLimited 判断是否触发远端限流
func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests
}
