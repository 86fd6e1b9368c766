package domain

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated 对应上游返回的 401，必须触发登出并跳回登录页
var ErrUnauthenticated = errors.New("登录已过期，请重新登录")

// 非 HTTP 来源的错误码
const (
	CodeNetwork = -1 // 请求已发出但没有收到响应
)

// APIError 是上游统一的业务错误结构，code != 0 即为失败
type APIError struct {
	Code     int    `json:"code"`
	Messages string `json:"messages"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("上游错误 %d: %s", e.Code, e.Messages)
}
