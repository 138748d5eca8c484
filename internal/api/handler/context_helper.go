package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"gradff/backend/pkg/response"
)

// 上下文键，由 middleware.JWTAuth 写入
const (
	ctxUserID   = "user_id"
	ctxTokenID  = "token_id"
	ctxTokenExp = "token_exp"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get(ctxUserID)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// tokenFromContext 当前 Token 的 jti 与过期时间；缺失时返回零值
func tokenFromContext(c *gin.Context) (string, time.Time) {
	jti := c.GetString(ctxTokenID)
	exp, _ := c.Get(ctxTokenExp)
	t, _ := exp.(time.Time)
	return jti, t
}
