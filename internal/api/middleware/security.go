package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// 接口只返回 JSON / PDF / 表格，不需要加载任何子资源
	apiCSP = "default-src 'none'; frame-ancestors 'none'"
	// 附件由学生上传，禁止其中的脚本在本域执行
	filesCSP = "default-src 'none'; style-src 'unsafe-inline'; img-src 'self'; sandbox"
)

// SecurityHeaders 安全响应头。
// filesPrefix 为附件的静态路径（cfg.Storage.PublicPath），该前缀下改用 sandbox CSP；
// 其余响应禁止缓存。
func SecurityHeaders(filesPrefix string) gin.HandlerFunc {
	filesPrefix = strings.TrimRight(filesPrefix, "/")

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")

		if filesPrefix != "" && hasPathPrefix(c.Request.URL.Path, filesPrefix) {
			h.Set("Content-Security-Policy", filesCSP)
		} else {
			h.Set("Content-Security-Policy", apiCSP)
			h.Set("Cache-Control", "no-store")
		}

		c.Next()
	}
}

// hasPathPrefix 按路径段匹配，/files 不匹配 /filesystem
func hasPathPrefix(p, prefix string) bool {
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}
