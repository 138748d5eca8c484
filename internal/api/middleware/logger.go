package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerOptions 请求日志配置
type LoggerOptions struct {
	// BodyLimit 与 BodyLimit 中间件一致，413 时写入日志便于排查
	BodyLimit int64
	// QuietPrefixes 下的成功请求（附件下载、健康检查、指标）降为 debug
	QuietPrefixes []string
}

// Logger 请求日志中间件（基于 Zap 结构化日志）
func Logger(logger *zap.Logger, opts LoggerOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		status := c.Writer.Status()
		level := zapcore.InfoLevel
		msg := "请求完成"
		switch {
		case status >= http.StatusInternalServerError:
			level, msg = zapcore.ErrorLevel, "请求处理失败"
		case status >= http.StatusBadRequest:
			level, msg = zapcore.WarnLevel, "客户端错误"
		case opts.quiet(path):
			level = zapcore.DebugLevel
		}

		ce := logger.Check(level, msg)
		if ce == nil {
			return
		}

		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
			zap.Int64("bytes_in", c.Request.ContentLength),
			zap.Int("bytes_out", c.Writer.Size()),
			zap.String("request_id", GetRequestID(c)),
		}
		if uid := c.GetString("user_id"); uid != "" {
			fields = append(fields, zap.String("user_id", uid))
		}
		if status == http.StatusRequestEntityTooLarge && opts.BodyLimit > 0 {
			fields = append(fields, zap.Int64("body_limit", opts.BodyLimit))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.ByType(gin.ErrorTypePrivate).String()))
		}

		ce.Write(fields...)
	}
}

func (o LoggerOptions) quiet(path string) bool {
	for _, p := range o.QuietPrefixes {
		if p != "" && hasPathPrefix(path, p) {
			return true
		}
	}
	return false
}
