package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/xiebiao/bookshop/pkg/logger"
	"github.com/xiebiao/bookshop/pkg/tracing"
)

// RequestIDHeader 请求ID响应头
const RequestIDHeader = "X-Request-ID"

// Logger 请求日志中间件
//
// 教学要点：
// 1. 记录每个请求的基本信息（方法、路径、耗时、状态码）
// 2. 生成唯一的请求ID，客户端传了X-Request-ID时沿用，便于串联上下游
// 3. 请求ID写入Context里的logger，业务代码用logger.Ctx(ctx)打出的日志都带request_id
// 4. 超过slow的请求记warn
//
// DON'T：
// - 记录敏感信息（密码、Token）
// - 记录完整的请求体
func Logger(slow time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header(RequestIDHeader, requestID)

		ctx := logger.WithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		status := c.Writer.Status()
		var ev *zerolog.Event
		switch {
		case status >= 500:
			ev = logger.Ctx(c.Request.Context()).Error()
		case slow > 0 && latency > slow:
			ev = logger.Ctx(c.Request.Context()).Warn().Bool("slow", true)
		default:
			ev = logger.Ctx(c.Request.Context()).Info()
		}
		if traceID := tracing.ExtractTraceID(c.Request.Context()); traceID != "" {
			ev = ev.Str("trace_id", traceID)
		}
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP请求")
	}
}
