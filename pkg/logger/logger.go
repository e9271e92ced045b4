// Package logger 基于zerolog的结构化日志
//
// 教学要点：
// - 全局logger（github.com/rs/zerolog/log）在main中初始化一次
// - 请求级字段（request_id、trace_id）通过Context传递，业务代码使用logger.Ctx(ctx)
// - 开发环境用console格式便于阅读，生产环境用json格式便于采集
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config 日志配置
type Config struct {
	Level        string // debug | info | warn | error
	Format       string // console | json
	Output       string // stdout | stderr | /path/to/file
	EnableCaller bool
}

type ctxKey struct{}

// Init 初始化全局logger
// 返回的closer用于关闭日志文件（输出到stdout/stderr时为空操作）
func Init(cfg Config) (func() error, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	var (
		w      io.Writer
		closer = func() error { return nil }
	)
	switch cfg.Output {
	case "", "stdout":
		w = os.Stdout
	case "stderr":
		w = os.Stderr
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		w = f
		closer = f.Close
	}

	if cfg.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "2006-01-02 15:04:05"}
	}

	ctx := zerolog.New(w).With().Timestamp()
	if cfg.EnableCaller {
		ctx = ctx.Caller()
	}
	log.Logger = ctx.Logger()

	return closer, nil
}

// WithRequestID 将request_id写入Context携带的logger
func WithRequestID(ctx context.Context, requestID string) context.Context {
	l := Ctx(ctx).With().Str("request_id", requestID).Logger()
	return context.WithValue(ctx, ctxKey{}, &l)
}

// WithFields 在Context的logger上追加字段
func WithFields(ctx context.Context, fields map[string]interface{}) context.Context {
	l := Ctx(ctx).With().Fields(fields).Logger()
	return context.WithValue(ctx, ctxKey{}, &l)
}

// Ctx 获取Context中的logger，没有则返回全局logger
func Ctx(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*zerolog.Logger); ok {
			return l
		}
	}
	return &log.Logger
}
