// Package retry 指数退避重试，仅用于启动阶段的基础设施连接（数据库）。
// 业务操作（申请 / 学期 / 协调员的读写）不做重试。
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"strings"
	"time"
)

// Config 重试策略
type Config struct {
	MaxAttempts  int           // 含首次尝试
	InitialDelay time.Duration // 首次重试前的等待
	MaxDelay     time.Duration // 单次等待上限
	Multiplier   float64
	// Retryable 错误信息包含任一片段时才重试；为空时所有错误均重试
	Retryable []string
}

// DatabaseConfig 数据库连接的默认重试策略
func DatabaseConfig() Config {
	return Config{
		MaxAttempts:  5,
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		Retryable: []string{
			"connection refused",
			"connection reset",
			"i/o timeout",
			"too many connections",
			"the database system is starting up",
			"no such host",
			"dial tcp",
		},
	}
}

var errInvalidAttempts = errors.New("retry: MaxAttempts 必须大于 0")

// Do 带重试地执行 fn
func Do(ctx context.Context, cfg Config, fn func() error) error {
	_, err := DoWithResult(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// DoWithResult 带重试地执行 fn 并返回其结果
func DoWithResult[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	var zero T
	if cfg.MaxAttempts <= 0 {
		return zero, errInvalidAttempts
	}

	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !IsRetryable(err, cfg) || attempt == cfg.MaxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(jitter(backoff(attempt, cfg))):
		}
	}

	return zero, lastErr
}

// backoff initialDelay * multiplier^attempt，封顶 MaxDelay
func backoff(attempt int, cfg Config) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	delay := float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(attempt))
	if delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	return time.Duration(delay)
}

// jitter ±10%
func jitter(delay time.Duration) time.Duration {
	//nolint:gosec // 抖动不需要密码学随机数
	j := float64(delay) * 0.1 * (rand.Float64()*2 - 1)
	return delay + time.Duration(j)
}

// IsRetryable 判断错误是否应触发重试
func IsRetryable(err error, cfg Config) bool {
	if err == nil {
		return false
	}
	if len(cfg.Retryable) == 0 {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range cfg.Retryable {
		if strings.Contains(msg, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}
