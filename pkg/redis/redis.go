package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"gradff/backend/config"
	apperrors "gradff/backend/pkg/errors"
)

const pingTimeout = 5 * time.Second

// Client 登出 Token 黑名单的 Redis 存储，满足 service.TokenBlacklist 与 middleware.TokenChecker
type Client struct {
	rdb    goredis.UniversalClient
	prefix string
	logger *zap.Logger
}

// NewClient 连接 Redis 并 Ping 一次；失败时由调用方决定是否降级
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	opts, err := options(cfg)
	if err != nil {
		return nil, err
	}
	rdb := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", opts.Addr), zap.Int("db", opts.DB))
	return newClient(rdb, cfg.KeyPrefix, logger), nil
}

func newClient(rdb goredis.UniversalClient, prefix string, logger *zap.Logger) *Client {
	return &Client{rdb: rdb, prefix: prefix, logger: logger.Named("redis")}
}

// options 支持 host:port 与 redis:// URL 两种写法；URL 中未给出的密码沿用配置项
func options(cfg *config.RedisConfig) (*goredis.Options, error) {
	if !strings.Contains(cfg.Addr, "://") {
		return &goredis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}, nil
	}
	opts, err := goredis.ParseURL(cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("Redis 地址无效: %w", err)
	}
	if opts.Password == "" {
		opts.Password = cfg.Password
	}
	return opts, nil
}

// ── Token 黑名单 ──

func (c *Client) blacklistKey(jti string) string {
	return c.prefix + "token:revoked:" + jti
}

// BlacklistToken 记录已注销的 JWT ID，TTL 与 Token 剩余有效期一致
func (c *Client) BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := c.rdb.Set(ctx, c.blacklistKey(jti), "1", ttl).Err(); err != nil {
		return apperrors.Transport("redis.blacklist", err)
	}
	return nil
}

// IsBlacklisted 检查 JWT ID 是否已注销
func (c *Client) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := c.rdb.Exists(ctx, c.blacklistKey(jti)).Result()
	if err != nil {
		return false, apperrors.Transport("redis.is_blacklisted", err)
	}
	return n > 0, nil
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	if err := c.rdb.Close(); err != nil {
		c.logger.Warn("关闭 Redis 连接失败", zap.Error(err))
		return err
	}
	return nil
}
