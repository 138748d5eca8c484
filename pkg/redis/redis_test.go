package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gradff/backend/config"
	apperrors "gradff/backend/pkg/errors"
)

func TestOptions(t *testing.T) {
	opts, err := options(&config.RedisConfig{Addr: "cache:6379", Password: "pw", DB: 2})
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 2, opts.DB)

	opts, err = options(&config.RedisConfig{Addr: "redis://cache:6380/3", Password: "fallback"})
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 3, opts.DB)
	assert.Equal(t, "fallback", opts.Password)

	_, err = options(&config.RedisConfig{Addr: "http://cache:6379"})
	assert.Error(t, err)
}

// unreachable 指向无人监听的端口，命令立即失败
func unreachable() *Client {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	return newClient(rdb, "gradff:", zap.NewNop())
}

func TestBlacklist_ErrorsAreTransport(t *testing.T) {
	c := unreachable()
	defer c.Close()
	ctx := context.Background()

	err := c.BlacklistToken(ctx, "jti-1", time.Minute)
	assert.True(t, errors.Is(err, apperrors.ErrTransport), "期望传输错误，实际 %v", err)

	_, err = c.IsBlacklisted(ctx, "jti-1")
	assert.True(t, errors.Is(err, apperrors.ErrTransport), "期望传输错误，实际 %v", err)
}

func TestBlacklist_ExpiredTokenSkipsRedis(t *testing.T) {
	c := unreachable()
	defer c.Close()

	assert.NoError(t, c.BlacklistToken(context.Background(), "jti-1", 0))
}

func TestBlacklistKey(t *testing.T) {
	c := newClient(nil, "gradff:", zap.NewNop())
	assert.Equal(t, "gradff:token:revoked:abc", c.blacklistKey("abc"))
}
