package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xiebiao/bookshop/internal/domain/user"
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
)

// TokenBlacklist Redis实现的Token黑名单
// 设计说明：
// 1. JWT是无状态的，服务端无法主动让Token失效，登出时把Access Token拉黑
// 2. Key设计：blacklist:{sha256(token)}，避免把完整Token写进Redis
// 3. 过期时间 = Access Token有效期，过期后自动删除，无需手动清理
type TokenBlacklist struct {
	client redis.UniversalClient
}

// NewTokenBlacklist 创建黑名单
func NewTokenBlacklist(client redis.UniversalClient) *TokenBlacklist {
	return &TokenBlacklist{client: client}
}

var _ user.TokenBlacklist = (*TokenBlacklist)(nil)

func blacklistKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "blacklist:" + hex.EncodeToString(sum[:])
}

// Revoke 将Token加入黑名单
// 使用场景：
// 1. 用户登出
// 2. Token泄露后强制失效
func (b *TokenBlacklist) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if err := b.client.Set(ctx, blacklistKey(token), "revoked", ttl).Err(); err != nil {
		return apperrors.WithCause(apperrors.ErrRedisError, err)
	}
	return nil
}

// IsRevoked 检查Token是否在黑名单中
func (b *TokenBlacklist) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := b.client.Exists(ctx, blacklistKey(token)).Result()
	if err != nil {
		return false, apperrors.WithCause(apperrors.ErrRedisError, err)
	}
	return n > 0, nil
}
