package user

import (
	"context"
	"time"
)

// TokenBlacklist Token黑名单
// JWT是无状态的,登出后需要把未过期的Access Token拉黑
// 过期时间与Access Token有效期一致,过期后自动清除
type TokenBlacklist interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}
