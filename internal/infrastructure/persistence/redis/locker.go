package redis

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	apperrors "github.com/xiebiao/bookshop/pkg/errors"
	"github.com/xiebiao/bookshop/pkg/lock"
	"github.com/xiebiao/bookshop/pkg/logger"
)

// unlockScript 只删除自己持有的锁
// 锁过期后可能已被其他实例获取，直接DEL会误删别人的锁
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var errLockHeld = errors.New("lock held by another owner")

// Locker 基于Redis的分布式锁（多实例部署时替代进程内KeyedMutex）
// 教学要点:
// 1. SET key token NX PX ttl 原子地"不存在才写入并设置过期"
// 2. token用UUID区分持有者，释放时用Lua脚本比较后再删除
// 3. 获取失败按指数退避重试，直到ctx取消
// 4. ttl必须大于一次结算的最长耗时(Saga超时)，否则锁可能在持有期间过期
type Locker struct {
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
}

// NewLocker 创建分布式锁
func NewLocker(client redis.UniversalClient, ttl time.Duration) *Locker {
	return &Locker{client: client, ttl: ttl, prefix: "lock:"}
}

var _ lock.Locker = (*Locker)(nil)

// Lock 获取锁
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := l.prefix + key
	token := uuid.NewString()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 5 * time.Millisecond
	bo.MaxInterval = 100 * time.Millisecond
	bo.MaxElapsedTime = 0 // 由ctx决定最长等待

	op := func() error {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return backoff.Permanent(apperrors.WithCause(apperrors.ErrRedisError, err))
		}
		if !ok {
			return errLockHeld
		}
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		if ctx.Err() != nil {
			return nil, apperrors.WithCause(lock.ErrLockTimeout, ctx.Err())
		}
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// 释放不受调用方ctx影响
			if err := unlockScript.Run(context.Background(), l.client, []string{redisKey}, token).Err(); err != nil {
				logger.Ctx(ctx).Warn().Err(err).Str("key", redisKey).Msg("释放分布式锁失败，等待过期")
			}
		})
	}, nil
}
