// Package lock 按key互斥
//
// 结算、取消订单、修改购物车都需要"同一用户串行执行"：
// 同一个购物车只能被结算一次，同一用户的积分读-改-写不能交错。
//
// 单实例部署使用KeyedMutex（进程内），多实例部署使用Redis实现
// （见internal/infrastructure/persistence/redis/locker.go），两者实现同一个Locker接口。
package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/xiebiao/bookshop/pkg/errors"
)

// ErrLockTimeout 等待锁超时（冲突类错误，可重试）
var ErrLockTimeout = apperrors.New(apperrors.ErrCodeLockTimeout, "操作正在处理中，请稍后重试")

// Locker 按key加锁
// 返回的unlock可以重复调用，只有第一次生效
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// UserKey 用户级锁的key
func UserKey(userID uint) string {
	return fmt.Sprintf("user:%d", userID)
}

// WithWait 限制获取锁的最长等待时间,超时返回ErrLockTimeout
// 只限制等待,拿到锁之后的持有时间不受影响
func WithWait(l Locker, wait time.Duration) Locker {
	if wait <= 0 {
		return l
	}
	return &waitLimited{inner: l, wait: wait}
}

type waitLimited struct {
	inner Locker
	wait  time.Duration
}

func (w *waitLimited) Lock(ctx context.Context, key string) (func(), error) {
	ctx, cancel := context.WithTimeout(ctx, w.wait)
	defer cancel()
	return w.inner.Lock(ctx, key)
}

// KeyedMutex 进程内按key互斥，等待可被ctx取消
// 没有持有者和等待者的key会被回收，map不会无限增长
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	sem  chan struct{}
	refs int // 持有者+等待者数量
}

// NewKeyedMutex 创建进程内锁
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*entry)}
}

// Lock 获取key对应的锁
func (m *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	m.mu.Lock()
	e, ok := m.locks[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		m.locks[key] = e
	}
	e.refs++
	m.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-e.sem
				m.release(key, e)
			})
		}, nil
	case <-ctx.Done():
		m.release(key, e)
		return nil, apperrors.WithCause(ErrLockTimeout, ctx.Err())
	}
}

func (m *KeyedMutex) release(key string, e *entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(m.locks, key)
	}
}

// size 当前活跃的key数量（测试用）
func (m *KeyedMutex) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}
