package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/xiebiao/bookshop/internal/domain/order"
	"github.com/xiebiao/bookshop/internal/domain/user"
)

// TokenBlacklist 进程内Token黑名单,cache.driver=memory时使用
type TokenBlacklist struct {
	mu     sync.Mutex
	tokens map[string]time.Time // token → 过期时间
	now    func() time.Time
}

// NewTokenBlacklist 创建黑名单
func NewTokenBlacklist() *TokenBlacklist {
	return &TokenBlacklist{tokens: make(map[string]time.Time), now: time.Now}
}

var _ user.TokenBlacklist = (*TokenBlacklist)(nil)

func (b *TokenBlacklist) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	// 顺手清理已过期的条目
	for t, exp := range b.tokens {
		if !exp.After(now) {
			delete(b.tokens, t)
		}
	}
	b.tokens[token] = now.Add(ttl)
	return nil
}

func (b *TokenBlacklist) IsRevoked(ctx context.Context, token string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	exp, ok := b.tokens[token]
	return ok && exp.After(b.now()), nil
}

// IdempotencyStore 进程内幂等键存储
type IdempotencyStore struct {
	mu   sync.Mutex
	keys map[string]uint
}

// NewIdempotencyStore 创建幂等键存储
func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{keys: make(map[string]uint)}
}

var _ order.IdempotencyStore = (*IdempotencyStore)(nil)

func idemKey(userID uint, key string) string {
	return fmt.Sprintf("%d:%s", userID, key)
}

func (s *IdempotencyStore) Lookup(ctx context.Context, userID uint, key string) (uint, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.keys[idemKey(userID, key)]
	return id, ok, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, userID uint, key string, orderID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[idemKey(userID, key)] = orderID
	return nil
}
