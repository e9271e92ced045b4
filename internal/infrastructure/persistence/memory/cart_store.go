package memory

import (
	"context"
	"sync"
	"time"

	"github.com/xiebiao/bookshop/internal/domain/cart"
)

// CartStore 购物车存储
type CartStore struct {
	mu    sync.Mutex
	carts map[uint]*cart.Cart
}

// NewCartStore 创建购物车存储
func NewCartStore() *CartStore {
	return &CartStore{carts: make(map[uint]*cart.Cart)}
}

var _ cart.Store = (*CartStore)(nil)

// Get 没有时返回空购物车
func (s *CartStore) Get(ctx context.Context, userID uint) (*cart.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[userID]
	if !ok {
		return cart.New(userID), nil
	}
	return c.Clone(), nil
}

func (s *CartStore) Save(ctx context.Context, c *cart.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.IsEmpty() {
		delete(s.carts, c.UserID)
		return nil
	}
	cp := c.Clone()
	cp.UpdatedAt = time.Now()
	s.carts[c.UserID] = cp
	return nil
}

func (s *CartStore) Clear(ctx context.Context, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, userID)
	return nil
}
