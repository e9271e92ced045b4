package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xiebiao/bookshop/internal/domain/cart"
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
)

// CartStore Redis实现的购物车存储
// 设计说明：
// 1. Key设计：cart:{user_id}，值为整车JSON（保留条目加入顺序）
// 2. 每次保存刷新过期时间，长期不访问的购物车自动清除
// 3. 并发修改由用户锁串行化，这里不做乐观锁
type CartStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewCartStore 创建购物车存储，ttl<=0表示永不过期
func NewCartStore(client redis.UniversalClient, ttl time.Duration) *CartStore {
	if ttl < 0 {
		ttl = 0
	}
	return &CartStore{client: client, ttl: ttl}
}

var _ cart.Store = (*CartStore)(nil)

type cartItemRecord struct {
	BookID    uint      `json:"book_id"`
	Title     string    `json:"title"`
	UnitPrice int64     `json:"unit_price"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"added_at"`
}

type cartRecord struct {
	Items     []cartItemRecord `json:"items"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func cartKey(userID uint) string {
	return fmt.Sprintf("cart:%d", userID)
}

// Get 没有购物车时返回空购物车
func (s *CartStore) Get(ctx context.Context, userID uint) (*cart.Cart, error) {
	raw, err := s.client.Get(ctx, cartKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return cart.New(userID), nil
	}
	if err != nil {
		return nil, apperrors.WithCause(apperrors.ErrRedisError, err)
	}

	var rec cartRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, apperrors.Wrap(err, "购物车数据损坏")
	}
	c := cart.New(userID)
	c.UpdatedAt = rec.UpdatedAt
	for _, it := range rec.Items {
		c.Items = append(c.Items, cart.Item{
			BookID:    it.BookID,
			Title:     it.Title,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			AddedAt:   it.AddedAt,
		})
	}
	return c, nil
}

// Save 空购物车直接删除key
func (s *CartStore) Save(ctx context.Context, c *cart.Cart) error {
	if c.IsEmpty() {
		return s.Clear(ctx, c.UserID)
	}
	rec := cartRecord{UpdatedAt: c.UpdatedAt, Items: make([]cartItemRecord, 0, len(c.Items))}
	for _, it := range c.Items {
		rec.Items = append(rec.Items, cartItemRecord{
			BookID:    it.BookID,
			Title:     it.Title,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			AddedAt:   it.AddedAt,
		})
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return apperrors.Wrap(err, "序列化购物车失败")
	}
	if err := s.client.Set(ctx, cartKey(c.UserID), raw, s.ttl).Err(); err != nil {
		return apperrors.WithCause(apperrors.ErrRedisError, err)
	}
	return nil
}

// Clear 清空购物车
func (s *CartStore) Clear(ctx context.Context, userID uint) error {
	if err := s.client.Del(ctx, cartKey(userID)).Err(); err != nil {
		return apperrors.WithCause(apperrors.ErrRedisError, err)
	}
	return nil
}
