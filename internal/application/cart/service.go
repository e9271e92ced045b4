package cart

import (
	"context"

	"github.com/xiebiao/bookshop/internal/domain/book"
	"github.com/xiebiao/bookshop/internal/domain/cart"
	"github.com/xiebiao/bookshop/pkg/lock"
	"github.com/xiebiao/bookshop/pkg/logger"
	"github.com/xiebiao/bookshop/pkg/money"
)

// Service 购物车用例
// 设计说明:
// 1. 每次修改都持有与结算相同的用户锁,结算过程中购物车不会被改动
// 2. 加入和改数量时检查图书是否可供应,但这不保证结算时仍然可供应
//    (结算会再校验一次,并发抢占时返回StockConflict)
type Service struct {
	carts  cart.Store
	books  book.Repository
	locker lock.Locker
}

// NewService 创建购物车用例
func NewService(carts cart.Store, books book.Repository, locker lock.Locker) *Service {
	return &Service{carts: carts, books: books, locker: locker}
}

// ItemView 购物车条目DTO
type ItemView struct {
	BookID       uint   `json:"book_id"`
	Title        string `json:"title"`
	UnitPrice    int64  `json:"unit_price"`
	UnitPriceStr string `json:"unit_price_str"`
	Quantity     int    `json:"quantity"`
	Subtotal     int64  `json:"subtotal"`
}

// View 购物车DTO
type View struct {
	Items     []ItemView `json:"items"`
	ItemCount int        `json:"item_count"`
	Total     int64      `json:"total"`
	TotalStr  string     `json:"total_str"`
}

// ValidateResult 校验结果,Removed是被移除的条目
type ValidateResult struct {
	Cart    *View      `json:"cart"`
	Removed []ItemView `json:"removed"`
}

// Get 查看购物车
func (s *Service) Get(ctx context.Context, userID uint) (*View, error) {
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toView(c), nil
}

// Add 加入购物车
// 已有的行累加数量,累加后的数量也必须可供应
func (s *Service) Add(ctx context.Context, userID, bookID uint, qty int) (*View, error) {
	if qty < 1 {
		return nil, cart.ErrInvalidQuantity
	}
	return s.mutate(ctx, userID, func(c *cart.Cart) error {
		b, err := s.books.FindByID(ctx, bookID)
		if err != nil {
			return err
		}
		want := qty
		if existing, ok := c.Find(bookID); ok {
			want += existing.Quantity
		}
		if !b.CanSupply(want) {
			return book.ErrInsufficientStock
		}
		return c.Add(b, qty)
	})
}

// UpdateQuantity 修改数量,qty<=0时移除
func (s *Service) UpdateQuantity(ctx context.Context, userID, bookID uint, qty int) (*View, error) {
	return s.mutate(ctx, userID, func(c *cart.Cart) error {
		if qty > 0 {
			ok, err := s.books.IsAvailable(ctx, bookID, qty)
			if err != nil {
				return err
			}
			if !ok {
				return book.ErrInsufficientStock
			}
		}
		return c.UpdateQuantity(bookID, qty)
	})
}

// Remove 移除一行
func (s *Service) Remove(ctx context.Context, userID, bookID uint) (*View, error) {
	return s.mutate(ctx, userID, func(c *cart.Cart) error {
		return c.Remove(bookID)
	})
}

// Clear 清空购物车
func (s *Service) Clear(ctx context.Context, userID uint) error {
	unlock, err := s.locker.Lock(ctx, lock.UserKey(userID))
	if err != nil {
		return err
	}
	defer unlock()
	return s.carts.Clear(ctx, userID)
}

// Validate 移除目录已无法供应的行,返回被移除的行
func (s *Service) Validate(ctx context.Context, userID uint) (*ValidateResult, error) {
	var removed []ItemView
	view, err := s.mutate(ctx, userID, func(c *cart.Cart) error {
		for _, it := range append([]cart.Item(nil), c.Items...) {
			ok, err := s.books.IsAvailable(ctx, it.BookID, it.Quantity)
			if err != nil {
				return err
			}
			if ok {
				continue
			}
			if err := c.Remove(it.BookID); err != nil {
				return err
			}
			removed = append(removed, toItemView(it))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(removed) > 0 {
		logger.Ctx(ctx).Info().Uint("user_id", userID).Int("removed", len(removed)).Msg("购物车已移除不可购买的图书")
	}
	return &ValidateResult{Cart: view, Removed: removed}, nil
}

// mutate 加用户锁,读取-修改-保存
func (s *Service) mutate(ctx context.Context, userID uint, fn func(c *cart.Cart) error) (*View, error) {
	unlock, err := s.locker.Lock(ctx, lock.UserKey(userID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, err
	}
	return toView(c), nil
}

func toItemView(it cart.Item) ItemView {
	return ItemView{
		BookID:       it.BookID,
		Title:        it.Title,
		UnitPrice:    it.UnitPrice,
		UnitPriceStr: money.Format(it.UnitPrice),
		Quantity:     it.Quantity,
		Subtotal:     it.Subtotal(),
	}
}

func toView(c *cart.Cart) *View {
	v := &View{
		Items:     make([]ItemView, 0, len(c.Items)),
		ItemCount: c.ItemCount(),
		Total:     c.Total(),
		TotalStr:  money.Format(c.Total()),
	}
	for _, it := range c.Items {
		v.Items = append(v.Items, toItemView(it))
	}
	return v
}
