// Package cart 购物车领域模型
//
// 教学要点:
// 1. 购物车以用户为键,每个用户一个,首次访问时为空
// 2. 加入购物车时快照当前价格和书名,之后与目录解耦(改价不影响已加入的条目)
// 3. 同一本书在购物车中只有一行,重复加入时合并数量
package cart

import (
	"context"
	"time"

	"github.com/xiebiao/bookshop/internal/domain/book"
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
)

var (
	// ErrEmptyCart 购物车为空
	ErrEmptyCart = apperrors.New(apperrors.ErrCodeEmptyCart, "购物车为空")

	// ErrItemNotFound 购物车中没有这本书
	ErrItemNotFound = apperrors.New(apperrors.ErrCodeCartItemNotFound, "购物车中没有该图书")

	// ErrInvalidQuantity 数量必须大于0
	ErrInvalidQuantity = apperrors.New(apperrors.ErrCodeInvalidParams, "数量必须大于0")
)

// Item 购物车条目
type Item struct {
	BookID    uint
	Title     string // 快照
	UnitPrice int64  // 快照(分)
	Quantity  int
	AddedAt   time.Time
}

// Subtotal 小计
func (i Item) Subtotal() int64 {
	return i.UnitPrice * int64(i.Quantity)
}

// Cart 购物车
type Cart struct {
	UserID    uint
	Items     []Item
	UpdatedAt time.Time
}

// New 创建空购物车
func New(userID uint) *Cart {
	return &Cart{UserID: userID}
}

// Add 加入购物车
// 已有这本书时数量累加(价格保持第一次加入时的快照),否则按当前价格新建一行
func (c *Cart) Add(b *book.Book, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	now := time.Now()
	if i := c.indexOf(b.ID); i >= 0 {
		c.Items[i].Quantity += qty
	} else {
		c.Items = append(c.Items, Item{
			BookID:    b.ID,
			Title:     b.Title,
			UnitPrice: b.Price,
			Quantity:  qty,
			AddedAt:   now,
		})
	}
	c.UpdatedAt = now
	return nil
}

// UpdateQuantity 设置数量,qty<=0时删除该行
func (c *Cart) UpdateQuantity(bookID uint, qty int) error {
	i := c.indexOf(bookID)
	if i < 0 {
		return ErrItemNotFound
	}
	if qty <= 0 {
		c.removeAt(i)
	} else {
		c.Items[i].Quantity = qty
	}
	c.UpdatedAt = time.Now()
	return nil
}

// Remove 删除一行
func (c *Cart) Remove(bookID uint) error {
	i := c.indexOf(bookID)
	if i < 0 {
		return ErrItemNotFound
	}
	c.removeAt(i)
	c.UpdatedAt = time.Now()
	return nil
}

// Clear 清空
func (c *Cart) Clear() {
	c.Items = nil
	c.UpdatedAt = time.Now()
}

// Total 总金额 = Σ 单价×数量
func (c *Cart) Total() int64 {
	var total int64
	for _, it := range c.Items {
		total += it.Subtotal()
	}
	return total
}

// ItemCount 商品总件数(数量之和)
func (c *Cart) ItemCount() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// IsEmpty 购物车是否为空
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Find 查找某本书的条目
func (c *Cart) Find(bookID uint) (Item, bool) {
	if i := c.indexOf(bookID); i >= 0 {
		return c.Items[i], true
	}
	return Item{}, false
}

// Clone 深拷贝,存储层存取时使用
func (c *Cart) Clone() *Cart {
	cp := &Cart{UserID: c.UserID, UpdatedAt: c.UpdatedAt}
	if len(c.Items) > 0 {
		cp.Items = make([]Item, len(c.Items))
		copy(cp.Items, c.Items)
	}
	return cp
}

func (c *Cart) indexOf(bookID uint) int {
	for i, it := range c.Items {
		if it.BookID == bookID {
			return i
		}
	}
	return -1
}

func (c *Cart) removeAt(i int) {
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
}

// Store 购物车存储
// 实现:memory(进程内) / redis(hash,多实例共享)
type Store interface {
	// Get 获取购物车,不存在时返回空购物车(不报错)
	Get(ctx context.Context, userID uint) (*Cart, error)

	// Save 整体保存
	Save(ctx context.Context, c *Cart) error

	// Clear 清空
	Clear(ctx context.Context, userID uint) error
}
