package book

import (
	"strings"
	"time"
)

// Category 图书分类
type Category int

const (
	CategoryFiction Category = iota + 1
	CategoryNonFiction
	CategoryScience
	CategoryTechnology
	CategoryHistory
	CategoryBiography
	CategoryMystery
	CategoryRomance
	CategoryFantasy
	CategoryChildren
	CategoryPoetry
	CategoryArt
)

var categoryNames = map[Category]string{
	CategoryFiction:    "Fiction",
	CategoryNonFiction: "Non-Fiction",
	CategoryScience:    "Science",
	CategoryTechnology: "Technology",
	CategoryHistory:    "History",
	CategoryBiography:  "Biography",
	CategoryMystery:    "Mystery",
	CategoryRomance:    "Romance",
	CategoryFantasy:    "Fantasy",
	CategoryChildren:   "Children",
	CategoryPoetry:     "Poetry",
	CategoryArt:        "Art",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "Unknown"
}

// Valid 是否为已定义的分类
func (c Category) Valid() bool {
	_, ok := categoryNames[c]
	return ok
}

// ParseCategory 按名称解析分类（大小写不敏感）
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for c, name := range categoryNames {
		if strings.EqualFold(name, s) {
			return c, nil
		}
	}
	return 0, ErrInvalidCategory
}

// Book 图书实体(聚合根)
// DDD设计说明:
// 1. 价格使用int64存储"分"为单位(避免浮点数精度问题)
// 2. 可购买 ⇔ IsAvailable && Stock > 0
// 3. 库存只能通过Repository.AdjustStock原子修改(结算扣减、取消回补、补货)
type Book struct {
	ID          uint
	ISBN        string // 可选,填写时必须唯一
	Title       string
	AuthorID    uint
	Category    Category
	Price       int64 // 价格(单位:分,1元=100分)
	Stock       int
	IsAvailable bool // 下架开关,下架后即使有库存也不可购买
	Description string
	ImageURL    string
	PublishedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewBook 创建新图书(工厂方法),默认上架
func NewBook(title string, authorID uint, category Category, price int64, stock int) *Book {
	now := time.Now()
	return &Book{
		Title:       title,
		AuthorID:    authorID,
		Category:    category,
		Price:       price,
		Stock:       stock,
		IsAvailable: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Purchasable 当前是否可以购买
func (b *Book) Purchasable() bool {
	return b.IsAvailable && b.Stock > 0
}

// CanSupply 是否能供应qty本
func (b *Book) CanSupply(qty int) bool {
	return qty > 0 && b.IsAvailable && b.Stock >= qty
}

// UpdatePrice 更新价格(领域行为)
// 已下单的订单保存的是价格快照,不受影响
func (b *Book) UpdatePrice(newPrice int64) error {
	if newPrice < MinPrice || newPrice > MaxPrice {
		return ErrInvalidPrice
	}
	b.Price = newPrice
	b.UpdatedAt = time.Now()
	return nil
}

// SetAvailable 上架/下架
func (b *Book) SetAvailable(available bool) {
	b.IsAvailable = available
	b.UpdatedAt = time.Now()
}

// Clone 返回副本,存储层返回副本防止调用方绕过AdjustStock直接改库存
func (b *Book) Clone() *Book {
	cp := *b
	if b.PublishedAt != nil {
		t := *b.PublishedAt
		cp.PublishedAt = &t
	}
	return &cp
}

// Author 作者
type Author struct {
	ID          uint
	FirstName   string
	LastName    string
	Biography   string
	Nationality string
	CreatedAt   time.Time
}

// FullName 作者全名
func (a *Author) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}
