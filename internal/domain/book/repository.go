package book

import (
	"context"
)

// Repository 图书仓储接口(依赖倒置原则)
// 设计说明:
// 1. 由domain层定义接口,infrastructure层实现(memory/mysql)
// 2. 读操作返回副本,库存只能通过AdjustStock修改
type Repository interface {
	// Create 创建图书,ISBN重复返回ErrISBNDuplicate
	Create(ctx context.Context, book *Book) error

	// FindByID 根据ID查找图书,不存在返回ErrBookNotFound
	FindByID(ctx context.Context, id uint) (*Book, error)

	// FindByISBN 根据ISBN查找图书
	FindByISBN(ctx context.Context, isbn string) (*Book, error)

	// Update 更新图书信息(不含库存)
	Update(ctx context.Context, book *Book) error

	// Delete 删除图书
	Delete(ctx context.Context, id uint) error

	// List 分页查询图书列表
	List(ctx context.Context, params ListParams) ([]*Book, int64, error)

	// Count 图书总数
	Count(ctx context.Context) (int64, error)

	// CountByAuthor 某作者名下的图书数量
	CountByAuthor(ctx context.Context, authorID uint) (int64, error)

	// IsAvailable 图书存在、已上架且库存>=qty
	IsAvailable(ctx context.Context, id uint, qty int) (bool, error)

	// AdjustStock 原子调整库存
	// delta为正数表示增加,负数表示减少
	// 调整后库存<0返回ErrInsufficientStock,图书不存在返回ErrBookNotFound,均不做修改
	AdjustStock(ctx context.Context, id uint, delta int) error
}

// AuthorRepository 作者仓储接口
type AuthorRepository interface {
	Create(ctx context.Context, author *Author) error
	// FindByID 不存在返回ErrAuthorNotFound
	FindByID(ctx context.Context, id uint) (*Author, error)
	Update(ctx context.Context, author *Author) error
	Delete(ctx context.Context, id uint) error
	// List keyword为空返回全部,否则按姓名模糊匹配(不区分大小写)
	List(ctx context.Context, keyword string) ([]*Author, error)
}

// 排序方式
const (
	SortNewest    = "newest"
	SortTitle     = "title"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
)

// ListParams 列表查询参数
type ListParams struct {
	Page          int      // 页码(从1开始)
	PageSize      int      // 每页数量
	Keyword       string   // 搜索关键词(标题、ISBN、描述)
	Category      Category // 0表示全部
	AvailableOnly bool     // 只看可购买的
	SortBy        string
}

// Normalize 修正非法分页参数
func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 || p.PageSize > 100 {
		p.PageSize = 20
	}
}

// Offset 分页偏移量
func (p ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}
