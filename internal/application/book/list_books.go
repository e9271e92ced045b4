package book

import (
	"context"
	"strings"
	"time"

	"github.com/xiebiao/bookshop/internal/domain/book"
	"github.com/xiebiao/bookshop/pkg/money"
)

// ListBooksUseCase 图书列表查询用例
// 设计说明:
// 1. 支持分页、关键词搜索、分类和可购买过滤、排序
// 2. 列表查询不返回description字段(减少数据传输量)
// 3. 作者姓名在应用层拼装,一页内同一作者只查一次
type ListBooksUseCase struct {
	bookService book.Service
	authors     book.AuthorRepository
}

// NewListBooksUseCase 创建列表查询用例
func NewListBooksUseCase(bookService book.Service, authors book.AuthorRepository) *ListBooksUseCase {
	return &ListBooksUseCase{bookService: bookService, authors: authors}
}

// ListBooksRequest 列表查询请求DTO
type ListBooksRequest struct {
	Page          int    // 页码(从1开始)
	PageSize      int    // 每页数量
	Keyword       string // 搜索关键词(标题、ISBN、描述)
	Category      string // 分类名,空表示全部
	AvailableOnly bool
	SortBy        string // newest, title, price_asc, price_desc
}

// BookListItem 列表项DTO(不含description)
type BookListItem struct {
	ID          uint   `json:"id"`
	ISBN        string `json:"isbn"`
	Title       string `json:"title"`
	AuthorID    uint   `json:"author_id"`
	Author      string `json:"author"`
	Category    string `json:"category"`
	Price       int64  `json:"price"` // 价格(分)
	PriceYuan   string `json:"price_yuan"`
	Stock       int    `json:"stock"`
	IsAvailable bool   `json:"is_available"`
	ImageURL    string `json:"image_url"`
	CreatedAt   string `json:"created_at"`
}

// BookDetail 详情DTO
type BookDetail struct {
	BookListItem
	Description string `json:"description"`
	PublishedAt string `json:"published_at,omitempty"`
}

// ListBooksResponse 列表查询响应DTO
type ListBooksResponse struct {
	List       []BookListItem `json:"list"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalPages int            `json:"total_pages"`
}

// AuthorDTO 作者DTO
type AuthorDTO struct {
	ID          uint   `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	FullName    string `json:"full_name"`
	Biography   string `json:"biography,omitempty"`
	Nationality string `json:"nationality,omitempty"`
}

// Execute 执行列表查询用例
// 学习要点:
// 1. 参数默认值和范围由ListParams.Normalize统一处理
// 2. 分类名解析失败直接返回参数错误,而不是静默忽略
func (uc *ListBooksUseCase) Execute(ctx context.Context, req ListBooksRequest) (*ListBooksResponse, error) {
	params := book.ListParams{
		Page:          req.Page,
		PageSize:      req.PageSize,
		Keyword:       strings.TrimSpace(req.Keyword),
		AvailableOnly: req.AvailableOnly,
		SortBy:        req.SortBy,
	}
	if req.Category != "" {
		c, err := book.ParseCategory(req.Category)
		if err != nil {
			return nil, err
		}
		params.Category = c
	}
	params.Normalize()

	books, total, err := uc.bookService.ListBooks(ctx, params)
	if err != nil {
		return nil, err
	}

	names := make(map[uint]string)
	list := make([]BookListItem, len(books))
	for i, b := range books {
		list[i] = toListItem(b, uc.authorName(ctx, names, b.AuthorID))
	}

	totalPages := int(total) / params.PageSize
	if int(total)%params.PageSize != 0 {
		totalPages++
	}

	return &ListBooksResponse{
		List:       list,
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: totalPages,
	}, nil
}

// Get 图书详情
func (uc *ListBooksUseCase) Get(ctx context.Context, id uint) (*BookDetail, error) {
	b, err := uc.bookService.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}
	d := toDetail(b, uc.authorName(ctx, map[uint]string{}, b.AuthorID))
	return &d, nil
}

// GetAuthor 作者详情
func (uc *ListBooksUseCase) GetAuthor(ctx context.Context, id uint) (*AuthorDTO, error) {
	a, err := uc.bookService.GetAuthor(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := toAuthorDTO(a)
	return &dto, nil
}

// ListAuthors 作者列表,keyword按姓名模糊匹配
func (uc *ListBooksUseCase) ListAuthors(ctx context.Context, keyword string) ([]AuthorDTO, error) {
	authors, err := uc.bookService.ListAuthors(ctx, keyword)
	if err != nil {
		return nil, err
	}
	out := make([]AuthorDTO, 0, len(authors))
	for _, a := range authors {
		out = append(out, toAuthorDTO(a))
	}
	return out, nil
}

// authorName 作者已删除时显示为空
func (uc *ListBooksUseCase) authorName(ctx context.Context, cache map[uint]string, id uint) string {
	if name, ok := cache[id]; ok {
		return name
	}
	var name string
	if a, err := uc.authors.FindByID(ctx, id); err == nil {
		name = a.FullName()
	}
	cache[id] = name
	return name
}

func toListItem(b *book.Book, author string) BookListItem {
	return BookListItem{
		ID:          b.ID,
		ISBN:        b.ISBN,
		Title:       b.Title,
		AuthorID:    b.AuthorID,
		Author:      author,
		Category:    b.Category.String(),
		Price:       b.Price,
		PriceYuan:   money.Format(b.Price),
		Stock:       b.Stock,
		IsAvailable: b.IsAvailable,
		ImageURL:    b.ImageURL,
		CreatedAt:   b.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func toDetail(b *book.Book, author string) BookDetail {
	d := BookDetail{BookListItem: toListItem(b, author), Description: b.Description}
	if b.PublishedAt != nil {
		d.PublishedAt = b.PublishedAt.Format(time.DateOnly)
	}
	return d
}

func toAuthorDTO(a *book.Author) AuthorDTO {
	return AuthorDTO{
		ID:          a.ID,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		FullName:    a.FullName(),
		Biography:   a.Biography,
		Nationality: a.Nationality,
	}
}
