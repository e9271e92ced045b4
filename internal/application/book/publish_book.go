package book

import (
	"context"
	"time"

	"github.com/xiebiao/bookshop/internal/domain/access"
	"github.com/xiebiao/bookshop/internal/domain/book"
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
	"github.com/xiebiao/bookshop/pkg/logger"
	"github.com/xiebiao/bookshop/pkg/money"
)

// ManageCatalogUseCase 图书目录维护用例(馆员及以上)
// 设计说明:
// 1. 应用层负责权限校验和输入转换(元 → 分、分类名 → 枚举)
// 2. 业务规则校验由领域服务负责(价格范围、ISBN格式、作者存在等)
type ManageCatalogUseCase struct {
	bookService book.Service
}

// NewManageCatalogUseCase 创建目录维护用例
func NewManageCatalogUseCase(bookService book.Service) *ManageCatalogUseCase {
	return &ManageCatalogUseCase{bookService: bookService}
}

// BookRequest 新建/修改图书请求DTO
type BookRequest struct {
	ISBN        string
	Title       string
	AuthorID    uint
	Category    string // 分类名
	Price       string // 元,如"15.99"
	Stock       int    // 只在新建时生效
	IsAvailable *bool  // 空表示上架
	Description string
	ImageURL    string
	PublishedAt string // 2006-01-02
}

// AuthorRequest 新建作者请求DTO
type AuthorRequest struct {
	FirstName   string
	LastName    string
	Biography   string
	Nationality string
}

// Publish 新建图书
func (uc *ManageCatalogUseCase) Publish(ctx context.Context, caller access.Caller, req BookRequest) (*BookDetail, error) {
	if !caller.CanManageCatalog() {
		return nil, apperrors.ErrForbidden
	}
	d, err := toDraft(req)
	if err != nil {
		return nil, err
	}
	b, err := uc.bookService.PublishBook(ctx, d)
	if err != nil {
		return nil, err
	}
	logger.Ctx(ctx).Info().Uint("book_id", b.ID).Uint("operator", caller.UserID).Str("title", b.Title).Msg("图书已上架")
	detail := toDetail(b, "")
	return &detail, nil
}

// Update 修改图书信息
func (uc *ManageCatalogUseCase) Update(ctx context.Context, caller access.Caller, id uint, req BookRequest) (*BookDetail, error) {
	if !caller.CanManageCatalog() {
		return nil, apperrors.ErrForbidden
	}
	d, err := toDraft(req)
	if err != nil {
		return nil, err
	}
	b, err := uc.bookService.UpdateBook(ctx, id, d)
	if err != nil {
		return nil, err
	}
	detail := toDetail(b, "")
	return &detail, nil
}

// Restock 补货
func (uc *ManageCatalogUseCase) Restock(ctx context.Context, caller access.Caller, id uint, qty int) (*BookDetail, error) {
	if !caller.CanManageCatalog() {
		return nil, apperrors.ErrForbidden
	}
	b, err := uc.bookService.Restock(ctx, id, qty)
	if err != nil {
		return nil, err
	}
	logger.Ctx(ctx).Info().Uint("book_id", id).Int("qty", qty).Int("stock", b.Stock).Msg("图书补货")
	detail := toDetail(b, "")
	return &detail, nil
}

// Delete 删除图书
func (uc *ManageCatalogUseCase) Delete(ctx context.Context, caller access.Caller, id uint) error {
	if !caller.CanManageCatalog() {
		return apperrors.ErrForbidden
	}
	if err := uc.bookService.DeleteBook(ctx, id); err != nil {
		return err
	}
	logger.Ctx(ctx).Info().Uint("book_id", id).Uint("operator", caller.UserID).Msg("图书已删除")
	return nil
}

// CreateAuthor 新建作者
func (uc *ManageCatalogUseCase) CreateAuthor(ctx context.Context, caller access.Caller, req AuthorRequest) (*AuthorDTO, error) {
	if !caller.CanManageCatalog() {
		return nil, apperrors.ErrForbidden
	}
	a := &book.Author{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Biography:   req.Biography,
		Nationality: req.Nationality,
	}
	if err := uc.bookService.CreateAuthor(ctx, a); err != nil {
		return nil, err
	}
	dto := toAuthorDTO(a)
	return &dto, nil
}

// UpdateAuthor 修改作者信息
func (uc *ManageCatalogUseCase) UpdateAuthor(ctx context.Context, caller access.Caller, id uint, req AuthorRequest) (*AuthorDTO, error) {
	if !caller.CanManageCatalog() {
		return nil, apperrors.ErrForbidden
	}
	a := &book.Author{
		ID:          id,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Biography:   req.Biography,
		Nationality: req.Nationality,
	}
	if err := uc.bookService.UpdateAuthor(ctx, a); err != nil {
		return nil, err
	}
	dto := toAuthorDTO(a)
	return &dto, nil
}

// DeleteAuthor 删除作者,名下还有图书时拒绝
func (uc *ManageCatalogUseCase) DeleteAuthor(ctx context.Context, caller access.Caller, id uint) error {
	if !caller.CanManageCatalog() {
		return apperrors.ErrForbidden
	}
	if err := uc.bookService.DeleteAuthor(ctx, id); err != nil {
		return err
	}
	logger.Ctx(ctx).Info().Uint("author_id", id).Uint("operator", caller.UserID).Msg("作者已删除")
	return nil
}

func toDraft(req BookRequest) (book.Draft, error) {
	price, err := money.Parse(req.Price)
	if err != nil {
		return book.Draft{}, apperrors.WithCause(book.ErrInvalidPrice, err)
	}
	category, err := book.ParseCategory(req.Category)
	if err != nil {
		return book.Draft{}, err
	}

	d := book.Draft{
		ISBN:        req.ISBN,
		Title:       req.Title,
		AuthorID:    req.AuthorID,
		Category:    category,
		Price:       price,
		Stock:       req.Stock,
		IsAvailable: req.IsAvailable == nil || *req.IsAvailable,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	}
	if req.PublishedAt != "" {
		t, err := time.Parse(time.DateOnly, req.PublishedAt)
		if err != nil {
			return book.Draft{}, apperrors.WithMessage(apperrors.ErrInvalidParams, "出版日期格式应为YYYY-MM-DD")
		}
		d.PublishedAt = &t
	}
	return d, nil
}
