package mysql

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/xiebiao/bookshop/internal/domain/book"
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
)

// bookRepository 图书仓储实现(MySQL)
// 设计说明:
// 1. 实现domain/book/repository.go定义的接口
// 2. 负责domain实体与GORM模型之间的转换
// 3. 处理数据库特定的错误(如ISBN重复),转换为业务错误
// 4. 库存只在AdjustStock里用条件UPDATE修改,Update不碰stock列
type bookRepository struct {
	db *gorm.DB
	tx *TxManager
}

// NewBookRepository 创建图书仓储
func NewBookRepository(db *gorm.DB, tx *TxManager) book.Repository {
	return &bookRepository{db: db, tx: tx}
}

// Create 创建图书
func (r *bookRepository) Create(ctx context.Context, b *book.Book) error {
	model := toBookModel(b)
	if err := dbFrom(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return book.ErrISBNDuplicate
		}
		return apperrors.WithCause(apperrors.ErrDatabaseError, err)
	}

	// 回填自增ID
	b.ID = model.ID
	b.CreatedAt = model.CreatedAt
	b.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByID 根据ID查找图书
func (r *bookRepository) FindByID(ctx context.Context, id uint) (*book.Book, error) {
	var model BookModel
	if err := dbFrom(ctx, r.db).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, book.ErrBookNotFound
		}
		return nil, apperrors.WithCause(apperrors.ErrDatabaseError, err)
	}
	return toBookEntity(&model), nil
}

// FindByISBN 根据ISBN查找图书
func (r *bookRepository) FindByISBN(ctx context.Context, isbn string) (*book.Book, error) {
	var model BookModel
	if err := dbFrom(ctx, r.db).Where("isbn = ?", isbn).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, book.ErrBookNotFound
		}
		return nil, apperrors.WithCause(apperrors.ErrDatabaseError, err)
	}
	return toBookEntity(&model), nil
}

// bookInfoColumns Update允许修改的列(不含stock)
var bookInfoColumns = []string{
	"isbn", "title", "author_id", "category", "price",
	"is_available", "description", "image_url", "published_at", "updated_at",
}

// Update 更新图书信息
// 教学要点:Select指定列,零值(如is_available=false)也会写入
func (r *bookRepository) Update(ctx context.Context, b *book.Book) error {
	model := toBookModel(b)
	model.UpdatedAt = time.Now()
	result := dbFrom(ctx, r.db).Model(&BookModel{ID: b.ID}).Select(bookInfoColumns).Updates(model)
	if result.Error != nil {
		if isDuplicateError(result.Error) {
			return book.ErrISBNDuplicate
		}
		return apperrors.WithCause(apperrors.ErrDatabaseError, result.Error)
	}
	if result.RowsAffected == 0 {
		// 值完全没变时MySQL也会返回0,再查一次确认是否存在
		if _, err := r.FindByID(ctx, b.ID); err != nil {
			return err
		}
	}
	b.UpdatedAt = model.UpdatedAt
	return nil
}

// Delete 删除图书(软删除)
// 同一事务里先清空ISBN,释放唯一索引给以后的新书使用
func (r *bookRepository) Delete(ctx context.Context, id uint) error {
	return r.tx.Transaction(ctx, func(ctx context.Context) error {
		db := dbFrom(ctx, r.db)
		if err := db.Model(&BookModel{}).Where("id = ?", id).Update("isbn", nil).Error; err != nil {
			return apperrors.WithCause(apperrors.ErrDatabaseError, err)
		}
		result := db.Delete(&BookModel{}, id)
		if result.Error != nil {
			return apperrors.WithCause(apperrors.ErrDatabaseError, result.Error)
		}
		if result.RowsAffected == 0 {
			return book.ErrBookNotFound
		}
		return nil
	})
}

// List 分页查询图书列表
func (r *bookRepository) List(ctx context.Context, params book.ListParams) ([]*book.Book, int64, error) {
	params.Normalize()

	query := dbFrom(ctx, r.db).Model(&BookModel{})

	// 关键词搜索(标题、ISBN、描述)
	if kw := strings.TrimSpace(params.Keyword); kw != "" {
		like := "%" + kw + "%"
		query = query.Where("title LIKE ? OR isbn LIKE ? OR description LIKE ?", like, like, like)
	}
	if params.Category != 0 {
		query = query.Where("category = ?", int(params.Category))
	}
	if params.AvailableOnly {
		query = query.Where("is_available = ? AND stock > 0", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.WithCause(apperrors.ErrDatabaseError, err)
	}

	switch params.SortBy {
	case book.SortTitle:
		query = query.Order("title ASC")
	case book.SortPriceAsc:
		query = query.Order("price ASC")
	case book.SortPriceDesc:
		query = query.Order("price DESC")
	default:
		query = query.Order("created_at DESC")
	}
	query = query.Order("id ASC")

	var models []BookModel
	if err := query.Limit(params.PageSize).Offset(params.Offset()).Find(&models).Error; err != nil {
		return nil, 0, apperrors.WithCause(apperrors.ErrDatabaseError, err)
	}

	books := make([]*book.Book, len(models))
	for i := range models {
		books[i] = toBookEntity(&models[i])
	}
	return books, total, nil
}

// Count 图书总数
func (r *bookRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := dbFrom(ctx, r.db).Model(&BookModel{}).Count(&n).Error; err != nil {
		return 0, apperrors.WithCause(apperrors.ErrDatabaseError, err)
	}
	return n, nil
}

// CountByAuthor 某作者名下的图书数量
func (r *bookRepository) CountByAuthor(ctx context.Context, authorID uint) (int64, error) {
	var n int64
	if err := dbFrom(ctx, r.db).Model(&BookModel{}).Where("author_id = ?", authorID).Count(&n).Error; err != nil {
		return 0, apperrors.WithCause(apperrors.ErrDatabaseError, err)
	}
	return n, nil
}

// IsAvailable 存在、上架且库存>=qty
func (r *bookRepository) IsAvailable(ctx context.Context, id uint, qty int) (bool, error) {
	if qty <= 0 {
		return false, nil
	}
	var n int64
	err := dbFrom(ctx, r.db).Model(&BookModel{}).
		Where("id = ? AND is_available = ? AND stock >= ?", id, true, qty).
		Count(&n).Error
	if err != nil {
		return false, apperrors.WithCause(apperrors.ErrDatabaseError, err)
	}
	return n > 0, nil
}

// AdjustStock 原子调整库存
// UPDATE books SET stock = stock + delta WHERE id = ? AND stock + delta >= 0
// 教学要点:检查和写入在一条SQL里完成,并发扣减不会超卖
func (r *bookRepository) AdjustStock(ctx context.Context, id uint, delta int) error {
	db := dbFrom(ctx, r.db)
	result := db.Model(&BookModel{}).
		Where("id = ?", id).
		Where("stock + ? >= 0", delta).
		Update("stock", gorm.Expr("stock + ?", delta))
	if result.Error != nil {
		return apperrors.WithCause(apperrors.ErrDatabaseError, result.Error)
	}

	if result.RowsAffected == 0 {
		// 可能是图书不存在,或者库存不足,再查一次确定原因
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
		return book.ErrInsufficientStock
	}
	return nil
}

// =========================================
// 辅助函数:模型转换
// =========================================

func toBookModel(b *book.Book) *BookModel {
	var isbn *string
	if b.ISBN != "" {
		v := b.ISBN
		isbn = &v
	}
	return &BookModel{
		ID:          b.ID,
		ISBN:        isbn,
		Title:       b.Title,
		AuthorID:    b.AuthorID,
		Category:    int(b.Category),
		Price:       b.Price,
		Stock:       b.Stock,
		IsAvailable: b.IsAvailable,
		Description: b.Description,
		ImageURL:    b.ImageURL,
		PublishedAt: b.PublishedAt,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

// toBookEntity GORM模型 → 领域实体
func toBookEntity(model *BookModel) *book.Book {
	b := &book.Book{
		ID:          model.ID,
		Title:       model.Title,
		AuthorID:    model.AuthorID,
		Category:    book.Category(model.Category),
		Price:       model.Price,
		Stock:       model.Stock,
		IsAvailable: model.IsAvailable,
		Description: model.Description,
		ImageURL:    model.ImageURL,
		PublishedAt: model.PublishedAt,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
	if model.ISBN != nil {
		b.ISBN = *model.ISBN
	}
	return b
}

// authorRepository 作者仓储实现(MySQL)
type authorRepository struct {
	db *gorm.DB
}

// NewAuthorRepository 创建作者仓储
func NewAuthorRepository(db *gorm.DB) book.AuthorRepository {
	return &authorRepository{db: db}
}

func (r *authorRepository) Create(ctx context.Context, a *book.Author) error {
	model := &AuthorModel{
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		Biography:   a.Biography,
		Nationality: a.Nationality,
		CreatedAt:   a.CreatedAt,
	}
	if err := dbFrom(ctx, r.db).Create(model).Error; err != nil {
		return apperrors.WithCause(apperrors.ErrDatabaseError, err)
	}
	a.ID = model.ID
	a.CreatedAt = model.CreatedAt
	return nil
}

func (r *authorRepository) FindByID(ctx context.Context, id uint) (*book.Author, error) {
	var model AuthorModel
	if err := dbFrom(ctx, r.db).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, book.ErrAuthorNotFound
		}
		return nil, apperrors.WithCause(apperrors.ErrDatabaseError, err)
	}
	return toAuthorEntity(&model), nil
}

// Update 只更新姓名、简介和国籍
func (r *authorRepository) Update(ctx context.Context, a *book.Author) error {
	result := dbFrom(ctx, r.db).Model(&AuthorModel{}).Where("id = ?", a.ID).Updates(map[string]interface{}{
		"first_name":  a.FirstName,
		"last_name":   a.LastName,
		"biography":   a.Biography,
		"nationality": a.Nationality,
	})
	if result.Error != nil {
		return apperrors.WithCause(apperrors.ErrDatabaseError, result.Error)
	}
	// 内容未变化时RowsAffected也是0,需要再确认记录是否存在
	if result.RowsAffected == 0 {
		_, err := r.FindByID(ctx, a.ID)
		return err
	}
	return nil
}

func (r *authorRepository) Delete(ctx context.Context, id uint) error {
	result := dbFrom(ctx, r.db).Delete(&AuthorModel{}, id)
	if result.Error != nil {
		return apperrors.WithCause(apperrors.ErrDatabaseError, result.Error)
	}
	if result.RowsAffected == 0 {
		return book.ErrAuthorNotFound
	}
	return nil
}

// List 按姓氏排序
func (r *authorRepository) List(ctx context.Context, keyword string) ([]*book.Author, error) {
	query := dbFrom(ctx, r.db).Model(&AuthorModel{})
	if kw := strings.TrimSpace(keyword); kw != "" {
		query = query.Where("CONCAT(first_name, ' ', last_name) LIKE ?", "%"+kw+"%")
	}

	var models []AuthorModel
	if err := query.Order("last_name ASC, id ASC").Find(&models).Error; err != nil {
		return nil, apperrors.WithCause(apperrors.ErrDatabaseError, err)
	}
	out := make([]*book.Author, len(models))
	for i := range models {
		out[i] = toAuthorEntity(&models[i])
	}
	return out, nil
}

func toAuthorEntity(m *AuthorModel) *book.Author {
	return &book.Author{
		ID:          m.ID,
		FirstName:   m.FirstName,
		LastName:    m.LastName,
		Biography:   m.Biography,
		Nationality: m.Nationality,
		CreatedAt:   m.CreatedAt,
	}
}
