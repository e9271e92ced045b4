package book

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
)

// 价格和库存的取值范围
const (
	MinPrice int64 = 1     // 0.01
	MaxPrice int64 = 99999 // 999.99
	MaxStock       = 1000
	maxTitle       = 200
)

// Draft 新建或修改图书时提交的字段
type Draft struct {
	ISBN        string
	Title       string
	AuthorID    uint
	Category    Category
	Price       int64
	Stock       int
	IsAvailable bool
	Description string
	ImageURL    string
	PublishedAt *time.Time
}

// Service 图书领域服务接口
// 设计说明:
// 1. 领域服务封装跨实体的业务逻辑和业务规则校验
// 2. 权限校验在应用层完成(Librarian+),这里只管数据规则
type Service interface {
	// PublishBook 新建图书
	PublishBook(ctx context.Context, d Draft) (*Book, error)

	// UpdateBook 修改图书信息,库存不在此修改
	UpdateBook(ctx context.Context, id uint, d Draft) (*Book, error)

	// Restock 补货,qty必须>0
	Restock(ctx context.Context, id uint, qty int) (*Book, error)

	// DeleteBook 删除图书
	DeleteBook(ctx context.Context, id uint) error

	// GetBook 根据ID获取图书
	GetBook(ctx context.Context, id uint) (*Book, error)

	// ListBooks 分页查询图书列表
	ListBooks(ctx context.Context, params ListParams) ([]*Book, int64, error)

	// CreateAuthor 新建作者
	CreateAuthor(ctx context.Context, a *Author) error

	// GetAuthor 根据ID获取作者
	GetAuthor(ctx context.Context, id uint) (*Author, error)

	// UpdateAuthor 修改作者信息
	UpdateAuthor(ctx context.Context, a *Author) error

	// DeleteAuthor 删除作者,名下还有图书时返回ErrAuthorHasBooks
	DeleteAuthor(ctx context.Context, id uint) error

	// ListAuthors 作者列表,keyword按姓名过滤
	ListAuthors(ctx context.Context, keyword string) ([]*Author, error)
}

type service struct {
	repo    Repository
	authors AuthorRepository
}

// NewService 创建图书领域服务
func NewService(repo Repository, authors AuthorRepository) Service {
	return &service{repo: repo, authors: authors}
}

// PublishBook 新建图书
func (s *service) PublishBook(ctx context.Context, d Draft) (*Book, error) {
	if err := s.validate(ctx, &d); err != nil {
		return nil, err
	}
	if d.Stock < 0 || d.Stock > MaxStock {
		return nil, ErrInvalidStock
	}

	if d.ISBN != "" {
		existing, err := s.repo.FindByISBN(ctx, d.ISBN)
		if err == nil && existing != nil {
			return nil, ErrISBNDuplicate
		}
		if err != nil && !errors.Is(err, ErrBookNotFound) {
			return nil, err
		}
	}

	b := NewBook(d.Title, d.AuthorID, d.Category, d.Price, d.Stock)
	b.ISBN = d.ISBN
	b.IsAvailable = d.IsAvailable
	b.Description = d.Description
	b.ImageURL = d.ImageURL
	b.PublishedAt = d.PublishedAt

	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// UpdateBook 修改图书信息
func (s *service) UpdateBook(ctx context.Context, id uint, d Draft) (*Book, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, &d); err != nil {
		return nil, err
	}

	if d.ISBN != "" && d.ISBN != b.ISBN {
		other, err := s.repo.FindByISBN(ctx, d.ISBN)
		if err == nil && other.ID != id {
			return nil, ErrISBNDuplicate
		}
		if err != nil && !errors.Is(err, ErrBookNotFound) {
			return nil, err
		}
	}

	b.ISBN = d.ISBN
	b.Title = d.Title
	b.AuthorID = d.AuthorID
	b.Category = d.Category
	b.Price = d.Price
	b.IsAvailable = d.IsAvailable
	b.Description = d.Description
	b.ImageURL = d.ImageURL
	b.PublishedAt = d.PublishedAt
	b.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Restock 补货
func (s *service) Restock(ctx context.Context, id uint, qty int) (*Book, error) {
	if qty <= 0 || qty > MaxStock {
		return nil, ErrInvalidQuantity
	}
	if err := s.repo.AdjustStock(ctx, id, qty); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// DeleteBook 删除图书
// 已有订单只保存了BookID和快照,删除后取消订单时回补库存会被忽略
func (s *service) DeleteBook(ctx context.Context, id uint) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// GetBook 根据ID获取图书
func (s *service) GetBook(ctx context.Context, id uint) (*Book, error) {
	return s.repo.FindByID(ctx, id)
}

// ListBooks 分页查询图书列表
func (s *service) ListBooks(ctx context.Context, params ListParams) ([]*Book, int64, error) {
	params.Normalize()
	return s.repo.List(ctx, params)
}

// CreateAuthor 新建作者
func (s *service) CreateAuthor(ctx context.Context, a *Author) error {
	if err := normalizeAuthor(a); err != nil {
		return err
	}
	a.CreatedAt = time.Now()
	return s.authors.Create(ctx, a)
}

// GetAuthor 根据ID获取作者
func (s *service) GetAuthor(ctx context.Context, id uint) (*Author, error) {
	return s.authors.FindByID(ctx, id)
}

// UpdateAuthor 修改作者,创建时间保持不变
func (s *service) UpdateAuthor(ctx context.Context, a *Author) error {
	existing, err := s.authors.FindByID(ctx, a.ID)
	if err != nil {
		return err
	}
	if err := normalizeAuthor(a); err != nil {
		return err
	}
	a.CreatedAt = existing.CreatedAt
	return s.authors.Update(ctx, a)
}

// DeleteAuthor 删除作者
// 图书通过AuthorID引用作者,名下有书时拒绝删除,避免图书挂在不存在的作者上
func (s *service) DeleteAuthor(ctx context.Context, id uint) error {
	if _, err := s.authors.FindByID(ctx, id); err != nil {
		return err
	}
	n, err := s.repo.CountByAuthor(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrAuthorHasBooks
	}
	return s.authors.Delete(ctx, id)
}

// ListAuthors 作者列表
func (s *service) ListAuthors(ctx context.Context, keyword string) ([]*Author, error) {
	return s.authors.List(ctx, strings.TrimSpace(keyword))
}

// normalizeAuthor 姓可以为空(单名作者),名必填
func normalizeAuthor(a *Author) error {
	a.FirstName = strings.TrimSpace(a.FirstName)
	a.LastName = strings.TrimSpace(a.LastName)
	if a.FirstName == "" {
		return ErrInvalidAuthor
	}
	return nil
}

// validate 新建和修改共用的字段校验
func (s *service) validate(ctx context.Context, d *Draft) error {
	d.Title = strings.TrimSpace(d.Title)
	if d.Title == "" || len([]rune(d.Title)) > maxTitle {
		return ErrInvalidTitle
	}
	if d.Price < MinPrice || d.Price > MaxPrice {
		return ErrInvalidPrice
	}
	if !d.Category.Valid() {
		return ErrInvalidCategory
	}
	if d.ISBN != "" {
		clean, ok := normalizeISBN(d.ISBN)
		if !ok {
			return ErrInvalidISBN
		}
		d.ISBN = clean
	}
	if _, err := s.authors.FindByID(ctx, d.AuthorID); err != nil {
		return err
	}
	return nil
}

var isbnSeparators = regexp.MustCompile(`[\s-]`)
var isbnDigits = regexp.MustCompile(`^[0-9]{9}[0-9Xx]$|^[0-9]{13}$`)

// normalizeISBN 去掉分隔符后校验位数
// 978-7-115-42802-8 → 9787115428028
// 简化实现:只检查位数,不校验校验位
func normalizeISBN(isbn string) (string, bool) {
	clean := isbnSeparators.ReplaceAllString(isbn, "")
	if !isbnDigits.MatchString(clean) {
		return "", false
	}
	return strings.ToUpper(clean), true
}
