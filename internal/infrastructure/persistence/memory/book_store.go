// Package memory 进程内存储实现
//
// 教学要点:
// 1. 与mysql包实现同一组domain接口,storage.driver=memory时使用(默认)
// 2. 每条记录有自己的锁,库存和积分的读-改-写在记录锁内完成(原子check-and-set)
// 3. 对外一律返回副本,调用方拿到的实体修改后不会影响存储
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xiebiao/bookshop/internal/domain/book"
)

type bookRecord struct {
	mu   sync.Mutex
	book *book.Book
}

// BookStore 图书存储
type BookStore struct {
	mu     sync.RWMutex
	nextID uint
	books  map[uint]*bookRecord
	isbn   map[string]uint
}

// NewBookStore 创建图书存储
func NewBookStore() *BookStore {
	return &BookStore{
		books: make(map[uint]*bookRecord),
		isbn:  make(map[string]uint),
	}
}

var _ book.Repository = (*BookStore)(nil)

// Create 创建图书,回填ID
func (s *BookStore) Create(ctx context.Context, b *book.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b.ISBN != "" {
		if _, ok := s.isbn[b.ISBN]; ok {
			return book.ErrISBNDuplicate
		}
	}
	s.nextID++
	b.ID = s.nextID
	now := time.Now()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now

	s.books[b.ID] = &bookRecord{book: b.Clone()}
	if b.ISBN != "" {
		s.isbn[b.ISBN] = b.ID
	}
	return nil
}

func (s *BookStore) record(id uint) (*bookRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.books[id]
	return rec, ok
}

// FindByID 根据ID查找
func (s *BookStore) FindByID(ctx context.Context, id uint) (*book.Book, error) {
	rec, ok := s.record(id)
	if !ok {
		return nil, book.ErrBookNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.book.Clone(), nil
}

// FindByISBN 根据ISBN查找
func (s *BookStore) FindByISBN(ctx context.Context, isbn string) (*book.Book, error) {
	s.mu.RLock()
	id, ok := s.isbn[isbn]
	s.mu.RUnlock()
	if !ok {
		return nil, book.ErrBookNotFound
	}
	return s.FindByID(ctx, id)
}

// Update 更新图书信息,库存保持存储中的当前值
func (s *BookStore) Update(ctx context.Context, b *book.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.books[b.ID]
	if !ok {
		return book.ErrBookNotFound
	}
	if b.ISBN != "" {
		if owner, exists := s.isbn[b.ISBN]; exists && owner != b.ID {
			return book.ErrISBNDuplicate
		}
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.book.ISBN != "" {
		delete(s.isbn, rec.book.ISBN)
	}
	if b.ISBN != "" {
		s.isbn[b.ISBN] = b.ID
	}

	updated := b.Clone()
	updated.Stock = rec.book.Stock
	updated.CreatedAt = rec.book.CreatedAt
	updated.UpdatedAt = time.Now()
	rec.book = updated
	return nil
}

// Delete 删除图书
func (s *BookStore) Delete(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.books[id]
	if !ok {
		return book.ErrBookNotFound
	}
	if rec.book.ISBN != "" {
		delete(s.isbn, rec.book.ISBN)
	}
	delete(s.books, id)
	return nil
}

// List 过滤、排序、分页
func (s *BookStore) List(ctx context.Context, params book.ListParams) ([]*book.Book, int64, error) {
	params.Normalize()
	keyword := strings.ToLower(strings.TrimSpace(params.Keyword))

	var matched []*book.Book
	for _, b := range s.snapshot() {
		if params.Category != 0 && b.Category != params.Category {
			continue
		}
		if params.AvailableOnly && !b.Purchasable() {
			continue
		}
		if keyword != "" && !matchKeyword(b, keyword) {
			continue
		}
		matched = append(matched, b)
	}

	sortBooks(matched, params.SortBy)

	total := int64(len(matched))
	start := params.Offset()
	if start >= len(matched) {
		return []*book.Book{}, total, nil
	}
	end := start + params.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

// Count 图书总数
func (s *BookStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.books)), nil
}

// CountByAuthor 某作者名下的图书数量
func (s *BookStore) CountByAuthor(ctx context.Context, authorID uint) (int64, error) {
	var n int64
	for _, b := range s.snapshot() {
		if b.AuthorID == authorID {
			n++
		}
	}
	return n, nil
}

// IsAvailable 存在、上架且库存>=qty
func (s *BookStore) IsAvailable(ctx context.Context, id uint, qty int) (bool, error) {
	rec, ok := s.record(id)
	if !ok {
		return false, nil
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.book.CanSupply(qty), nil
}

// AdjustStock 在记录锁内完成检查和写入
func (s *BookStore) AdjustStock(ctx context.Context, id uint, delta int) error {
	rec, ok := s.record(id)
	if !ok {
		return book.ErrBookNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()

	next := rec.book.Stock + delta
	if next < 0 {
		return book.ErrInsufficientStock
	}
	rec.book.Stock = next
	rec.book.UpdatedAt = time.Now()
	return nil
}

// snapshot 所有图书的副本,按ID升序
func (s *BookStore) snapshot() []*book.Book {
	s.mu.RLock()
	recs := make([]*bookRecord, 0, len(s.books))
	for _, rec := range s.books {
		recs = append(recs, rec)
	}
	s.mu.RUnlock()

	out := make([]*book.Book, 0, len(recs))
	for _, rec := range recs {
		rec.mu.Lock()
		out = append(out, rec.book.Clone())
		rec.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func matchKeyword(b *book.Book, keyword string) bool {
	return strings.Contains(strings.ToLower(b.Title), keyword) ||
		strings.Contains(strings.ToLower(b.Description), keyword) ||
		strings.Contains(strings.ToLower(b.ISBN), keyword)
}

func sortBooks(books []*book.Book, sortBy string) {
	var less func(a, b *book.Book) bool
	switch sortBy {
	case book.SortTitle:
		less = func(a, b *book.Book) bool { return strings.ToLower(a.Title) < strings.ToLower(b.Title) }
	case book.SortPriceAsc:
		less = func(a, b *book.Book) bool { return a.Price < b.Price }
	case book.SortPriceDesc:
		less = func(a, b *book.Book) bool { return a.Price > b.Price }
	default:
		less = func(a, b *book.Book) bool { return a.CreatedAt.After(b.CreatedAt) }
	}
	sort.SliceStable(books, func(i, j int) bool { return less(books[i], books[j]) })
}

// AuthorStore 作者存储
type AuthorStore struct {
	mu      sync.RWMutex
	nextID  uint
	authors map[uint]*book.Author
}

// NewAuthorStore 创建作者存储
func NewAuthorStore() *AuthorStore {
	return &AuthorStore{authors: make(map[uint]*book.Author)}
}

var _ book.AuthorRepository = (*AuthorStore)(nil)

func (s *AuthorStore) Create(ctx context.Context, a *book.Author) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	a.ID = s.nextID
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	cp := *a
	s.authors[a.ID] = &cp
	return nil
}

func (s *AuthorStore) FindByID(ctx context.Context, id uint) (*book.Author, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.authors[id]
	if !ok {
		return nil, book.ErrAuthorNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *AuthorStore) Update(ctx context.Context, a *book.Author) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.authors[a.ID]; !ok {
		return book.ErrAuthorNotFound
	}
	cp := *a
	s.authors[a.ID] = &cp
	return nil
}

func (s *AuthorStore) Delete(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.authors[id]; !ok {
		return book.ErrAuthorNotFound
	}
	delete(s.authors, id)
	return nil
}

// List 按姓氏排序,keyword匹配名或姓
func (s *AuthorStore) List(ctx context.Context, keyword string) ([]*book.Author, error) {
	keyword = strings.ToLower(strings.TrimSpace(keyword))

	s.mu.RLock()
	out := make([]*book.Author, 0, len(s.authors))
	for _, a := range s.authors {
		if keyword != "" && !strings.Contains(strings.ToLower(a.FullName()), keyword) {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
