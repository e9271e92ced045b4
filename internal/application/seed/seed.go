// Package seed 启动时写入演示数据(仅内存存储且seed.enabled时)
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/xiebiao/bookshop/internal/domain/book"
	"github.com/xiebiao/bookshop/internal/domain/user"
	"github.com/xiebiao/bookshop/pkg/logger"
)

// Account 种子账号
type Account struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      user.Role
	Credits   int64 // 分
}

// DefaultAccounts 管理员/馆员/普通用户各一个
var DefaultAccounts = []Account{
	{Email: "admin@bookstore.com", Password: "Admin12345", FirstName: "System", LastName: "Admin", Role: user.RoleAdmin, Credits: 100000},
	{Email: "librarian@bookstore.com", Password: "Librarian123", FirstName: "Head", LastName: "Librarian", Role: user.RoleLibrarian, Credits: 50000},
	{Email: "user@bookstore.com", Password: "User12345", FirstName: "Demo", LastName: "User", Role: user.RoleUser, Credits: user.DefaultInitialCredits},
}

type seedBook struct {
	isbn     string
	title    string
	author   int // defaultAuthors下标
	category book.Category
	price    int64
	stock    int
	year     int
}

var defaultAuthors = []book.Author{
	{FirstName: "George", LastName: "Orwell", Nationality: "British"},
	{FirstName: "Jane", LastName: "Austen", Nationality: "British"},
	{FirstName: "Frank", LastName: "Herbert", Nationality: "American"},
	{FirstName: "Yuval Noah", LastName: "Harari", Nationality: "Israeli"},
}

var defaultBooks = []seedBook{
	{"9780451524935", "1984", 0, book.CategoryFiction, 1599, 8, 1949},
	{"9780451526342", "Animal Farm", 0, book.CategoryFiction, 999, 12, 1945},
	{"9780141439518", "Pride and Prejudice", 1, book.CategoryRomance, 1250, 6, 1813},
	{"9780441172719", "Dune", 2, book.CategoryScience, 1899, 5, 1965},
	{"9780062316097", "Sapiens", 3, book.CategoryHistory, 2499, 10, 2011},
}

// Seeder 种子数据写入器
type Seeder struct {
	users   user.Repository
	authors book.AuthorRepository
	books   book.Repository
}

// NewSeeder 创建写入器
func NewSeeder(users user.Repository, authors book.AuthorRepository, books book.Repository) *Seeder {
	return &Seeder{users: users, authors: authors, books: books}
}

// Run 写入账号和目录,已存在的账号跳过(可重复执行)
func (s *Seeder) Run(ctx context.Context) error {
	for _, a := range DefaultAccounts {
		_, err := s.users.FindByEmail(ctx, a.Email)
		if err == nil {
			continue
		}
		if !errors.Is(err, user.ErrUserNotFound) {
			return err
		}

		hash, err := user.HashPassword(a.Password)
		if err != nil {
			return err
		}
		u := user.NewUser(a.Email, hash, a.FirstName, a.LastName, a.Credits)
		u.Role = a.Role
		if err := s.users.Create(ctx, u); err != nil {
			return err
		}
	}

	n, err := s.books.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	authorIDs := make([]uint, len(defaultAuthors))
	for i := range defaultAuthors {
		a := defaultAuthors[i]
		a.CreatedAt = time.Now()
		if err := s.authors.Create(ctx, &a); err != nil {
			return err
		}
		authorIDs[i] = a.ID
	}
	for _, sb := range defaultBooks {
		b := book.NewBook(sb.title, authorIDs[sb.author], sb.category, sb.price, sb.stock)
		b.ISBN = sb.isbn
		published := time.Date(sb.year, time.January, 1, 0, 0, 0, 0, time.UTC)
		b.PublishedAt = &published
		if err := s.books.Create(ctx, b); err != nil {
			return err
		}
	}

	logger.Ctx(ctx).Info().
		Int("accounts", len(DefaultAccounts)).
		Int("books", len(defaultBooks)).
		Msg("种子数据已写入")
	return nil
}
