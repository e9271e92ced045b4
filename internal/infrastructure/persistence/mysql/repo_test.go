package mysql

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/xiebiao/bookshop/internal/domain/book"
	"github.com/xiebiao/bookshop/internal/domain/order"
	"github.com/xiebiao/bookshop/internal/domain/user"
)

func TestIsDuplicateError(t *testing.T) {
	assert.False(t, isDuplicateError(nil))
	assert.True(t, isDuplicateError(gorm.ErrDuplicatedKey))
	assert.True(t, isDuplicateError(errors.New("Error 1062 (23000): Duplicate entry 'a@b.com' for key 'users.idx_users_email'")))
	assert.False(t, isDuplicateError(errors.New("connection refused")))
}

func TestBookModelConversion(t *testing.T) {
	published := time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC)
	b := book.NewBook("Go语言", 3, book.CategoryTechnology, 5999, 12)
	b.ID = 9
	b.PublishedAt = &published

	m := toBookModel(b)
	assert.Nil(t, m.ISBN, "未填写的ISBN存为NULL")
	assert.Equal(t, int(book.CategoryTechnology), m.Category)

	b.ISBN = "9787115547088"
	m = toBookModel(b)
	require.NotNil(t, m.ISBN)

	back := toBookEntity(m)
	assert.Equal(t, b.ISBN, back.ISBN)
	assert.Equal(t, b.Price, back.Price)
	assert.Equal(t, b.Stock, back.Stock)
	assert.True(t, back.IsAvailable)
	assert.Equal(t, published, *back.PublishedAt)
}

func TestOrderModelConversion(t *testing.T) {
	o, err := order.NewOrder("BK1", 2, "Ann", "ann@example.com", "", []order.Item{
		{BookID: 1, Title: "A", UnitPrice: 1599, Quantity: 2},
		{BookID: 2, Title: "B", UnitPrice: 500, Quantity: 1},
	})
	require.NoError(t, err)

	back := toOrderEntity(toOrderModel(o))
	assert.Equal(t, o.Total, back.Total)
	assert.Equal(t, order.StatusPending, back.Status)
	require.Len(t, back.Items, 2)
	assert.Equal(t, "A", back.Items[0].Title)
	assert.Equal(t, int64(1599), back.Items[0].UnitPrice)
}

func TestUserModelLowercasesEmail(t *testing.T) {
	u := user.NewUser("Ann@Example.com", "hash", "Ann", "Lee", 10000)
	m := toUserModel(u)
	assert.Equal(t, "ann@example.com", m.Email)
	assert.Equal(t, int(user.RoleUser), m.Role)
	assert.True(t, toUserEntity(m).IsActive)
}

// openTestDB 需要本地MySQL：
// BOOKSHOP_TEST_MYSQL_DSN="root:root@tcp(localhost:3306)/bookshop_test?charset=utf8mb4&parseTime=True&loc=Local" go test ./internal/infrastructure/persistence/mysql/
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("BOOKSHOP_TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("未设置BOOKSHOP_TEST_MYSQL_DSN，跳过MySQL集成测试")
	}
	db, err := gorm.Open(gormmysql.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, autoMigrate(db))
	return db
}

func TestCreditLedger_ConcurrentDebitNeverNegative(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	users := NewUserRepository(db)
	ledger := NewCreditLedger(db)

	u := user.NewUser(fmt.Sprintf("ledger-%d@example.com", time.Now().UnixNano()), "hash", "L", "T", 1000)
	require.NoError(t, users.Create(ctx, u))

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ledger.Debit(ctx, u.ID, 100) == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, ok)
	balance, err := ledger.Balance(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)
	assert.ErrorIs(t, ledger.Debit(ctx, u.ID, 1), user.ErrInsufficientCredits)
}

func TestBookRepository_AdjustStock(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewBookRepository(db, NewTxManager(db))

	b := book.NewBook("Stock", 1, book.CategoryArt, 100, 2)
	require.NoError(t, repo.Create(ctx, b))

	require.NoError(t, repo.AdjustStock(ctx, b.ID, -2))
	assert.ErrorIs(t, repo.AdjustStock(ctx, b.ID, -1), book.ErrInsufficientStock)
	assert.ErrorIs(t, repo.AdjustStock(ctx, 1<<30, 1), book.ErrBookNotFound)

	require.NoError(t, repo.Delete(ctx, b.ID))
	_, err := repo.FindByID(ctx, b.ID)
	assert.ErrorIs(t, err, book.ErrBookNotFound)
}

func TestAuthorRepository_CRUD(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	authors := NewAuthorRepository(db)
	books := NewBookRepository(db, NewTxManager(db))

	suffix := fmt.Sprintf("%d", time.Now().UnixNano())
	a := &book.Author{FirstName: "Ursula", LastName: "Le Guin " + suffix}
	require.NoError(t, authors.Create(ctx, a))

	list, err := authors.List(ctx, "guin "+suffix)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].ID)

	a.Nationality = "US"
	require.NoError(t, authors.Update(ctx, a))
	require.NoError(t, authors.Update(ctx, a), "内容未变化也不报错")
	got, err := authors.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "US", got.Nationality)

	b := book.NewBook("Earthsea", a.ID, book.CategoryFiction, 100, 1)
	require.NoError(t, books.Create(ctx, b))
	n, err := books.CountByAuthor(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.NoError(t, books.Delete(ctx, b.ID))

	require.NoError(t, authors.Delete(ctx, a.ID))
	assert.ErrorIs(t, authors.Delete(ctx, a.ID), book.ErrAuthorNotFound)
	assert.ErrorIs(t, authors.Update(ctx, a), book.ErrAuthorNotFound)
}
