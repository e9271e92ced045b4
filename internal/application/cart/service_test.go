package cart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/bookshop/internal/domain/book"
	"github.com/xiebiao/bookshop/internal/infrastructure/persistence/memory"
	"github.com/xiebiao/bookshop/pkg/lock"
)

func setup(t *testing.T) (*Service, *memory.BookStore) {
	t.Helper()
	books := memory.NewBookStore()
	return NewService(memory.NewCartStore(), books, lock.NewKeyedMutex()), books
}

func addBook(t *testing.T, books *memory.BookStore, price int64, stock int) *book.Book {
	t.Helper()
	b := book.NewBook("Book", 1, book.CategoryFiction, price, stock)
	require.NoError(t, books.Create(context.Background(), b))
	return b
}

func TestAdd_MergesAndChecksStock(t *testing.T) {
	ctx := context.Background()
	svc, books := setup(t)
	b := addBook(t, books, 1599, 3)

	view, err := svc.Add(ctx, 1, b.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3198), view.Total)
	assert.Equal(t, "31.98", view.TotalStr)

	// 累加后超过库存
	_, err = svc.Add(ctx, 1, b.ID, 2)
	assert.ErrorIs(t, err, book.ErrInsufficientStock)

	view, err = svc.Add(ctx, 1, b.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, view.ItemCount)
	require.Len(t, view.Items, 1)
}

func TestAdd_RejectsUnknownOrDelisted(t *testing.T) {
	ctx := context.Background()
	svc, books := setup(t)

	_, err := svc.Add(ctx, 1, 42, 1)
	assert.ErrorIs(t, err, book.ErrBookNotFound)

	b := addBook(t, books, 100, 5)
	edit, _ := books.FindByID(ctx, b.ID)
	edit.SetAvailable(false)
	require.NoError(t, books.Update(ctx, edit))

	_, err = svc.Add(ctx, 1, b.ID, 1)
	assert.ErrorIs(t, err, book.ErrInsufficientStock)
}

func TestUpdateQuantityAndRemove(t *testing.T) {
	ctx := context.Background()
	svc, books := setup(t)
	a := addBook(t, books, 100, 10)
	b := addBook(t, books, 200, 10)

	_, err := svc.Add(ctx, 1, a.ID, 1)
	require.NoError(t, err)
	_, err = svc.Add(ctx, 1, b.ID, 1)
	require.NoError(t, err)

	view, err := svc.UpdateQuantity(ctx, 1, a.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(700), view.Total)

	_, err = svc.UpdateQuantity(ctx, 1, a.ID, 11)
	assert.ErrorIs(t, err, book.ErrInsufficientStock)

	view, err = svc.UpdateQuantity(ctx, 1, a.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, view.ItemCount)

	view, err = svc.Remove(ctx, 1, b.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	require.NoError(t, svc.Clear(ctx, 1))
}

func TestValidate_DropsUnavailableLines(t *testing.T) {
	ctx := context.Background()
	svc, books := setup(t)
	a := addBook(t, books, 100, 2)
	b := addBook(t, books, 200, 5)

	_, err := svc.Add(ctx, 1, a.ID, 2)
	require.NoError(t, err)
	_, err = svc.Add(ctx, 1, b.ID, 1)
	require.NoError(t, err)

	// 其他订单买走了一本A
	require.NoError(t, books.AdjustStock(ctx, a.ID, -1))

	res, err := svc.Validate(ctx, 1)
	require.NoError(t, err)
	require.Len(t, res.Removed, 1)
	assert.Equal(t, a.ID, res.Removed[0].BookID)
	assert.Equal(t, int64(200), res.Cart.Total)

	view, _ := svc.Get(ctx, 1)
	assert.Equal(t, 1, view.ItemCount)
}
