package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/bookshop/internal/domain/book"
)

func newBook(id uint, title string, price int64) *book.Book {
	b := book.NewBook(title, 1, book.CategoryFiction, price, 10)
	b.ID = id
	return b
}

func TestCart_AddMergesAndSnapshotsPrice(t *testing.T) {
	c := New(7)
	a := newBook(1, "Go语言圣经", 1599)

	require.NoError(t, c.Add(a, 1))
	a.Price = 9999 // 加入后改价
	require.NoError(t, c.Add(a, 2))

	require.Len(t, c.Items, 1)
	assert.Equal(t, 3, c.Items[0].Quantity)
	assert.Equal(t, int64(1599), c.Items[0].UnitPrice)
	assert.Equal(t, int64(4797), c.Total())
	assert.Equal(t, 3, c.ItemCount())
}

func TestCart_AddRejectsNonPositive(t *testing.T) {
	c := New(1)
	assert.Same(t, ErrInvalidQuantity, c.Add(newBook(1, "A", 100), 0))
	assert.True(t, c.IsEmpty())
}

func TestCart_UpdateQuantity(t *testing.T) {
	c := New(1)
	require.NoError(t, c.Add(newBook(1, "A", 100), 1))
	require.NoError(t, c.Add(newBook(2, "B", 250), 1))

	require.NoError(t, c.UpdateQuantity(1, 4))
	item, ok := c.Find(1)
	require.True(t, ok)
	assert.Equal(t, 4, item.Quantity)

	// 数量<=0等同于删除
	require.NoError(t, c.UpdateQuantity(2, 0))
	_, ok = c.Find(2)
	assert.False(t, ok)

	assert.Same(t, ErrItemNotFound, c.UpdateQuantity(99, 1))
}

func TestCart_RemoveAndClear(t *testing.T) {
	c := New(1)
	require.NoError(t, c.Add(newBook(1, "A", 100), 1))
	require.NoError(t, c.Add(newBook(2, "B", 100), 1))

	require.NoError(t, c.Remove(1))
	assert.Equal(t, 1, c.ItemCount())
	assert.Same(t, ErrItemNotFound, c.Remove(1))

	c.Clear()
	assert.True(t, c.IsEmpty())
	assert.Equal(t, int64(0), c.Total())
}

func TestCart_CloneIsIndependent(t *testing.T) {
	c := New(1)
	require.NoError(t, c.Add(newBook(1, "A", 100), 1))

	cp := c.Clone()
	cp.Items[0].Quantity = 50

	assert.Equal(t, 1, c.Items[0].Quantity)
}
