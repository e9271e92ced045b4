package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/xiebiao/bookshop/internal/domain/book"
	"github.com/xiebiao/bookshop/internal/domain/cart"
	"github.com/xiebiao/bookshop/internal/domain/librarian"
	"github.com/xiebiao/bookshop/internal/domain/order"
	"github.com/xiebiao/bookshop/internal/domain/user"
)

func TestBookStore_AdjustStock(t *testing.T) {
	ctx := context.Background()
	s := NewBookStore()
	b := book.NewBook("A", 1, book.CategoryFiction, 1599, 2)
	require.NoError(t, s.Create(ctx, b))

	require.NoError(t, s.AdjustStock(ctx, b.ID, -2))
	assert.ErrorIs(t, s.AdjustStock(ctx, b.ID, -1), book.ErrInsufficientStock)
	assert.ErrorIs(t, s.AdjustStock(ctx, 999, 1), book.ErrBookNotFound)

	got, err := s.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)
}

func TestBookStore_ConcurrentDecrementNeverOversells(t *testing.T) {
	ctx := context.Background()
	s := NewBookStore()
	b := book.NewBook("A", 1, book.CategoryFiction, 100, 10)
	require.NoError(t, s.Create(ctx, b))

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.AdjustStock(ctx, b.ID, -1) == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	got, _ := s.FindByID(ctx, b.ID)
	assert.Equal(t, 10, ok)
	assert.Equal(t, 0, got.Stock)
}

func TestBookStore_StockNeverNegative(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ctx := context.Background()
		s := NewBookStore()
		initial := rapid.IntRange(0, 20).Draw(t, "initial")
		b := book.NewBook("A", 1, book.CategoryFiction, 100, initial)
		_ = s.Create(ctx, b)

		expected := initial
		deltas := rapid.SliceOf(rapid.IntRange(-10, 10)).Draw(t, "deltas")
		for _, d := range deltas {
			err := s.AdjustStock(ctx, b.ID, d)
			if expected+d < 0 {
				if err == nil {
					t.Fatalf("delta %d accepted with stock %d", d, expected)
				}
				continue
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			expected += d
		}
		got, _ := s.FindByID(ctx, b.ID)
		if got.Stock != expected || got.Stock < 0 {
			t.Fatalf("stock %d, expected %d", got.Stock, expected)
		}
	})
}

func TestBookStore_UpdateKeepsStock(t *testing.T) {
	ctx := context.Background()
	s := NewBookStore()
	b := book.NewBook("A", 1, book.CategoryFiction, 100, 5)
	require.NoError(t, s.Create(ctx, b))

	edit, _ := s.FindByID(ctx, b.ID)
	edit.Title = "A2"
	edit.Stock = 999
	require.NoError(t, s.Update(ctx, edit))

	got, _ := s.FindByID(ctx, b.ID)
	assert.Equal(t, "A2", got.Title)
	assert.Equal(t, 5, got.Stock)
}

func TestBookStore_ISBNUnique(t *testing.T) {
	ctx := context.Background()
	s := NewBookStore()
	a := book.NewBook("A", 1, book.CategoryFiction, 100, 1)
	a.ISBN = "9787115428028"
	require.NoError(t, s.Create(ctx, a))

	dup := book.NewBook("B", 1, book.CategoryFiction, 100, 1)
	dup.ISBN = "9787115428028"
	assert.ErrorIs(t, s.Create(ctx, dup), book.ErrISBNDuplicate)

	found, err := s.FindByISBN(ctx, "9787115428028")
	require.NoError(t, err)
	assert.Equal(t, a.ID, found.ID)
}

func TestBookStore_List(t *testing.T) {
	ctx := context.Background()
	s := NewBookStore()
	for i, tc := range []struct {
		title string
		cat   book.Category
		price int64
		stock int
	}{
		{"Go in Action", book.CategoryTechnology, 3000, 1},
		{"Dune", book.CategoryFiction, 1500, 0},
		{"Go Programming", book.CategoryTechnology, 2000, 4},
	} {
		b := book.NewBook(tc.title, 1, tc.cat, tc.price, tc.stock)
		b.CreatedAt = time.Now().Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.Create(ctx, b))
	}

	list, total, err := s.List(ctx, book.ListParams{Keyword: "go", SortBy: book.SortPriceAsc})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, "Go Programming", list[0].Title)

	_, total, _ = s.List(ctx, book.ListParams{AvailableOnly: true})
	assert.Equal(t, int64(2), total)

	list, total, _ = s.List(ctx, book.ListParams{Page: 2, PageSize: 2})
	assert.Equal(t, int64(3), total)
	assert.Len(t, list, 1)
}

func TestUserStore_Ledger(t *testing.T) {
	ctx := context.Background()
	s := NewUserStore()
	u := user.NewUser("a@b.com", "hash", "A", "B", 1000)
	require.NoError(t, s.Create(ctx, u))

	require.NoError(t, s.Debit(ctx, u.ID, 400))
	assert.ErrorIs(t, s.Debit(ctx, u.ID, 601), user.ErrInsufficientCredits)
	assert.ErrorIs(t, s.Debit(ctx, u.ID, 0), user.ErrInvalidAmount)
	assert.ErrorIs(t, s.Credit(ctx, u.ID, -5), user.ErrInvalidAmount)
	require.NoError(t, s.Credit(ctx, u.ID, 50))

	bal, err := s.Balance(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(650), bal)

	assert.ErrorIs(t, s.SetBalance(ctx, u.ID, -1), user.ErrInvalidAmount)
	require.NoError(t, s.SetBalance(ctx, u.ID, 0))
	_, err = s.Balance(ctx, 404)
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestUserStore_ConcurrentCreditDebitNoLostUpdate(t *testing.T) {
	ctx := context.Background()
	s := NewUserStore()
	u := user.NewUser("a@b.com", "hash", "A", "B", 10000)
	require.NoError(t, s.Create(ctx, u))

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); _ = s.Debit(ctx, u.ID, 30) }()
		go func() { defer wg.Done(); _ = s.Credit(ctx, u.ID, 30) }()
	}
	wg.Wait()

	bal, _ := s.Balance(ctx, u.ID)
	assert.Equal(t, int64(10000), bal)
}

func TestUserStore_UpdateDoesNotTouchCredits(t *testing.T) {
	ctx := context.Background()
	s := NewUserStore()
	u := user.NewUser("A@B.com", "hash", "A", "B", 500)
	require.NoError(t, s.Create(ctx, u))

	edit, err := s.FindByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	edit.Credits = 1
	edit.Role = user.RoleLibrarian
	require.NoError(t, s.Update(ctx, edit))

	got, _ := s.FindByID(ctx, u.ID)
	assert.Equal(t, int64(500), got.Credits)
	assert.Equal(t, user.RoleLibrarian, got.Role)

	assert.ErrorIs(t, s.Create(ctx, user.NewUser("a@b.com", "h", "C", "D", 0)), user.ErrEmailDuplicate)

	libs, _ := s.List(ctx, user.ListFilter{Role: user.RoleLibrarian})
	assert.Len(t, libs, 1)
}

func newOrder(t *testing.T, userID uint, total int64, at time.Time) *order.Order {
	o, err := order.NewOrder("ORD", userID, "n", "e@x.com", "", []order.Item{
		{BookID: 1, Title: "A", UnitPrice: total, Quantity: 1},
	})
	require.NoError(t, err)
	o.CreatedAt = at
	return o
}

func TestOrderStore_CreateAndList(t *testing.T) {
	ctx := context.Background()
	s := NewOrderStore()
	base := time.Now()

	o1 := newOrder(t, 1, 100, base.Add(-time.Hour))
	o2 := newOrder(t, 2, 200, base)
	require.NoError(t, s.Create(ctx, o1))
	require.NoError(t, s.Create(ctx, o2))
	assert.Greater(t, o2.ID, o1.ID)
	assert.Equal(t, o1.ID, o1.Items[0].OrderID)

	all, _ := s.ListAll(ctx)
	require.Len(t, all, 2)
	assert.Equal(t, o2.ID, all[0].ID)

	mine, _ := s.ListByUser(ctx, 1)
	assert.Len(t, mine, 1)

	require.NoError(t, s.SetStatus(ctx, o1.ID, order.StatusShipped))
	shipped, _ := s.ListByStatus(ctx, order.StatusShipped)
	assert.Len(t, shipped, 1)
	assert.ErrorIs(t, s.SetStatus(ctx, 99, order.StatusShipped), order.ErrOrderNotFound)

	require.NoError(t, s.Remove(ctx, o2.ID))
	_, err := s.FindByID(ctx, o2.ID)
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestOrderStore_StatsAndTopSelling(t *testing.T) {
	ctx := context.Background()
	s := NewOrderStore()
	now := time.Now()

	require.NoError(t, s.Create(ctx, newOrder(t, 1, 1000, now)))
	require.NoError(t, s.Create(ctx, newOrder(t, 1, 500, now.AddDate(0, 0, -3))))
	cancelled := newOrder(t, 2, 700, now)
	require.NoError(t, s.Create(ctx, cancelled))
	require.NoError(t, s.SetStatus(ctx, cancelled.ID, order.StatusCancelled))

	st, err := s.Stats(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, order.Stats{TotalOrders: 3, TotalRevenue: 1500, TodayOrders: 2, TodayRevenue: 1000}, st)

	top, _ := s.TopSelling(ctx, 5)
	require.Len(t, top, 1)
	assert.Equal(t, 2, top[0].Quantity)
	assert.Equal(t, int64(1500), top[0].Revenue)

	recent, _ := s.Recent(ctx, 1)
	assert.Len(t, recent, 1)
}

func TestCartStore(t *testing.T) {
	ctx := context.Background()
	s := NewCartStore()

	c, err := s.Get(ctx, 1)
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())

	b := book.NewBook("A", 1, book.CategoryFiction, 100, 1)
	b.ID = 3
	require.NoError(t, c.Add(b, 2))
	require.NoError(t, s.Save(ctx, c))

	// 修改副本不影响存储
	c.Items[0].Quantity = 9
	got, _ := s.Get(ctx, 1)
	assert.Equal(t, 2, got.ItemCount())

	require.NoError(t, s.Clear(ctx, 1))
	got, _ = s.Get(ctx, 1)
	assert.Equal(t, cart.New(1).Items, got.Items)
}

func TestLibrarianRequestStore_OnePendingPerUser(t *testing.T) {
	ctx := context.Background()
	s := NewLibrarianRequestStore()

	r, err := librarian.NewRequest(1, "我在图书馆工作了五年")
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, r))

	again, _ := librarian.NewRequest(1, "再申请一次")
	assert.ErrorIs(t, s.Create(ctx, again), librarian.ErrPendingRequest)

	require.NoError(t, r.Process(false))
	require.NoError(t, s.Update(ctx, r))
	n, _ := s.CountPending(ctx)
	assert.Equal(t, int64(0), n)

	require.NoError(t, s.Create(ctx, again))
}

func TestTokenBlacklist(t *testing.T) {
	ctx := context.Background()
	b := NewTokenBlacklist()
	now := time.Now()
	b.now = func() time.Time { return now }

	require.NoError(t, b.Revoke(ctx, "tok", time.Minute))
	revoked, _ := b.IsRevoked(ctx, "tok")
	assert.True(t, revoked)

	b.now = func() time.Time { return now.Add(2 * time.Minute) }
	revoked, _ = b.IsRevoked(ctx, "tok")
	assert.False(t, revoked)
}

func TestIdempotencyStore(t *testing.T) {
	ctx := context.Background()
	s := NewIdempotencyStore()

	_, found, _ := s.Lookup(ctx, 1, "k")
	assert.False(t, found)

	require.NoError(t, s.Save(ctx, 1, "k", 42))
	id, found, _ := s.Lookup(ctx, 1, "k")
	assert.True(t, found)
	assert.Equal(t, uint(42), id)

	_, found, _ = s.Lookup(ctx, 2, "k")
	assert.False(t, found)
}
