package order

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/bookshop/internal/application/checkout"
	"github.com/xiebiao/bookshop/internal/domain/access"
	"github.com/xiebiao/bookshop/internal/domain/book"
	"github.com/xiebiao/bookshop/internal/domain/order"
	"github.com/xiebiao/bookshop/internal/domain/user"
	"github.com/xiebiao/bookshop/internal/infrastructure/persistence/memory"
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
	"github.com/xiebiao/bookshop/pkg/lock"
)

type env struct {
	users  *memory.UserStore
	books  *memory.BookStore
	carts  *memory.CartStore
	orders *memory.OrderStore
	create *CreateOrderUseCase
	cancel *CancelOrderUseCase
	status *UpdateStatusUseCase
	query  *QueryOrdersUseCase
}

func newEnv() *env {
	e := &env{
		users:  memory.NewUserStore(),
		books:  memory.NewBookStore(),
		carts:  memory.NewCartStore(),
		orders: memory.NewOrderStore(),
	}
	engine := checkout.NewEngine(e.carts, e.books, e.users, e.orders, lock.NewKeyedMutex(),
		memory.NewIdempotencyStore(), nil, checkout.Options{})
	e.create = NewCreateOrderUseCase(engine, e.users)
	e.cancel = NewCancelOrderUseCase(engine)
	e.status = NewUpdateStatusUseCase(engine)
	e.query = NewQueryOrdersUseCase(e.orders)
	return e
}

func (e *env) addUser(t *testing.T, email string, role user.Role) *user.User {
	t.Helper()
	u := user.NewUser(email, "hash", "Ada", "Lovelace", 10000)
	u.Role = role
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

func (e *env) fillCart(t *testing.T, userID uint, price int64) *book.Book {
	t.Helper()
	ctx := context.Background()
	b := book.NewBook("Dune", 1, book.CategoryScience, price, 5)
	require.NoError(t, e.books.Create(ctx, b))
	c, _ := e.carts.Get(ctx, userID)
	require.NoError(t, c.Add(b, 1))
	require.NoError(t, e.carts.Save(ctx, c))
	return b
}

func TestCreateOrder_DefaultsCustomerFromProfile(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	u := e.addUser(t, "ada@example.com", user.RoleUser)
	e.fillCart(t, u.ID, 1599)

	d, err := e.create.Execute(ctx, CreateOrderRequest{UserID: u.ID, Notes: " leave at door "})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", d.CustomerName)
	assert.Equal(t, "ada@example.com", d.CustomerEmail)
	assert.Equal(t, "leave at door", d.Notes)
	assert.Equal(t, "15.99", d.TotalYuan)
	assert.Equal(t, "Pending", d.Status)
	require.Len(t, d.Items, 1)
}

func TestCreateOrder_InactiveUserRejected(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	u := e.addUser(t, "ada@example.com", user.RoleUser)
	e.fillCart(t, u.ID, 100)
	u.Deactivate()
	require.NoError(t, e.users.Update(ctx, u))

	_, err := e.create.Execute(ctx, CreateOrderRequest{UserID: u.ID})
	assert.ErrorIs(t, err, user.ErrAccountDisabled)
}

func TestQueryAndStatus(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	u := e.addUser(t, "ada@example.com", user.RoleUser)
	other := e.addUser(t, "bob@example.com", user.RoleUser)
	lib := e.addUser(t, "lib@example.com", user.RoleLibrarian)
	e.fillCart(t, u.ID, 100)

	d, err := e.create.Execute(ctx, CreateOrderRequest{UserID: u.ID})
	require.NoError(t, err)

	own, err := e.query.List(ctx, access.NewCaller(u.ID, u.Role), ListOrdersRequest{})
	require.NoError(t, err)
	assert.Len(t, own, 1)

	none, err := e.query.List(ctx, access.NewCaller(other.ID, other.Role), ListOrdersRequest{})
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = e.query.List(ctx, access.NewCaller(u.ID, u.Role), ListOrdersRequest{All: true})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = e.query.Get(ctx, access.NewCaller(other.ID, other.Role), d.OrderID)
	assert.ErrorIs(t, err, order.ErrOrderNotFound)

	res, err := e.status.Execute(ctx, d.OrderID, "shipped", access.NewCaller(lib.ID, lib.Role))
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, "Shipped", res.Status)

	shipped, err := e.query.List(ctx, access.NewCaller(lib.ID, lib.Role), ListOrdersRequest{Status: "Shipped"})
	require.NoError(t, err)
	assert.Len(t, shipped, 1)

	_, err = e.status.Execute(ctx, d.OrderID, "lost", access.NewCaller(lib.ID, lib.Role))
	assert.ErrorIs(t, err, order.ErrInvalidStatus)

	// 已发货,本人不能再取消
	_, err = e.cancel.Execute(ctx, d.OrderID, access.NewCaller(u.ID, u.Role))
	assert.ErrorIs(t, err, order.ErrNotCancellable)

	res, err = e.cancel.Execute(ctx, d.OrderID, access.NewCaller(lib.ID, lib.Role))
	require.NoError(t, err)
	assert.True(t, res.Changed)

	bal, _ := e.users.Balance(ctx, u.ID)
	assert.Equal(t, int64(10000), bal)
}
