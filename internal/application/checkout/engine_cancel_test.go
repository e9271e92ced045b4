package checkout

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/bookshop/internal/domain/order"
	"github.com/xiebiao/bookshop/internal/domain/user"
	"github.com/xiebiao/bookshop/internal/infrastructure/persistence/memory"
	redisstore "github.com/xiebiao/bookshop/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/bookshop/pkg/lock"
)

// cancellingLedger 在扣款前后取消请求Context,模拟客户端断开或网关超时
//
// reportCtxErr为true时,扣款写入后若Context已取消则返回ctx.Err(),
// 和数据库驱动在提交之后才察觉超时的表现一致
type cancellingLedger struct {
	*memory.UserStore
	cancel       context.CancelFunc
	cancelBefore bool
	reportCtxErr bool
}

func (l *cancellingLedger) Debit(ctx context.Context, userID uint, amount int64) error {
	if l.cancelBefore {
		l.cancel()
	}
	if err := l.UserStore.Debit(ctx, userID, amount); err != nil {
		return err
	}
	if !l.cancelBefore {
		l.cancel()
	}
	if l.reportCtxErr {
		return ctx.Err()
	}
	return nil
}

func newRedisCarts(t *testing.T) *redisstore.CartStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redisstore.NewCartStore(client, 0)
}

// 扣款成功后调用方取消:订单已生效,购物车和幂等键仍要落地
func TestSettle_CancelAfterCommitStillClearsCart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := newFixture(Options{})
	u := f.addUser(t, 10000, user.RoleUser)
	a := f.addBook(t, "A", 1599, 8)

	carts := newRedisCarts(t)
	c, err := carts.Get(ctx, u.ID)
	require.NoError(t, err)
	require.NoError(t, c.Add(a, 2))
	require.NoError(t, carts.Save(ctx, c))

	idem := memory.NewIdempotencyStore()
	ledger := &cancellingLedger{UserStore: f.users, cancel: cancel}
	engine := NewEngine(carts, f.books, ledger, f.orders, lock.NewKeyedMutex(), idem, f.events, Options{})

	res, err := engine.Settle(ctx, SettleRequest{UserID: u.ID, IdempotencyKey: "k-1"})
	require.NoError(t, err)
	require.Error(t, ctx.Err(), "扣款后请求Context已取消")

	after, err := carts.Get(context.Background(), u.ID)
	require.NoError(t, err)
	assert.True(t, after.IsEmpty(), "订单生效后购物车必须清空")

	id, found, err := idem.Lookup(context.Background(), u.ID, "k-1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, res.Order.ID, id)

	assert.Equal(t, int64(10000-2*1599), f.balance(t, u.ID))
	assert.Contains(t, f.events.types(), order.EventCreated)
}

// 扣款过程中请求取消:扣款不跟随取消,不会出现订单回滚而积分已扣的情况
func TestSettle_CancelDuringDebitDoesNotStrandCredits(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := newFixture(Options{})
	u := f.addUser(t, 10000, user.RoleUser)
	a := f.addBook(t, "A", 1000, 5)
	f.addToCart(t, u.ID, a, 3)

	ledger := &cancellingLedger{UserStore: f.users, cancel: cancel, cancelBefore: true, reportCtxErr: true}
	engine := NewEngine(f.carts, f.books, ledger, f.orders, lock.NewKeyedMutex(), nil, nil, Options{})

	res, err := engine.Settle(ctx, SettleRequest{UserID: u.ID})
	require.NoError(t, err)

	// 扣款、订单、库存三者一致
	assert.Equal(t, int64(7000), f.balance(t, u.ID))
	assert.Equal(t, 2, f.stock(t, a.ID))
	assert.Equal(t, 1, f.orderCount(t))
	assert.Equal(t, int64(3000), res.Order.Total)
}
