package checkout

import (
	"context"
	"errors"
	"testing"

	"pgregory.net/rapid"

	"github.com/xiebiao/bookshop/internal/domain/book"
	"github.com/xiebiao/bookshop/internal/domain/user"
)

// 结算守恒:余额减少量 == 订单总额 == Σ单价×数量,每本书库存减少量 == 购买数量
// 取消是逆操作:结算后立即取消,余额和库存恢复到结算前
func TestProperty_SettleConservationAndCancelInverse(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ctx := context.Background()
		f := newFixture(Options{})

		credits := rapid.Int64Range(0, 50000).Draw(t, "credits")
		u := f.addUser(t, credits, user.RoleUser)

		nBooks := rapid.IntRange(1, 4).Draw(t, "books")
		books := make([]*book.Book, nBooks)
		qty := make(map[uint]int)
		stockBefore := make(map[uint]int)
		for i := range books {
			price := rapid.Int64Range(book.MinPrice, 5000).Draw(t, "price")
			stock := rapid.IntRange(0, 10).Draw(t, "stock")
			books[i] = f.addBook(t, "B", price, stock)
			stockBefore[books[i].ID] = stock

			q := rapid.IntRange(0, 3).Draw(t, "qty")
			if q > 0 {
				f.addToCart(t, u.ID, books[i], q)
				qty[books[i].ID] = q
			}
		}

		c, _ := f.carts.Get(ctx, u.ID)
		cartTotal := c.Total()

		res, err := f.engine.Settle(ctx, SettleRequest{UserID: u.ID})
		if err != nil {
			// 失败时没有任何修改
			if !errors.Is(err, ErrEmptyCart) && !errors.Is(err, ErrInsufficientCredits) && !errors.Is(err, ErrItemUnavailable) {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := f.balance(t, u.ID); got != credits {
				t.Fatalf("balance changed on failure: %d → %d", credits, got)
			}
			for id, before := range stockBefore {
				if got := f.stock(t, id); got != before {
					t.Fatalf("stock of %d changed on failure: %d → %d", id, before, got)
				}
			}
			if f.orderCount(t) != 0 {
				t.Fatalf("order persisted on failure")
			}
			return
		}

		o := res.Order
		var lineSum int64
		for _, it := range o.Items {
			lineSum += it.Subtotal()
		}
		if o.Total != cartTotal || o.Total != lineSum {
			t.Fatalf("total %d, cart %d, lines %d", o.Total, cartTotal, lineSum)
		}
		if got := f.balance(t, u.ID); credits-got != o.Total {
			t.Fatalf("debited %d, want %d", credits-got, o.Total)
		}
		for id, before := range stockBefore {
			if got := f.stock(t, id); before-got != qty[id] {
				t.Fatalf("book %d stock %d → %d, bought %d", id, before, got, qty[id])
			}
		}

		ok, err := f.engine.CancelOrder(ctx, o.ID, owner(u))
		if err != nil || !ok {
			t.Fatalf("cancel: ok=%v err=%v", ok, err)
		}
		if got := f.balance(t, u.ID); got != credits {
			t.Fatalf("balance after cancel %d, want %d", got, credits)
		}
		for id, before := range stockBefore {
			if got := f.stock(t, id); got != before {
				t.Fatalf("book %d stock after cancel %d, want %d", id, got, before)
			}
		}
	})
}

// 任意结算/取消序列之后,积分和库存都不会为负
func TestProperty_NoNegativeBalances(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ctx := context.Background()
		f := newFixture(Options{})

		u := f.addUser(t, rapid.Int64Range(0, 10000).Draw(t, "credits"), user.RoleUser)
		a := f.addBook(t, "A", rapid.Int64Range(1, 3000).Draw(t, "price"), rapid.IntRange(0, 5).Draw(t, "stock"))

		var placed []uint
		steps := rapid.IntRange(1, 15).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			if rapid.Bool().Draw(t, "settle") || len(placed) == 0 {
				f.addToCart(t, u.ID, a, rapid.IntRange(1, 3).Draw(t, "qty"))
				if res, err := f.engine.Settle(ctx, SettleRequest{UserID: u.ID}); err == nil {
					placed = append(placed, res.Order.ID)
				} else {
					_ = f.carts.Clear(ctx, u.ID)
				}
				continue
			}
			idx := rapid.IntRange(0, len(placed)-1).Draw(t, "cancel")
			if _, err := f.engine.CancelOrder(ctx, placed[idx], owner(u)); err != nil {
				t.Fatalf("cancel: %v", err)
			}
		}

		if f.balance(t, u.ID) < 0 {
			t.Fatalf("negative balance")
		}
		if f.stock(t, a.ID) < 0 {
			t.Fatalf("negative stock")
		}
	})
}
