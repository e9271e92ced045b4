// Package checkout 结算引擎
//
// 把购物车、图书目录、积分账本、订单存储编排成一次"要么全部生效,要么全部回滚"的结算,
// 以及它的逆操作:取消订单(退积分 + 回补库存)。
//
// 教学要点:
// 1. 所有前置校验在任何写操作之前完成,校验失败不会留下任何修改
// 2. 写操作编排为Saga,任一步失败按逆序补偿
// 3. 同一用户的结算、取消、状态修改通过用户锁串行执行,购物车只能被花掉一次
// 4. 库存和积分的原子性由各自的存储保证(check-and-set),引擎不直接修改字段
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/xiebiao/bookshop/internal/domain/access"
	"github.com/xiebiao/bookshop/internal/domain/book"
	"github.com/xiebiao/bookshop/internal/domain/cart"
	"github.com/xiebiao/bookshop/internal/domain/order"
	"github.com/xiebiao/bookshop/internal/domain/user"
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
	"github.com/xiebiao/bookshop/pkg/lock"
	"github.com/xiebiao/bookshop/pkg/logger"
	"github.com/xiebiao/bookshop/pkg/metrics"
	"github.com/xiebiao/bookshop/pkg/saga"
	"github.com/xiebiao/bookshop/pkg/tracing"
)

const tracerName = "bookshop/checkout"

// Options 引擎配置
type Options struct {
	SagaTimeout time.Duration // Saga整体超时,0表示不限制

	// StrictTransitions 开启后状态只能前向流转(见order.Order.CanTransitionTo)
	// 默认关闭:馆员可以把订单改成任意非取消状态
	StrictTransitions bool
}

// Engine 结算引擎
type Engine struct {
	carts  cart.Store
	books  book.Repository
	ledger user.CreditLedger
	orders order.Repository
	locker lock.Locker
	idem   order.IdempotencyStore // 可为nil
	events order.EventPublisher   // 可为nil
	opts   Options
	now    func() time.Time
}

// NewEngine 创建结算引擎
func NewEngine(
	carts cart.Store,
	books book.Repository,
	ledger user.CreditLedger,
	orders order.Repository,
	locker lock.Locker,
	idem order.IdempotencyStore,
	events order.EventPublisher,
	opts Options,
) *Engine {
	return &Engine{
		carts:  carts,
		books:  books,
		ledger: ledger,
		orders: orders,
		locker: locker,
		idem:   idem,
		events: events,
		opts:   opts,
		now:    time.Now,
	}
}

// SettleRequest 结算请求
type SettleRequest struct {
	UserID         uint
	CustomerName   string
	CustomerEmail  string
	Notes          string
	IdempotencyKey string // 可选,客户端重试时携带同一个key
}

// SettleResult 结算结果
type SettleResult struct {
	Order    *order.Order
	Replayed bool // true表示命中幂等键,返回的是之前创建的订单
}

// settleState Saga步骤之间共享的状态
type settleState struct {
	userID  uint
	lines   []cart.Item
	order   *order.Order
	created bool
	debited bool
}

// Settle 结算购物车
//
// 前置校验(按顺序,任何一项失败都不做修改):
//  1. 购物车非空                 → ErrEmptyCart
//  2. 积分余额 >= 购物车总额      → ErrInsufficientCredits
//  3. 每一行图书可供应所需数量    → ErrItemUnavailable(BookID)
//
// 写入(Saga):逐行扣库存 → 创建订单 → 扣积分;最后清空购物车
// 扣库存失败说明被并发结算抢占,已扣的库存全部回补,返回ErrStockConflict
func (e *Engine) Settle(ctx context.Context, req SettleRequest) (res *SettleResult, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "checkout.Settle",
		attribute.Int64("user.id", int64(req.UserID)))
	done := metrics.TrackSettlement()
	defer func() {
		done(err)
		tracing.EndSpan(span, err)
	}()

	log := logger.Ctx(ctx).With().Uint("user_id", req.UserID).Logger()

	unlock, err := e.locker.Lock(ctx, lock.UserKey(req.UserID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	if replay, err := e.replay(ctx, req); err != nil || replay != nil {
		return replay, err
	}

	c, err := e.carts.Get(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if err := e.checkPreconditions(ctx, req.UserID, c); err != nil {
		return nil, err
	}

	// 写之前最后一次检查是否已取消;Saga开始后必须走完或回滚
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	st := &settleState{userID: req.UserID, lines: c.Items}
	st.order, err = order.NewOrder(order.GenerateOrderNo(e.now()), req.UserID,
		req.CustomerName, req.CustomerEmail, req.Notes, snapshotItems(c.Items))
	if err != nil {
		return nil, err
	}

	if err := e.buildSettleSaga(st).Execute(ctx); err != nil {
		log.Warn().Err(err).Msg("结算失败,已回滚")
		return nil, err
	}

	// 到这里订单和扣款已经生效,后续失败只记录日志
	// 调用方此时取消也不能留下未清空的购物车或缺失的幂等键
	postCtx := context.WithoutCancel(ctx)
	if err := e.carts.Clear(postCtx, req.UserID); err != nil {
		log.Warn().Err(err).Msg("清空购物车失败")
	}
	if req.IdempotencyKey != "" && e.idem != nil {
		if err := e.idem.Save(postCtx, req.UserID, req.IdempotencyKey, st.order.ID); err != nil {
			log.Warn().Err(err).Str("idempotency_key", req.IdempotencyKey).Msg("保存幂等键失败")
		}
	}
	e.publish(postCtx, order.NewEvent(order.EventCreated, st.order, 0))

	log.Info().
		Uint("order_id", st.order.ID).
		Str("order_no", st.order.OrderNo).
		Int64("total", st.order.Total).
		Msg("结算成功")
	span.SetAttributes(attribute.Int64("order.id", int64(st.order.ID)))

	return &SettleResult{Order: st.order}, nil
}

// replay 命中幂等键时返回之前的订单
func (e *Engine) replay(ctx context.Context, req SettleRequest) (*SettleResult, error) {
	if req.IdempotencyKey == "" || e.idem == nil {
		return nil, nil
	}
	orderID, found, err := e.idem.Lookup(ctx, req.UserID, req.IdempotencyKey)
	if err != nil || !found {
		return nil, err
	}
	o, err := e.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &SettleResult{Order: o, Replayed: true}, nil
}

func (e *Engine) checkPreconditions(ctx context.Context, userID uint, c *cart.Cart) error {
	if c.IsEmpty() {
		return ErrEmptyCart
	}

	balance, err := e.ledger.Balance(ctx, userID)
	if err != nil {
		return err
	}
	if balance < c.Total() {
		return ErrInsufficientCredits
	}

	for _, line := range c.Items {
		ok, err := e.books.IsAvailable(ctx, line.BookID, line.Quantity)
		if err != nil {
			return err
		}
		if !ok {
			return itemUnavailable(line.BookID, line.Title)
		}
	}
	return nil
}

func (e *Engine) buildSettleSaga(st *settleState) *saga.Saga {
	s := saga.NewSaga("settle", e.opts.SagaTimeout)

	for _, line := range st.lines {
		line := line
		s.AddStep(fmt.Sprintf("扣减库存[%d]", line.BookID),
			func(ctx context.Context) error {
				err := e.books.AdjustStock(ctx, line.BookID, -line.Quantity)
				if errors.Is(err, book.ErrInsufficientStock) || errors.Is(err, book.ErrBookNotFound) {
					return apperrors.WithCause(ErrStockConflict, err)
				}
				return err
			},
			func(ctx context.Context) error {
				return ignoreMissingBook(e.books.AdjustStock(ctx, line.BookID, line.Quantity))
			},
		)
	}

	s.AddStep("创建订单",
		func(ctx context.Context) error {
			if err := e.orders.Create(ctx, st.order); err != nil {
				return err
			}
			st.created = true
			return nil
		},
		func(ctx context.Context) error {
			if !st.created {
				return nil
			}
			return e.orders.Remove(ctx, st.order.ID)
		},
	)

	// 扣款不跟随请求取消:超时返回错误时无法判断扣款是否已提交,
	// 那样订单被回滚而积分可能已经扣掉
	s.AddStep("扣减积分",
		func(ctx context.Context) error {
			if err := e.ledger.Debit(context.WithoutCancel(ctx), st.userID, st.order.Total); err != nil {
				return err
			}
			st.debited = true
			return nil
		},
		func(ctx context.Context) error {
			if !st.debited {
				return nil
			}
			return e.ledger.Credit(ctx, st.userID, st.order.Total)
		},
	)

	return s
}

// CancelOrder 取消订单
//
// 权限:本人或馆员及以上;本人只能取消Pending/Processing的订单
// 无权查看的订单返回ErrOrderNotFound
// 已取消的订单直接返回(false, nil),不会重复退款和回补库存
func (e *Engine) CancelOrder(ctx context.Context, orderID uint, caller access.Caller) (ok bool, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "checkout.CancelOrder",
		attribute.Int64("order.id", int64(orderID)),
		attribute.Int64("caller.id", int64(caller.UserID)))
	defer func() { tracing.EndSpan(span, err) }()

	err = e.withOrderLock(ctx, orderID, caller, func(o *order.Order) error {
		if o.IsCancelled() {
			metrics.RecordCancellation("noop", 0)
			return nil
		}
		if !caller.CanCancelOrder(o) {
			return order.ErrNotCancellable
		}
		if err := e.cancel(ctx, o); err != nil {
			metrics.RecordCancellation("failure", 0)
			return err
		}
		metrics.RecordCancellation("success", o.Total)
		ok = true
		return nil
	})
	return ok, err
}

// cancel 设置状态、退积分、回补库存;调用方持有订单所属用户的锁
func (e *Engine) cancel(ctx context.Context, o *order.Order) error {
	prev := o.Status
	s := saga.NewSaga("cancel", e.opts.SagaTimeout)

	s.AddStep("设置取消状态",
		func(ctx context.Context) error {
			return e.orders.SetStatus(ctx, o.ID, order.StatusCancelled)
		},
		func(ctx context.Context) error {
			return e.orders.SetStatus(ctx, o.ID, prev)
		},
	)

	// 按下单时冻结的金额退款,与当前图书价格无关
	if o.Total > 0 {
		s.AddStep("退还积分",
			func(ctx context.Context) error {
				return e.ledger.Credit(ctx, o.UserID, o.Total)
			},
			func(ctx context.Context) error {
				return e.ledger.Debit(ctx, o.UserID, o.Total)
			},
		)
	}

	// 图书已被删除时回补是空操作
	for _, it := range o.Items {
		it := it
		s.AddStep(fmt.Sprintf("回补库存[%d]", it.BookID),
			func(ctx context.Context) error {
				return ignoreMissingBook(e.books.AdjustStock(ctx, it.BookID, it.Quantity))
			},
			func(ctx context.Context) error {
				return ignoreMissingBook(e.books.AdjustStock(ctx, it.BookID, -it.Quantity))
			},
		)
	}

	if err := s.Execute(ctx); err != nil {
		return err
	}

	o.Status = order.StatusCancelled
	e.publish(ctx, order.NewEvent(order.EventCancelled, o, prev))
	logger.Ctx(ctx).Info().
		Uint("order_id", o.ID).
		Uint("user_id", o.UserID).
		Int64("refunded", o.Total).
		Str("prev_status", prev.String()).
		Msg("订单已取消")
	return nil
}

// UpdateStatus 修改订单状态(馆员及以上)
//
// - 目标为Cancelled时走取消流程(退款+回补库存),不能绕过
// - 已取消的订单是终态,不能再修改
// - 状态未变化返回(false, nil)
// - 其余情况直接覆盖状态;StrictTransitions开启时只允许前向流转
func (e *Engine) UpdateStatus(ctx context.Context, orderID uint, status order.Status, caller access.Caller) (ok bool, err error) {
	if !caller.CanManageOrders() {
		return false, apperrors.ErrForbidden
	}
	if !status.Valid() {
		return false, order.ErrInvalidStatus
	}
	if status == order.StatusCancelled {
		return e.CancelOrder(ctx, orderID, caller)
	}

	ctx, span := tracing.StartSpan(ctx, tracerName, "checkout.UpdateStatus",
		attribute.Int64("order.id", int64(orderID)),
		attribute.String("order.status", status.String()))
	defer func() { tracing.EndSpan(span, err) }()

	err = e.withOrderLock(ctx, orderID, caller, func(o *order.Order) error {
		if o.IsCancelled() {
			return order.ErrInvalidStatusTransition
		}
		if o.Status == status {
			return nil
		}
		if e.opts.StrictTransitions && !o.CanTransitionTo(status) {
			return order.ErrInvalidStatusTransition
		}

		prev := o.Status
		if err := e.orders.SetStatus(ctx, o.ID, status); err != nil {
			return err
		}
		o.Status = status
		ok = true

		metrics.RecordStatusChange(status.String())
		e.publish(ctx, order.NewEvent(order.EventStatusChanged, o, prev))
		logger.Ctx(ctx).Info().
			Uint("order_id", o.ID).
			Str("from", prev.String()).
			Str("to", status.String()).
			Uint("operator", caller.UserID).
			Msg("订单状态已修改")
		return nil
	})
	return ok, err
}

// withOrderLock 取订单所属用户的锁,在锁内重新读取订单后执行fn
// 锁粒度与Settle相同,同一用户的结算和订单修改互斥
func (e *Engine) withOrderLock(ctx context.Context, orderID uint, caller access.Caller, fn func(o *order.Order) error) error {
	o, err := e.orders.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	if !caller.CanViewOrder(o) {
		return order.ErrOrderNotFound
	}

	unlock, err := e.locker.Lock(ctx, lock.UserKey(o.UserID))
	if err != nil {
		return err
	}
	defer unlock()

	o, err = e.orders.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	return fn(o)
}

func (e *Engine) publish(ctx context.Context, ev order.Event) {
	if e.events == nil {
		return
	}
	if err := e.events.Publish(ctx, ev); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("event", ev.Type).Uint("order_id", ev.OrderID).Msg("发布订单事件失败")
	}
}

func snapshotItems(lines []cart.Item) []order.Item {
	items := make([]order.Item, len(lines))
	for i, l := range lines {
		items[i] = order.Item{
			BookID:    l.BookID,
			Title:     l.Title,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
		}
	}
	return items
}

func ignoreMissingBook(err error) error {
	if errors.Is(err, book.ErrBookNotFound) {
		return nil
	}
	return err
}
