package order

import (
	"context"
	"strings"
	"time"

	"github.com/xiebiao/bookshop/internal/application/checkout"
	"github.com/xiebiao/bookshop/internal/domain/access"
	"github.com/xiebiao/bookshop/internal/domain/order"
	"github.com/xiebiao/bookshop/internal/domain/user"
	"github.com/xiebiao/bookshop/pkg/money"
)

// CreateOrderUseCase 下单用例(结算购物车)
// 设计说明：
// 1. 订单明细不由客户端提交,一律来自服务端购物车
// 2. 收货人姓名/邮箱默认取用户资料,客户端可以覆盖
// 3. 扣库存、建订单、扣积分的一致性由结算引擎保证
type CreateOrderUseCase struct {
	engine *checkout.Engine
	users  user.Repository
}

// NewCreateOrderUseCase 创建下单用例
func NewCreateOrderUseCase(engine *checkout.Engine, users user.Repository) *CreateOrderUseCase {
	return &CreateOrderUseCase{engine: engine, users: users}
}

// Execute 执行下单
func (uc *CreateOrderUseCase) Execute(ctx context.Context, req CreateOrderRequest) (*OrderDetail, error) {
	u, err := uc.users.FindByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, user.ErrAccountDisabled
	}

	name := strings.TrimSpace(req.CustomerName)
	if name == "" {
		name = u.FullName()
	}
	email := strings.TrimSpace(req.CustomerEmail)
	if email == "" {
		email = u.Email
	}

	res, err := uc.engine.Settle(ctx, checkout.SettleRequest{
		UserID:         u.ID,
		CustomerName:   name,
		CustomerEmail:  email,
		Notes:          strings.TrimSpace(req.Notes),
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		return nil, err
	}

	detail := toOrderDetail(res.Order)
	detail.Replayed = res.Replayed
	return &detail, nil
}

// CancelOrderUseCase 取消订单
type CancelOrderUseCase struct {
	engine *checkout.Engine
}

// NewCancelOrderUseCase 创建取消用例
func NewCancelOrderUseCase(engine *checkout.Engine) *CancelOrderUseCase {
	return &CancelOrderUseCase{engine: engine}
}

// Execute 取消订单,已取消的订单返回Changed=false
func (uc *CancelOrderUseCase) Execute(ctx context.Context, orderID uint, caller access.Caller) (*ChangeResult, error) {
	changed, err := uc.engine.CancelOrder(ctx, orderID, caller)
	if err != nil {
		return nil, err
	}
	return &ChangeResult{OrderID: orderID, Status: order.StatusCancelled.String(), Changed: changed}, nil
}

// UpdateStatusUseCase 修改订单状态(馆员及以上)
type UpdateStatusUseCase struct {
	engine *checkout.Engine
}

// NewUpdateStatusUseCase 创建改状态用例
func NewUpdateStatusUseCase(engine *checkout.Engine) *UpdateStatusUseCase {
	return &UpdateStatusUseCase{engine: engine}
}

// Execute 修改状态,status为状态名(大小写不敏感)
func (uc *UpdateStatusUseCase) Execute(ctx context.Context, orderID uint, status string, caller access.Caller) (*ChangeResult, error) {
	st, err := order.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	changed, err := uc.engine.UpdateStatus(ctx, orderID, st, caller)
	if err != nil {
		return nil, err
	}
	return &ChangeResult{OrderID: orderID, Status: st.String(), Changed: changed}, nil
}

// =========================================
// 应用层DTO
// =========================================

// CreateOrderRequest 下单请求
type CreateOrderRequest struct {
	UserID         uint // 从JWT中提取
	CustomerName   string
	CustomerEmail  string
	Notes          string
	IdempotencyKey string // 来自Idempotency-Key请求头
}

// OrderItemDTO 订单明细
type OrderItemDTO struct {
	BookID        uint   `json:"book_id"`
	Title         string `json:"title"`
	UnitPrice     int64  `json:"unit_price"`
	UnitPriceYuan string `json:"unit_price_yuan"`
	Quantity      int    `json:"quantity"`
	Subtotal      int64  `json:"subtotal"`
}

// OrderDetail 订单详情
type OrderDetail struct {
	OrderID       uint           `json:"order_id"`
	OrderNo       string         `json:"order_no"`
	UserID        uint           `json:"user_id"`
	CustomerName  string         `json:"customer_name"`
	CustomerEmail string         `json:"customer_email"`
	Notes         string         `json:"notes,omitempty"`
	Status        string         `json:"status"`
	Total         int64          `json:"total"`
	TotalYuan     string         `json:"total_yuan"`
	Items         []OrderItemDTO `json:"items"`
	CreatedAt     string         `json:"created_at"`
	Replayed      bool           `json:"replayed,omitempty"`
}

// ChangeResult 状态修改结果
type ChangeResult struct {
	OrderID uint   `json:"order_id"`
	Status  string `json:"status"`
	Changed bool   `json:"changed"`
}

// ToOrderDetail 领域实体 → DTO
func ToOrderDetail(o *order.Order) OrderDetail {
	return toOrderDetail(o)
}

func toOrderDetail(o *order.Order) OrderDetail {
	d := OrderDetail{
		OrderID:       o.ID,
		OrderNo:       o.OrderNo,
		UserID:        o.UserID,
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		Notes:         o.Notes,
		Status:        o.Status.String(),
		Total:         o.Total,
		TotalYuan:     money.Format(o.Total),
		Items:         make([]OrderItemDTO, 0, len(o.Items)),
		CreatedAt:     o.CreatedAt.Format(time.RFC3339),
	}
	for _, it := range o.Items {
		d.Items = append(d.Items, OrderItemDTO{
			BookID:        it.BookID,
			Title:         it.Title,
			UnitPrice:     it.UnitPrice,
			UnitPriceYuan: money.Format(it.UnitPrice),
			Quantity:      it.Quantity,
			Subtotal:      it.Subtotal(),
		})
	}
	return d
}

func toOrderDetails(orders []*order.Order) []OrderDetail {
	out := make([]OrderDetail, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderDetail(o))
	}
	return out
}
