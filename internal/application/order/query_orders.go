package order

import (
	"context"
	"strings"

	"github.com/xiebiao/bookshop/internal/domain/access"
	"github.com/xiebiao/bookshop/internal/domain/order"
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
)

// QueryOrdersUseCase 订单查询
// 普通用户只能看到自己的订单;馆员及以上可以查看全部订单,并按状态过滤
type QueryOrdersUseCase struct {
	orders order.Repository
}

// NewQueryOrdersUseCase 创建订单查询用例
func NewQueryOrdersUseCase(orders order.Repository) *QueryOrdersUseCase {
	return &QueryOrdersUseCase{orders: orders}
}

// ListOrdersRequest 订单列表请求
type ListOrdersRequest struct {
	Status string // 状态名,空表示不过滤
	All    bool   // 馆员查看全部订单
}

// List 订单列表
func (uc *QueryOrdersUseCase) List(ctx context.Context, caller access.Caller, req ListOrdersRequest) ([]OrderDetail, error) {
	var status order.Status
	if s := strings.TrimSpace(req.Status); s != "" {
		st, err := order.ParseStatus(s)
		if err != nil {
			return nil, err
		}
		status = st
	}

	if req.All || status != 0 {
		if !caller.CanManageOrders() {
			return nil, apperrors.ErrForbidden
		}
		var (
			list []*order.Order
			err  error
		)
		if status != 0 {
			list, err = uc.orders.ListByStatus(ctx, status)
		} else {
			list, err = uc.orders.ListAll(ctx)
		}
		if err != nil {
			return nil, err
		}
		return toOrderDetails(list), nil
	}

	list, err := uc.orders.ListByUser(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	return toOrderDetails(list), nil
}

// Get 订单详情,无权查看时表现为不存在
func (uc *QueryOrdersUseCase) Get(ctx context.Context, caller access.Caller, orderID uint) (*OrderDetail, error) {
	o, err := uc.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !caller.CanViewOrder(o) {
		return nil, order.ErrOrderNotFound
	}
	d := toOrderDetail(o)
	return &d, nil
}
