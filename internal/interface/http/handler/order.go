package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/bookshop/internal/application/checkout"
	apporder "github.com/xiebiao/bookshop/internal/application/order"
	"github.com/xiebiao/bookshop/internal/interface/http/dto"
	"github.com/xiebiao/bookshop/internal/interface/http/middleware"
	"github.com/xiebiao/bookshop/pkg/response"
)

// IdempotencyHeader 结算请求的幂等键
const IdempotencyHeader = "Idempotency-Key"

// OrderHandler 订单HTTP处理器
type OrderHandler struct {
	createOrder  *apporder.CreateOrderUseCase
	cancelOrder  *apporder.CancelOrderUseCase
	updateStatus *apporder.UpdateStatusUseCase
	queryOrders  *apporder.QueryOrdersUseCase
}

// NewOrderHandler 创建订单处理器
func NewOrderHandler(
	createOrder *apporder.CreateOrderUseCase,
	cancelOrder *apporder.CancelOrderUseCase,
	updateStatus *apporder.UpdateStatusUseCase,
	queryOrders *apporder.QueryOrdersUseCase,
) *OrderHandler {
	return &OrderHandler{
		createOrder:  createOrder,
		cancelOrder:  cancelOrder,
		updateStatus: updateStatus,
		queryOrders:  queryOrders,
	}
}

// Checkout 结算购物车
// @Summary      结算
// @Description  扣减库存和积分，生成订单并清空购物车。带相同Idempotency-Key的重复请求返回同一订单
// @Tags         订单
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key header string              false "幂等键"
// @Param        request         body   dto.CheckoutRequest false "收货信息"
// @Success      200 {object} response.Response{data=apporder.OrderDetail} "下单成功"
// @Failure      200 {object} response.Response{data=dto.UnavailableItem} "商品不可购买(40012),data中是具体图书"
// @Failure      200 {object} response.Response "购物车为空(40010) / 积分不足(40011) / 库存冲突(40020)"
// @Router       /api/v1/cart/checkout [post]
func (h *OrderHandler) Checkout(c *gin.Context) {
	var req dto.CheckoutRequest
	// 请求体可以为空
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindFailed(c, err)
			return
		}
	}

	result, err := h.createOrder.Execute(c.Request.Context(), apporder.CreateOrderRequest{
		UserID:         middleware.GetUserID(c),
		CustomerName:   req.CustomerName,
		CustomerEmail:  req.CustomerEmail,
		Notes:          req.Notes,
		IdempotencyKey: c.GetHeader(IdempotencyHeader),
	})
	if err != nil {
		var unavailable *checkout.ItemUnavailableError
		if errors.As(err, &unavailable) {
			response.ErrorWithData(c, err, dto.UnavailableItem{BookID: unavailable.BookID, Title: unavailable.Title})
			return
		}
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ListOrders 订单列表
// @Summary      订单列表
// @Description  普通用户只能看到自己的订单；馆员可按状态过滤或查看全部
// @Tags         订单
// @Security     BearerAuth
// @Param        status query string false "Pending|Processing|Shipped|Delivered|Cancelled"
// @Param        all    query bool   false "查看全部订单(馆员)"
// @Success      200 {object} response.Response{data=[]apporder.OrderDetail}
// @Router       /api/v1/orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	var req dto.ListOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}
	result, err := h.queryOrders.List(c.Request.Context(), middleware.MustGetCaller(c), apporder.ListOrdersRequest{
		Status: req.Status,
		All:    req.All,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// GetOrder 订单详情
// @Summary      订单详情
// @Tags         订单
// @Security     BearerAuth
// @Param        id path int true "订单ID"
// @Success      200 {object} response.Response{data=apporder.OrderDetail}
// @Router       /api/v1/orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.queryOrders.Get(c.Request.Context(), middleware.MustGetCaller(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// CancelOrder 取消订单，退还积分和库存
// @Summary      取消订单
// @Tags         订单
// @Security     BearerAuth
// @Param        id path int true "订单ID"
// @Success      200 {object} response.Response{data=apporder.ChangeResult}
// @Router       /api/v1/orders/{id}/cancel [post]
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.cancelOrder.Execute(c.Request.Context(), id, middleware.MustGetCaller(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// UpdateStatus 修改订单状态
// @Summary      修改订单状态
// @Tags         订单
// @Security     BearerAuth
// @Param        id      path int                          true "订单ID"
// @Param        request body dto.UpdateOrderStatusRequest true "目标状态"
// @Success      200 {object} response.Response{data=apporder.ChangeResult}
// @Router       /api/v1/orders/{id}/status [put]
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	result, err := h.updateStatus.Execute(c.Request.Context(), id, req.Status, middleware.MustGetCaller(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
