package handler

import (
	"github.com/gin-gonic/gin"

	appcart "github.com/xiebiao/bookshop/internal/application/cart"
	"github.com/xiebiao/bookshop/internal/interface/http/dto"
	"github.com/xiebiao/bookshop/internal/interface/http/middleware"
	"github.com/xiebiao/bookshop/pkg/response"
)

// CartHandler 购物车HTTP处理器，所有接口都要求登录
type CartHandler struct {
	carts *appcart.Service
}

// NewCartHandler 创建购物车处理器
func NewCartHandler(carts *appcart.Service) *CartHandler {
	return &CartHandler{carts: carts}
}

// GetCart 查看购物车
// @Summary      查看购物车
// @Tags         购物车
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=appcart.View}
// @Router       /api/v1/cart [get]
func (h *CartHandler) GetCart(c *gin.Context) {
	result, err := h.carts.Get(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// AddItem 加入购物车，已存在的条目累加数量
// @Summary      加入购物车
// @Tags         购物车
// @Security     BearerAuth
// @Param        request body dto.AddCartItemRequest true "条目"
// @Success      200 {object} response.Response{data=appcart.View}
// @Router       /api/v1/cart/items [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	var req dto.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	result, err := h.carts.Add(c.Request.Context(), middleware.GetUserID(c), req.BookID, req.Quantity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// UpdateItem 修改数量
// @Summary      修改购物车数量
// @Tags         购物车
// @Security     BearerAuth
// @Param        book_id path int                       true "图书ID"
// @Param        request body dto.UpdateCartItemRequest true "数量"
// @Router       /api/v1/cart/items/{book_id} [put]
func (h *CartHandler) UpdateItem(c *gin.Context) {
	bookID, ok := pathID(c, "book_id")
	if !ok {
		return
	}
	var req dto.UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	result, err := h.carts.UpdateQuantity(c.Request.Context(), middleware.GetUserID(c), bookID, req.Quantity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// RemoveItem 移除条目
// @Summary      移除购物车条目
// @Tags         购物车
// @Security     BearerAuth
// @Param        book_id path int true "图书ID"
// @Router       /api/v1/cart/items/{book_id} [delete]
func (h *CartHandler) RemoveItem(c *gin.Context) {
	bookID, ok := pathID(c, "book_id")
	if !ok {
		return
	}
	result, err := h.carts.Remove(c.Request.Context(), middleware.GetUserID(c), bookID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ClearCart 清空购物车
// @Summary      清空购物车
// @Tags         购物车
// @Security     BearerAuth
// @Router       /api/v1/cart [delete]
func (h *CartHandler) ClearCart(c *gin.Context) {
	if err := h.carts.Clear(c.Request.Context(), middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// Validate 移除已下架或库存不足的条目
// @Summary      校验购物车
// @Tags         购物车
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=appcart.ValidateResult}
// @Router       /api/v1/cart/validate [post]
func (h *CartHandler) Validate(c *gin.Context) {
	result, err := h.carts.Validate(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
