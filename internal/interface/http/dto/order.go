package dto

// AddCartItemRequest 加入购物车
type AddCartItemRequest struct {
	BookID   uint `json:"book_id" binding:"required" example:"1"`
	Quantity int  `json:"quantity" binding:"required,min=1,max=999" example:"2"`
}

// UpdateCartItemRequest 修改数量,0表示删除
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"min=0,max=999" example:"3"`
}

// CheckoutRequest 结算
// 姓名和邮箱为空时使用账号资料
type CheckoutRequest struct {
	CustomerName  string `json:"customer_name" binding:"max=100" example:"张三"`
	CustomerEmail string `json:"customer_email" binding:"omitempty,email" example:"zhangsan@example.com"`
	Notes         string `json:"notes" binding:"max=500"`
}

// UnavailableItem 结算失败(40012)时返回的不可购买图书
type UnavailableItem struct {
	BookID uint   `json:"book_id" example:"3"`
	Title  string `json:"title" example:"Animal Farm"`
}

// ListOrdersRequest 订单列表
type ListOrdersRequest struct {
	Status string `form:"status" example:"Pending"`
	All    bool   `form:"all"`
}

// UpdateOrderStatusRequest 修改订单状态
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required" example:"Shipped"`
}
