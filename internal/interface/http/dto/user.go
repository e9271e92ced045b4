package dto

// RegisterRequest HTTP层注册请求
// 说明：HTTP层的DTO，包含参数验证tag；密码强度由领域服务校验
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email" example:"reader@example.com"`
	Password  string `json:"password" binding:"required,min=8,max=20" example:"Reader123"`
	FirstName string `json:"first_name" binding:"required,max=50" example:"San"`
	LastName  string `json:"last_name" binding:"max=50" example:"Zhang"`
}

// LoginRequest HTTP层登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"user@bookstore.com"`
	Password string `json:"password" binding:"required" example:"User12345"`
}

// UpdateProfileRequest 修改个人资料,空字段不修改
type UpdateProfileRequest struct {
	FirstName string `json:"first_name" binding:"max=50" example:"San"`
	LastName  string `json:"last_name" binding:"max=50" example:"Zhang"`
}

// RefreshRequest 刷新Access Token
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LibrarianApplyRequest 馆员申请
type LibrarianApplyRequest struct {
	Reason string `json:"reason" binding:"required,max=1000" example:"我在图书馆工作过三年"`
}
