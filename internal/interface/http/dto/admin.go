package dto

// ChangeRoleRequest 修改角色
type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required" example:"Librarian"`
}

// CreditsRequest 设置/增加积分,金额单位为元
type CreditsRequest struct {
	Amount string `json:"amount" binding:"required" example:"100.00"`
}

// ListUsersRequest 用户列表
type ListUsersRequest struct {
	Role       string `form:"role" example:"Librarian"`
	ActiveOnly bool   `form:"active_only"`
}
