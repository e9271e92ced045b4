package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	appadmin "github.com/xiebiao/bookshop/internal/application/admin"
	"github.com/xiebiao/bookshop/internal/domain/access"
	"github.com/xiebiao/bookshop/internal/interface/http/dto"
	"github.com/xiebiao/bookshop/internal/interface/http/middleware"
	"github.com/xiebiao/bookshop/pkg/response"
)

// AdminHandler 管理后台
type AdminHandler struct {
	users     *appadmin.UserManagementUseCase
	dashboard *appadmin.DashboardUseCase
}

// NewAdminHandler 创建管理后台处理器
func NewAdminHandler(users *appadmin.UserManagementUseCase, dashboard *appadmin.DashboardUseCase) *AdminHandler {
	return &AdminHandler{users: users, dashboard: dashboard}
}

// Dashboard 看板
// @Summary      管理看板
// @Tags         管理
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=appadmin.Dashboard}
// @Router       /api/v1/admin/dashboard [get]
func (h *AdminHandler) Dashboard(c *gin.Context) {
	result, err := h.dashboard.Execute(c.Request.Context(), middleware.MustGetCaller(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ListUsers 用户列表
// @Summary      用户列表
// @Tags         管理
// @Security     BearerAuth
// @Param        role        query string false "User|Librarian|Admin"
// @Param        active_only query bool   false "只看启用账号"
// @Success      200 {object} response.Response{data=[]appadmin.UserDTO}
// @Router       /api/v1/admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	var req dto.ListUsersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}
	result, err := h.users.List(c.Request.Context(), middleware.MustGetCaller(c), appadmin.ListUsersRequest{
		Role:       req.Role,
		ActiveOnly: req.ActiveOnly,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ChangeRole 修改角色
// @Summary      修改角色
// @Tags         管理
// @Security     BearerAuth
// @Param        id      path int                   true "用户ID"
// @Param        request body dto.ChangeRoleRequest true "角色"
// @Router       /api/v1/admin/users/{id}/role [put]
func (h *AdminHandler) ChangeRole(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	result, err := h.users.ChangeRole(c.Request.Context(), middleware.MustGetCaller(c), id, req.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// SetCredits 设置积分
// @Summary      设置积分
// @Tags         管理
// @Security     BearerAuth
// @Param        id      path int                true "用户ID"
// @Param        request body dto.CreditsRequest true "金额(元)"
// @Router       /api/v1/admin/users/{id}/credits [put]
func (h *AdminHandler) SetCredits(c *gin.Context) {
	h.credits(c, h.users.SetCredits)
}

// AddCredits 充值积分
// @Summary      充值积分
// @Tags         管理
// @Security     BearerAuth
// @Param        id      path int                true "用户ID"
// @Param        request body dto.CreditsRequest true "金额(元)"
// @Router       /api/v1/admin/users/{id}/credits/add [post]
func (h *AdminHandler) AddCredits(c *gin.Context) {
	h.credits(c, h.users.AddCredits)
}

type creditsFunc func(ctx context.Context, caller access.Caller, userID uint, amount string) (*appadmin.UserDTO, error)

func (h *AdminHandler) credits(c *gin.Context, fn creditsFunc) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.CreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	result, err := fn(c.Request.Context(), middleware.MustGetCaller(c), id, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Activate 启用账号
// @Summary      启用账号
// @Tags         管理
// @Security     BearerAuth
// @Param        id path int true "用户ID"
// @Router       /api/v1/admin/users/{id}/activate [post]
func (h *AdminHandler) Activate(c *gin.Context) {
	h.setActive(c, true)
}

// Deactivate 停用账号
// @Summary      停用账号
// @Tags         管理
// @Security     BearerAuth
// @Param        id path int true "用户ID"
// @Router       /api/v1/admin/users/{id}/deactivate [post]
func (h *AdminHandler) Deactivate(c *gin.Context) {
	h.setActive(c, false)
}

func (h *AdminHandler) setActive(c *gin.Context, active bool) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.users.SetActive(c.Request.Context(), middleware.MustGetCaller(c), id, active)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
