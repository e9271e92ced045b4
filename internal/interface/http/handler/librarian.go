package handler

import (
	"github.com/gin-gonic/gin"

	applibrarian "github.com/xiebiao/bookshop/internal/application/librarian"
	"github.com/xiebiao/bookshop/internal/interface/http/dto"
	"github.com/xiebiao/bookshop/internal/interface/http/middleware"
	"github.com/xiebiao/bookshop/pkg/response"
)

// LibrarianHandler 馆员申请
// 普通用户提交申请，管理员审批
type LibrarianHandler struct {
	requests *applibrarian.RequestUseCase
}

// NewLibrarianHandler 创建馆员申请处理器
func NewLibrarianHandler(requests *applibrarian.RequestUseCase) *LibrarianHandler {
	return &LibrarianHandler{requests: requests}
}

// Apply 提交馆员申请
// @Summary      申请成为馆员
// @Tags         馆员申请
// @Security     BearerAuth
// @Param        request body dto.LibrarianApplyRequest true "申请理由"
// @Success      200 {object} response.Response{data=applibrarian.RequestDTO}
// @Router       /api/v1/librarian-requests [post]
func (h *LibrarianHandler) Apply(c *gin.Context) {
	var req dto.LibrarianApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	result, err := h.requests.Submit(c.Request.Context(), middleware.MustGetCaller(c), req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ListPending 待处理申请
// @Summary      待处理申请
// @Tags         馆员申请
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=[]applibrarian.RequestDTO}
// @Router       /api/v1/admin/librarian-requests [get]
func (h *LibrarianHandler) ListPending(c *gin.Context) {
	result, err := h.requests.ListPending(c.Request.Context(), middleware.MustGetCaller(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Approve 通过申请
// @Summary      通过申请
// @Tags         馆员申请
// @Security     BearerAuth
// @Param        id path int true "申请ID"
// @Router       /api/v1/admin/librarian-requests/{id}/approve [post]
func (h *LibrarianHandler) Approve(c *gin.Context) {
	h.process(c, true)
}

// Reject 拒绝申请
// @Summary      拒绝申请
// @Tags         馆员申请
// @Security     BearerAuth
// @Param        id path int true "申请ID"
// @Router       /api/v1/admin/librarian-requests/{id}/reject [post]
func (h *LibrarianHandler) Reject(c *gin.Context) {
	h.process(c, false)
}

func (h *LibrarianHandler) process(c *gin.Context, approve bool) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	caller := middleware.MustGetCaller(c)
	var (
		result *applibrarian.RequestDTO
		err    error
	)
	if approve {
		result, err = h.requests.Approve(c.Request.Context(), caller, id)
	} else {
		result, err = h.requests.Reject(c.Request.Context(), caller, id)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
