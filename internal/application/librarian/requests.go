package librarian

import (
	"context"
	"errors"
	"time"

	"github.com/xiebiao/bookshop/internal/domain/access"
	"github.com/xiebiao/bookshop/internal/domain/librarian"
	"github.com/xiebiao/bookshop/internal/domain/user"
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
	"github.com/xiebiao/bookshop/pkg/logger"
)

// RequestUseCase 馆员申请用例
// 设计说明:
// 1. 普通用户提交申请,已是馆员或管理员的用户不需要申请
// 2. 审批只由管理员执行;通过时把用户角色升为Librarian(已是管理员的不降级)
type RequestUseCase struct {
	requests librarian.Repository
	users    user.Repository
}

// NewRequestUseCase 创建申请用例
func NewRequestUseCase(requests librarian.Repository, users user.Repository) *RequestUseCase {
	return &RequestUseCase{requests: requests, users: users}
}

// RequestDTO 申请DTO
type RequestDTO struct {
	ID          uint   `json:"id"`
	UserID      uint   `json:"user_id"`
	UserEmail   string `json:"user_email,omitempty"`
	UserName    string `json:"user_name,omitempty"`
	Reason      string `json:"reason"`
	IsProcessed bool   `json:"is_processed"`
	Approved    bool   `json:"approved"`
	CreatedAt   string `json:"created_at"`
	ProcessedAt string `json:"processed_at,omitempty"`
}

// Submit 提交申请
func (uc *RequestUseCase) Submit(ctx context.Context, caller access.Caller, reason string) (*RequestDTO, error) {
	if caller.CanManageCatalog() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidParams, "您已拥有馆员权限")
	}
	r, err := librarian.NewRequest(caller.UserID, reason)
	if err != nil {
		return nil, err
	}
	if err := uc.requests.Create(ctx, r); err != nil {
		return nil, err
	}
	logger.Ctx(ctx).Info().Uint("user_id", caller.UserID).Uint("request_id", r.ID).Msg("提交馆员申请")
	dto := toRequestDTO(r, nil)
	return &dto, nil
}

// ListPending 待处理申请(管理员)
func (uc *RequestUseCase) ListPending(ctx context.Context, caller access.Caller) ([]RequestDTO, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}
	list, err := uc.requests.ListPending(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]RequestDTO, 0, len(list))
	for _, r := range list {
		u, err := uc.users.FindByID(ctx, r.UserID)
		if err != nil && !errors.Is(err, user.ErrUserNotFound) {
			return nil, err
		}
		out = append(out, toRequestDTO(r, u))
	}
	return out, nil
}

// Approve 通过申请
func (uc *RequestUseCase) Approve(ctx context.Context, caller access.Caller, requestID uint) (*RequestDTO, error) {
	return uc.process(ctx, caller, requestID, true)
}

// Reject 拒绝申请
func (uc *RequestUseCase) Reject(ctx context.Context, caller access.Caller, requestID uint) (*RequestDTO, error) {
	return uc.process(ctx, caller, requestID, false)
}

func (uc *RequestUseCase) process(ctx context.Context, caller access.Caller, requestID uint, approved bool) (*RequestDTO, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}
	r, err := uc.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := r.Process(approved); err != nil {
		return nil, err
	}

	u, err := uc.users.FindByID(ctx, r.UserID)
	if err != nil {
		return nil, err
	}
	if approved && !u.Role.AtLeast(user.RoleLibrarian) {
		if err := u.ChangeRole(user.RoleLibrarian); err != nil {
			return nil, err
		}
		if err := uc.users.Update(ctx, u); err != nil {
			return nil, err
		}
	}
	if err := uc.requests.Update(ctx, r); err != nil {
		return nil, err
	}

	logger.Ctx(ctx).Info().
		Uint("request_id", r.ID).
		Uint("user_id", r.UserID).
		Uint("operator", caller.UserID).
		Bool("approved", approved).
		Msg("馆员申请已处理")
	dto := toRequestDTO(r, u)
	return &dto, nil
}

func toRequestDTO(r *librarian.Request, u *user.User) RequestDTO {
	dto := RequestDTO{
		ID:          r.ID,
		UserID:      r.UserID,
		Reason:      r.Reason,
		IsProcessed: r.IsProcessed,
		Approved:    r.Approved,
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
	}
	if r.ProcessedAt != nil {
		dto.ProcessedAt = r.ProcessedAt.Format(time.RFC3339)
	}
	if u != nil {
		dto.UserEmail = u.Email
		dto.UserName = u.FullName()
	}
	return dto
}
