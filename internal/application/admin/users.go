// Package admin 管理员用例:用户管理、积分调整、统计看板
package admin

import (
	"context"
	"strings"

	"github.com/xiebiao/bookshop/internal/domain/access"
	"github.com/xiebiao/bookshop/internal/domain/user"
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
	"github.com/xiebiao/bookshop/pkg/lock"
	"github.com/xiebiao/bookshop/pkg/logger"
	"github.com/xiebiao/bookshop/pkg/money"
)

// UserManagementUseCase 用户管理
// 设计说明:
// 1. 所有操作要求管理员角色
// 2. 积分调整走CreditLedger,并持有该用户的锁,不会与进行中的结算交错
type UserManagementUseCase struct {
	users  user.Repository
	ledger user.CreditLedger
	locker lock.Locker
}

// NewUserManagementUseCase 创建用户管理用例
func NewUserManagementUseCase(users user.Repository, ledger user.CreditLedger, locker lock.Locker) *UserManagementUseCase {
	return &UserManagementUseCase{users: users, ledger: ledger, locker: locker}
}

// UserDTO 管理视图下的用户
type UserDTO struct {
	ID         uint   `json:"id"`
	Email      string `json:"email"`
	FullName   string `json:"full_name"`
	Role       string `json:"role"`
	Credits    int64  `json:"credits"`
	CreditsStr string `json:"credits_str"`
	IsActive   bool   `json:"is_active"`
	CreatedAt  int64  `json:"created_at"`
}

// ListUsersRequest 用户列表过滤
type ListUsersRequest struct {
	Role       string // 角色名,空表示全部
	ActiveOnly bool
}

// List 用户列表
func (uc *UserManagementUseCase) List(ctx context.Context, caller access.Caller, req ListUsersRequest) ([]UserDTO, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}
	filter := user.ListFilter{ActiveOnly: req.ActiveOnly}
	if r := strings.TrimSpace(req.Role); r != "" {
		role, err := user.ParseRole(r)
		if err != nil {
			return nil, err
		}
		filter.Role = role
	}
	list, err := uc.users.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return toUserDTOs(list), nil
}

// ChangeRole 修改用户角色
func (uc *UserManagementUseCase) ChangeRole(ctx context.Context, caller access.Caller, userID uint, role string) (*UserDTO, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}
	r, err := user.ParseRole(role)
	if err != nil {
		return nil, err
	}
	return uc.update(ctx, userID, func(u *user.User) error {
		return u.ChangeRole(r)
	})
}

// SetActive 启用/停用账号
// 管理员不能停用自己,否则系统可能失去最后一个管理员
func (uc *UserManagementUseCase) SetActive(ctx context.Context, caller access.Caller, userID uint, active bool) (*UserDTO, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}
	if !active && userID == caller.UserID {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidParams, "不能停用自己的账号")
	}
	return uc.update(ctx, userID, func(u *user.User) error {
		if active {
			u.Activate()
		} else {
			u.Deactivate()
		}
		return nil
	})
}

// SetCredits 直接设置余额,amount为元字符串,必须>=0
func (uc *UserManagementUseCase) SetCredits(ctx context.Context, caller access.Caller, userID uint, amount string) (*UserDTO, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}
	cents, err := money.Parse(amount)
	if err != nil || cents < 0 {
		return nil, user.ErrInvalidAmount
	}
	return uc.adjust(ctx, caller, userID, "set", cents, func() error {
		return uc.ledger.SetBalance(ctx, userID, cents)
	})
}

// AddCredits 充值,amount必须>0
func (uc *UserManagementUseCase) AddCredits(ctx context.Context, caller access.Caller, userID uint, amount string) (*UserDTO, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}
	cents, err := money.Parse(amount)
	if err != nil || cents <= 0 {
		return nil, user.ErrInvalidAmount
	}
	return uc.adjust(ctx, caller, userID, "add", cents, func() error {
		return uc.ledger.Credit(ctx, userID, cents)
	})
}

func (uc *UserManagementUseCase) adjust(ctx context.Context, caller access.Caller, userID uint, op string, cents int64, fn func() error) (*UserDTO, error) {
	unlock, err := uc.locker.Lock(ctx, lock.UserKey(userID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := fn(); err != nil {
		return nil, err
	}
	u, err := uc.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	logger.Ctx(ctx).Info().
		Uint("user_id", userID).
		Uint("operator", caller.UserID).
		Str("op", op).
		Str("amount", money.Format(cents)).
		Str("balance", money.Format(u.Credits)).
		Msg("管理员调整积分")
	dto := toUserDTO(u)
	return &dto, nil
}

// update 读-改-写在用户锁内完成,和资料修改、积分调整互不覆盖
func (uc *UserManagementUseCase) update(ctx context.Context, userID uint, fn func(u *user.User) error) (*UserDTO, error) {
	unlock, err := uc.locker.Lock(ctx, lock.UserKey(userID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	u, err := uc.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := fn(u); err != nil {
		return nil, err
	}
	if err := uc.users.Update(ctx, u); err != nil {
		return nil, err
	}
	dto := toUserDTO(u)
	return &dto, nil
}

func toUserDTO(u *user.User) UserDTO {
	return UserDTO{
		ID:         u.ID,
		Email:      u.Email,
		FullName:   u.FullName(),
		Role:       u.Role.String(),
		Credits:    u.Credits,
		CreditsStr: money.Format(u.Credits),
		IsActive:   u.IsActive,
		CreatedAt:  u.CreatedAt.Unix(),
	}
}

func toUserDTOs(users []*user.User) []UserDTO {
	out := make([]UserDTO, 0, len(users))
	for _, u := range users {
		out = append(out, toUserDTO(u))
	}
	return out
}
