package user

import (
	"context"
	"strings"

	"github.com/xiebiao/bookshop/internal/domain/user"
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
	"github.com/xiebiao/bookshop/pkg/lock"
	"github.com/xiebiao/bookshop/pkg/logger"
)

const maxNameLen = 50

// ErrEmptyProfile 修改资料时姓和名都为空
var ErrEmptyProfile = apperrors.WithMessage(apperrors.ErrInvalidParams, "至少填写姓或名中的一项")

// UpdateProfileUseCase 修改本人资料
// 设计说明:
// 1. 只能改姓名,邮箱、角色和积分走各自的流程
// 2. 空字段表示不修改
// 3. Update会整行写回角色和启用状态,所以在用户锁内读-改-写,避免覆盖管理员的并发修改
type UpdateProfileUseCase struct {
	repo   user.Repository
	locker lock.Locker
}

// NewUpdateProfileUseCase 创建资料修改用例
func NewUpdateProfileUseCase(repo user.Repository, locker lock.Locker) *UpdateProfileUseCase {
	return &UpdateProfileUseCase{repo: repo, locker: locker}
}

// UpdateProfileRequest 修改资料请求
type UpdateProfileRequest struct {
	FirstName string
	LastName  string
}

// Execute 修改资料,返回修改后的资料
func (uc *UpdateProfileUseCase) Execute(ctx context.Context, userID uint, req UpdateProfileRequest) (*UserInfo, error) {
	first := strings.TrimSpace(req.FirstName)
	last := strings.TrimSpace(req.LastName)
	if first == "" && last == "" {
		return nil, ErrEmptyProfile
	}
	if len([]rune(first)) > maxNameLen || len([]rune(last)) > maxNameLen {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidParams, "姓名不能超过50个字符")
	}

	unlock, err := uc.locker.Lock(ctx, lock.UserKey(userID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	u, err := uc.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.UpdateProfile(first, last)
	if err := uc.repo.Update(ctx, u); err != nil {
		return nil, err
	}

	logger.Ctx(ctx).Info().Uint("user_id", userID).Msg("用户资料已更新")
	info := toUserInfo(u)
	return &info, nil
}
