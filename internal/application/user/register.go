package user

import (
	"context"

	"github.com/xiebiao/bookshop/internal/domain/user"
	"github.com/xiebiao/bookshop/pkg/logger"
	"github.com/xiebiao/bookshop/pkg/money"
)

// RegisterUseCase 用户注册用例
// 设计说明：
// 1. Application层负责用例编排，校验和加密交给领域服务
// 2. 新用户一律是普通用户，初始积分在领域服务构造时注入
type RegisterUseCase struct {
	userService user.Service
}

// NewRegisterUseCase 创建注册用例
func NewRegisterUseCase(userService user.Service) *RegisterUseCase {
	return &RegisterUseCase{userService: userService}
}

// Execute 执行注册
// 返回：UserInfo（应用层DTO，不是领域实体）
func (uc *RegisterUseCase) Execute(ctx context.Context, req RegisterRequest) (*UserInfo, error) {
	u, err := uc.userService.Register(ctx, req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		return nil, err
	}

	logger.Ctx(ctx).Info().Uint("user_id", u.ID).Str("email", u.Email).Msg("新用户注册")
	info := toUserInfo(u)
	return &info, nil
}

// =========================================
// 应用层DTO（数据传输对象）
// =========================================

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// UserInfo 用户信息
// 说明：不返回密码字段
type UserInfo struct {
	ID         uint   `json:"id"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Role       string `json:"role"`
	Credits    int64  `json:"credits"`
	CreditsStr string `json:"credits_str"`
	IsActive   bool   `json:"is_active"`
	CreatedAt  int64  `json:"created_at"`
}

func toUserInfo(u *user.User) UserInfo {
	return UserInfo{
		ID:         u.ID,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Role:       u.Role.String(),
		Credits:    u.Credits,
		CreditsStr: money.Format(u.Credits),
		IsActive:   u.IsActive,
		CreatedAt:  u.CreatedAt.Unix(),
	}
}

func toUserInfos(users []*user.User) []UserInfo {
	out := make([]UserInfo, 0, len(users))
	for _, u := range users {
		out = append(out, toUserInfo(u))
	}
	return out
}
