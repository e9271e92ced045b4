package user

import (
	"context"

	"github.com/xiebiao/bookshop/internal/domain/user"
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
	"github.com/xiebiao/bookshop/pkg/jwt"
	"github.com/xiebiao/bookshop/pkg/logger"
)

// LoginUseCase 用户登录用例
// 设计说明：
// 1. 验证邮箱密码（停用账号由领域服务拒绝）
// 2. 生成JWT Token对，Access Token携带角色
// 3. 角色只是展示用，鉴权中间件每次请求都会重新读取用户的角色和启用状态
type LoginUseCase struct {
	userService user.Service
	jwtManager  *jwt.Manager
}

// NewLoginUseCase 创建登录用例
func NewLoginUseCase(userService user.Service, jwtManager *jwt.Manager) *LoginUseCase {
	return &LoginUseCase{userService: userService, jwtManager: jwtManager}
}

// Execute 执行登录
func (uc *LoginUseCase) Execute(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	// 1. 验证邮箱密码（调用领域服务）
	u, err := uc.userService.Login(ctx, req.Email, req.Password)
	if err != nil {
		logger.Ctx(ctx).Warn().Str("email", req.Email).Err(err).Msg("登录失败")
		return nil, err
	}

	// 2. 生成JWT Token对
	tokenPair, err := uc.jwtManager.GenerateToken(u.ID, u.Email, u.Role.String())
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		User:         toUserInfo(u),
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresIn:    tokenPair.ExpiresIn,
	}, nil
}

// LogoutUseCase 用户登出用例
// 将Access Token加入黑名单，保留时长等于Access Token有效期
type LogoutUseCase struct {
	blacklist  user.TokenBlacklist
	jwtManager *jwt.Manager
}

// NewLogoutUseCase 创建登出用例
func NewLogoutUseCase(blacklist user.TokenBlacklist, jwtManager *jwt.Manager) *LogoutUseCase {
	return &LogoutUseCase{blacklist: blacklist, jwtManager: jwtManager}
}

// Execute 执行登出
func (uc *LogoutUseCase) Execute(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return apperrors.ErrUnauthorized
	}
	return uc.blacklist.Revoke(ctx, accessToken, uc.jwtManager.AccessTokenTTL())
}

// RefreshUseCase 刷新Access Token
// 角色和邮箱从存储重新读取，已停用的账号不能刷新
type RefreshUseCase struct {
	repo       user.Repository
	jwtManager *jwt.Manager
}

// NewRefreshUseCase 创建刷新用例
func NewRefreshUseCase(repo user.Repository, jwtManager *jwt.Manager) *RefreshUseCase {
	return &RefreshUseCase{repo: repo, jwtManager: jwtManager}
}

// Execute 执行刷新
func (uc *RefreshUseCase) Execute(ctx context.Context, refreshToken string) (*RefreshResponse, error) {
	claims, err := uc.jwtManager.ParseToken(refreshToken)
	if err != nil {
		return nil, err
	}
	u, err := uc.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		if apperrors.GetAppError(err).Code == apperrors.ErrCodeUserNotFound {
			return nil, apperrors.ErrInvalidToken
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, user.ErrAccountDisabled
	}

	token, err := uc.jwtManager.RefreshAccessToken(refreshToken, u.Email, u.Role.String())
	if err != nil {
		return nil, err
	}
	return &RefreshResponse{
		AccessToken: token,
		ExpiresIn:   int64(uc.jwtManager.AccessTokenTTL().Seconds()),
	}, nil
}

// ProfileUseCase 查询当前用户资料（含积分余额）
type ProfileUseCase struct {
	repo user.Repository
}

// NewProfileUseCase 创建资料查询用例
func NewProfileUseCase(repo user.Repository) *ProfileUseCase {
	return &ProfileUseCase{repo: repo}
}

// Execute 查询资料
func (uc *ProfileUseCase) Execute(ctx context.Context, userID uint) (*UserInfo, error) {
	u, err := uc.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	info := toUserInfo(u)
	return &info, nil
}

// =========================================
// 应用层DTO
// =========================================

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string
	Password string
}

// LoginResponse 登录响应
type LoginResponse struct {
	User         UserInfo `json:"user"`
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int64    `json:"expires_in"` // Access Token过期时间（秒）
}

// RefreshResponse 刷新响应
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}
