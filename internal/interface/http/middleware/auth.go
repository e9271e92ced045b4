package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/bookshop/internal/domain/access"
	"github.com/xiebiao/bookshop/internal/domain/user"
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
	"github.com/xiebiao/bookshop/pkg/jwt"
	"github.com/xiebiao/bookshop/pkg/logger"
	"github.com/xiebiao/bookshop/pkg/response"
)

// Context中的key
const (
	ctxUserID = "user_id"
	ctxEmail  = "email"
	ctxCaller = "caller"
	ctxToken  = "access_token"
)

// AuthMiddleware JWT认证中间件
// 设计说明：
// 1. 从Header提取Token
// 2. 检查Token黑名单
// 3. 验证Token有效性
// 4. 按Token中的用户ID重新读取用户：角色和启用状态以存储中的当前值为准，
//    管理员降级或停用某个账号后，旧Token立即失去对应权限
// 5. 将调用方注入Context
type AuthMiddleware struct {
	jwtManager *jwt.Manager
	blacklist  user.TokenBlacklist
	users      user.Repository
}

// NewAuthMiddleware 创建认证中间件
func NewAuthMiddleware(jwtManager *jwt.Manager, blacklist user.TokenBlacklist, users user.Repository) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
		blacklist:  blacklist,
		users:      users,
	}
}

// RequireAuth 要求登录
// 使用方式：
//
//	authorized := r.Group("/api/v1")
//	authorized.Use(authMiddleware.RequireAuth())
//	authorized.GET("/profile", handler.Profile)
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		// 1. 格式：Authorization: Bearer <token>
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Abort(c, apperrors.ErrUnauthorized)
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			response.Abort(c, apperrors.WithMessage(apperrors.ErrInvalidToken, "Token格式错误"))
			return
		}
		tokenString := parts[1]

		// 2. 用户已登出或Token被强制失效
		revoked, err := m.blacklist.IsRevoked(ctx, tokenString)
		if err != nil {
			response.Abort(c, err)
			return
		}
		if revoked {
			response.Abort(c, apperrors.WithMessage(apperrors.ErrInvalidToken, "Token已失效，请重新登录"))
			return
		}

		// 3. 自动处理ErrTokenExpired、ErrInvalidToken
		claims, err := m.jwtManager.ParseToken(tokenString)
		if err != nil {
			response.Abort(c, err)
			return
		}

		// 4. 当前角色和状态
		u, err := m.users.FindByID(ctx, claims.UserID)
		if err != nil {
			if errors.Is(err, user.ErrUserNotFound) {
				err = apperrors.ErrInvalidToken
			}
			response.Abort(c, err)
			return
		}
		if !u.IsActive {
			response.Abort(c, user.ErrAccountDisabled)
			return
		}

		// 5. 学习要点：使用Context传递请求级别的数据
		c.Set(ctxUserID, u.ID)
		c.Set(ctxEmail, u.Email)
		c.Set(ctxCaller, access.NewCaller(u.ID, u.Role))
		c.Set(ctxToken, tokenString)
		c.Request = c.Request.WithContext(logger.WithFields(ctx, map[string]interface{}{"user_id": u.ID}))

		c.Next()
	}
}

// RequireRole 要求至少具有某个角色，必须放在RequireAuth之后
//
//	librarian := authorized.Group("", middleware.RequireRole(user.RoleLibrarian))
func RequireRole(min user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := GetCaller(c)
		if !ok {
			response.Abort(c, apperrors.ErrUnauthorized)
			return
		}
		if !caller.Role.AtLeast(min) {
			response.Abort(c, apperrors.ErrForbidden)
			return
		}
		c.Next()
	}
}

// =========================================
// Context辅助函数（供Handler使用）
// =========================================

// GetUserID 从Context获取当前登录用户ID，未登录返回0
func GetUserID(c *gin.Context) uint {
	if v, exists := c.Get(ctxUserID); exists {
		if uid, ok := v.(uint); ok {
			return uid
		}
	}
	return 0
}

// GetCaller 当前调用方
func GetCaller(c *gin.Context) (access.Caller, bool) {
	if v, exists := c.Get(ctxCaller); exists {
		if caller, ok := v.(access.Caller); ok {
			return caller, true
		}
	}
	return access.Caller{}, false
}

// MustGetCaller 用于已经通过RequireAuth中间件的Handler
func MustGetCaller(c *gin.Context) access.Caller {
	caller, ok := GetCaller(c)
	if !ok {
		panic("caller not found in context")
	}
	return caller
}

// GetAccessToken 当前请求使用的Access Token（登出时拉黑）
func GetAccessToken(c *gin.Context) string {
	return c.GetString(ctxToken)
}
