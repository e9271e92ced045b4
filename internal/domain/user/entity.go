package user

import (
	"strings"
	"time"
)

// DefaultInitialCredits 注册赠送积分（单位:分，100.00）
const DefaultInitialCredits int64 = 10000

// User 用户实体（聚合根）
// DDD设计说明：
// 1. 密码已加密存储（bcrypt），不提供任何返回明文的方法
// 2. Credits以"分"为单位存储，任何时刻都不能为负（由CreditLedger保证）
// 3. 领域实体不依赖GORM tag（infrastructure层的Repository实现时会处理映射）
type User struct {
	ID        uint
	Email     string
	Password  string // bcrypt哈希值
	FirstName string
	LastName  string
	Role      Role
	Credits   int64 // 积分余额（分）
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUser 创建新用户（工厂方法）
// 新用户一律是普通用户角色，并获得初始积分
func NewUser(email, hashedPassword, firstName, lastName string, initialCredits int64) *User {
	now := time.Now()
	return &User{
		Email:     email,
		Password:  hashedPassword,
		FirstName: firstName,
		LastName:  lastName,
		Role:      RoleUser,
		Credits:   initialCredits,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// FullName 展示用姓名（名在前）
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// ChangeRole 修改角色（领域行为，仅管理员操作或馆员申请通过时调用）
func (u *User) ChangeRole(r Role) error {
	if !r.Valid() {
		return ErrInvalidRole
	}
	u.Role = r
	u.UpdatedAt = time.Now()
	return nil
}

// Activate 启用账号
func (u *User) Activate() {
	u.IsActive = true
	u.UpdatedAt = time.Now()
}

// Deactivate 停用账号，停用后不能登录也不能下单
func (u *User) Deactivate() {
	u.IsActive = false
	u.UpdatedAt = time.Now()
}

// UpdateProfile 更新姓名
func (u *User) UpdateProfile(firstName, lastName string) {
	if firstName != "" {
		u.FirstName = firstName
	}
	if lastName != "" {
		u.LastName = lastName
	}
	u.UpdatedAt = time.Now()
}
