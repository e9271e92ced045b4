package user

import (
	"context"
)

// Repository 用户仓储接口
// DDD设计说明：
// 1. 接口定义在domain层（依赖倒置原则）
// 2. 具体实现在infrastructure/persistence/{memory,mysql}
// 3. 积分字段不通过Update修改，只能走CreditLedger（保证原子性）
type Repository interface {
	// Create 创建用户
	// 注意：如果邮箱已存在，应返回ErrEmailDuplicate
	Create(ctx context.Context, user *User) error

	// FindByID 根据ID查找用户，不存在返回ErrUserNotFound
	FindByID(ctx context.Context, id uint) (*User, error)

	// FindByEmail 根据邮箱查找用户，不存在返回ErrUserNotFound
	FindByEmail(ctx context.Context, email string) (*User, error)

	// Update 更新用户资料、角色和启用状态（不含积分）
	Update(ctx context.Context, user *User) error

	// List 按条件查询用户，按ID升序
	List(ctx context.Context, filter ListFilter) ([]*User, error)

	// Count 用户总数
	Count(ctx context.Context) (int64, error)

	// Recent 最近注册的n个用户，按注册时间倒序
	Recent(ctx context.Context, n int) ([]*User, error)
}

// ListFilter 用户列表过滤条件
type ListFilter struct {
	Role       Role // 0表示不过滤
	ActiveOnly bool
}

// CreditLedger 积分账本
// 教学要点:
// 1. 每个用户的读-改-写必须是原子的（并发的扣减和退款不能丢失更新）
// 2. 任何操作都不能让余额变成负数，失败时不做任何修改
// 3. 金额单位为"分"
type CreditLedger interface {
	// Balance 查询余额，用户不存在返回ErrUserNotFound
	Balance(ctx context.Context, userID uint) (int64, error)

	// Credit 增加积分（退款、充值），amount必须>0
	Credit(ctx context.Context, userID uint, amount int64) error

	// Debit 扣减积分（结算），amount必须>0
	// 余额不足返回ErrInsufficientCredits，余额保持不变
	Debit(ctx context.Context, userID uint, amount int64) error

	// SetBalance 管理员直接设置余额，amount必须>=0
	SetBalance(ctx context.Context, userID uint, amount int64) error
}
