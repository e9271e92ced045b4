// Package access 角色权限判断
//
// 教学要点:
// 1. 角色是有序的能力等级,所有判断都用AtLeast比较
// 2. 无权查看的订单对调用方表现为"不存在",不泄露订单是否存在
package access

import (
	"github.com/xiebiao/bookshop/internal/domain/order"
	"github.com/xiebiao/bookshop/internal/domain/user"
)

// Caller 当前调用方(由认证中间件解析,角色以存储中的当前值为准)
type Caller struct {
	UserID uint
	Role   user.Role
}

// NewCaller 构造调用方
func NewCaller(userID uint, role user.Role) Caller {
	return Caller{UserID: userID, Role: role}
}

// IsAdmin 是否管理员
func (c Caller) IsAdmin() bool {
	return c.Role.AtLeast(user.RoleAdmin)
}

// CanManageCatalog 能否维护图书目录(馆员及以上)
func (c Caller) CanManageCatalog() bool {
	return c.Role.AtLeast(user.RoleLibrarian)
}

// CanManageOrders 能否修改订单状态、查看全部订单(馆员及以上)
func (c Caller) CanManageOrders() bool {
	return c.Role.AtLeast(user.RoleLibrarian)
}

// CanViewOrder 订单本人或馆员及以上
func (c Caller) CanViewOrder(o *order.Order) bool {
	return o.IsOwnedBy(c.UserID) || c.CanManageOrders()
}

// CanCancelOrder 能否取消该订单
// 馆员及以上任何状态都可取消;本人只能取消Pending/Processing
func (c Caller) CanCancelOrder(o *order.Order) bool {
	if c.CanManageOrders() {
		return true
	}
	return o.IsOwnedBy(c.UserID) && o.IsUserCancellable()
}
