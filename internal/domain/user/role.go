package user

import "strings"

// Role 用户角色
// 教学要点:
// 1. 角色是全序的能力等级: User < Librarian < Admin
// 2. 权限判断用AtLeast比较大小，而不是枚举"允许的角色列表"
//    这样Librarian天然拥有User的全部权限，Admin拥有Librarian的全部权限
type Role int

const (
	RoleUser      Role = 1 // 普通用户
	RoleLibrarian Role = 2 // 馆员
	RoleAdmin     Role = 3 // 管理员
)

// String 实现Stringer接口（JWT claims和日志使用英文名）
func (r Role) String() string {
	switch r {
	case RoleUser:
		return "User"
	case RoleLibrarian:
		return "Librarian"
	case RoleAdmin:
		return "Admin"
	default:
		return "Unknown"
	}
}

// Valid 是否为已定义的角色
func (r Role) Valid() bool {
	return r >= RoleUser && r <= RoleAdmin
}

// AtLeast 当前角色是否不低于min
func (r Role) AtLeast(min Role) bool {
	return r.Valid() && r >= min
}

// ParseRole 解析角色名（大小写不敏感）
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user":
		return RoleUser, nil
	case "librarian":
		return RoleLibrarian, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return 0, ErrInvalidRole
	}
}
