package order

import (
	"context"
	"time"
)

// Repository 订单仓储接口(依赖倒置原则)
// 教学要点:
// 1. 订单只追加创建,之后只有状态可以原地修改
// 2. SetStatus只改状态,不做退款和回补库存(那是结算引擎的职责)
type Repository interface {
	// Create 创建订单(包含明细),分配单调递增的ID并回填
	Create(ctx context.Context, order *Order) error

	// FindByID 根据ID查找订单(包含明细),不存在返回ErrOrderNotFound
	FindByID(ctx context.Context, id uint) (*Order, error)

	// ListByUser 用户的订单,按下单时间倒序
	ListByUser(ctx context.Context, userID uint) ([]*Order, error)

	// ListByStatus 某状态的全部订单,按下单时间倒序
	ListByStatus(ctx context.Context, status Status) ([]*Order, error)

	// ListAll 全部订单,按下单时间倒序
	ListAll(ctx context.Context) ([]*Order, error)

	// SetStatus 修改状态,订单不存在返回ErrOrderNotFound
	SetStatus(ctx context.Context, id uint, status Status) error

	// Remove 删除订单,只用于结算失败时的补偿
	Remove(ctx context.Context, id uint) error

	// Stats 营收统计,day决定"今日"的范围(本地时区的自然日)
	Stats(ctx context.Context, day time.Time) (Stats, error)

	// Recent 最近n个订单
	Recent(ctx context.Context, n int) ([]*Order, error)

	// TopSelling 未取消订单中销量最高的n本书
	TopSelling(ctx context.Context, n int) ([]BookSales, error)
}

// Stats 订单统计
// 已取消订单不计入营收;今日订单数包含已取消订单
type Stats struct {
	TotalOrders  int64
	TotalRevenue int64
	TodayOrders  int64
	TodayRevenue int64
}

// BookSales 图书销量
type BookSales struct {
	BookID   uint
	Title    string
	Quantity int
	Revenue  int64
}

// DayBounds 返回t所在自然日的[开始,结束)
func DayBounds(t time.Time) (time.Time, time.Time) {
	y, m, d := t.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}

// IdempotencyStore 结算幂等键存储
// 同一用户用同一个key重复结算时,返回第一次创建的订单,不产生任何副作用
// 实现:memory(进程内) / bolt(本地文件,重启不丢)
type IdempotencyStore interface {
	// Lookup 查找key对应的订单ID
	Lookup(ctx context.Context, userID uint, key string) (orderID uint, found bool, err error)

	// Save 记录key对应的订单ID
	Save(ctx context.Context, userID uint, key string, orderID uint) error
}
