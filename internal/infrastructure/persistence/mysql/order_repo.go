package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/xiebiao/bookshop/internal/domain/order"
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
)

// orderRepository 订单仓储实现(MySQL)
// 教学要点:
// 1. Order和OrderItem是聚合关系,必须一起保存
// 2. 查询时使用Preload预加载明细,避免N+1问题
// 3. 事务通过context传递
type orderRepository struct {
	db *gorm.DB
	tx *TxManager
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB, tx *TxManager) order.Repository {
	return &orderRepository{db: db, tx: tx}
}

// Create 创建订单
// GORM在同一事务里插入订单和关联的Items
func (r *orderRepository) Create(ctx context.Context, o *order.Order) error {
	model := toOrderModel(o)
	if err := dbFrom(ctx, r.db).Create(model).Error; err != nil {
		return apperrors.WithCause(apperrors.ErrDatabaseError, err)
	}

	// 回填自增ID
	o.ID = model.ID
	o.CreatedAt = model.CreatedAt
	o.UpdatedAt = model.UpdatedAt
	for i := range o.Items {
		o.Items[i].ID = model.Items[i].ID
		o.Items[i].OrderID = model.ID
	}
	return nil
}

// FindByID 根据ID查找订单
// Preload("Items")会执行:
// 1. SELECT * FROM orders WHERE id = ?
// 2. SELECT * FROM order_items WHERE order_id IN (?)
func (r *orderRepository) FindByID(ctx context.Context, id uint) (*order.Order, error) {
	var model OrderModel
	if err := dbFrom(ctx, r.db).Preload("Items").First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, order.ErrOrderNotFound
		}
		return nil, apperrors.WithCause(apperrors.ErrDatabaseError, err)
	}
	return toOrderEntity(&model), nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID uint) ([]*order.Order, error) {
	return r.list(ctx, dbFrom(ctx, r.db).Where("user_id = ?", userID), -1)
}

func (r *orderRepository) ListByStatus(ctx context.Context, status order.Status) ([]*order.Order, error) {
	return r.list(ctx, dbFrom(ctx, r.db).Where("status = ?", int(status)), -1)
}

func (r *orderRepository) ListAll(ctx context.Context) ([]*order.Order, error) {
	return r.list(ctx, dbFrom(ctx, r.db), -1)
}

func (r *orderRepository) Recent(ctx context.Context, n int) ([]*order.Order, error) {
	return r.list(ctx, dbFrom(ctx, r.db), n)
}

// list 按下单时间倒序(时间相同按ID倒序),limit<0表示不限制
func (r *orderRepository) list(ctx context.Context, query *gorm.DB, limit int) ([]*order.Order, error) {
	var models []OrderModel
	err := query.Preload("Items").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, apperrors.WithCause(apperrors.ErrDatabaseError, err)
	}
	orders := make([]*order.Order, len(models))
	for i := range models {
		orders[i] = toOrderEntity(&models[i])
	}
	return orders, nil
}

// SetStatus 只改状态,没有任何副作用
func (r *orderRepository) SetStatus(ctx context.Context, id uint, status order.Status) error {
	if !status.Valid() {
		return order.ErrInvalidStatus
	}
	result := dbFrom(ctx, r.db).Model(&OrderModel{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":     int(status),
		"updated_at": time.Now(),
	})
	if result.Error != nil {
		return apperrors.WithCause(apperrors.ErrDatabaseError, result.Error)
	}
	if result.RowsAffected == 0 {
		return order.ErrOrderNotFound
	}
	return nil
}

// Remove 结算补偿时撤销刚创建的订单(明细和订单在同一事务里删除)
func (r *orderRepository) Remove(ctx context.Context, id uint) error {
	return r.tx.Transaction(ctx, func(ctx context.Context) error {
		db := dbFrom(ctx, r.db)
		if err := db.Where("order_id = ?", id).Delete(&OrderItemModel{}).Error; err != nil {
			return apperrors.WithCause(apperrors.ErrDatabaseError, err)
		}
		result := db.Delete(&OrderModel{}, id)
		if result.Error != nil {
			return apperrors.WithCause(apperrors.ErrDatabaseError, result.Error)
		}
		if result.RowsAffected == 0 {
			return order.ErrOrderNotFound
		}
		return nil
	})
}

// Stats 营收统计
// 教学要点:用条件聚合一条SQL算出四个数,已取消订单不计营收,今日订单数包含已取消
func (r *orderRepository) Stats(ctx context.Context, day time.Time) (order.Stats, error) {
	start, end := order.DayBounds(day)
	cancelled := int(order.StatusCancelled)

	var row struct {
		TotalOrders  int64
		TotalRevenue int64
		TodayOrders  int64
		TodayRevenue int64
	}
	err := dbFrom(ctx, r.db).Model(&OrderModel{}).Select(`
		COUNT(*) AS total_orders,
		COALESCE(SUM(CASE WHEN status <> ? THEN total ELSE 0 END), 0) AS total_revenue,
		COALESCE(SUM(CASE WHEN created_at >= ? AND created_at < ? THEN 1 ELSE 0 END), 0) AS today_orders,
		COALESCE(SUM(CASE WHEN status <> ? AND created_at >= ? AND created_at < ? THEN total ELSE 0 END), 0) AS today_revenue`,
		cancelled, start, end, cancelled, start, end,
	).Scan(&row).Error
	if err != nil {
		return order.Stats{}, apperrors.WithCause(apperrors.ErrDatabaseError, err)
	}
	return order.Stats{
		TotalOrders:  row.TotalOrders,
		TotalRevenue: row.TotalRevenue,
		TodayOrders:  row.TodayOrders,
		TodayRevenue: row.TodayRevenue,
	}, nil
}

// TopSelling 未取消订单中销量最高的n本书,销量相同按BookID升序
func (r *orderRepository) TopSelling(ctx context.Context, n int) ([]order.BookSales, error) {
	var rows []struct {
		BookID   uint
		Title    string
		Quantity int
		Revenue  int64
	}
	err := dbFrom(ctx, r.db).Table("order_items AS oi").
		Select("oi.book_id, MAX(oi.title) AS title, SUM(oi.quantity) AS quantity, SUM(oi.quantity * oi.unit_price) AS revenue").
		Joins("JOIN orders o ON o.id = oi.order_id").
		Where("o.status <> ?", int(order.StatusCancelled)).
		Group("oi.book_id").
		Order("quantity DESC, oi.book_id ASC").
		Limit(n).
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.WithCause(apperrors.ErrDatabaseError, err)
	}

	out := make([]order.BookSales, len(rows))
	for i, row := range rows {
		out[i] = order.BookSales{BookID: row.BookID, Title: row.Title, Quantity: row.Quantity, Revenue: row.Revenue}
	}
	return out, nil
}

// =========================================
// 辅助函数:模型转换
// =========================================

// toOrderModel 领域实体 → GORM模型
func toOrderModel(o *order.Order) *OrderModel {
	items := make([]OrderItemModel, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemModel{
			ID:        item.ID,
			OrderID:   item.OrderID,
			BookID:    item.BookID,
			Title:     item.Title,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		}
	}

	return &OrderModel{
		ID:            o.ID,
		OrderNo:       o.OrderNo,
		UserID:        o.UserID,
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		Notes:         o.Notes,
		Total:         o.Total,
		Status:        int(o.Status),
		Items:         items,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

// toOrderEntity GORM模型 → 领域实体
func toOrderEntity(model *OrderModel) *order.Order {
	items := make([]order.Item, len(model.Items))
	for i, item := range model.Items {
		items[i] = order.Item{
			ID:        item.ID,
			OrderID:   item.OrderID,
			BookID:    item.BookID,
			Title:     item.Title,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		}
	}

	return &order.Order{
		ID:            model.ID,
		OrderNo:       model.OrderNo,
		UserID:        model.UserID,
		CustomerName:  model.CustomerName,
		CustomerEmail: model.CustomerEmail,
		Notes:         model.Notes,
		Status:        order.Status(model.Status),
		Total:         model.Total,
		Items:         items,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}
