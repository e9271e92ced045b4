package order

import (
	"strings"
	"time"
)

// Status 订单状态
// 教学要点:
// 1. 使用int类型而非string(节省存储空间,便于索引)
// 2. 状态值1-5按流转方向递增,Cancelled是唯一有副作用(退款+回补库存)的终态
type Status int

const (
	StatusPending    Status = 1 // 待处理
	StatusProcessing Status = 2 // 处理中
	StatusShipped    Status = 3 // 已发货
	StatusDelivered  Status = 4 // 已送达
	StatusCancelled  Status = 5 // 已取消
)

// String 实现Stringer接口(方便日志输出和JSON展示)
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusProcessing:
		return "Processing"
	case StatusShipped:
		return "Shipped"
	case StatusDelivered:
		return "Delivered"
	case StatusCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Valid 是否为已定义的状态
func (s Status) Valid() bool {
	return s >= StatusPending && s <= StatusCancelled
}

// ParseStatus 按名称解析状态(大小写不敏感)
func ParseStatus(s string) (Status, error) {
	for st := StatusPending; st <= StatusCancelled; st++ {
		if strings.EqualFold(st.String(), strings.TrimSpace(s)) {
			return st, nil
		}
	}
	return 0, ErrInvalidStatus
}

// forward 前向流转表(严格模式使用)
// Delivered和Cancelled是终态
var forward = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusDelivered, StatusCancelled},
	StatusShipped:    {StatusDelivered, StatusCancelled},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

// Order 订单实体(聚合根)
// 教学要点:
// 1. Total在创建时冻结,之后永不重算,取消时按它退款(与当前目录价格无关)
// 2. Items保存书名、单价快照,图书改价或删除不影响历史订单
type Order struct {
	ID            uint
	OrderNo       string // 订单号(展示用,全局唯一)
	UserID        uint   // 下单用户
	CustomerName  string
	CustomerEmail string
	Notes         string
	Status        Status
	Total         int64 // 订单总金额(分),创建后不可变
	Items         []Item
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Item 订单明细
// 不是独立聚合根,必须通过Order访问;只保存BookID,不跨聚合引用Book
type Item struct {
	ID        uint
	OrderID   uint
	BookID    uint
	Title     string // 下单时的书名
	UnitPrice int64  // 下单时的单价(分)
	Quantity  int
}

// Subtotal 小计
func (i Item) Subtotal() int64 {
	return i.UnitPrice * int64(i.Quantity)
}

// NewOrder 创建新订单(工厂方法)
// Total由明细计算后冻结,初始状态为Pending
func NewOrder(orderNo string, userID uint, customerName, customerEmail, notes string, items []Item) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrInvalidOrderItems
	}
	var total int64
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		total += it.Subtotal()
	}

	now := time.Now()
	return &Order{
		OrderNo:       orderNo,
		UserID:        userID,
		CustomerName:  customerName,
		CustomerEmail: customerEmail,
		Notes:         notes,
		Status:        StatusPending,
		Total:         total,
		Items:         items,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// CanTransitionTo 严格模式下是否允许流转到target
func (o *Order) CanTransitionTo(target Status) bool {
	for _, allowed := range forward[o.Status] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsCancelled 是否已取消
func (o *Order) IsCancelled() bool {
	return o.Status == StatusCancelled
}

// IsUserCancellable 普通用户只能取消待处理和处理中的订单
func (o *Order) IsUserCancellable() bool {
	return o.Status == StatusPending || o.Status == StatusProcessing
}

// IsOwnedBy 检查订单是否属于指定用户
func (o *Order) IsOwnedBy(userID uint) bool {
	return o.UserID == userID
}

// ItemCount 商品总件数
func (o *Order) ItemCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

// Clone 深拷贝,存储层返回副本,防止调用方绕过SetStatus修改状态
func (o *Order) Clone() *Order {
	cp := *o
	cp.Items = make([]Item, len(o.Items))
	copy(cp.Items, o.Items)
	return &cp
}
