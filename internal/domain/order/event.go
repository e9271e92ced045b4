package order

import (
	"context"
	"time"
)

// 领域事件类型(同时作为MQ的routing key)
const (
	EventCreated       = "order.created"
	EventCancelled     = "order.cancelled"
	EventStatusChanged = "order.status_changed"
)

// Event 订单领域事件
// 只携带下游需要的快照字段,不携带整个聚合
type Event struct {
	Type       string    `json:"type"`
	OrderID    uint      `json:"order_id"`
	OrderNo    string    `json:"order_no"`
	UserID     uint      `json:"user_id"`
	Status     string    `json:"status"`
	PrevStatus string    `json:"prev_status,omitempty"`
	Total      int64     `json:"total"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewEvent 基于订单当前状态构造事件
func NewEvent(typ string, o *Order, prev Status) Event {
	e := Event{
		Type:       typ,
		OrderID:    o.ID,
		OrderNo:    o.OrderNo,
		UserID:     o.UserID,
		Status:     o.Status.String(),
		Total:      o.Total,
		OccurredAt: time.Now(),
	}
	if prev.Valid() {
		e.PrevStatus = prev.String()
	}
	return e
}

// EventPublisher 事件发布
// 发布失败不影响主流程(订单已经落库),由实现方记录日志
type EventPublisher interface {
	Publish(ctx context.Context, e Event) error
}
