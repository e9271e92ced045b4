package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xiebiao/bookshop/internal/domain/order"
)

// OrderStore 订单存储
// 订单只追加,ID单调递增;之后只有状态会被修改
type OrderStore struct {
	mu         sync.RWMutex
	nextID     uint
	nextItemID uint
	orders     map[uint]*order.Order
	now        func() time.Time
}

// NewOrderStore 创建订单存储
func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders: make(map[uint]*order.Order),
		now:    time.Now,
	}
}

var _ order.Repository = (*OrderStore)(nil)

// Create 分配ID(订单和明细)并保存副本
func (s *OrderStore) Create(ctx context.Context, o *order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	o.ID = s.nextID
	for i := range o.Items {
		s.nextItemID++
		o.Items[i].ID = s.nextItemID
		o.Items[i].OrderID = o.ID
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = s.now()
	}
	o.UpdatedAt = o.CreatedAt

	s.orders[o.ID] = o.Clone()
	return nil
}

func (s *OrderStore) FindByID(ctx context.Context, id uint) (*order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	return o.Clone(), nil
}

func (s *OrderStore) ListByUser(ctx context.Context, userID uint) ([]*order.Order, error) {
	return s.filter(func(o *order.Order) bool { return o.UserID == userID }), nil
}

func (s *OrderStore) ListByStatus(ctx context.Context, status order.Status) ([]*order.Order, error) {
	return s.filter(func(o *order.Order) bool { return o.Status == status }), nil
}

func (s *OrderStore) ListAll(ctx context.Context) ([]*order.Order, error) {
	return s.filter(nil), nil
}

// SetStatus 只改状态,没有任何副作用
func (s *OrderStore) SetStatus(ctx context.Context, id uint, status order.Status) error {
	if !status.Valid() {
		return order.ErrInvalidStatus
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return order.ErrOrderNotFound
	}
	o.Status = status
	o.UpdatedAt = s.now()
	return nil
}

// Remove 结算补偿时撤销刚创建的订单
func (s *OrderStore) Remove(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[id]; !ok {
		return order.ErrOrderNotFound
	}
	delete(s.orders, id)
	return nil
}

func (s *OrderStore) Stats(ctx context.Context, day time.Time) (order.Stats, error) {
	start, end := order.DayBounds(day)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var st order.Stats
	for _, o := range s.orders {
		st.TotalOrders++
		today := !o.CreatedAt.Before(start) && o.CreatedAt.Before(end)
		if today {
			st.TodayOrders++
		}
		if o.IsCancelled() {
			continue
		}
		st.TotalRevenue += o.Total
		if today {
			st.TodayRevenue += o.Total
		}
	}
	return st, nil
}

func (s *OrderStore) Recent(ctx context.Context, n int) ([]*order.Order, error) {
	all := s.filter(nil)
	if n >= 0 && len(all) > n {
		all = all[:n]
	}
	return all, nil
}

// TopSelling 按销量降序,销量相同按BookID升序
func (s *OrderStore) TopSelling(ctx context.Context, n int) ([]order.BookSales, error) {
	s.mu.RLock()
	sales := make(map[uint]*order.BookSales)
	for _, o := range s.orders {
		if o.IsCancelled() {
			continue
		}
		for _, it := range o.Items {
			bs, ok := sales[it.BookID]
			if !ok {
				bs = &order.BookSales{BookID: it.BookID, Title: it.Title}
				sales[it.BookID] = bs
			}
			bs.Quantity += it.Quantity
			bs.Revenue += it.Subtotal()
		}
	}
	s.mu.RUnlock()

	out := make([]order.BookSales, 0, len(sales))
	for _, bs := range sales {
		out = append(out, *bs)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity > out[j].Quantity
		}
		return out[i].BookID < out[j].BookID
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// filter 按下单时间倒序(时间相同按ID倒序)返回副本
func (s *OrderStore) filter(keep func(o *order.Order) bool) []*order.Order {
	s.mu.RLock()
	out := make([]*order.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if keep == nil || keep(o) {
			out = append(out, o.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}
