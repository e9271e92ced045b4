package admin

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	orderapp "github.com/xiebiao/bookshop/internal/application/order"
	"github.com/xiebiao/bookshop/internal/domain/access"
	"github.com/xiebiao/bookshop/internal/domain/book"
	"github.com/xiebiao/bookshop/internal/domain/librarian"
	"github.com/xiebiao/bookshop/internal/domain/order"
	"github.com/xiebiao/bookshop/internal/domain/user"
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
	"github.com/xiebiao/bookshop/pkg/money"
)

const (
	recentOrders = 10
	recentUsers  = 5
	topSelling   = 5
)

// DashboardUseCase 管理员统计看板
// 教学要点:
// 1. 各项统计互不依赖,用errgroup并发查询,任何一项失败整体失败
// 2. 统计是各存储的快照,不保证彼此之间的一致性
type DashboardUseCase struct {
	users    user.Repository
	books    book.Repository
	orders   order.Repository
	requests librarian.Repository
	now      func() time.Time
}

// NewDashboardUseCase 创建看板用例
func NewDashboardUseCase(users user.Repository, books book.Repository, orders order.Repository, requests librarian.Repository) *DashboardUseCase {
	return &DashboardUseCase{users: users, books: books, orders: orders, requests: requests, now: time.Now}
}

// BookSalesDTO 畅销书
type BookSalesDTO struct {
	BookID      uint   `json:"book_id"`
	Title       string `json:"title"`
	Quantity    int    `json:"quantity"`
	Revenue     int64  `json:"revenue"`
	RevenueYuan string `json:"revenue_yuan"`
}

// Dashboard 看板数据
type Dashboard struct {
	TotalUsers      int64                  `json:"total_users"`
	TotalBooks      int64                  `json:"total_books"`
	TotalOrders     int64                  `json:"total_orders"`
	TotalRevenue    string                 `json:"total_revenue"`
	TodayOrders     int64                  `json:"today_orders"`
	TodayRevenue    string                 `json:"today_revenue"`
	PendingRequests int64                  `json:"pending_requests"`
	RecentOrders    []orderapp.OrderDetail `json:"recent_orders"`
	RecentUsers     []UserDTO              `json:"recent_users"`
	TopSellingBooks []BookSalesDTO         `json:"top_selling_books"`
}

// Execute 查询看板
func (uc *DashboardUseCase) Execute(ctx context.Context, caller access.Caller) (*Dashboard, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}

	var (
		d      Dashboard
		stats  order.Stats
		orders []*order.Order
		users  []*user.User
		top    []order.BookSales
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.TotalUsers, err = uc.users.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.TotalBooks, err = uc.books.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats, err = uc.orders.Stats(gctx, uc.now())
		return err
	})
	g.Go(func() (err error) {
		d.PendingRequests, err = uc.requests.CountPending(gctx)
		return err
	})
	g.Go(func() (err error) {
		orders, err = uc.orders.Recent(gctx, recentOrders)
		return err
	})
	g.Go(func() (err error) {
		users, err = uc.users.Recent(gctx, recentUsers)
		return err
	})
	g.Go(func() (err error) {
		top, err = uc.orders.TopSelling(gctx, topSelling)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d.TotalOrders = stats.TotalOrders
	d.TotalRevenue = money.Format(stats.TotalRevenue)
	d.TodayOrders = stats.TodayOrders
	d.TodayRevenue = money.Format(stats.TodayRevenue)
	d.RecentUsers = toUserDTOs(users)
	d.RecentOrders = make([]orderapp.OrderDetail, 0, len(orders))
	for _, o := range orders {
		d.RecentOrders = append(d.RecentOrders, orderapp.ToOrderDetail(o))
	}
	d.TopSellingBooks = make([]BookSalesDTO, 0, len(top))
	for _, s := range top {
		d.TopSellingBooks = append(d.TopSellingBooks, BookSalesDTO{
			BookID:      s.BookID,
			Title:       s.Title,
			Quantity:    s.Quantity,
			Revenue:     s.Revenue,
			RevenueYuan: money.Format(s.Revenue),
		})
	}
	return &d, nil
}
