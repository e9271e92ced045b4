package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/xiebiao/bookshop/internal/domain/user"
	"github.com/xiebiao/bookshop/internal/interface/http/handler"
	"github.com/xiebiao/bookshop/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
	"github.com/xiebiao/bookshop/pkg/response"
)

// Handlers 路由用到的全部处理器
type Handlers struct {
	User      *handler.UserHandler
	Book      *handler.BookHandler
	Cart      *handler.CartHandler
	Order     *handler.OrderHandler
	Admin     *handler.AdminHandler
	Librarian *handler.LibrarianHandler
}

// Options 路由配置
type Options struct {
	Mode        string        // debug | release | test
	SlowRequest time.Duration // 慢请求阈值
	LoginRate   float64       // 登录/注册每IP每秒请求数,<=0不限流
	LoginBurst  int
	Swagger     bool // 是否暴露 /swagger
}

// New 创建Gin引擎并注册全部路由
// 中间件顺序：
// 1. Recovery 兜底panic
// 2. Logger 生成request_id，后续日志都带上
// 3. Tracing 为每个请求开启span
// 4. Metrics 记录请求数和耗时
func New(opts Options, h Handlers, auth *middleware.AuthMiddleware) *gin.Engine {
	switch opts.Mode {
	case gin.ReleaseMode:
		gin.SetMode(gin.ReleaseMode)
	case gin.TestMode:
		gin.SetMode(gin.TestMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(opts.SlowRequest))
	r.Use(middleware.Tracing())
	r.Use(middleware.Metrics())

	// 健康检查
	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if opts.Swagger {
		// 访问 http://localhost:8080/swagger/index.html 查看API文档
		// 生产环境建议禁用Swagger或添加访问控制
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	r.NoRoute(func(c *gin.Context) {
		response.ErrorWithCode(c, apperrors.ErrCodeNotFound, "接口不存在")
	})

	throttle := func(c *gin.Context) { c.Next() }
	if opts.LoginRate > 0 {
		throttle = middleware.NewRateLimiter(opts.LoginRate, opts.LoginBurst).Middleware()
	}

	v1 := r.Group("/api/v1")

	// 公开接口
	users := v1.Group("/users")
	{
		users.POST("/register", throttle, h.User.Register)
		users.POST("/login", throttle, h.User.Login)
		users.POST("/refresh", h.User.Refresh)
	}
	v1.GET("/books", h.Book.ListBooks)
	v1.GET("/books/:id", h.Book.GetBook)
	v1.GET("/authors", h.Book.ListAuthors)
	v1.GET("/authors/:id", h.Book.GetAuthor)

	// 需要登录
	authorized := v1.Group("")
	authorized.Use(auth.RequireAuth())
	{
		authorized.POST("/users/logout", h.User.Logout)
		authorized.GET("/profile", h.User.Profile)
		authorized.PUT("/profile", h.User.UpdateProfile)
		authorized.POST("/librarian-requests", h.Librarian.Apply)

		cart := authorized.Group("/cart")
		{
			cart.GET("", h.Cart.GetCart)
			cart.DELETE("", h.Cart.ClearCart)
			cart.POST("/items", h.Cart.AddItem)
			cart.PUT("/items/:book_id", h.Cart.UpdateItem)
			cart.DELETE("/items/:book_id", h.Cart.RemoveItem)
			cart.POST("/validate", h.Cart.Validate)
			cart.POST("/checkout", h.Order.Checkout)
		}

		// 订单：本人订单，馆员可看全部(用例层判断)
		orders := authorized.Group("/orders")
		{
			orders.GET("", h.Order.ListOrders)
			orders.GET("/:id", h.Order.GetOrder)
			orders.POST("/:id/cancel", h.Order.CancelOrder)
			orders.PUT("/:id/status", middleware.RequireRole(user.RoleLibrarian), h.Order.UpdateStatus)
		}

		// 图书管理(馆员及以上)
		catalog := authorized.Group("", middleware.RequireRole(user.RoleLibrarian))
		{
			catalog.POST("/books", h.Book.CreateBook)
			catalog.PUT("/books/:id", h.Book.UpdateBook)
			catalog.DELETE("/books/:id", h.Book.DeleteBook)
			catalog.POST("/books/:id/restock", h.Book.Restock)
			catalog.POST("/authors", h.Book.CreateAuthor)
			catalog.PUT("/authors/:id", h.Book.UpdateAuthor)
			catalog.DELETE("/authors/:id", h.Book.DeleteAuthor)
		}

		admin := authorized.Group("/admin", middleware.RequireRole(user.RoleAdmin))
		{
			admin.GET("/dashboard", h.Admin.Dashboard)
			admin.GET("/users", h.Admin.ListUsers)
			admin.PUT("/users/:id/role", h.Admin.ChangeRole)
			admin.PUT("/users/:id/credits", h.Admin.SetCredits)
			admin.POST("/users/:id/credits/add", h.Admin.AddCredits)
			admin.POST("/users/:id/activate", h.Admin.Activate)
			admin.POST("/users/:id/deactivate", h.Admin.Deactivate)
			admin.GET("/librarian-requests", h.Librarian.ListPending)
			admin.POST("/librarian-requests/:id/approve", h.Librarian.Approve)
			admin.POST("/librarian-requests/:id/reject", h.Librarian.Reject)
		}
	}

	return r
}
