//go:build wireinject
// +build wireinject

// Wire依赖注入配置文件
//
// 教学说明：
// 1. Wire是Google开发的编译期依赖注入工具
// 2. 与运行时反射注入不同，Wire在编译期生成代码
// 3. main.go目前调用手写的buildApp；运行 `wire gen ./cmd/api` 会生成
//    等价的wire_gen.go（InitializeApp），两者使用同一组Provider
//
// 核心概念：
// - Provider: 提供依赖的构造函数（如mysql.NewUserRepository）
// - Injector: 声明最终要构造的目标类型（*App）
// - wire.Build(): 告诉Wire如何组装依赖链

package main

import (
	"context"

	"github.com/google/wire"

	appadmin "github.com/xiebiao/bookshop/internal/application/admin"
	appbook "github.com/xiebiao/bookshop/internal/application/book"
	appcart "github.com/xiebiao/bookshop/internal/application/cart"
	applibrarian "github.com/xiebiao/bookshop/internal/application/librarian"
	apporder "github.com/xiebiao/bookshop/internal/application/order"
	appuser "github.com/xiebiao/bookshop/internal/application/user"
	"github.com/xiebiao/bookshop/internal/domain/book"
	"github.com/xiebiao/bookshop/internal/infrastructure/config"
	"github.com/xiebiao/bookshop/internal/interface/http/handler"
	"github.com/xiebiao/bookshop/internal/interface/http/middleware"
	"github.com/xiebiao/bookshop/internal/interface/http/router"
)

// ========================================
// Wire Provider Sets (依赖分组)
// ========================================

// infrastructureSet 存储、消息、JWT
// wire.FieldsOf 把Stores的每个字段作为独立的Provider暴露出来
var infrastructureSet = wire.NewSet(
	provideStores,
	wire.FieldsOf(new(*Stores),
		"Users", "Ledger", "Blacklist", "Books", "Authors",
		"Orders", "Requests", "Carts", "Locker", "Idempotency"),
	provideEventPublisher,
	provideJWTManager,
)

// domainSet 领域服务与结算引擎
var domainSet = wire.NewSet(
	provideUserService,
	book.NewService,
	provideEngine,
)

// applicationSet 应用层用例
var applicationSet = wire.NewSet(
	appuser.NewRegisterUseCase,
	appuser.NewLoginUseCase,
	appuser.NewLogoutUseCase,
	appuser.NewRefreshUseCase,
	appuser.NewProfileUseCase,
	appuser.NewUpdateProfileUseCase,
	appbook.NewListBooksUseCase,
	appbook.NewManageCatalogUseCase,
	appcart.NewService,
	apporder.NewCreateOrderUseCase,
	apporder.NewCancelOrderUseCase,
	apporder.NewUpdateStatusUseCase,
	apporder.NewQueryOrdersUseCase,
	appadmin.NewUserManagementUseCase,
	appadmin.NewDashboardUseCase,
	applibrarian.NewRequestUseCase,
)

// interfaceSet HTTP处理器、中间件、路由
var interfaceSet = wire.NewSet(
	handler.NewUserHandler,
	handler.NewBookHandler,
	handler.NewCartHandler,
	handler.NewOrderHandler,
	handler.NewAdminHandler,
	handler.NewLibrarianHandler,
	wire.Struct(new(router.Handlers), "*"),
	middleware.NewAuthMiddleware,
	provideRouterOptions,
	router.New,
	provideHTTPServer,
)

// ========================================
// Wire Injector (依赖注入器)
// ========================================
// 依赖链示例：
// *App 需要 → *http.Server → *gin.Engine → router.Handlers
// router.Handlers 需要 → *handler.OrderHandler → *apporder.CreateOrderUseCase
// *apporder.CreateOrderUseCase 需要 → *checkout.Engine → *Stores → *config.Config

// InitializeApp 初始化整个应用
// 返回的cleanup关闭数据库、Redis、BoltDB和RabbitMQ连接
func InitializeApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	wire.Build(
		infrastructureSet,
		domainSet,
		applicationSet,
		interfaceSet,
		provideSeeder,
		newApp,
	)
	return nil, nil, nil
}
