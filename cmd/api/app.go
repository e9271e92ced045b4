package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	appadmin "github.com/xiebiao/bookshop/internal/application/admin"
	appbook "github.com/xiebiao/bookshop/internal/application/book"
	appcart "github.com/xiebiao/bookshop/internal/application/cart"
	applibrarian "github.com/xiebiao/bookshop/internal/application/librarian"
	apporder "github.com/xiebiao/bookshop/internal/application/order"
	"github.com/xiebiao/bookshop/internal/application/seed"
	appuser "github.com/xiebiao/bookshop/internal/application/user"
	"github.com/xiebiao/bookshop/internal/domain/book"
	"github.com/xiebiao/bookshop/internal/infrastructure/config"
	"github.com/xiebiao/bookshop/internal/interface/http/handler"
	"github.com/xiebiao/bookshop/internal/interface/http/middleware"
	"github.com/xiebiao/bookshop/internal/interface/http/router"
)

// App 组装完成的应用
type App struct {
	cfg    *config.Config
	server *http.Server
	seeder *seed.Seeder
}

func newApp(cfg *config.Config, server *http.Server, seeder *seed.Seeder) *App {
	return &App{cfg: cfg, server: server, seeder: seeder}
}

// Run 写入演示数据后开始监听，直到ctx取消再优雅关闭
func (a *App) Run(ctx context.Context) error {
	if a.seeder != nil {
		if err := a.seeder.Run(ctx); err != nil {
			return fmt.Errorf("写入演示数据失败: %w", err)
		}
		log.Info().Msg("演示数据已写入")
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", a.server.Addr).Msg("🚀 服务启动成功")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("正在关闭服务...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("关闭服务失败: %w", err)
	}
	return <-errCh
}

func addr(cfg *config.Config) string {
	return fmt.Sprintf(":%d", cfg.Server.Port)
}

// buildApp 手动依赖注入，与wire.go中的InitializeApp产出一致
// 学习要点：依赖注入链
// Repository ← Service ← UseCase ← Handler ← Router
func buildApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	// 基础设施层
	stores, closeStores, err := provideStores(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	events, closeEvents := provideEventPublisher(cfg)
	cleanup := func() {
		closeEvents()
		closeStores()
	}
	jwtManager := provideJWTManager(cfg)

	// 领域层
	userService := provideUserService(cfg, stores.Users)
	bookService := book.NewService(stores.Books, stores.Authors)
	engine := provideEngine(stores, events, cfg)

	// 接口层
	handlers := router.Handlers{
		User: handler.NewUserHandler(
			appuser.NewRegisterUseCase(userService),
			appuser.NewLoginUseCase(userService, jwtManager),
			appuser.NewLogoutUseCase(stores.Blacklist, jwtManager),
			appuser.NewRefreshUseCase(stores.Users, jwtManager),
			appuser.NewProfileUseCase(stores.Users),
			appuser.NewUpdateProfileUseCase(stores.Users, stores.Locker),
		),
		Book: handler.NewBookHandler(
			appbook.NewListBooksUseCase(bookService, stores.Authors),
			appbook.NewManageCatalogUseCase(bookService),
		),
		Cart: handler.NewCartHandler(appcart.NewService(stores.Carts, stores.Books, stores.Locker)),
		Order: handler.NewOrderHandler(
			apporder.NewCreateOrderUseCase(engine, stores.Users),
			apporder.NewCancelOrderUseCase(engine),
			apporder.NewUpdateStatusUseCase(engine),
			apporder.NewQueryOrdersUseCase(stores.Orders),
		),
		Admin: handler.NewAdminHandler(
			appadmin.NewUserManagementUseCase(stores.Users, stores.Ledger, stores.Locker),
			appadmin.NewDashboardUseCase(stores.Users, stores.Books, stores.Orders, stores.Requests),
		),
		Librarian: handler.NewLibrarianHandler(applibrarian.NewRequestUseCase(stores.Requests, stores.Users)),
	}
	auth := middleware.NewAuthMiddleware(jwtManager, stores.Blacklist, stores.Users)
	r := router.New(provideRouterOptions(cfg), handlers, auth)

	return newApp(cfg, provideHTTPServer(cfg, r), provideSeeder(cfg, stores)), cleanup, nil
}
