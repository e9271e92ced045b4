package main

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/xiebiao/bookshop/internal/application/checkout"
	"github.com/xiebiao/bookshop/internal/application/seed"
	"github.com/xiebiao/bookshop/internal/domain/book"
	"github.com/xiebiao/bookshop/internal/domain/cart"
	"github.com/xiebiao/bookshop/internal/domain/librarian"
	"github.com/xiebiao/bookshop/internal/domain/order"
	"github.com/xiebiao/bookshop/internal/domain/user"
	"github.com/xiebiao/bookshop/internal/infrastructure/config"
	"github.com/xiebiao/bookshop/internal/infrastructure/messaging"
	boltstore "github.com/xiebiao/bookshop/internal/infrastructure/persistence/bolt"
	"github.com/xiebiao/bookshop/internal/infrastructure/persistence/memory"
	"github.com/xiebiao/bookshop/internal/infrastructure/persistence/mysql"
	redisstore "github.com/xiebiao/bookshop/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/bookshop/internal/interface/http/router"
	"github.com/xiebiao/bookshop/pkg/jwt"
	"github.com/xiebiao/bookshop/pkg/lock"
	"github.com/xiebiao/bookshop/pkg/mq"
)

// ========================================
// Custom Providers (自定义Provider)
// ========================================
// 教学说明：
// 有些依赖的构造函数参数不是直接的类型，需要从Config中提取，
// 或者要根据配置在多个实现之间选择（memory/mysql、memory/redis），
// 这时需要编写自定义Provider函数。
// main.go的buildApp和wire.go的InitializeApp使用同一组Provider。

// Stores 按配置选出的存储实现
type Stores struct {
	Users       user.Repository
	Ledger      user.CreditLedger
	Blacklist   user.TokenBlacklist
	Books       book.Repository
	Authors     book.AuthorRepository
	Orders      order.Repository
	Requests    librarian.Repository
	Carts       cart.Store
	Locker      lock.Locker
	Idempotency order.IdempotencyStore
}

// provideStores 组装存储层
// 1. storage.driver 决定业务数据在内存还是MySQL
// 2. redis.enabled 时黑名单和购物车放进Redis
// 3. checkout.lock_driver=redis 时用户锁改为分布式锁（需要开启Redis）
// 4. idempotency.bolt_path 非空时幂等键持久化到BoltDB
func provideStores(ctx context.Context, cfg *config.Config) (*Stores, func(), error) {
	var (
		s        Stores
		cleanups []func()
	)
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	switch cfg.Storage.Driver {
	case config.DriverMySQL:
		db, err := mysql.NewDB(cfg)
		if err != nil {
			return nil, nil, err
		}
		cleanups = append(cleanups, func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		})
		tx := mysql.NewTxManager(db)
		s.Users = mysql.NewUserRepository(db)
		s.Ledger = mysql.NewCreditLedger(db)
		s.Books = mysql.NewBookRepository(db, tx)
		s.Authors = mysql.NewAuthorRepository(db)
		s.Orders = mysql.NewOrderRepository(db, tx)
		s.Requests = mysql.NewLibrarianRequestRepository(db, tx)
	default:
		users := memory.NewUserStore()
		s.Users = users
		s.Ledger = users
		s.Books = memory.NewBookStore()
		s.Authors = memory.NewAuthorStore()
		s.Orders = memory.NewOrderStore()
		s.Requests = memory.NewLibrarianRequestStore()
	}

	s.Blacklist = memory.NewTokenBlacklist()
	s.Carts = memory.NewCartStore()
	var locker lock.Locker = lock.NewKeyedMutex()

	if cfg.Redis.Enabled {
		client, err := redisstore.NewClient(ctx, cfg.Redis)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		cleanups = append(cleanups, func() { _ = client.Close() })
		s.Blacklist = redisstore.NewTokenBlacklist(client)
		s.Carts = redisstore.NewCartStore(client, cfg.Redis.CartTTL)
		if cfg.Checkout.LockDriver == config.DriverRedis {
			locker = redisstore.NewLocker(client, cfg.Checkout.LockTTL)
		}
	}
	s.Locker = lock.WithWait(locker, cfg.Checkout.LockWait)

	if cfg.Idempotency.BoltPath != "" {
		store, err := boltstore.Open(cfg.Idempotency.BoltPath)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		cleanups = append(cleanups, func() { _ = store.Close() })
		s.Idempotency = store
	} else {
		s.Idempotency = memory.NewIdempotencyStore()
	}

	return &s, cleanup, nil
}

// provideEventPublisher 订单事件发布
// 连不上RabbitMQ时降级为只记日志，不影响下单
func provideEventPublisher(cfg *config.Config) (order.EventPublisher, func()) {
	if !cfg.MQ.Enabled {
		return messaging.LogPublisher{}, func() {}
	}
	pub, err := mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange, cfg.MQ.ExchangeType)
	if err != nil {
		log.Warn().Err(err).Msg("RabbitMQ不可用，订单事件只记录日志")
		return messaging.LogPublisher{}, func() {}
	}
	return messaging.NewBrokerPublisher(pub, cfg.MQ), func() { _ = pub.Close() }
}

// provideJWTManager 从配置创建JWT管理器
// 教学要点：config.Config 包含多个字段，但jwt.NewManager只需要JWT相关的配置
// Wire无法自动知道如何从Config提取参数，所以需要手动编写Provider
func provideJWTManager(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpire,
		cfg.JWT.RefreshTokenExpire,
	)
}

func provideUserService(cfg *config.Config, users user.Repository) user.Service {
	return user.NewService(users, cfg.Checkout.InitialCredits)
}

func provideEngine(s *Stores, events order.EventPublisher, cfg *config.Config) *checkout.Engine {
	return checkout.NewEngine(s.Carts, s.Books, s.Ledger, s.Orders, s.Locker, s.Idempotency, events, checkout.Options{
		SagaTimeout:       cfg.Checkout.SagaTimeout,
		StrictTransitions: cfg.Order.StrictTransitions,
	})
}

func provideRouterOptions(cfg *config.Config) router.Options {
	return router.Options{
		Mode:        cfg.Server.Mode,
		SlowRequest: cfg.Server.SlowRequest,
		LoginRate:   cfg.Server.LoginRate,
		LoginBurst:  cfg.Server.LoginBurst,
		Swagger:     cfg.Server.Mode != gin.ReleaseMode,
	}
}

// provideHTTPServer 用rs/cors包装Gin引擎
func provideHTTPServer(cfg *config.Config, engine *gin.Engine) *http.Server {
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Idempotency-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
	})
	return &http.Server{
		Addr:         addr(cfg),
		Handler:      c.Handler(engine),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}

// provideSeeder 演示数据只写入内存存储
func provideSeeder(cfg *config.Config, s *Stores) *seed.Seeder {
	if !cfg.Seed.Enabled || cfg.Storage.Driver == config.DriverMySQL {
		return nil
	}
	return seed.NewSeeder(s.Users, s.Authors, s.Books)
}
