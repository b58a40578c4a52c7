package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/MorseWayne/print_shop/internal/api"
	"github.com/MorseWayne/print_shop/internal/cache"
	"github.com/MorseWayne/print_shop/internal/config"
	"github.com/MorseWayne/print_shop/internal/database"
	"github.com/MorseWayne/print_shop/internal/limiter"
	"github.com/MorseWayne/print_shop/internal/logger"
	"github.com/MorseWayne/print_shop/internal/mq"
	"github.com/MorseWayne/print_shop/internal/repo"
	"github.com/MorseWayne/print_shop/internal/router"
	"github.com/MorseWayne/print_shop/internal/service"
	"github.com/MorseWayne/print_shop/internal/storage"
)

// initConfigAndLogger 初始化配置和日志器
func initConfigAndLogger() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %v", err)
	}

	lg, err := logger.New(cfg.App.Env, cfg.Log.Level, cfg.Log.Encoding, cfg.App.Name, cfg.App.Version)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %v", err)
	}

	return cfg, lg, nil
}

// initDatabase 初始化数据库连接并执行迁移
func initDatabase(cfg *config.Config, lg *zap.Logger) (*database.DB, error) {
	db, err := database.New(cfg, lg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// 迁移在 HTTP 服务启动前完成
	migrationsDir := cfg.Migrations.Dir
	lg.Sugar().Infow("using migrations directory", "path", migrationsDir)

	if err := db.RunMigrations(migrationsDir); err != nil {
		return nil, fmt.Errorf("failed to run database migrations: %v", err)
	}

	return db, nil
}

// initCache 初始化缓存实例
func initCache(cfg *config.Config, lg *zap.Logger) cache.Cache {
	if !cfg.Cache.Enabled {
		lg.Sugar().Infow("cache disabled")
		return cache.NewNullCache()
	}

	switch cfg.Cache.Type {
	case "redis":
		redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
		redisCache, err := cache.NewRedisCache(cache.RedisOptions{
			Addrs:    []string{redisAddr},
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			lg.Sugar().Warnw("failed to connect to Redis, falling back to memory cache", "error", err)
			lg.Sugar().Infow("cache enabled", "type", "memory (fallback)", "ttl", cfg.Cache.TTL)
			return cache.NewMemoryCache()
		}
		lg.Sugar().Infow("cache enabled", "type", "redis", "addr", redisAddr, "ttl", cfg.Cache.TTL)
		return redisCache
	case "memory":
		lg.Sugar().Infow("cache enabled", "type", "memory", "ttl", cfg.Cache.TTL)
		return cache.NewMemoryCache()
	default:
		lg.Sugar().Warnw("unknown cache type, using memory cache", "type", cfg.Cache.Type)
		lg.Sugar().Infow("cache enabled", "type", "memory (default)", "ttl", cfg.Cache.TTL)
		return cache.NewMemoryCache()
	}
}

// stateStore 会话与幂等记录必须真实落盘，关闭缓存时退回进程内存
func stateStore(cfg *config.Config, cacheInstance cache.Cache, lg *zap.Logger) cache.Cache {
	if cfg.Cache.Enabled {
		return cacheInstance
	}
	lg.Sugar().Warnw("cache disabled, sessions and idempotency keys are kept in process memory")
	return cache.NewMemoryCache()
}

// initImageStore 配置了 bucket 时接入 GCS，否则待上传图片在定稿时无法解析
func initImageStore(ctx context.Context, cfg *config.Config, lg *zap.Logger) (storage.ImageStore, error) {
	if cfg.Storage.Bucket == "" {
		lg.Sugar().Warnw("image storage disabled, pending uploads cannot be finalized")
		return nil, nil
	}
	store, err := storage.NewGCSImageStore(ctx, storage.GCSOptions{
		Bucket:          cfg.Storage.Bucket,
		PublicBaseURL:   cfg.Storage.PublicBaseURL,
		CredentialsFile: cfg.Storage.CredentialsFile,
	})
	if err != nil {
		return nil, err
	}
	lg.Sugar().Infow("image storage enabled", "bucket", cfg.Storage.Bucket)
	return store, nil
}

// initPublisher 启用消息队列时连接 RabbitMQ，连接失败则丢弃事件继续启动
func initPublisher(cfg *config.Config, lg *zap.Logger) mq.Publisher {
	if !cfg.MQ.Enabled {
		lg.Sugar().Infow("event publishing disabled")
		return mq.NopPublisher{}
	}
	publisher, err := mq.NewAMQPPublisher(mq.Config{
		Host:             cfg.MQ.Host,
		Port:             cfg.MQ.Port,
		Username:         cfg.MQ.Username,
		Password:         cfg.MQ.Password,
		VHost:            cfg.MQ.VHost,
		Exchange:         cfg.MQ.Exchange,
		PublishTimeout:   cfg.MQ.PublishTimeout,
		MaxRetryAttempts: cfg.MQ.MaxRetryAttempts,
	}, lg)
	if err != nil {
		lg.Sugar().Warnw("failed to connect to RabbitMQ, events will be dropped", "error", err)
		return mq.NopPublisher{}
	}
	lg.Sugar().Infow("event publishing enabled", "exchange", cfg.MQ.Exchange)
	return publisher
}

// initRateLimiter 缓存为 Redis 时多实例共享令牌桶
func initRateLimiter(cfg *config.Config, cacheInstance cache.Cache, lg *zap.Logger) limiter.Limiter {
	if !cfg.RateLimit.Enabled {
		lg.Sugar().Infow("rate limit disabled")
		return nil
	}
	var client redis.Cmdable
	backend := "local"
	if rc, ok := cacheInstance.(*cache.RedisCache); ok {
		client = rc.Client()
		backend = "redis"
	}
	lg.Sugar().Infow("rate limit enabled", "backend", backend,
		"rate", cfg.RateLimit.Rate, "window", cfg.RateLimit.Window, "burst", cfg.RateLimit.Burst)
	return limiter.New(client, limiter.Config{
		Rate:   cfg.RateLimit.Rate,
		Window: cfg.RateLimit.Window,
		Burst:  cfg.RateLimit.Burst,
	})
}

// initDependencies 初始化依赖注入链：仓储 -> 服务 -> API处理器
func initDependencies(cfg *config.Config, db *database.DB, cacheInstance, store cache.Cache, images storage.ImageStore, rl limiter.Limiter, publisher mq.Publisher, lg *zap.Logger) *router.Dependencies {
	baseProductRepo := repo.NewProductRepository(db.DB)
	baseVariantRepo := repo.NewVariantRepository(db.DB)
	baseSurfaceRepo := repo.NewPrintSurfaceRepository(db.DB)

	// 可选缓存装饰器
	var productRepo repo.ProductRepository = baseProductRepo
	var variantRepo repo.VariantRepository = baseVariantRepo
	var surfaceRepo repo.PrintSurfaceRepository = baseSurfaceRepo
	if cfg.Cache.Enabled {
		productRepo = repo.NewCachedProductRepository(baseProductRepo, cacheInstance, cfg.Cache.TTL)
		variantRepo = repo.NewCachedVariantRepository(baseVariantRepo, cacheInstance)
		surfaceRepo = repo.NewCachedPrintSurfaceRepository(baseSurfaceRepo, cacheInstance, cfg.Cache.TTL)
	}

	catalog := service.NewCatalogProvider(surfaceRepo, store, lg)
	surfaceService := service.NewPrintSurfaceService(surfaceRepo, catalog, lg)
	productService := service.NewProductService(productRepo, catalog, lg)

	// 产生购物车行或扣减库存的服务在成功后发布事件
	source := cfg.App.Name
	customizationService := service.WithCustomizationEvents(
		service.NewCustomizationService(productRepo, catalog, images, lg), publisher, source, lg)
	sessionService := service.WithSessionEvents(
		service.NewSessionService(productRepo, catalog, images, store, cfg.Session.TTL, lg), publisher, source, lg)
	stockService := service.WithStockEvents(
		service.NewStockService(variantRepo, lg), publisher, source, lg)

	return &router.Dependencies{
		CustomizationHandler: api.NewCustomizationHandler(customizationService, lg),
		SessionHandler:       api.NewSessionHandler(sessionService, lg),
		ProductHandler:       api.NewProductHandler(productService, lg),
		PrintSurfaceHandler:  api.NewPrintSurfaceHandler(surfaceService, lg),
		StockHandler:         api.NewStockHandler(stockService, lg),
		JWTService:           service.NewJWTService(cfg, lg),
		IdempotencyStore:     store,
		RateLimiter:          rl,
	}
}

// startServer 启动服务器并处理优雅关闭
func startServer(cfg *config.Config, handler http.Handler, lg *zap.Logger) {
	addr := fmt.Sprintf(":%d", cfg.App.Port)
	lg.Sugar().Infow("server starting", "addr", addr)
	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 5 * time.Second}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Sugar().Fatalw("server error", "err", err)
		}
	case <-quit:
		lg.Sugar().Infow("shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		lg.Sugar().Errorw("server shutdown error", "err", err)
	}
	lg.Sugar().Infow("server exited")
}

// main 为应用入口，协调各个组件的初始化和启动
func main() {
	// 1) 加载配置和初始化日志
	cfg, lg, err := initConfigAndLogger()
	if err != nil {
		log.Fatalf("failed to initialize config and logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	// 2) 初始化数据库连接并执行迁移
	db, err := initDatabase(cfg, lg)
	if err != nil {
		lg.Sugar().Fatalw("failed to initialize database", "err", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			lg.Sugar().Errorw("failed to close database connection", "err", err)
		}
	}()

	// 3) 初始化缓存与会话存储
	cacheInstance := initCache(cfg, lg)
	defer func() {
		if err := cacheInstance.Close(); err != nil {
			lg.Sugar().Errorw("failed to close cache", "err", err)
		}
	}()
	store := stateStore(cfg, cacheInstance, lg)

	// 4) 初始化对象存储
	images, err := initImageStore(context.Background(), cfg, lg)
	if err != nil {
		lg.Sugar().Fatalw("failed to initialize image storage", "err", err)
	}
	if images != nil {
		defer func() {
			if err := images.Close(); err != nil {
				lg.Sugar().Errorw("failed to close image storage", "err", err)
			}
		}()
	}

	// 5) 初始化事件发布、限流与应用依赖，设置路由
	publisher := initPublisher(cfg, lg)
	defer func() {
		if err := publisher.Close(); err != nil {
			lg.Sugar().Errorw("failed to close event publisher", "err", err)
		}
	}()
	rl := initRateLimiter(cfg, cacheInstance, lg)
	deps := initDependencies(cfg, db, cacheInstance, store, images, rl, publisher, lg)
	handler := router.New().Setup(cfg, deps, lg)

	// 6) 启动 HTTP 服务器
	startServer(cfg, handler, lg)
}
