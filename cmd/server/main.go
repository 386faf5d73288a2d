package main

import (
	"context"
	"log"
	"time"

	"github.com/jonboulle/clockwork"
	goRedis "github.com/redis/go-redis/v9"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/dashboard/api/handler"
	"github.com/fastygo/dashboard/internal/config"
	"github.com/fastygo/dashboard/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/dashboard/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/dashboard/internal/infrastructure/redis"
	"github.com/fastygo/dashboard/internal/middleware"
	"github.com/fastygo/dashboard/internal/queue"
	"github.com/fastygo/dashboard/internal/router"
	"github.com/fastygo/dashboard/internal/services/lifecycle"
	"github.com/fastygo/dashboard/internal/windows"
	"github.com/fastygo/dashboard/pkg/httpcontext"
	"github.com/fastygo/dashboard/pkg/logger"
	"github.com/fastygo/dashboard/repository"
	boltRepo "github.com/fastygo/dashboard/repository/bolt"
	"github.com/fastygo/dashboard/repository/memory"
	"github.com/fastygo/dashboard/repository/postgres"
	redisRepo "github.com/fastygo/dashboard/repository/redis"
	authUC "github.com/fastygo/dashboard/usecase/auth"
	"github.com/fastygo/dashboard/usecase/guard"
	"github.com/fastygo/dashboard/usecase/notify"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	clock := clockwork.NewRealClock()
	targets := monitor.Targets{}

	var redisClient *goRedis.Client
	if cfg.UsesMedium(config.MediumRedis) || cfg.Queue.Enabled {
		redisClient, err = redisInfra.NewClient(cfg.Redis)
		if err != nil {
			zapLogger.Fatal("redis connection failed", zap.Error(err))
		}
		manager.Register("redis", func(ctx context.Context) error {
			return redisClient.Close()
		})
		targets.Redis = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}

	// Token media, in lookup order.
	var media []repository.TokenStore
	var sources []guard.ChangeSource
	for _, name := range cfg.Tokens.Media {
		switch name {
		case config.MediumRedis:
			store := redisRepo.NewTokenStore(redisClient, zapLogger)
			media = append(media, store)
			sources = append(sources, store)
		case config.MediumBolt:
			store, err := boltRepo.Open(cfg.Tokens.BoltPath, "")
			if err != nil {
				zapLogger.Fatal("failed to open token store", zap.Error(err))
			}
			manager.Register("bolt", func(ctx context.Context) error {
				return store.Close()
			})
			targets.Local = store
			media = append(media, store)
			sources = append(sources, store)
		case config.MediumMemory:
			store := memory.NewTokenStore(cfg.AppName)
			media = append(media, store)
			sources = append(sources, store)
		}
	}
	zapLogger.Info("token media configured", zap.Strings("media", cfg.Tokens.Media))

	notificationRepo := memory.NewNotificationRepository()
	if cfg.Database.Enabled {
		if cfg.Migrations.Enabled {
			if err := pgInfra.RunMigrations(cfg.Database, cfg.Migrations, zapLogger); err != nil {
				zapLogger.Fatal("migrations failed", zap.Error(err))
			}
		}
		pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
		if err != nil {
			zapLogger.Fatal("postgres connection failed", zap.Error(err))
		}
		manager.Register("postgres", func(ctx context.Context) error {
			pool.Close()
			return nil
		})
		targets.Postgres = pool.Ping
		notificationRepo = postgres.NewNotificationRepository(pool)
	}

	signals := guard.NewSignals()
	authUseCase := authUC.New(media, signals, authUC.Config{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
	}, clock, zapLogger)

	guards := guard.NewRegistry(func(nav guard.Navigator) *guard.Guard {
		return guard.New(authUseCase, signals, nav,
			guard.WithStorage(sources...),
			guard.WithInterval(cfg.Guard.RecheckInterval),
			guard.WithAuthRoute(cfg.Guard.AuthRoute),
			guard.WithClock(clock),
			guard.WithLogger(zapLogger.Named("guard")),
		)
	}, zapLogger)
	manager.Register("guards", func(ctx context.Context) error {
		guards.Close()
		return nil
	})

	windowRegistry, err := windows.NewRegistry(cfg.Notify.Origin, cfg.Windows.AllowOpen, clock, zapLogger)
	if err != nil {
		zapLogger.Fatal("invalid application origin", zap.Error(err))
	}
	janitor := windows.NewJanitor(windowRegistry, cfg.Windows.PruneInterval, cfg.Windows.TTL, zapLogger)
	janitor.Start()
	manager.Register("window_janitor", func(ctx context.Context) error {
		janitor.Stop(ctx)
		return nil
	})

	center := notify.NewCenter(notificationRepo, clock)
	worker := notify.NewWorker(center, windowRegistry, notify.Config{
		Origin:    cfg.Notify.Origin,
		InboxSize: cfg.Notify.InboxSize,
	}, zapLogger.Named("notify"))
	worker.Start()
	manager.Register("notify_worker", worker.Stop)
	targets.Worker = worker

	var publisher apiHandler.PushPublisher
	if cfg.Queue.Enabled {
		queueOpt, err := redisInfra.QueueOptions(cfg.Redis)
		if err != nil {
			zapLogger.Fatal("invalid queue redis options", zap.Error(err))
		}
		consumer := queue.NewConsumer(queueOpt, worker, center, zapLogger.Named("queue"))
		if err := consumer.Start(); err != nil {
			zapLogger.Fatal("queue consumer failed to start", zap.Error(err))
		}
		manager.Register("queue_consumer", func(ctx context.Context) error {
			consumer.Shutdown()
			return nil
		})

		queuePublisher := queue.NewPublisher(queueOpt)
		manager.Register("queue_publisher", func(ctx context.Context) error {
			return queuePublisher.Close()
		})
		publisher = queuePublisher
	}

	mon := monitor.New(targets, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:    apiHandler.NewAuthHandler(authUseCase, ctxAdapter, zapLogger, cfg.JWT.DefaultTTL),
		Guard:   apiHandler.NewGuardHandler(guards, ctxAdapter, zapLogger),
		Push:    apiHandler.NewPushHandler(worker, center, publisher, ctxAdapter, zapLogger),
		Windows: apiHandler.NewWindowHandler(windowRegistry, ctxAdapter, zapLogger),
		Health:  apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, zapLogger)
	r := router.New(handlers, authMiddleware, router.Options{EnableMetrics: cfg.HTTP.EnableMetrics})

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Concurrency:  cfg.HTTP.MaxConn,
		Name:         cfg.AppName,
	}

	manager.Go("http_server", func() error {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		return server.ListenAndServe(cfg.Address())
	})
	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
	if err := manager.Err(); err != nil {
		zapLogger.Error("service exited with errors", zap.Error(err))
	}
}
