package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rentbook-backend/config"
	"rentbook-backend/controllers"
	"rentbook-backend/database"
	"rentbook-backend/events"
	"rentbook-backend/jobs"
	"rentbook-backend/logger"
	"rentbook-backend/middlewares"
	"rentbook-backend/repository"
	"rentbook-backend/routes"
	"rentbook-backend/services"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func openStore(cfg config.Config) (repository.Store, error) {
	if cfg.StorageDriver == "memory" {
		logger.Log.Warn("using in-memory storage; data is lost on restart")
		return repository.NewMemoryStore(), nil
	}
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return repository.NewGormStore(db), nil
}

func main() {
	config.LoadConfig()
	cfg := config.AppConfig

	if err := logger.Init(cfg.LogLevel, cfg.LogFormat, "rentbook-"+cfg.RunMode); err != nil {
		panic(err)
	}
	defer logger.Log.Sync()
	log := logger.Log

	if cfg.JWTSecret != "" {
		middlewares.SetJWTSecret(cfg.JWTSecret)
	}

	// ---- Storage
	store, err := openStore(cfg)
	if err != nil {
		log.Fatal("storage init failed", zap.Error(err))
	}

	// ---- Redis (optional): settings cache, event stream, job queue
	var (
		rdb   *redis.Client
		sinks []events.Sink
		queue asynq.RedisClientOpt
	)
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis not reachable, continuing", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		cancel()
		sinks = append(sinks, events.NewRedisStreamSink(rdb, cfg.EventStream))
		queue = asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisQueueDB,
		}
	}

	// ---- Services
	loc := cfg.Location()
	svc := services.New(services.Env{
		Store:    store,
		Events:   events.NewDispatcher(log, sinks...),
		Settings: services.NewSettingsService(store, rdb, cfg.SettingsCacheTTL(), log),
		Log:      log,
		Location: loc,
	})

	if cfg.RunMode == "worker" {
		if cfg.RedisAddr == "" {
			log.Fatal("worker mode needs REDIS_ADDR")
		}
		h := jobs.NewHandlers(svc.Billing, loc, log)
		if err := jobs.Run(queue, h, cfg.WorkerConcurrency, cfg.OverdueSweepCron); err != nil {
			log.Fatal("worker stopped", zap.Error(err))
		}
		return
	}

	var jobQueue controllers.JobQueue
	if cfg.RedisAddr != "" {
		client := jobs.NewClient(queue)
		defer client.Close()
		jobQueue = client
	}
	api := controllers.NewAPI(svc, loc, jobQueue)

	// ---- Fiber app with global error handler + body limit
	app := fiber.New(fiber.Config{
		ErrorHandler: middlewares.ErrorHandler,
		BodyLimit:    cfg.BodyLimitMB * 1024 * 1024,
	})
	app.Use(recover.New())

	// ---- CORS
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowCredentials: false, // using Bearer tokens, not cookies
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Idempotency-Key, X-Tenant-ID",
	}))

	// ---- Global rate limiter (default key is client IP)
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.RateLimitMax,
		Expiration: time.Duration(cfg.RateLimitWindowSeconds) * time.Second,
	}))

	// ---- Routes
	routes.Register(app, api, store)

	// ---- Start
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info("shutting down")
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	log.Info("API server starting", zap.String("port", cfg.AppPort), zap.String("storage", cfg.StorageDriver))
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatal("listen failed", zap.Error(err))
	}
}
