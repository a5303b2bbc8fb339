package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	stockapp "github.com/retail/backend/internal/application/stock"
	"github.com/retail/backend/internal/infrastructure/config"
	"github.com/retail/backend/internal/infrastructure/lock"
	"github.com/retail/backend/internal/infrastructure/logger"
	"github.com/retail/backend/internal/infrastructure/persistence"
	"github.com/retail/backend/internal/interfaces/http/handler"
	"github.com/retail/backend/internal/interfaces/http/middleware"
	"github.com/retail/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting stock service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Per-product write serialization. A Redis-backed lock coordinates
	// multiple instances; the in-process lock covers single-instance
	// deployments.
	var locker stockapp.ProductLocker
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing redis client", zap.Error(err))
			}
		}()
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err))
		}
		locker = lock.NewRedisLocker(redisClient, cfg.Allocation.LockTTL, cfg.Allocation.LockTimeout)
		log.Info("Using redis product locks", zap.String("addr", cfg.Redis.Addr()))
	} else {
		locker = lock.NewKeyedLocker(cfg.Allocation.LockTimeout)
		log.Info("Using in-process product locks")
	}

	// Repositories and services
	lotRepo := persistence.NewGormLotRepository(db.DB)
	allocationRepo := persistence.NewGormAllocationRecordRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	receivingService := stockapp.NewReceivingService(lotRepo, log)
	allocationEngine := stockapp.NewAllocationEngine(
		txScope,
		allocationRepo,
		locker,
		log,
		cfg.Allocation.RetryAttempts,
		cfg.Allocation.RetryBackoff,
	)
	queryService := stockapp.NewStockQueryService(lotRepo, allocationRepo)

	stockHandler := handler.NewStockHandler(receivingService, allocationEngine, queryService)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORS())

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	stockRoutes := router.NewDomainGroup("stock", "/stock")
	stockRoutes.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "stock service ready"})
	})

	stockRoutes.POST("/lots", stockHandler.CreateLot)
	stockRoutes.GET("/lots/:id", stockHandler.GetLot)
	stockRoutes.GET("/products/:product_id/lots", stockHandler.ListLots)
	stockRoutes.GET("/products/:product_id/summary", stockHandler.GetStockSummary)
	stockRoutes.GET("/products/:product_id/allocations", stockHandler.ListAllocations)
	stockRoutes.POST("/availability/check", stockHandler.CheckAvailability)
	stockRoutes.POST("/consume", stockHandler.Consume)
	stockRoutes.POST("/release", stockHandler.Release)
	stockRoutes.GET("/allocations/:id", stockHandler.GetAllocation)

	r.Register(stockRoutes)
	r.Setup()

	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler reports service liveness including database reachability
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
