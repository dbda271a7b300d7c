package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/novachain/backend/internal/config"
	"github.com/novachain/backend/internal/events"
	"github.com/novachain/backend/internal/handler"
	"github.com/novachain/backend/internal/logger"
	"github.com/novachain/backend/internal/middleware"
	"github.com/novachain/backend/internal/price"
	"github.com/novachain/backend/internal/repository"
	"github.com/novachain/backend/internal/service"
	"github.com/novachain/backend/internal/worker"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Build info (injected at build time via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	configPath := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		configPath = v
	}

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	// Set Gin mode
	gin.SetMode(cfg.Server.Mode)

	// Initialize database
	db, err := repository.Open(cfg.Database, cfg.Server.Mode)
	if err != nil {
		appLogger.Fatal("Failed to initialize database", zap.Error(err))
	}
	if err := repository.AutoMigrate(db); err != nil {
		appLogger.Fatal("Failed to migrate database", zap.Error(err))
	}

	// Redis is optional; without it prices are only cached in memory
	var rdb *redis.Client
	var priceCache price.Cache
	if addr := cfg.Redis.Addr(); addr != "" {
		rdb = initRedis(cfg)
		priceCache = price.NewRedisCache(rdb)
	}

	var quotes price.QuoteSource
	if cfg.Price.APIKey != "" {
		quotes = price.NewCMCClient(cfg.Price, appLogger)
	} else {
		appLogger.Warn("No CoinMarketCap API key configured, using fallback prices")
	}
	oracle := price.NewOracle(quotes, priceCache, cfg.Price.Timeout, cfg.Price.CacheTTL, appLogger)

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, appLogger)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	balanceRepo := repository.NewBalanceRepository(db)
	tradeRepo := repository.NewTradeRepository(db)
	modeRepo := repository.NewModeRepository(db)
	walletRepo := repository.NewWalletRepository(db)

	// Initialize services
	ledger := service.NewBalanceLedger(balanceRepo)
	resolver := service.NewModeResolver(modeRepo, userRepo)
	authService := service.NewAuthService(db, userRepo, ledger, cfg.JWT)
	tradeEngine := service.NewTradeEngine(db, userRepo, tradeRepo, ledger, resolver, oracle, publisher, cfg.Trade, appLogger)
	walletService := service.NewWalletService(db, userRepo, walletRepo, ledger, oracle, appLogger)
	kycService := service.NewKYCService(userRepo)
	adminService := service.NewAdminService(userRepo, resolver)

	scheduler, err := worker.NewSettlementScheduler(tradeEngine, cfg.Trade, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create settlement scheduler", zap.Error(err))
	}
	tradeEngine.SetScheduler(scheduler)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	priceHandler := handler.NewPriceHandler(oracle)
	balanceHandler := handler.NewBalanceHandler(ledger, oracle)
	tradeHandler := handler.NewTradeHandler(tradeEngine)
	walletHandler := handler.NewWalletHandler(walletService)
	kycHandler := handler.NewKYCHandler(kycService)
	adminHandler := handler.NewAdminHandler(adminService, resolver, tradeEngine, walletService, kycService)

	// Create Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(appLogger))
	router.Use(corsMiddleware())

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "ok",
			"version":    Version,
			"commit":     Commit,
			"build_time": BuildTime,
			"time":       time.Now().Unix(),
			"pending":    scheduler.Pending(),
		})
	})

	api := router.Group("/api")
	{
		protected := api.Group("", middleware.AuthMiddleware(authService))
		admin := api.Group("/admin", middleware.AdminMiddleware(cfg.Admin.Token), middleware.AuditLogger(appLogger))

		authHandler.RegisterRoutes(api, protected)
		priceHandler.RegisterRoutes(api)
		balanceHandler.RegisterRoutes(protected)
		tradeHandler.RegisterRoutes(protected)
		walletHandler.RegisterRoutes(protected)
		kycHandler.RegisterRoutes(protected)
		adminHandler.RegisterRoutes(admin)
	}

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Re-arm trades left pending by a previous run
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	scheduler.Start(ctx)

	// Start server in goroutine
	go func() {
		appLogger.Info("Starting server", zap.String("addr", addr), zap.String("version", Version))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown with 10 second timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	// Pending trades keep their due_at and are re-armed on the next start
	cancel()
	scheduler.Stop(cfg.Trade.SettleTimeout)

	if err := publisher.Close(); err != nil {
		appLogger.Warn("Error closing event publisher", zap.Error(err))
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			appLogger.Warn("Error closing Redis connection", zap.Error(err))
		}
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	appLogger.Info("Server exited properly")
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, "+middleware.AdminTokenHeader)
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
