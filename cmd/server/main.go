package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	reviewapp "github.com/stitchline/backend/internal/application/review"
	"github.com/stitchline/backend/internal/infrastructure/auth"
	"github.com/stitchline/backend/internal/infrastructure/config"
	"github.com/stitchline/backend/internal/infrastructure/event"
	"github.com/stitchline/backend/internal/infrastructure/logger"
	"github.com/stitchline/backend/internal/infrastructure/notify"
	"github.com/stitchline/backend/internal/infrastructure/persistence"
	"github.com/stitchline/backend/internal/interfaces/http/handler"
	"github.com/stitchline/backend/internal/interfaces/http/middleware"
	"github.com/stitchline/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("starting server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Connect to the database
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLogger := logger.NewGormLogger(log, gormLogLevel)

	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLogger)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("failed to close database", zap.Error(err))
		}
	}()

	if err := db.Migrate(); err != nil {
		log.Fatal("failed to migrate database", zap.Error(err))
	}

	// Repositories
	cartRepo := persistence.NewGormCartItemRepository(db.DB)
	orderRepo := persistence.NewGormReviewOrderRepository(db.DB)

	// Application services
	cartService := reviewapp.NewCartService(cartRepo)
	orderService := reviewapp.NewReviewOrderService(orderRepo, cartRepo, log)

	// Notification fan-out
	streamOpts := []handler.ReviewStreamOption{
		handler.WithStreamLogger(log),
	}
	if cfg.SSE.HeartbeatInterval > 0 {
		streamOpts = append(streamOpts, handler.WithStreamHeartbeat(cfg.SSE.HeartbeatInterval))
	}
	if cfg.SSE.ClientBuffer > 0 {
		streamOpts = append(streamOpts, handler.WithStreamBuffer(cfg.SSE.ClientBuffer))
	}
	if cfg.SSE.WriteTimeout > 0 {
		streamOpts = append(streamOpts, handler.WithStreamWriteTimeout(cfg.SSE.WriteTimeout))
	}

	var bridge *notify.RedisBridge
	if cfg.Redis.Enabled {
		bridge, err = notify.NewRedisBridge(cfg.Redis,
			notify.WithBridgeLogger(log),
			notify.WithBridgeOrigin(instanceID()),
		)
		if err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer func() {
			if err := bridge.Close(); err != nil {
				log.Error("failed to close redis bridge", zap.Error(err))
			}
		}()
		streamOpts = append(streamOpts, handler.WithStreamBridge(bridge))
		log.Info("cross-instance notification bridge enabled")
	}

	streamHandler := handler.NewReviewStreamHandler(streamOpts...)

	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(streamHandler)
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("failed to start event bus", zap.Error(err))
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := eventBus.Stop(stopCtx); err != nil {
			log.Error("failed to stop event bus", zap.Error(err))
		}
	}()

	if err := streamHandler.Start(); err != nil {
		log.Fatal("failed to start notification stream", zap.Error(err))
	}
	defer streamHandler.Stop()

	orderService.SetEventPublisher(eventBus)

	// Authentication
	jwtService := auth.NewJWTService(cfg.JWT)

	// HTTP engine
	middleware.SetupValidator()
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.CORSWithOrigins(cfg.HTTP.CORSAllowOrigins))
	if cfg.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodySizeLimit(cfg.HTTP.MaxBodySize))
	}

	// Probes stay outside the authenticated API surface
	systemHandler := handler.NewSystemHandler(db)
	systemHandler.RegisterRoutes(engine.Group(""))

	jwtConfig := middleware.DefaultJWTConfig(jwtService)
	jwtConfig.Logger = log

	// Handlers
	cartHandler := handler.NewCartHandler(cartService)
	orderHandler := handler.NewReviewOrderHandler(orderService)

	r := router.NewRouter(engine,
		router.WithAPIVersion("v1"),
		router.WithMiddleware(middleware.JWTAuthMiddlewareWithConfig(jwtConfig)),
		router.WithAdminMiddleware(middleware.RequireAdmin()),
	)
	r.Register(cartHandler)
	r.Register(orderHandler)
	r.Register(streamHandler)
	r.RegisterAdmin(orderHandler)
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

// instanceID identifies this process on the notification bridge so
// mirrored events are not echoed back to their origin.
func instanceID() string {
	host, err := os.Hostname()
	if err != nil {
		return fmt.Sprintf("stitchline-%d", os.Getpid())
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
