package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nfce/danfe/internal/bootstrap"
	"github.com/nfce/danfe/internal/infrastructure/config"
	"github.com/nfce/danfe/internal/infrastructure/logger"
	"github.com/nfce/danfe/internal/infrastructure/telemetry"
	"github.com/nfce/danfe/internal/interfaces/http/handler"
	"github.com/nfce/danfe/internal/interfaces/http/middleware"
	"github.com/nfce/danfe/internal/interfaces/http/router"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	baseLog, err := logger.New(cfg.Log)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = baseLog.Sync()
	}()

	// Wire telemetry, print history, lock, bridge and renderers
	app, err := bootstrap.New(context.Background(), cfg, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize print service", zap.Error(err))
	}
	log := app.Logger

	log.Info("Starting DANFE print service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("printer", cfg.Printer.Name),
	)

	// First bridge probe, the result only sets the status area
	checkCtx, cancelCheck := context.WithTimeout(context.Background(), cfg.Bridge.ConnectTimeout)
	if app.Service.CheckBridge(checkCtx) {
		log.Info("QZ Tray is reachable")
	}
	cancelCheck()

	// Periodic maintenance
	maintenance, err := bootstrap.NewMaintenance(cfg, app.Service, log)
	if err != nil {
		log.Fatal("Failed to configure scheduler", zap.Error(err))
	}
	if cfg.Scheduler.Enabled {
		if err := maintenance.Start(context.Background()); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
	}

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Tracing - Server span, request ID attribute, error status
	// 4. Metrics - Request count, duration and size
	// 5. Logger - Log requests
	// 6. Security - Add security headers
	// 7. CORS - Handle cross-origin requests
	// 8. BodyLimit - Limit request body size
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     app.Tracer.IsEnabled(),
	}))
	engine.Use(middleware.SpanAttributes())
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(app.Meter))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Health, ping and build information
	systemOpts := []handler.SystemOption{
		handler.WithHealthCheck("bridge", func(ctx context.Context) error {
			if !app.Bridge.Probe(ctx) {
				return errors.New("QZ Tray is not reachable")
			}
			return nil
		}),
	}
	if app.Database != nil {
		systemOpts = append(systemOpts, handler.WithHealthCheck("database", func(context.Context) error {
			return app.Database.Ping()
		}))
	}
	handler.SystemRoutes(engine, handler.NewSystemHandler(cfg.App.Name, telemetry.ServiceVersion, systemOpts...))

	// Print API
	printHandler := handler.NewPrintHandler(app.Service)
	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(handler.PrintRoutes(printHandler)).
		Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := maintenance.Stop(ctx); err != nil {
		log.Error("Error stopping scheduler", zap.Error(err))
	}
	if err := app.Close(ctx); err != nil {
		log.Error("Error releasing resources", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
