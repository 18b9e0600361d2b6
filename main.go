package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/onurcolak/checkin-dispatch-service/environments"
	"github.com/onurcolak/checkin-dispatch-service/handlers"
	"github.com/onurcolak/checkin-dispatch-service/internal/middlewares"
	"github.com/onurcolak/checkin-dispatch-service/internal/repository"
	"github.com/onurcolak/checkin-dispatch-service/internal/scheduler"
	"github.com/onurcolak/checkin-dispatch-service/internal/service"
	"github.com/onurcolak/checkin-dispatch-service/internal/tracker"
	"github.com/onurcolak/checkin-dispatch-service/pkg/database"
	"github.com/onurcolak/checkin-dispatch-service/pkg/logger"
	"github.com/onurcolak/checkin-dispatch-service/pkg/metrics"
	"github.com/onurcolak/checkin-dispatch-service/pkg/mongodb"
	"github.com/onurcolak/checkin-dispatch-service/pkg/pms"
	"github.com/onurcolak/checkin-dispatch-service/pkg/redis"
	"github.com/onurcolak/checkin-dispatch-service/pkg/storage"
	"github.com/onurcolak/checkin-dispatch-service/pkg/validator"
	"github.com/onurcolak/checkin-dispatch-service/pkg/webhook"
	"github.com/onurcolak/checkin-dispatch-service/routes"

	_ "github.com/onurcolak/checkin-dispatch-service/docs" // swagger docs
)

// remoteStore is a remote history store together with its lifecycle.
type remoteStore interface {
	tracker.HistoryStore
	handlers.RemotePinger
	Close() error
}

// @title Check-in Dispatch Service API
// @version 1.0
// @description Pending online check-in reports and WhatsApp dispatch tracking

// @host localhost:8080
// @BasePath /

// @schemes http https
func main() {
	// Load config
	cfg := environments.Load()

	logger.Init(cfg.Log.Level)
	defer logger.Sync()

	// Hard-fail if required secrets are missing
	if cfg.Auth.CheckinsAPIKey == "" {
		logger.Fatalf("CHECKINS_API_KEY is required but not set")
	}
	if cfg.Auth.ReportsAPIKey == "" {
		logger.Fatalf("REPORTS_API_KEY is required but not set")
	}

	location, err := time.LoadLocation(cfg.Dispatch.Timezone)
	if err != nil {
		logger.Fatalf("Invalid TIMEZONE %q: %v", cfg.Dispatch.Timezone, err)
	}

	logger.Infof("Starting Check-in Dispatch Service...")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init DB
	db, err := database.NewMySQLDB(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.RunMigrations(db); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	appMetrics := metrics.NewMetrics("checkin_dispatch", prometheus.DefaultRegisterer)

	// Remote history store; the service keeps working on the local store alone
	// when it is unreachable.
	remote := connectRemoteStore(ctx, cfg)

	historyRepo := repository.NewHistoryRepository(db)

	trackerOpts := []tracker.Option{
		tracker.WithLocation(location),
		tracker.WithRemoteTimeout(cfg.Remote.Timeout),
		tracker.WithMetrics(appMetrics),
	}

	historyTracker := tracker.New(historyRepo, remote, trackerOpts...)
	historyTracker.Load(ctx)

	// Initialize webhook clients
	handoffClient := webhook.NewWebhookClient(cfg.Handoff)
	if handoffClient.Enabled() {
		logger.Infof("Handoff webhook configured: %s", handoffClient.GetURL())
	} else {
		logger.Infof("Handoff webhook not configured, links are only returned to the caller")
	}

	alertClient := webhook.NewAlertClient(cfg.Alert.WebhookURL, 5*time.Second)

	// Initialize scheduler
	sched := scheduler.NewScheduler(alertClient, appMetrics)

	dispatchOpts := []service.DispatchOption{service.WithMetrics(appMetrics)}
	if cfg.S3.Bucket != "" {
		archive, err := storage.NewS3Archive(ctx, cfg.S3)
		if err != nil {
			logger.Warnf("S3 archive not available, uploads and exports are not archived: %v", err)
		} else {
			logger.Infof("Archiving reports to s3://%s/%s", cfg.S3.Bucket, cfg.S3.Prefix)
			dispatchOpts = append(dispatchOpts, service.WithArchive(archive))
		}
	}

	// Initialize services
	dispatchService := service.NewDispatchService(ctx, historyTracker, handoffClient, sched, cfg.Dispatch, dispatchOpts...)
	reportService := service.NewReportService(pms.NewClient(cfg.PMS), dispatchService)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(db, historyRepo, remote, cfg.Remote.Store)
	reportHandler := handlers.NewReportHandler(reportService)
	checkinHandler := handlers.NewCheckinHandler(dispatchService, cfg.Server.MaxUploadSize)
	dispatchHandler := handlers.NewDispatchHandler(dispatchService)

	e := echo.New()
	e.HideBanner = true
	e.Validator = validator.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			middlewares.APIKeyHeader,
		},
		ExposeHeaders: []string{echo.HeaderContentDisposition},
	}))

	// Setup routes
	routes.RegisterRoutes(e, healthHandler, reportHandler, checkinHandler, dispatchHandler,
		echo.WrapHandler(promhttp.Handler()), cfg)

	// Start server in goroutine
	go func() {
		addr := ":" + cfg.Server.Port
		logger.Infof("Server starting on http://localhost%s", addr)
		logger.Infof("Swagger docs available at http://localhost%s/swagger/index.html", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Infof("Shutting down gracefully...")

	// Shutdown HTTP server (with timeout)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	logger.Infof("Shutting down HTTP server...")
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	} else {
		logger.Infof("HTTP server stopped successfully")
	}

	// Cancel context so an active bulk run stops before its next record
	cancel()

	if sched.IsRunning() {
		logger.Infof("Waiting for bulk run to stop...")
		done := make(chan struct{})
		go func() {
			sched.Wait()
			close(done)
		}()

		select {
		case <-done:
			logger.Infof("Bulk run stopped")
		case <-time.After(5 * time.Second):
			logger.Warnf("Bulk run stop timeout, forcing shutdown")
		}
	}

	// Push the last snapshot to the remote store
	logger.Infof("Flushing dispatch history...")
	historyTracker.Close()

	// Close database connection
	logger.Infof("Closing database connection...")
	if err := db.Close(); err != nil {
		logger.Errorf("Error closing database: %v", err)
	}

	if remote != nil {
		logger.Infof("Closing %s connection...", cfg.Remote.Store)
		if err := remote.Close(); err != nil {
			logger.Errorf("Error closing %s: %v", cfg.Remote.Store, err)
		}
	}

	logger.Infof("Graceful shutdown completed")
}

// connectRemoteStore opens the store selected by REMOTE_STORE. It returns nil
// when none is configured or the store cannot be reached.
func connectRemoteStore(ctx context.Context, cfg *environments.Config) remoteStore {
	switch cfg.Remote.Store {
	case environments.RemoteStoreValkey:
		client, err := redis.NewRedisClient(cfg.Redis)
		if err != nil {
			logger.Warnf("Valkey not available, dispatch history kept locally only: %v", err)
			return nil
		}
		return client
	case environments.RemoteStoreMongo:
		connectCtx, cancel := context.WithTimeout(ctx, cfg.Remote.Timeout)
		defer cancel()

		store, err := mongodb.NewHistoryStore(connectCtx, cfg.Mongo)
		if err != nil {
			logger.Warnf("MongoDB not available, dispatch history kept locally only: %v", err)
			return nil
		}
		return store
	case environments.RemoteStoreNone, "":
		logger.Infof("No remote history store configured")
		return nil
	default:
		logger.Warnf("Unknown REMOTE_STORE %q, dispatch history kept locally only", cfg.Remote.Store)
		return nil
	}
}
