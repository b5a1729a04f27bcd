// @title                       RentalHub API
// @version                     1.0
// @description                 Property rental marketplace: listings, approval workflow, unit occupancy and tenant onboarding.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	_ "rentalhub/docs"
	"rentalhub/internal/analytics"
	"rentalhub/internal/caching"
	"rentalhub/internal/common"
	"rentalhub/internal/config"
	"rentalhub/internal/handlers"
	"rentalhub/internal/hierarchy"
	"rentalhub/internal/jobs"
	"rentalhub/internal/jobs/background"
	applog "rentalhub/internal/logger"
	"rentalhub/internal/middleware"
	"rentalhub/internal/observability/metrics"
	"rentalhub/internal/observability/tracing"
	"rentalhub/internal/repositories"
	"rentalhub/internal/services"
	"rentalhub/pkg/database"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := applog.New(cfg.LogLevel, cfg.Environment)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, logger, cfg.Tracing.OTLPEndpoint, "rentalhub", cfg.Environment)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	// Database connection
	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	redisClient := caching.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer redisClient.Close()
	cacheSvc := caching.NewRedisCacheService(redisClient, logger)

	images, err := services.NewMinioImageStore(cfg.Minio.Endpoint, cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.Bucket, cfg.Minio.UseSSL)
	if err != nil {
		return fmt.Errorf("init image store: %w", err)
	}
	if err := images.EnsureBucket(ctx); err != nil {
		logger.Warn("image bucket unavailable, uploads will fail", slog.String("error", err.Error()))
	}

	if cfg.GeneratedJWTSecret {
		logger.Warn("JWT_SECRET not set, using a generated secret; issued tokens will not survive a restart")
	}
	var jwks *keyfunc.JWKS
	if cfg.Auth.JWKSURL != "" {
		if jwks, err = services.LoadJWKS(cfg.Auth.JWKSURL, logger); err != nil {
			return fmt.Errorf("load JWKS: %w", err)
		}
		defer jwks.EndBackground()
	}

	// Repositories and services
	store := repositories.NewStore(pool)
	resolver := hierarchy.NewResolver(store.Users())
	notifier := services.NewRedisNotifier(redisClient, logger)

	authSvc := services.NewAuthService(store.Users(), cacheSvc, services.AuthConfig{
		JWTSecret:  cfg.Auth.JWTSecret,
		Issuer:     cfg.Auth.Issuer,
		AccessTTL:  cfg.Auth.AccessTTL(),
		RefreshTTL: cfg.Auth.RefreshTTL(),
		JWKS:       jwks,
	}, logger)
	userSvc := services.NewUserService(store, resolver, notifier, logger)
	propertySvc := services.NewPropertyService(store, resolver, cacheSvc, images, notifier, logger)
	tenantSvc := services.NewTenantService(store, resolver, cacheSvc, notifier, logger)
	analyticsSvc := analytics.NewAnalyticsService(store, resolver, cacheSvc, cfg.Billing.CommissionRate, logger)

	scheduler, err := background.NewJobScheduler(logger, cfg.Jobs.Interval(),
		jobs.NewLeaseExpiryJob(tenantSvc, logger),
		jobs.NewLeaseReminderJob(tenantSvc, cfg.Jobs.LeaseReminderDays, logger),
	)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Stop(); err != nil {
			logger.Warn("scheduler shutdown", slog.String("error", err.Error()))
		}
	}()

	e := newEcho(cfg, logger)
	handlers.RegisterRoutes(e, &handlers.Handlers{
		Auth:       handlers.NewAuthHandlers(authSvc, userSvc),
		Users:      handlers.NewUserHandlers(userSvc),
		Properties: handlers.NewPropertyHandlers(propertySvc),
		Tenants:    handlers.NewTenantHandlers(tenantSvc),
		Hierarchy:  handlers.NewHierarchyHandlers(analyticsSvc),
		Health:     handlers.NewHealthHandlers(pool, cacheSvc, version),
		Jobs:       handlers.NewJobHandlers(scheduler),
	}, authSvc)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           otelhttp.NewHandler(e, "rentalhub"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.Int("port", cfg.Port), slog.String("version", version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", slog.String("error", err.Error()))
	}
	return shutdownTracing(shutdownCtx)
}

func newEcho(cfg *config.Config, logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = errorHandler

	e.Pre(echoMiddleware.RemoveTrailingSlash())
	e.Use(echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			logger.LogAttrs(c.Request().Context(), slog.LevelInfo, "request", attrs...)
			return nil
		},
	}))
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{
		AllowOrigins: cfg.CORS,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "Accept-Version"},
	}))
	e.Use(metrics.HTTPMetricsMiddleware())
	e.Use(middleware.NewVersionMiddleware(version).Handler())

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	return e
}

// errorHandler keeps router and middleware errors in the response envelope.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		_ = common.SendFailure(c, he.Code, http.StatusText(he.Code))
		return
	}
	_ = common.SendError(c, err)
}
