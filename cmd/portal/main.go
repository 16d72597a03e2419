package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/buspass-portal/api/swagger"
	"github.com/noah-isme/buspass-portal/internal/handler"
	"github.com/noah-isme/buspass-portal/internal/middleware"
	"github.com/noah-isme/buspass-portal/internal/models"
	"github.com/noah-isme/buspass-portal/internal/repository"
	"github.com/noah-isme/buspass-portal/internal/service"
	"github.com/noah-isme/buspass-portal/pkg/cache"
	"github.com/noah-isme/buspass-portal/pkg/config"
	"github.com/noah-isme/buspass-portal/pkg/logger"
	corsmiddleware "github.com/noah-isme/buspass-portal/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/buspass-portal/pkg/middleware/requestid"
)

// @title Campus Bus Pass Portal
// @version 1.0.0
// @description Rider and administrator portal over the campus bus pass service
// @BasePath /api/v1
// @schemes http https

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect redis", "error", err)
	}
	defer redisClient.Close() //nolint:errcheck

	var metricsSvc *service.MetricsService
	if cfg.Metrics.Enabled {
		metricsSvc = service.NewMetricsService()
	}

	validate := validator.New()
	backend := repository.NewBackendClient(cfg.Backend.BaseURL, cfg.Backend.Timeout, metricsSvc, logger.Named(logr, "backend"))

	authRepo := repository.NewAuthRepository(backend)
	passRepo := repository.NewPassRepository(backend)
	paymentRepo := repository.NewPaymentRepository(backend)
	alertRepo := repository.NewAlertRepository(backend)
	sessionRepo := repository.NewSessionRepository(redisClient, logger.Named(logr, "sessions"))

	sessionSvc := service.NewSessionService(authRepo, sessionRepo, validate, logger.Named(logr, "session"), cfg.Session.TTL)
	lifecycleSvc := service.NewLifecycleService(passRepo, validate, logger.Named(logr, "lifecycle"), service.LifecycleConfig{
		Location: cfg.Location,
		Metrics:  metricsSvc,
	})
	reviewSvc := service.NewApplicationReviewService(passRepo, validate, logger.Named(logr, "review"))
	paymentSvc := service.NewPaymentService(paymentRepo, lifecycleSvc, logger.Named(logr, "payment"), metricsSvc)
	sosSvc := service.NewSOSService(alertRepo, validate, logger.Named(logr, "sos"), service.SOSConfig{
		DefaultMessage:   cfg.SOS.DefaultMessage,
		MaxMessageLength: cfg.SOS.MaxMessageLength,
		LocateTimeout:    cfg.SOS.GeolocationTimeout,
		Metrics:          metricsSvc,
	})
	monitorSvc := service.NewAlertMonitorService(alertRepo, logger.Named(logr, "alerts"), service.MonitorConfig{
		PollInterval: cfg.Alerts.PollInterval,
		PageSize:     cfg.Alerts.PageSize,
		Metrics:      metricsSvc,
	})

	sessionHandler := handler.NewSessionHandler(sessionSvc, handler.CookieConfig{
		Name:   cfg.Session.CookieName,
		Secure: cfg.Session.Secure,
	}, monitorSvc.Forget)
	passHandler := handler.NewPassHandler(lifecycleSvc, cfg.Expiry.Tick)
	paymentHandler := handler.NewPaymentHandler(paymentSvc)
	sosHandler := handler.NewSOSHandler(sosSvc)
	alertHandler := handler.NewAlertAdminHandler(monitorSvc)
	applicationHandler := handler.NewApplicationAdminHandler(reviewSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, sessionRepo)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins, middleware.SessionHeader))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if metricsSvc != nil {
		r.GET("/metrics", metricsHandler.Prometheus)
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", sessionHandler.Login)

	secured := api.Group("")
	secured.Use(middleware.Session(sessionSvc, cfg.Session.CookieName))
	secured.POST("/auth/logout", sessionHandler.Logout)
	secured.GET("/me", sessionHandler.Me)

	riders := secured.Group("")
	riders.Use(middleware.RequireRoles(models.RoleStudent, models.RoleUser))
	riders.GET("/pass/standing", passHandler.Standing)
	riders.POST("/pass/applications", passHandler.Apply)
	riders.GET("/pass/countdown", passHandler.Countdown)
	riders.GET("/pass/countdown/stream", passHandler.CountdownStream)
	riders.POST("/pass/payment/order", paymentHandler.CreateOrder)
	riders.POST("/pass/payment/verify", paymentHandler.Verify)
	riders.POST("/sos/alerts", sosHandler.Send)

	admin := secured.Group("/admin")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	admin.GET("/applications", applicationHandler.List)
	admin.PUT("/applications/:id/status", applicationHandler.UpdateStatus)
	admin.GET("/sos/alerts", alertHandler.List)
	admin.GET("/sos/alerts/stream", alertHandler.Stream)
	admin.GET("/sos/active-count", alertHandler.ActiveCount)
	admin.POST("/sos/alerts/:id/resolve", alertHandler.Resolve)
	if metricsSvc != nil {
		admin.GET("/metrics/summary", metricsHandler.Snapshot)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.String("backend", backend.BaseURL()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}
