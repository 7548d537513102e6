package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "complaintdesk/docs" // swagger docs

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"complaintdesk/internal/app"
	"complaintdesk/internal/auth"
	"complaintdesk/internal/cache"
	"complaintdesk/internal/config"
	"complaintdesk/internal/handler"
	"complaintdesk/internal/logging"
	"complaintdesk/internal/router"
	"complaintdesk/internal/service"
)

// @title Complaint Desk API
// @version 1.0
// @description Submit and track civic complaints with media attachments, status tracking and JWT authentication.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()
	logger := logging.New(cfg.Env, cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("store init", zap.Error(err))
	}
	defer a.Close()

	// Revoked tokens live in Redis. When the store is Redis too the
	// connection is shared; otherwise a separate fail-safe client is used.
	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if a.Redis != nil {
		cacheClient = cache.NewFromClient(a.Redis)
	}

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	revocations := auth.NewTokenRevocations(cacheClient)

	// Initialize services
	authService := service.NewAuthService(a.Session, jwtService, revocations, logger)
	complaintService := a.ComplaintService(auth.ContextAuthenticator{})

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService, jwtService)
	complaintHandler := handler.NewComplaintHandler(complaintService, cfg.MediaMaxBytes)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Register routes
	router.Register(e, logger, cfg.BodyLimit, jwtService, revocations, authHandler, complaintHandler)

	logger.Info("swagger documentation available", zap.String("url", swaggerURL(cfg)))

	addr := ":" + cfg.ServerPort
	go func() {
		logger.Info("server starting", zap.String("addr", addr), zap.String("store", cfg.StoreBackend))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func swaggerURL(cfg *config.Config) string {
	host := cfg.SwaggerHost
	if host == "" {
		host = "localhost:" + cfg.ServerPort
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	return host + "/swagger/index.html"
}
