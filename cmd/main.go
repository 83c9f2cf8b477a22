package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"accessible-backend/internal/auth"
	"accessible-backend/internal/config"
	"accessible-backend/internal/handler"
	"accessible-backend/internal/notify"
	"accessible-backend/internal/service"
	"accessible-backend/internal/storage"
	"accessible-backend/internal/utils"
	"accessible-backend/pkg/logger"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "./configs/config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, cfg.Database)
	if err != nil {
		logger.Fatalf("storage init failed: %v", err)
	}

	utils.ExposeInternalErrors(cfg.Debug)

	tokens := auth.NewTokenManager(cfg.JWT)
	hasher := auth.NewPasswordHasher(cfg.Security.BcryptCost)
	authService := service.NewAuthService(store, tokens, hasher, cfg.Security, notify.NewLogMailer())
	userService := service.NewUserService(store, authService, cfg.Server.Version)
	accessibilityService := service.NewAccessibilityService(userService)

	limiter := service.NewRateLimiter(cfg.RateLimit)
	go limiter.Run(ctx)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handler.SetupRouter(cfg, handler.Handlers{
		Auth:          handler.NewAuthHandler(authService, userService),
		Users:         handler.NewUserHandler(userService),
		Accessibility: handler.NewAccessibilityHandler(accessibilityService),
		Health:        handler.NewHealthHandler(store, cfg.Server.Version),
	}, authService, limiter)

	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		logger.Infof("server listening on port %d (storage: %s)", cfg.Server.Port, cfg.Database.Type)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	stop()

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("server shutdown failed: %v", err)
	}
	if err := store.Close(shutdownCtx); err != nil {
		logger.Errorf("storage close failed: %v", err)
	}
	logger.Info("server stopped")
}

func openStorage(ctx context.Context, cfg config.DatabaseConfig) (storage.Storage, error) {
	var store storage.Storage
	switch cfg.Type {
	case "mongo":
		mongoStore, err := storage.NewMongoStorage(ctx, cfg.URI, cfg.Name, cfg.ConnectTimeout)
		if err != nil {
			return nil, err
		}
		store = mongoStore
	default:
		store = storage.NewMemoryStorage()
	}

	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrStorageInit, err)
	}
	return store, nil
}
