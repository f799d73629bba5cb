package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"cyberguard/internal/auth"
	"cyberguard/internal/cache"
	"cyberguard/internal/config"
	"cyberguard/internal/model"
	"cyberguard/internal/stubapi"
)

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	var refresh auth.RefreshStore = auth.NewMemoryRefreshStore()
	if cfg.RefreshStore == config.StoreRedis {
		cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, "cyberguard:stub:")
		defer func() { _ = cacheClient.Close() }()
		if err := cacheClient.Ping(context.Background()); err != nil {
			logger.Fatal("redis init", zap.Error(err))
		}
		refresh = auth.NewRedisRefreshStore(cacheClient)
	}

	store := stubapi.NewStore()

	// Optional bootstrap admin, since registration never grants the role.
	if name := os.Getenv("STUBAPI_ADMIN_USERNAME"); name != "" {
		password := os.Getenv("STUBAPI_ADMIN_PASSWORD")
		if password == "" {
			logger.Fatal("STUBAPI_ADMIN_PASSWORD is required with STUBAPI_ADMIN_USERNAME")
		}
		email := os.Getenv("STUBAPI_ADMIN_EMAIL")
		if email == "" {
			email = name + "@example.com"
		}
		if _, err := store.CreateUser(name, email, password, model.RoleAdmin); err != nil {
			logger.Fatal("create bootstrap admin", zap.Error(err))
		}
		logger.Info("bootstrap admin created", zap.String("username", name))
	}

	e := stubapi.New(stubapi.Options{
		Store:      store,
		JWT:        auth.NewJWTService(cfg.JWTSecret),
		Refresh:    refresh,
		Logger:     logger,
		RequestLog: true,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown", zap.Error(err))
		}
	}()

	addr := ":" + cfg.ServerPort
	logger.Info("stub api listening", zap.String("addr", addr), zap.String("refresh_store", cfg.RefreshStore))
	if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server start", zap.Error(err))
	}
}
