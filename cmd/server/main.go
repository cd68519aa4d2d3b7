package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/iliyamo/contactbook/internal/config"
	"github.com/iliyamo/contactbook/internal/database"
	"github.com/iliyamo/contactbook/internal/handler"
	"github.com/iliyamo/contactbook/internal/middleware"
	"github.com/iliyamo/contactbook/internal/repository"
	"github.com/iliyamo/contactbook/internal/router"
	"github.com/iliyamo/contactbook/internal/utils"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.MigrateOnStart {
		if err := database.Migrate(ctx, cfg.DatabaseDSN); err != nil {
			logger.Fatal("migrations failed", zap.Error(err))
		}
	}

	pool := database.NewPool(cfg.DatabaseDSN)
	defer func() { _ = pool.Close() }()

	rdb := config.NewRedisClient(ctx)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	tokens := utils.NewTokenIssuer(cfg.JWTSecret)
	users := repository.NewUserRepo(pool)
	contacts := repository.NewContactRepo(pool)

	e := router.New(router.Deps{
		Auth:     handler.NewAuthHandler(cfg, users, tokens),
		Pages:    handler.NewPageHandler(users, contacts),
		Contacts: handler.NewContactHandler(contacts),
		Tokens:   tokens,
		Cache:    middleware.NewContactCache(config.LoadCacheConfig(), rdb),
		DB:       pool,
		Users:    users,
	})
	e.HidePort = true

	addr := ":" + cfg.Port
	go func() {
		logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.IsProduction() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}
