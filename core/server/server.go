package server

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"leadbook/core/cache"
	"leadbook/core/config"
	"leadbook/core/crypto"
	"leadbook/core/database"
	"leadbook/core/logger"
	"leadbook/core/middleware"
	"leadbook/modules/credential"
	"leadbook/modules/credential/repository"
	"leadbook/modules/wizard"
	"leadbook/tasks"
)

// Run boots the whole service: config, stores, HTTP routes, background
// worker, then blocks until a shutdown signal.
func Run() error {
	logger.Init()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.InitDB(database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
	})
	if err != nil {
		return fmt.Errorf("failed to init database: %w", err)
	}
	defer db.Close()

	c, err := cache.Init(cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return fmt.Errorf("failed to init cache: %w", err)
	}

	sealer, err := crypto.NewSealer(cfg.Booking.SealKey)
	if err != nil {
		return fmt.Errorf("failed to init sealer: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	mw := middleware.NewMiddleware(cfg.Booking.JWTSecret)
	e.Use(mw.RequestLogger())

	e.GET("/health", func(ctx echo.Context) error {
		return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	credential.Init(e, db, c, sealer)
	store := wizard.Init(e, c, sealer)
	defer store.Close()

	worker := tasks.NewWorker(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, repository.NewOAuthStateRepository(db))
	worker.Start()
	defer worker.Shutdown()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		logger.Info("Server:Start", "addr", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Error("Server:Start:Error", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("Server:Shutdown:Begin")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server:Shutdown:Error", "error", err)
		return err
	}
	logger.Info("Server:Shutdown:Done")
	return nil
}
