package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bohemiyan/cruces"
	"github.com/bohemiyan/cruces/internal/config"
	"github.com/bohemiyan/cruces/internal/db"
	"github.com/bohemiyan/cruces/internal/routes"
	"github.com/bohemiyan/cruces/zapLogger"
	"github.com/gofiber/fiber/v2"
)

func main() {
	cfg, loadedDotEnv, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logFile := zapLogger.Init(zapLogger.Options{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSize,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAge,
		Compress:   cfg.LogCompress,
	})
	defer zapLogger.Log.Sync()
	if !loadedDotEnv {
		zapLogger.Log.Warn(".env file not found, using environment only")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pgDB, err := db.NewPostgresDB(ctx, cfg)
	if err != nil {
		zapLogger.Log.Fatalf("Failed to initialize PostgreSQL: %v", err)
	}
	zapLogger.Log.Info("Successfully connected to PostgreSQL database")
	defer pgDB.Close()

	redisDB, err := db.NewRedisClient(ctx, cfg)
	if err != nil {
		zapLogger.Log.Fatalf("Failed to initialize Redis: %v", err)
	}
	if redisDB != nil {
		zapLogger.Log.Info("Successfully connected to Redis")
		defer redisDB.Close()
	}

	svc, err := cruces.NewService(cruces.Config{
		DB:                 pgDB.GormDB,
		RedisClient:        redisDB,
		CacheTTL:           cfg.CacheTTL,
		CachePrefix:        cfg.CachePrefix,
		AutoMigrate:        cfg.AutoMigrate,
		EnableAuditLogging: cfg.AuditEnabled,
		Logger:             zapLogger.Log.With("component", "cruces"),
	})
	if err != nil {
		zapLogger.Log.Fatalf("Failed to initialize service: %v", err)
	}

	for menu, acciones := range routes.Menus {
		if _, err := svc.EnsureMenu(ctx, menu, acciones...); err != nil {
			zapLogger.Log.Fatalf("Failed to seed menu %s: %v", menu, err)
		}
	}

	app := fiber.New(fiber.Config{ErrorHandler: routes.ErrorHandler})
	app.Use(zapLogger.FiberLoggingMiddleware(logFile))
	routes.Setup(app, svc, pgDB)

	go func() {
		<-ctx.Done()
		zapLogger.Log.Info("Shutting down")
		if err := app.Shutdown(); err != nil {
			zapLogger.Log.Errorf("Shutdown failed: %v", err)
		}
	}()

	addr := fmt.Sprintf(":%d", cfg.AppPort)
	zapLogger.Log.Infof("Server started on port %d", cfg.AppPort)
	if err := app.Listen(addr); err != nil {
		zapLogger.Log.Fatalf("Server stopped: %v", err)
	}
}
