package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kvishal2109/magicofresinn/internal/cache"
	"github.com/kvishal2109/magicofresinn/internal/config"
	"github.com/kvishal2109/magicofresinn/internal/database"
	"github.com/kvishal2109/magicofresinn/internal/handlers"
	"github.com/kvishal2109/magicofresinn/internal/repository"
	"github.com/kvishal2109/magicofresinn/internal/routes"
	"github.com/kvishal2109/magicofresinn/internal/seed"
	"github.com/kvishal2109/magicofresinn/internal/services"
	"github.com/kvishal2109/magicofresinn/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Orders and admin auth need the store. The fallback catalog only covers
	// read failures after startup.
	db, err := database.Connect(cfg.DatabaseURL, cfg.DBLogLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("database unavailable")
	}

	fallback, err := seed.Load(cfg.FallbackCatalogPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.FallbackCatalogPath).Msg("fallback catalog is invalid")
	}

	var store cache.Store = cache.NewMemory(cfg.CacheTTL, nil)
	if cfg.RedisURL != "" {
		rdb, err := cache.NewRedis(ctx, cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			log.Fatal().Err(err).Msg("redis unavailable")
		}
		defer rdb.Close()
		store = rdb
	}

	uploader, err := newUploader(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("object store unavailable")
	}

	var notifiers []services.Notifier
	if telegram := services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat); telegram.Configured() {
		notifiers = append(notifiers, telegram)
	} else {
		log.Warn().Msg("telegram is not configured, admin messages are disabled")
	}
	if cfg.AMQPURL != "" {
		publisher, err := services.NewEventPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Fatal().Err(err).Msg("event broker unavailable")
		}
		defer publisher.Close()
		notifiers = append(notifiers, publisher)
	}

	productRepo := repository.NewProductRepository(db)
	sizes := services.NewSizeService(repository.NewSizeRepository(db), productRepo, store)
	catalog := services.NewCatalogService(productRepo, sizes, fallback, uploader)
	auth := services.NewAuthService(repository.NewAdminRepository(db), cfg.JWTSecret, cfg.TokenExpires)

	if err := auth.Bootstrap(ctx, cfg.AdminPassword); err != nil {
		log.Fatal().Err(err).Msg("admin bootstrap failed")
	}

	app := fiber.New(fiber.Config{
		AppName:      "Magic of Resinn Backend",
		ErrorHandler: handlers.ErrorHandler,
		BodyLimit:    12 << 20,
	})

	app.Use(recover.New())
	app.Use(logger.New())

	routes.Register(app, cfg, routes.Services{
		Catalog:    catalog,
		Sizes:      sizes,
		Categories: services.NewCategoryService(repository.NewCategoryRepository(db), store),
		Orders: services.NewOrderService(
			repository.NewOrderRepository(db), catalog, sizes, uploader, services.NewMultiNotifier(notifiers...),
		),
		Auth:       auth,
		Uploader:   uploader,
	})

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("graceful shutdown failed")
		}
	}()

	log.Info().Str("port", cfg.AppPort).Msg("starting server")
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Error().Err(err).Msg("fiber.Listen error")
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if isatty.IsTerminal(os.Stdout.Fd()) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
}

func newUploader(ctx context.Context, cfg *config.Config) (storage.Uploader, error) {
	if cfg.DriveEnabled() {
		log.Info().Str("folder_id", cfg.DriveFolderID).Msg("uploads go to google drive")
		return storage.NewDrive(ctx, cfg.GoogleCredFile, cfg.DriveFolderID)
	}
	log.Info().Str("dir", cfg.UploadDir).Msg("uploads go to local disk")
	return storage.NewLocal(cfg.UploadDir, cfg.PublicBaseURL)
}
