package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/joho/godotenv"
	"github.com/noteduco342/OMCalendar-backend/internal/auth"
	"github.com/noteduco342/OMCalendar-backend/internal/cache"
	"github.com/noteduco342/OMCalendar-backend/internal/config"
	"github.com/noteduco342/OMCalendar-backend/internal/handlers"
	applog "github.com/noteduco342/OMCalendar-backend/internal/logger"
	"github.com/noteduco342/OMCalendar-backend/internal/middleware"
	"github.com/noteduco342/OMCalendar-backend/internal/repository"
	"github.com/noteduco342/OMCalendar-backend/internal/service"
	"github.com/noteduco342/OMCalendar-backend/internal/storage"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	zlog, err := applog.Init(applog.ConfigFromEnv())
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal("config", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		AppName: "OM Calendar Backend",
		// Logo uploads are capped at 2MB; leave room for multipart overhead.
		BodyLimit: 4 * 1024 * 1024,
	})

	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	db, err := repository.InitDB(cfg.DSN())
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}
	store := repository.NewStore(db)

	var cacheStore cache.Store
	redisCache := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := redisCache.Ping(pingCtx); err != nil {
		zlog.Warn("redis unavailable, running without cache", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		_ = redisCache.Close()
	} else {
		zlog.Info("redis cache connected", zap.String("addr", cfg.RedisAddr))
		cacheStore = redisCache
	}
	cancel()
	messageCache := cache.NewMessageCache(cacheStore, cfg.UnseenTTL)

	// Logo endpoints answer 503 when object storage is missing.
	var objects storage.ObjectStore
	if s3cfg, err := storage.LoadS3ConfigFromEnv(); err != nil {
		if errors.Is(err, storage.ErrNotConfigured) {
			zlog.Warn("object storage not configured")
		} else {
			zlog.Warn("object storage config invalid", zap.Error(err))
		}
	} else if s3, err := storage.NewS3Storage(s3cfg); err != nil {
		zlog.Warn("object storage init failed", zap.Error(err))
	} else {
		bucketCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := s3.EnsureBucket(bucketCtx, s3cfg.Region); err != nil {
			zlog.Warn("object storage bucket check failed", zap.String("bucket", s3cfg.Bucket), zap.Error(err))
		}
		cancel()
		objects = s3
		zlog.Info("object storage initialized", zap.String("bucket", s3cfg.Bucket))
	}

	issuer := auth.NewJWTIssuer(cfg.JWTSecret, cfg.AccessTokenTTL)

	authService := service.NewAuthService(store, issuer, cfg.RefreshTokenTTL)
	userService := service.NewUserService(store)
	companyService := service.NewCompanyService(store, objects)
	messageService := service.NewMessageService(store)
	ledgerService := service.NewLedgerService(store)
	logoService := service.NewLogoService(store, objects)

	handlers.Register(app, handlers.Handlers{
		Auth:    handlers.NewAuthHandler(authService),
		User:    handlers.NewUserHandler(userService, messageCache),
		Company: handlers.NewCompanyHandler(companyService, messageCache),
		Message: handlers.NewMessageHandler(messageService, ledgerService, messageCache),
		Logo:    handlers.NewLogoHandler(logoService, cfg.PublicAPIBaseURL),
		Media:   handlers.NewMediaHandler(logoService),
	}, middleware.Authenticate(issuer, store.Users()), handlers.RouteConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		AuthRateLimit:  cfg.AuthRateLimit,
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"message": "OM Calendar is running",
		})
	})

	zlog.Info("server starting", zap.String("port", cfg.Port))
	if err := app.Listen(":" + cfg.Port); err != nil {
		zlog.Fatal("failed to start server", zap.Error(err))
	}
}
