package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"hotelbooking/docs"
	"hotelbooking/internal/auth"
	"hotelbooking/internal/cache"
	"hotelbooking/internal/config"
	"hotelbooking/internal/db"
	"hotelbooking/internal/events"
	"hotelbooking/internal/handler"
	"hotelbooking/internal/lock"
	"hotelbooking/internal/logger"
	"hotelbooking/internal/metrics"
	"hotelbooking/internal/repository"
	"hotelbooking/internal/router"
	"hotelbooking/internal/service"
)

const shutdownTimeout = 10 * time.Second

// @title Hotel Booking API
// @version 1.0
// @description Hotel booking API with JWT authentication and per-hotel conflict checking.
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.MustLoad()

	log := logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "hotel-booking",
	})

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited", "error", err)
	}
}

// run wires the application and serves until a shutdown signal or a server error.
// Every resource it opens is closed before it returns.
func run(cfg *config.Config, log *logger.Logger) error {
	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		return fmt.Errorf("database init: %w", err)
	}
	if cfg.ResetDB {
		log.Warn("RESET_DB=true detected, dropping all tables")
	}
	if err := db.Migrate(gormDB, cfg.ResetDB); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()
	if err := cacheClient.Ping(context.Background()); err != nil {
		if cfg.HotelLockBackend == config.LockBackendRedis {
			return fmt.Errorf("redis %s is required for the redis hotel lock: %w", cfg.RedisAddr, err)
		}
		log.Warn("redis unavailable, caching and token revocation degraded", "addr", cfg.RedisAddr, "error", err)
	}

	var locker lock.HotelLocker = lock.NewLocalLocker()
	if cfg.HotelLockBackend == config.LockBackendRedis {
		locker = lock.NewRedisLocker(cacheClient, cfg.HotelLockTTL)
	}
	log.Info("hotel lock configured", "backend", cfg.HotelLockBackend)

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.EventsEnabled() {
		kafkaPublisher, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return fmt.Errorf("kafka publisher init: %w", err)
		}
		publisher = kafkaPublisher
		log.Info("booking events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Error("flush booking events failed", "error", err)
		}
	}()

	m := metrics.New()

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	bookingRepo := repository.NewBookingRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	tokenStore := auth.NewTokenStore(cacheClient)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtService, tokenStore, cacheClient)
	userService := service.NewUserService(userRepo, cacheClient)
	bookingService := service.NewBookingService(bookingRepo, userRepo, locker, publisher, m, log)

	e := echo.New()
	router.Register(e, router.Handlers{
		Auth:    handler.NewAuthHandler(authService),
		User:    handler.NewUserHandler(userService),
		Booking: handler.NewBookingHandler(bookingService),
	}, router.Guard{JWT: jwtService, TokenStore: tokenStore}, m, log)

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = strings.TrimPrefix(strings.TrimPrefix(cfg.SwaggerHost, "http://"), "https://")
	}
	log.Info("swagger documentation available", "url", swaggerURL(cfg))

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("starting HTTP server", "port", cfg.ServerPort)
		serverErrors <- e.Start(":" + cfg.ServerPort)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	case sig := <-shutdown:
		log.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := e.Shutdown(ctx); err != nil {
			log.Error("server shutdown failed", "error", err)
			_ = e.Close()
		}
		log.Info("server stopped gracefully")
	}
	return nil
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
