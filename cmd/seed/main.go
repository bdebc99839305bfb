package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"hotelbooking/internal/auth"
	"hotelbooking/internal/cache"
	"hotelbooking/internal/config"
	"hotelbooking/internal/db"
	"hotelbooking/internal/events"
	"hotelbooking/internal/lock"
	"hotelbooking/internal/logger"
	"hotelbooking/internal/repository"
	"hotelbooking/internal/seed"
	"hotelbooking/internal/service"
)

func main() {
	file := flag.String("file", "seed.json", "path to the JSON fixture of users and bookings")
	flag.Parse()

	cfg := config.MustLoad()
	log := logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "hotel-booking-seed",
	})
	log.Info("starting seed script", "file", *file)

	if err := run(cfg, log, *file); err != nil {
		log.Fatal("seed failed", "error", err)
	}
}

// run loads the fixture and seeds it, closing the cache and the event
// publisher before it returns.
func run(cfg *config.Config, log *logger.Logger, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("open fixture: %w", err)
	}
	defer f.Close()

	fixtures, err := seed.Decode(f)
	if err != nil {
		return fmt.Errorf("read fixture: %w", err)
	}

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	if err := db.Migrate(gormDB, false); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	log.Info("database migrations completed")

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()

	var locker lock.HotelLocker = lock.NewLocalLocker()
	if cfg.HotelLockBackend == config.LockBackendRedis {
		locker = lock.NewRedisLocker(cacheClient, cfg.HotelLockTTL)
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.EventsEnabled() {
		kafkaPublisher, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return fmt.Errorf("kafka publisher init: %w", err)
		}
		publisher = kafkaPublisher
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Error("flush booking events failed", "error", err)
		}
	}()

	userRepo := repository.NewUserRepository(gormDB)
	bookingRepo := repository.NewBookingRepository(gormDB)
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	seeder := seed.NewSeeder(
		service.NewAuthService(userRepo, jwtService, auth.NewTokenStore(cacheClient), cacheClient),
		userRepo,
		service.NewBookingService(bookingRepo, userRepo, locker, publisher, nil, log),
		log,
	)

	res, err := seeder.Run(context.Background(), fixtures)
	if err != nil {
		log.Error("seed aborted",
			"users_created", res.UsersCreated,
			"bookings_created", res.BookingsCreated,
		)
		return err
	}

	log.Info("seed completed",
		"users_created", res.UsersCreated,
		"users_existing", res.UsersExisting,
		"bookings_created", res.BookingsCreated,
		"bookings_skipped", res.BookingsSkipped,
	)
	return nil
}
