package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	// LockBackendLocal serializes bookings per hotel inside a single process.
	LockBackendLocal = "local"
	// LockBackendRedis serializes bookings per hotel across instances with a Redis lease.
	LockBackendRedis = "redis"
)

// Config holds application level configuration loaded from an optional YAML file
// (CONFIG_PATH) overlaid by environment variables.
type Config struct {
	ServerPort  string `yaml:"server_port" env:"SERVER_PORT" env-default:"8080"`
	MySQLDSN    string `yaml:"mysql_dsn" env:"MYSQL_DSN" env-default:"user:password@tcp(localhost:3306)/bookings?charset=utf8mb4&parseTime=True&loc=UTC"`
	ResetDB     bool   `yaml:"reset_db" env:"RESET_DB" env-default:"false"`
	RedisAddr   string `yaml:"redis_addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	RedisDB     int    `yaml:"redis_db" env:"REDIS_DB" env-default:"0"`
	RedisPass   string `yaml:"redis_password" env:"REDIS_PASSWORD"`
	SwaggerHost string `yaml:"swagger_host" env:"SWAGGER_HOST"`

	JWTSecret       string        `yaml:"jwt_secret" env:"JWT_SECRET" env-default:"change-me"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl" env:"ACCESS_TOKEN_TTL" env-default:"15m"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl" env:"REFRESH_TOKEN_TTL" env-default:"168h"`

	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT" env-default:"json"`

	KafkaBrokers []string `yaml:"kafka_brokers" env:"KAFKA_BROKERS" env-separator:","`
	KafkaTopic   string   `yaml:"kafka_topic" env:"KAFKA_TOPIC" env-default:"bookings.events"`

	HotelLockBackend string        `yaml:"hotel_lock_backend" env:"HOTEL_LOCK_BACKEND" env-default:"local"`
	HotelLockTTL     time.Duration `yaml:"hotel_lock_ttl" env:"HOTEL_LOCK_TTL" env-default:"10s"`
}

// Load reads the YAML file named by CONFIG_PATH (when set) and then the environment.
func Load() (*Config, error) {
	var cfg Config

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MustLoad is Load that panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var problems []string

	if c.ServerPort == "" {
		problems = append(problems, "SERVER_PORT cannot be empty")
	}
	if c.MySQLDSN == "" {
		problems = append(problems, "MYSQL_DSN cannot be empty")
	}
	if c.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET cannot be empty")
	}
	if c.AccessTokenTTL <= 0 {
		problems = append(problems, fmt.Sprintf("ACCESS_TOKEN_TTL must be positive, got: %s", c.AccessTokenTTL))
	}
	if c.RefreshTokenTTL <= 0 {
		problems = append(problems, fmt.Sprintf("REFRESH_TOKEN_TTL must be positive, got: %s", c.RefreshTokenTTL))
	}
	if c.HotelLockTTL <= 0 {
		problems = append(problems, fmt.Sprintf("HOTEL_LOCK_TTL must be positive, got: %s", c.HotelLockTTL))
	}
	switch c.HotelLockBackend {
	case LockBackendLocal, LockBackendRedis:
	default:
		problems = append(problems, fmt.Sprintf("HOTEL_LOCK_BACKEND must be %q or %q, got: %q", LockBackendLocal, LockBackendRedis, c.HotelLockBackend))
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}

// EventsEnabled reports whether booking events should be published to Kafka.
func (c *Config) EventsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}
