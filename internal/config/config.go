package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Supported database drivers.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort string

	DBDriver string
	DBDSN    string
	ResetDB  bool

	RedisAddr string
	RedisDB   int
	RedisPass string

	JWTSecret string
	// JWTTTL is the lifetime of issued tokens. Zero issues tokens without expiry.
	JWTTTL time.Duration

	RateLimitPerMinute int
	// TrustProxy takes client addresses from X-Forwarded-For set by a proxy
	// on a private or loopback network instead of the socket peer.
	TrustProxy bool

	KafkaBroker string
	KafkaTopic  string

	ShutdownTimeout time.Duration
	SwaggerHost     string
}

// Load builds Config from environment with sensible defaults.
// A .env file in the working directory is read first when present;
// variables already set in the environment win.
func Load() *Config {
	_ = godotenv.Load()

	dsn := getEnv("DATABASE_DSN", os.Getenv("MYSQL_DSN"))
	if dsn == "" {
		dsn = "user:password@tcp(localhost:3306)/tasks?charset=utf8mb4&parseTime=True&loc=Local"
	}

	return &Config{
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		DBDriver:           getEnv("DB_DRIVER", DriverMySQL),
		DBDSN:              dsn,
		ResetDB:            os.Getenv("RESET_DB") == "true",
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		RedisPass:          os.Getenv("REDIS_PASSWORD"),
		JWTSecret:          getEnv("JWT_SECRET", "change-me"),
		JWTTTL:             getEnvDuration("JWT_TTL", 0),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 100),
		TrustProxy:         os.Getenv("TRUST_PROXY") == "true",
		KafkaBroker:        os.Getenv("KAFKA_BROKER"),
		KafkaTopic:         getEnv("KAFKA_TOPIC", "task-events"),
		ShutdownTimeout:    getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		SwaggerHost:        os.Getenv("SWAGGER_HOST"),
	}
}

// Validate reports configuration the server cannot start with.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.DBDSN == "" {
		return fmt.Errorf("DATABASE_DSN is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive, got %d", c.RateLimitPerMinute)
	}
	if c.JWTTTL < 0 {
		return fmt.Errorf("JWT_TTL must not be negative")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return def
}
