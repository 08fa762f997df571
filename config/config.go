package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the runtime configuration of the back office.
type Config struct {
	Port              string
	Database          DatabaseConfig
	JWTSecret         string
	JWTTTL            time.Duration
	RewardCatalogPath string
	PointsExpirySpec  string
	VoucherExpirySpec string
	RateLimitRequests int
	RateLimitWindow   time.Duration
	LogFile           string
	RunMigrations     bool
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	LogLevel string
}

// DSN renders the libpq keyword/value connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// FromEnv loads .env when present and reads the configuration from the
// environment.
func FromEnv() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	secret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	window, err := time.ParseDuration(getEnvDefault("RATE_LIMIT_WINDOW", "15m"))
	if err != nil || window <= 0 {
		return nil, fmt.Errorf("invalid RATE_LIMIT_WINDOW %q", os.Getenv("RATE_LIMIT_WINDOW"))
	}
	ttl, err := time.ParseDuration(getEnvDefault("JWT_TTL", "24h"))
	if err != nil || ttl <= 0 {
		return nil, fmt.Errorf("invalid JWT_TTL %q", os.Getenv("JWT_TTL"))
	}

	cfg := &Config{
		Port: getEnvDefault("PORT", "8080"),
		Database: DatabaseConfig{
			Host:     getEnvDefault("DB_HOST", "localhost"),
			Port:     getEnvDefault("DB_PORT", "5432"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     getEnvDefault("DB_NAME", "cinepoints"),
			SSLMode:  getEnvDefault("DB_SSLMODE", "disable"),
			LogLevel: getEnvDefault("DB_LOG_LEVEL", "warn"),
		},
		JWTSecret:         secret,
		JWTTTL:            ttl,
		RewardCatalogPath: os.Getenv("REWARD_CATALOG_PATH"),
		PointsExpirySpec:  getEnvDefault("POINTS_EXPIRY_CRON", "0 3 * * *"),
		VoucherExpirySpec: getEnvDefault("VOUCHER_EXPIRY_CRON", "*/15 * * * *"),
		RateLimitRequests: parseIntEnv("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   window,
		LogFile:           os.Getenv("LOG_FILE"),
		RunMigrations:     parseBoolEnv("RUN_MIGRATIONS", true),
	}
	if cfg.RateLimitRequests <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_REQUESTS must be positive")
	}
	return cfg, nil
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseIntEnv(key string, def int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return def
}

func parseBoolEnv(key string, def bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return def
}
