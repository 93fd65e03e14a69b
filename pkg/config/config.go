package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the scanner
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server (read-only dashboard API)
	Port string
	Env  string // development, staging, production, test

	// Storage
	DataDir      string // root of markets/, dividends/, candidates/
	CriteriaFile string // optional YAML screening criteria

	// Scan
	Scan ScanConfig

	// External APIs
	Yahoo YahooConfig

	// Redis (shared rate limit between scanner processes)
	Redis RedisConfig

	// Database (optional snapshot sync)
	Database DatabaseConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// ScanConfig holds scan pipeline configuration
type ScanConfig struct {
	Markets            []string      // markets scanned by run-all / nightly job
	Workers            int           // concurrent fetch workers per market
	FetchTimeout       time.Duration // timeout of one fetch attempt
	MaxAttempts        int           // per-ticker attempts (provider errors only)
	Schedule           string        // nightly scan cron (with seconds)
	MarketListSchedule string        // market list refresh cron (with seconds)
}

// YahooConfig holds Yahoo Finance configuration
type YahooConfig struct {
	BaseURL    string
	SessionURL string
	RateLimit  int // requests per second
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled reports whether snapshot sync has a database to write to
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// MarketsDir returns the directory holding market ticker lists
func (c *Config) MarketsDir() string {
	return filepath.Join(c.DataDir, "markets")
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		DataDir:      getEnv("DATA_DIR", "data"),
		CriteriaFile: getEnv("CRITERIA_FILE", ""),

		Scan: ScanConfig{
			Markets:            getEnvAsList("SCAN_MARKETS", []string{"sp500"}),
			Workers:            getEnvAsInt("SCAN_WORKERS", 5),
			FetchTimeout:       getEnvAsDuration("FETCH_TIMEOUT", "15s"),
			MaxAttempts:        getEnvAsInt("FETCH_MAX_ATTEMPTS", 2),
			Schedule:           getEnv("SCAN_SCHEDULE", "0 0 22 * * 1-5"),
			MarketListSchedule: getEnv("MARKET_LIST_SCHEDULE", "0 0 6 * * 0"),
		},

		Yahoo: YahooConfig{
			BaseURL:    getEnv("YAHOO_BASE_URL", "https://query2.finance.yahoo.com"),
			SessionURL: getEnv("YAHOO_SESSION_URL", "https://fc.yahoo.com"),
			RateLimit:  getEnvAsInt("YAHOO_RATE_LIMIT", 5),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 5),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if configuration values are usable
func (c *Config) validate() error {
	switch c.Env {
	case "development", "staging", "production", "test":
	default:
		return fmt.Errorf("ENV must be one of: development, staging, production, test")
	}

	if c.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}

	if len(c.Scan.Markets) == 0 {
		return fmt.Errorf("SCAN_MARKETS must list at least one market")
	}

	if c.Scan.Workers < 1 {
		return fmt.Errorf("SCAN_WORKERS must be >= 1, got %d", c.Scan.Workers)
	}

	// per-ticker 재시도는 1~3회로 제한
	if c.Scan.MaxAttempts < 1 || c.Scan.MaxAttempts > 3 {
		return fmt.Errorf("FETCH_MAX_ATTEMPTS must be in [1, 3], got %d", c.Scan.MaxAttempts)
	}

	if c.Scan.FetchTimeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT must be positive")
	}

	if c.Yahoo.RateLimit < 1 {
		return fmt.Errorf("YAHOO_RATE_LIMIT must be >= 1")
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// getEnvAsList splits a comma separated value, dropping blanks
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
