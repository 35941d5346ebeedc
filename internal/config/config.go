package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/docsum/internal/logger"
)

// Token backends
const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type Config struct {
	Env     string
	API     APIConfig
	Tokens  TokenConfig
	Catalog CatalogConfig
	Search  SearchConfig
	Log     LogConfig
	Bridge  BridgeConfig
}

type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

type TokenConfig struct {
	Backend     string
	StateDir    string
	Passphrase  string
	RedisURL    string
	DatabaseURL string
}

type CatalogConfig struct {
	TTL            time.Duration
	AllowAnonymous bool
}

type SearchConfig struct {
	Debounce time.Duration
}

type LogConfig struct {
	Level string
	File  string
}

type BridgeConfig struct {
	Host string
	Port int
}

// Load reads an optional .env file and then the environment
func Load() *Config {
	// A missing .env is normal; real environment variables still apply
	_ = godotenv.Load()

	return &Config{
		Env: getEnv("DOCSUM_ENV", "development"),
		API: APIConfig{
			BaseURL: getEnv("DOCSUM_API_URL", "http://localhost:8000/api"),
			Timeout: getEnvDuration("DOCSUM_HTTP_TIMEOUT", 60*time.Second),
		},
		Tokens: TokenConfig{
			Backend:     strings.ToLower(getEnv("DOCSUM_TOKEN_BACKEND", BackendFile)),
			StateDir:    getEnv("DOCSUM_STATE_DIR", defaultStateDir()),
			Passphrase:  os.Getenv("DOCSUM_TOKEN_PASSPHRASE"),
			RedisURL:    getEnv("REDIS_URL", ""),
			DatabaseURL: getEnv("DATABASE_URL", ""),
		},
		Catalog: CatalogConfig{
			TTL:            getEnvDuration("DOCSUM_CATALOG_TTL", 5*time.Minute),
			AllowAnonymous: getEnvBool("DOCSUM_ANONYMOUS_BROWSE", false),
		},
		Search: SearchConfig{
			Debounce: getEnvDuration("DOCSUM_SEARCH_DEBOUNCE", 300*time.Millisecond),
		},
		Log: LogConfig{
			Level: getEnv("DOCSUM_LOG_LEVEL", "warn"),
			File:  getEnv("DOCSUM_LOG_FILE", ""),
		},
		Bridge: BridgeConfig{
			Host: getEnv("DOCSUM_BRIDGE_HOST", "127.0.0.1"),
			Port: getEnvInt("DOCSUM_BRIDGE_PORT", 8765),
		},
	}
}

// IsProduction reports whether DOCSUM_ENV asks for production behaviour
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Validate rejects values the client cannot run with
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("DOCSUM_API_URL must be an http(s) URL, got %q", c.API.BaseURL))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, errors.New("DOCSUM_HTTP_TIMEOUT must be positive"))
	}

	switch c.Tokens.Backend {
	case BackendFile:
		if c.Tokens.StateDir == "" {
			errs = append(errs, errors.New("DOCSUM_STATE_DIR is required for the file token backend"))
		}
	case BackendRedis:
		if c.Tokens.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required for the redis token backend"))
		}
	case BackendPostgres:
		if c.Tokens.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres token backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("DOCSUM_TOKEN_BACKEND must be file, redis or postgres, got %q", c.Tokens.Backend))
	}

	if c.Search.Debounce < 0 {
		errs = append(errs, errors.New("DOCSUM_SEARCH_DEBOUNCE must not be negative"))
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("DOCSUM_LOG_LEVEL: %w", err))
	}
	if c.Bridge.Port < 1 || c.Bridge.Port > 65535 {
		errs = append(errs, fmt.Errorf("DOCSUM_BRIDGE_PORT must be between 1 and 65535, got %d", c.Bridge.Port))
	}

	return errors.Join(errs...)
}

// BridgeAddr returns host:port for the local bridge
func (c *Config) BridgeAddr() string {
	return fmt.Sprintf("%s:%d", c.Bridge.Host, c.Bridge.Port)
}

func defaultStateDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "docsum")
	}
	return ".docsum"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
		return value == "yes"
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("750ms", "5m") or a bare number of seconds
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
