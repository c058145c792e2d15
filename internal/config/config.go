package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	defaultMaxUploadBytes = 10 << 20 // 10 MiB
)

// WellKnownFolders are created under the upload root at startup.
var WellKnownFolders = []string{"uploads", "uploads/logos", "uploads/gallery", "uploads/team"}

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Redis     RedisConfig
	GRPC      GRPCConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string
	Environment     string // "development" or "production"
	CORSOrigin      string
	FrontendDir     string // built frontend bundle, served in production only
	ShutdownTimeout time.Duration
}

// StorageConfig holds storage configuration
type StorageConfig struct {
	Root           string // Upload root directory
	MaxUploadBytes int64
}

// RedisConfig holds Redis connection configuration. An empty Host disables events.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	Channel  string
}

// GRPCConfig holds the gRPC health listener configuration. An empty Port disables it.
type GRPCConfig struct {
	Port string
}

// RateLimitConfig holds per-client request limits. Zero RequestsPerSecond disables limiting.
type RateLimitConfig struct {
	RequestsPerSecond int
	Burst             int
}

// LoadConfig loads configuration from environment variables, reading a .env
// file first when one is present.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "3001"),
			Environment:     getEnv("APP_ENV", EnvDevelopment),
			CORSOrigin:      getEnv("CORS_ORIGIN", "*"),
			FrontendDir:     getEnv("FRONTEND_DIR", ""),
			ShutdownTimeout: time.Duration(getEnvAsInt64("SHUTDOWN_TIMEOUT_SECONDS", 5)) * time.Second,
		},
		Storage: StorageConfig{
			Root:           getEnv("UPLOAD_ROOT", "./public"),
			MaxUploadBytes: getEnvAsInt64("MAX_UPLOAD_BYTES", defaultMaxUploadBytes),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			Channel:  getEnv("REDIS_CHANNEL", "uploads:events"),
		},
		GRPC: GRPCConfig{
			Port: getEnv("GRPC_PORT", ""),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: int(getEnvAsInt64("RATE_LIMIT_RPS", 0)),
			Burst:             int(getEnvAsInt64("RATE_LIMIT_BURST", 20)),
		},
	}
}

// Validate checks the configuration for values the service cannot run with
func (c *Config) Validate() error {
	switch c.Server.Environment {
	case EnvDevelopment, EnvProduction:
	default:
		return fmt.Errorf("invalid APP_ENV %q: must be %q or %q", c.Server.Environment, EnvDevelopment, EnvProduction)
	}
	if c.Server.Port == "" {
		return fmt.Errorf("PORT must be set")
	}
	if c.Storage.Root == "" {
		return fmt.Errorf("UPLOAD_ROOT must be set")
	}
	if c.Storage.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.Storage.MaxUploadBytes)
	}
	if c.RateLimit.RequestsPerSecond < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("rate limit values must not be negative")
	}
	return nil
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == EnvProduction
}

// RedisEnabled reports whether upload events should be published to Redis
func (c *Config) RedisEnabled() bool {
	return c.Redis.Host != ""
}

// GetRedisAddr returns the Redis address in host:port format
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}
