package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/content-platform-api/internal/models"
	"github.com/joho/godotenv"
)

// Store backends
const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Store selects the comment persistence backend
	Store StoreConfig

	// MongoDB configuration
	Mongo MongoConfig

	// PostgreSQL configuration
	Database DatabaseConfig

	// Token verification
	Auth AuthConfig

	// Write route throttling
	RateLimit RateLimitConfig

	// Comment rules
	Comments CommentConfig

	// Logging configuration
	Log LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// StoreConfig selects the persistence backend
type StoreConfig struct {
	Backend string // "mongo" or "postgres"
}

// MongoConfig holds MongoDB connection settings
type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	Name           string
	SSLMode        string
	MaxOpenConns   int
	MaxIdleConns   int
	MaxLifetime    time.Duration
	MigrationsPath string
}

// AuthConfig holds bearer token settings
type AuthConfig struct {
	JWTSecret string
}

// RateLimitConfig holds per-client throttling for write routes
type RateLimitConfig struct {
	RequestsPerMinute int
	Burst             int
}

// CommentConfig holds comment validation and listing settings
type CommentConfig struct {
	MaxWords     int
	MaxPageLimit int
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string // "json" or "pretty"
}

// Load reads configuration from an optional .env file and environment variables
func Load() (*Config, error) {
	// A missing .env file is fine; the process environment still applies
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "5000"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			AllowedOrigins:  getListEnv("ALLOWED_ORIGINS", []string{"*"}),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(getEnv("STORE_BACKEND", StoreMongo)),
		},
		Mongo: MongoConfig{
			URI:            getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGODB_DATABASE", "content_platform"),
			ConnectTimeout: getDurationEnv("MONGODB_CONNECT_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			Name:           getEnv("DB_NAME", "content_platform"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:   getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:   getIntEnv("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:    getDurationEnv("DB_MAX_LIFETIME", 5*time.Minute),
			MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: getIntEnv("RATE_LIMIT_PER_MINUTE", 60),
			Burst:             getIntEnv("RATE_LIMIT_BURST", 10),
		},
		Comments: CommentConfig{
			MaxWords:     getIntEnv("COMMENT_MAX_WORDS", models.DefaultMaxCommentWords),
			MaxPageLimit: getIntEnv("COMMENT_MAX_PAGE_LIMIT", 100),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.Store.Backend {
	case StoreMongo:
		if c.Mongo.URI == "" {
			return fmt.Errorf("MONGODB_URI is required")
		}
		if c.Mongo.Database == "" {
			return fmt.Errorf("MONGODB_DATABASE is required")
		}
	case StorePostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("DB_HOST is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("DB_NAME is required")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", StoreMongo, StorePostgres, c.Store.Backend)
	}
	if c.RateLimit.RequestsPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.Comments.MaxWords <= 0 {
		return fmt.Errorf("COMMENT_MAX_WORDS must be positive")
	}
	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
