package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers
const (
	StorePostgres  = "postgres"
	StoreSQLite    = "sqlite"
	StoreFirestore = "firestore"
)

const (
	defaultCompletionURL   = "https://api.openai.com/v1/chat/completions"
	defaultCompletionModel = "gpt-3.5-turbo"
	defaultTemperature     = 0.7
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort     string
	ServerHost     string
	AllowedOrigins []string

	// Store configuration
	StoreDriver string
	SQLitePath  string
	PGNotify    bool

	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Firestore configuration
	FirestoreProjectID string

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string
	MealRateLimit int

	// Session tokens
	JWTSecret  string
	SessionTTL time.Duration

	// Completion endpoint
	OpenAIAPIKey          string
	CompletionURL         string
	CompletionModel       string
	CompletionTemperature float64

	// Export webhook
	WebhookURL          string
	WebhookStrictStatus bool

	// Export archive
	S3BucketName string
	AWSRegion    string

	// DisplayLocation is used to render meal timestamps
	DisplayLocation *time.Location
}

// LoadConfig creates a new Config instance with values from environment variables or secrets
func LoadConfig() (*Config, error) {
	// A missing .env file is fine; the environment may already be populated
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to read .env file: %v", err)
	}

	env := GetEnvironment()
	cfg := &Config{}

	switch env {
	case CI:
		loadEnvConfig(cfg, envOnly)
	case Development, Test, Production:
		loadEnvConfig(cfg, lookup)
	default:
		return nil, fmt.Errorf("unknown environment: %s", env)
	}

	if err := applyDefaults(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply configuration defaults: %w", err)
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadEnvConfig fills cfg using get for every key
func loadEnvConfig(cfg *Config, get func(string) string) {
	cfg.ServerPort = get("SERVER_PORT")
	cfg.ServerHost = get("SERVER_HOST")
	for _, origin := range strings.Split(get("CORS_ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
		}
	}

	cfg.StoreDriver = strings.ToLower(get("STORE_DRIVER"))
	cfg.SQLitePath = get("SQLITE_PATH")
	cfg.PGNotify = parseBool(get("PG_NOTIFY"))

	cfg.DBHost = get("DB_HOST")
	cfg.DBPort = get("DB_PORT")
	cfg.DBUser = get("DB_USER")
	cfg.DBPassword = get("DB_PASSWORD")
	cfg.DBName = get("DB_NAME")
	cfg.DBSSLMode = get("DB_SSL_MODE")

	cfg.FirestoreProjectID = get("FIRESTORE_PROJECT_ID")

	cfg.RedisHost = get("REDIS_HOST")
	cfg.RedisPort = get("REDIS_PORT")
	cfg.RedisPassword = get("REDIS_PASSWORD")
	cfg.RedisURL = get("REDIS_URL")
	if db, err := strconv.Atoi(get("REDIS_DB")); err == nil {
		cfg.RedisDB = db
	}
	if limit, err := strconv.Atoi(get("MEAL_RATE_LIMIT")); err == nil {
		cfg.MealRateLimit = limit
	}

	cfg.JWTSecret = get("JWT_SECRET")
	if ttl, err := time.ParseDuration(get("SESSION_TTL")); err == nil {
		cfg.SessionTTL = ttl
	}

	cfg.OpenAIAPIKey = get("OPENAI_API_KEY")
	cfg.CompletionURL = get("COMPLETION_URL")
	cfg.CompletionModel = get("COMPLETION_MODEL")
	if temp, err := strconv.ParseFloat(get("COMPLETION_TEMPERATURE"), 64); err == nil {
		cfg.CompletionTemperature = temp
	} else {
		cfg.CompletionTemperature = defaultTemperature
	}

	cfg.WebhookURL = get("WEBHOOK_URL")
	cfg.WebhookStrictStatus = parseBool(get("WEBHOOK_STRICT_STATUS"))

	cfg.S3BucketName = get("S3_BUCKET_NAME")
	cfg.AWSRegion = get("AWS_REGION")

	if tz := get("DISPLAY_TIMEZONE"); tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			cfg.DisplayLocation = loc
		} else {
			log.Printf("Warning: unknown DISPLAY_TIMEZONE %q, using local time", tz)
		}
	}
}

func applyDefaults(cfg *Config) error {
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	if cfg.StoreDriver == "" {
		cfg.StoreDriver = StorePostgres
	}
	if cfg.DBPort == "" {
		cfg.DBPort = "5432"
	}
	if cfg.DBSSLMode == "" {
		cfg.DBSSLMode = "disable"
	}
	if cfg.SQLitePath == "" {
		cfg.SQLitePath = "nutrilog.db"
	}
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.CompletionURL == "" {
		cfg.CompletionURL = defaultCompletionURL
	}
	if cfg.CompletionModel == "" {
		cfg.CompletionModel = defaultCompletionModel
	}
	if cfg.DisplayLocation == nil {
		cfg.DisplayLocation = time.Local
	}
	return nil
}

// envOnly reads a variable from the environment only; CI never mounts secrets
func envOnly(name string) string {
	return strings.TrimSpace(os.Getenv(name))
}

// lookup prefers the environment and falls back to a Docker secret named after the variable
func lookup(name string) string {
	if v := envOnly(name); v != "" {
		return v
	}
	return readSecret(strings.ToLower(name))
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}

// DSN returns the postgres connection string
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

// Addr returns the HTTP listen address
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}
