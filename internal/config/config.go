// Package config loads service settings from the environment (optionally
// seeded from a .env file) and the fraud policy constants.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds everything cmd/main.go needs to wire the service.
type Config struct {
	HTTPAddr       string `validate:"required"`
	StorageDriver  string `validate:"oneof=postgres memory"`
	DB             DBConfig
	Redis          RedisConfig
	JWTSecret      string `validate:"required,min=16"`
	Gemini         GeminiConfig
	Telegram       TelegramConfig
	Files          FileConfig
	PolicyFile     string
	LocalesDir     string
	LogLevel       string        `validate:"omitempty,oneof=debug info warn error"`
	AuditCacheTTL  time.Duration `validate:"min=0"`
	PreviewPerMin  int           `validate:"min=1"`
	StrictPolicy   bool
	ShutdownWindow time.Duration
}

type DBConfig struct {
	Host     string `validate:"required_if=Enabled true"`
	User     string
	Password string
	Name     string `validate:"required_if=Enabled true"`
	Port     string
	Enabled  bool
}

// DSN returns the libpq-style connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.Host, c.User, c.Password, c.Name, c.Port)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int `validate:"min=0"`
}

type GeminiConfig struct {
	APIKey  string
	Model   string `validate:"required"`
	BaseURL string `validate:"required,url"`
	Timeout time.Duration
}

type TelegramConfig struct {
	Token       string
	AlertChatID int64
}

type FileConfig struct {
	Backend    string `validate:"oneof=local s3"`
	UploadDir  string `validate:"required_if=Backend local"`
	S3Bucket   string `validate:"required_if=Backend s3"`
	S3Region   string
	S3Prefix   string
	S3Endpoint string
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	// .env is optional in production
	_ = godotenv.Load()

	driver := getEnv("STORAGE_DRIVER", "postgres")
	cfg := &Config{
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		StorageDriver: driver,
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			User:     getEnv("DB_USER", "user"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     getEnv("DB_NAME", "civicledger"),
			Port:     getEnv("DB_PORT", "5432"),
			Enabled:  driver == "postgres",
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWTSecret: os.Getenv("JWT_SECRET"),
		Gemini: GeminiConfig{
			APIKey:  os.Getenv("GEMINI_API_KEY"),
			Model:   getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			BaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
			Timeout: getEnvDuration("GEMINI_TIMEOUT", 30*time.Second),
		},
		Telegram: TelegramConfig{
			Token:       os.Getenv("TELEGRAM_BOT_TOKEN"),
			AlertChatID: int64(getEnvInt("TELEGRAM_ALERT_CHAT_ID", 0)),
		},
		Files: FileConfig{
			Backend:    getEnv("FILE_BACKEND", "local"),
			UploadDir:  getEnv("UPLOAD_DIR", "uploads"),
			S3Bucket:   os.Getenv("S3_BUCKET"),
			S3Region:   getEnv("S3_REGION", "ap-south-1"),
			S3Prefix:   os.Getenv("S3_PREFIX"),
			S3Endpoint: os.Getenv("S3_ENDPOINT"),
		},
		PolicyFile:     os.Getenv("POLICY_FILE"),
		LocalesDir:     os.Getenv("LOCALES_DIR"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AuditCacheTTL:  getEnvDuration("AUDIT_CACHE_TTL", 5*time.Minute),
		PreviewPerMin:  getEnvInt("PREVIEW_RATE_PER_MIN", 20),
		StrictPolicy:   getEnv("RESOLUTION_POLICY", "strict") != "standard",
		ShutdownWindow: getEnvDuration("SHUTDOWN_WINDOW", 10*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate runs the struct tag rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
