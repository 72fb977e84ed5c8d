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

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Redis     RedisConfig
	Mail      MailConfig
	Auth      AuthConfig
	Scheduler SchedulerConfig
	Log       LogConfig
	CORS      CORSConfig
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
	BaseURL     string // public origin used in emailed links
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type JWTConfig struct {
	Secret        string
	SessionExpiry time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type MailConfig struct {
	Provider string // "log" or "smtp"
	From     string
	SMTP     SMTPConfig
	Archive  ArchiveConfig
}

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
}

// ArchiveConfig enables copying every sent email to S3 when Bucket is set.
type ArchiveConfig struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

type AuthConfig struct {
	ResetTokenTTL     time.Duration
	MinPasswordLength int
}

type SchedulerConfig struct {
	ResetPurgeSpec string
}

type LogConfig struct {
	Level  string
	Format string
}

type CORSConfig struct {
	AllowedOrigins []string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			Environment: getEnv("ENVIRONMENT", "development"),
			BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "admin"),
			Password: getEnv("DB_PASSWORD", "1234"),
			DBName:   getEnv("DB_NAME", "shopauth"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:        getEnv("JWT_SECRET", "your-secret-key"),
			SessionExpiry: parseDuration(getEnv("JWT_SESSION_EXPIRY", "24h"), 24*time.Hour),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
		},
		Mail: MailConfig{
			Provider: getEnv("MAIL_PROVIDER", "log"),
			From:     getEnv("MAIL_FROM", "no-reply@shopauth.local"),
			SMTP: SMTPConfig{
				Host:     getEnv("SMTP_HOST", "smtp.gmail.com"),
				Port:     getEnv("SMTP_PORT", "587"),
				Username: getEnv("SMTP_USERNAME", ""),
				Password: getEnv("SMTP_PASSWORD", ""),
			},
			Archive: ArchiveConfig{
				Bucket:          getEnv("MAIL_ARCHIVE_BUCKET", ""),
				Region:          getEnv("AWS_REGION", "ap-northeast-2"),
				AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
				SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			},
		},
		Auth: AuthConfig{
			ResetTokenTTL:     parseDuration(getEnv("RESET_TOKEN_TTL", "1h"), time.Hour),
			MinPasswordLength: parseInt(getEnv("MIN_PASSWORD_LENGTH", "1"), 1),
		},
		Scheduler: SchedulerConfig{
			ResetPurgeSpec: getEnv("RESET_PURGE_SPEC", "@every 15m"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.Mail.Provider {
	case "log":
	case "smtp":
		if c.Mail.SMTP.Username == "" || c.Mail.SMTP.Password == "" {
			return fmt.Errorf("mail provider is 'smtp' but SMTP_USERNAME or SMTP_PASSWORD is not set")
		}
	default:
		return fmt.Errorf("unknown mail provider: %s", c.Mail.Provider)
	}
	if c.Server.Environment == "production" && c.JWT.Secret == "your-secret-key" {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (c *RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

func (c *SMTPConfig) Addr() string {
	return c.Host + ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil || duration <= 0 {
		log.Printf("Invalid duration %s, using default %s", s, fallback)
		return fallback
	}
	return duration
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("Invalid integer %s, using default %d", s, fallback)
		return fallback
	}
	return n
}

func parseSlice(s string) []string {
	result := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
