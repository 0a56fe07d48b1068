package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingCredentials is returned when payment gateway credentials or the
// webhook secret are absent. All payment endpoints are gated on them.
var ErrMissingCredentials = errors.New("payment configuration missing")

// Config is the application configuration, loaded once at startup and passed
// by reference into every component.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Gateway  GatewayConfig
	Auth     AuthConfig
	Logging  LoggingConfig
}

// ServerConfig configuration of the HTTP server
type ServerConfig struct {
	Port            string
	ReadTimeout     int
	WriteTimeout    int
	ShutdownTimeout int
}

// DatabaseConfig configuration of PostgreSQL
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig configuration of the Redis cache
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig configuration of the Kafka cluster
type KafkaConfig struct {
	Brokers []string
	GroupID string
}

// GatewayConfig credentials and endpoints of the payment gateway.
// ShopID and SecretKey form the Basic auth pair for the provider API.
type GatewayConfig struct {
	ShopID        string
	SecretKey     string
	BaseURL       string
	ReturnURL     string
	WebhookSecret string
}

// AuthConfig configuration of JWT validation
type AuthConfig struct {
	JWTSecret string
}

// LoggingConfig configuration of the logger
type LoggingConfig struct {
	Level string
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Load reads configuration from the environment, with .env support outside
// production.
func Load() (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		// Missing .env is fine, environment variables still apply
		_ = godotenv.Load()
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("SERVER_READ_TIMEOUT", 15)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 15)
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", 30)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "billing_service")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_GROUP_ID", "billing-service")
	v.SetDefault("GATEWAY_BASE_URL", "https://api.yookassa.ru/v3")
	v.SetDefault("LOG_LEVEL", "info")

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetString("PORT"),
			ReadTimeout:     v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:    v.GetInt("SERVER_WRITE_TIMEOUT"),
			ShutdownTimeout: v.GetInt("SERVER_SHUTDOWN_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Database: v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Kafka: KafkaConfig{
			Brokers: strings.Split(v.GetString("KAFKA_BROKERS"), ","),
			GroupID: v.GetString("KAFKA_GROUP_ID"),
		},
		Gateway: GatewayConfig{
			ShopID:        v.GetString("GATEWAY_SHOP_ID"),
			SecretKey:     v.GetString("GATEWAY_SECRET_KEY"),
			BaseURL:       v.GetString("GATEWAY_BASE_URL"),
			ReturnURL:     v.GetString("GATEWAY_RETURN_URL"),
			WebhookSecret: v.GetString("GATEWAY_WEBHOOK_SECRET"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("JWT_SECRET"),
		},
		Logging: LoggingConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
	}

	return cfg, nil
}

// Validate checks the credentials gating the payment endpoints. Called once
// at startup so handlers never have to re-check the environment per request.
func (c *Config) Validate() error {
	var missing []string
	if c.Gateway.ShopID == "" {
		missing = append(missing, "GATEWAY_SHOP_ID")
	}
	if c.Gateway.SecretKey == "" {
		missing = append(missing, "GATEWAY_SECRET_KEY")
	}
	if c.Gateway.WebhookSecret == "" {
		missing = append(missing, "GATEWAY_WEBHOOK_SECRET")
	}
	if c.Auth.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return nil
}
