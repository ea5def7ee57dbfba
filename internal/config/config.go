package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Kafka    KafkaConfig
	Redis    RedisConfig
	Market   MarketConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
	Host string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host          string
	Port          string
	User          string
	Password      string
	DBName        string
	SSLMode       string
	MigrationsDir string
}

// KafkaConfig holds Kafka/Redpanda configuration
type KafkaConfig struct {
	Brokers         []string
	PositionsTopic  string
	PriceTicksTopic string
	ConsumerGroup   string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// MarketConfig holds market-data fetching configuration
type MarketConfig struct {
	BaseURL         string
	Timeout         time.Duration
	BaseCurrency    string
	QuoteCacheTTL   time.Duration
	RefreshSchedule string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8081"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Host:          getEnv("DB_HOST", "postgres"),
			Port:          getEnv("DB_PORT", "5432"),
			User:          getEnv("DB_USER", "vr"),
			Password:      getEnv("DB_PASSWORD", "vr"),
			DBName:        getEnv("DB_NAME", "vr_service"),
			SSLMode:       getEnv("DB_SSLMODE", "disable"),
			MigrationsDir: getEnv("DB_MIGRATIONS_DIR", "db/migrations"),
		},
		Kafka: KafkaConfig{
			Brokers:         parseBrokers(getEnv("KAFKA_BROKERS", "localhost:19092")),
			PositionsTopic:  getEnv("KAFKA_POSITIONS_TOPIC", "vr.position-events"),
			PriceTicksTopic: getEnv("KAFKA_PRICE_TICKS_TOPIC", "market.price-ticks"),
			ConsumerGroup:   getEnv("KAFKA_CONSUMER_GROUP", "vr-service"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       0,
		},
		Market: MarketConfig{
			BaseURL:         getEnv("MARKET_BASE_URL", "https://query1.finance.yahoo.com"),
			Timeout:         getDuration("MARKET_TIMEOUT", 10*time.Second),
			BaseCurrency:    getEnv("BASE_CURRENCY", "KRW"),
			QuoteCacheTTL:   getDuration("QUOTE_CACHE_TTL", 5*time.Minute),
			RefreshSchedule: getEnv("REFRESH_SCHEDULE", "0 */30 * * * *"),
		},
	}
}

// ConnectionString returns the PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.DBName + "?sslmode=" + d.SSLMode
}

// MigrationsURL returns the file source URL for golang-migrate
func (d *DatabaseConfig) MigrationsURL() string {
	return "file://" + d.MigrationsDir
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// parseBrokers splits a comma-separated broker list
func parseBrokers(brokers string) []string {
	parts := strings.Split(brokers, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// Address returns the Redis address in host:port format
func (r *RedisConfig) Address() string {
	return r.Host + ":" + r.Port
}
