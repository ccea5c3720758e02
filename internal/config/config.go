package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config carries everything the binaries need from the environment.
type Config struct {
	Port string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string

	RedisAddr      string
	RateLimitTTL   time.Duration
	RateLimitLimit int

	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string
}

// Load reads configuration from the environment, after loading a .env
// file when one is present. Missing optional values fall back to the
// same defaults the service has always shipped with.
func Load() Config {
	// A missing .env is fine; real environments set variables directly.
	_ = godotenv.Load()

	return Config{
		Port: getEnv("PORT", "8080"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "ledger_user"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "ledger_password"),
		PostgresDB:       getEnv("POSTGRES_DB", "ledger_db"),

		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RateLimitTTL:   time.Duration(getEnvInt("RATE_LIMIT_TTL", 60000)) * time.Millisecond,
		RateLimitLimit: getEnvInt("RATE_LIMIT_LIMIT", 100),

		KafkaBrokers: getEnvList("KAFKA_BROKERS", "localhost:9092"),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "ledger_transactions"),
		KafkaGroupID: getEnv("KAFKA_GROUP_ID", "ledger-workers"),
	}
}

// PostgresDSN builds the lib/pq connection string.
func (c Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvList reads a comma-separated list, trimming whitespace and
// dropping empty elements.
func getEnvList(key, fallback string) []string {
	parts := strings.Split(getEnv(key, fallback), ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
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
