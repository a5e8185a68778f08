package app

import (
	"os"
	"strconv"
)

// Config описывает настройки запуска сервиса.
type Config struct {
	MetricsAddr string

	KafkaBrokers       string
	KafkaConsumerGroup string

	PostgresDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// DefaultConfig возвращает настройки для локального запуска: in-memory
// хранилища, без Kafka и Redis.
func DefaultConfig() Config {
	return Config{
		MetricsAddr:        ":9090",
		KafkaConsumerGroup: "commerce-metrics",
	}
}

// LoadConfig читает настройки из окружения поверх DefaultConfig.
func LoadConfig() Config {
	cfg := DefaultConfig()

	if addr := os.Getenv("METRICS_ADDR"); addr != "" {
		cfg.MetricsAddr = addr
	}
	cfg.KafkaBrokers = os.Getenv("KAFKA_BROKERS")
	if group := os.Getenv("KAFKA_CONSUMER_GROUP"); group != "" {
		cfg.KafkaConsumerGroup = group
	}
	cfg.PostgresDSN = os.Getenv("POSTGRES_DSN")
	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	if raw := os.Getenv("REDIS_DB"); raw != "" {
		if db, err := strconv.Atoi(raw); err == nil {
			cfg.RedisDB = db
		}
	}

	return cfg
}
