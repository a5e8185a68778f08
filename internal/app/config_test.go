package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.Equal(t, "commerce-metrics", cfg.KafkaConsumerGroup)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Empty(t, cfg.PostgresDSN)
	assert.Empty(t, cfg.RedisAddr)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("METRICS_ADDR", ":9191")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("KAFKA_CONSUMER_GROUP", "custom-group")
	t.Setenv("POSTGRES_DSN", "postgres://localhost/commerce")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_PASSWORD", "secret")
	t.Setenv("REDIS_DB", "3")

	cfg := LoadConfig()
	assert.Equal(t, ":9191", cfg.MetricsAddr)
	assert.Equal(t, "kafka-1:9092,kafka-2:9092", cfg.KafkaBrokers)
	assert.Equal(t, "custom-group", cfg.KafkaConsumerGroup)
	assert.Equal(t, "postgres://localhost/commerce", cfg.PostgresDSN)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, "secret", cfg.RedisPassword)
	assert.Equal(t, 3, cfg.RedisDB)
}

func TestLoadConfigInvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")

	cfg := LoadConfig()
	assert.Equal(t, 0, cfg.RedisDB, "invalid REDIS_DB must keep the default")
}
