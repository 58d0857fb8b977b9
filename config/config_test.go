package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadEnvDefaults(t *testing.T) {
	cfg := LoadEnv()

	assert.Equal(t, StorageDriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, ":8083", cfg.Server.GRPCPort)
	assert.Equal(t, 30*time.Second, cfg.Sales.CheckoutLockTTL)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "MEMORY")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("REPORT_CACHE_TTL", "90")
	t.Setenv("CHECKOUT_LOCK_TTL", "2m")
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("POSTGRES_MAX_OPEN_CONNS", "not-a-number")

	cfg := LoadEnv()

	assert.Equal(t, StorageDriverMemory, cfg.Storage.Driver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 90*time.Second, cfg.Sales.ReportCacheTTL)
	assert.Equal(t, 2*time.Minute, cfg.Sales.CheckoutLockTTL)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 10, cfg.Postgres.MaxOpenConns)
}
