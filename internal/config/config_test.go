package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "POSTGRES_DSN", "REDIS_ADDR", "KAFKA_BROKERS", "SERVICE_NAME", "SERVICE_VERSION", "API_PREFIX"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	assert.Equal(t, ":8081", cfg.HTTPAddr)
	assert.Equal(t, "catalog-api", cfg.ServiceName)
	assert.Equal(t, "dev", cfg.ServiceVersion)
	assert.Equal(t, "", cfg.APIPrefix)
	assert.Equal(t, []string{"kafka:9092"}, cfg.KafkaBrokers)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "b1:9092, b2:9092 ,")
	t.Setenv("API_PREFIX", "api/v1/")
	t.Setenv("SERVICE_VERSION", "1.2.3")

	cfg := Load()
	assert.Equal(t, []string{"b1:9092", "b2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, "1.2.3", cfg.ServiceVersion)
}

func TestNormalizePrefix(t *testing.T) {
	assert.Equal(t, "", normalizePrefix(""))
	assert.Equal(t, "", normalizePrefix("/"))
	assert.Equal(t, "/api", normalizePrefix("api"))
	assert.Equal(t, "/api/v1", normalizePrefix("/api/v1/"))
}
