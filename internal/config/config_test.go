package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-0123456789-test-secret"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	assert.Equal(t, 4, cfg.DispatchWorkers)
	assert.Equal(t, 256, cfg.DispatchQueueSize)
	assert.Equal(t, 30*time.Second, cfg.DispatchTimeout)
	assert.Zero(t, cfg.ResyncInterval)
	assert.Equal(t, "exchange.orders", cfg.KafkaOrderTopic)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoadPrefixedAliasesAndLists(t *testing.T) {
	t.Setenv("EXCHANGE_JWT_SECRET", testSecret)
	t.Setenv("EXCHANGE_PORT", "9090")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("RESYNC_INTERVAL", "15m")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_PORT", "2525")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 15*time.Minute, cfg.ResyncInterval)
	assert.Equal(t, 2525, cfg.SMTPPort)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing secret", map[string]string{}, "JWT_SECRET is required"},
		{"short secret", map[string]string{"JWT_SECRET": "short"}, "at least 32"},
		{"bad duration", map[string]string{"JWT_SECRET": testSecret, "DISPATCH_TIMEOUT": "soon"}, "DISPATCH_TIMEOUT"},
		{"no workers", map[string]string{"JWT_SECRET": testSecret, "DISPATCH_WORKERS": "0"}, "DISPATCH_WORKERS"},
		{"bad smtp port", map[string]string{"JWT_SECRET": testSecret, "SMTP_HOST": "mail", "SMTP_PORT": "70000"}, "SMTP_PORT"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "")
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}
