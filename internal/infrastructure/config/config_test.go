package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Redis: RedisConfig{
			Host: "localhost",
			Port: 6379,
		},
		Solitude: SolitudeConfig{
			URL:     "http://solitude.local",
			Key:     "key",
			Secret:  "secret",
			Timeout: 10 * time.Second,
		},
		Payment: PaymentConfig{
			Provider: "bango",
		},
		Worker: WorkerConfig{
			BatchSize: 10,
		},
	}
}

func TestConfig_Validate_Success(t *testing.T) {
	err := validConfig().Validate()
	assert.NoError(t, err)
}

func TestConfig_Validate_InvalidServerPort(t *testing.T) {
	tests := []struct {
		name string
		port int
	}{
		{"port too low", 0},
		{"port negative", -1},
		{"port too high", 99999},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Server.Port = tt.port

			err := cfg.Validate()
			assert.Error(t, err)
			assert.Contains(t, err.Error(), "server.port")
		})
	}
}

func TestConfig_Validate_InvalidTimeouts(t *testing.T) {
	cfg := validConfig()
	cfg.Server.ReadTimeout = 0
	cfg.Server.WriteTimeout = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read_timeout")
	assert.Contains(t, err.Error(), "write_timeout")
}

func TestConfig_Validate_InvalidRedisPort(t *testing.T) {
	cfg := validConfig()
	cfg.Redis.Port = 0

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "redis.port")
}

func TestConfig_Validate_SolitudeDisabledSkipsChecks(t *testing.T) {
	cfg := validConfig()
	cfg.Solitude = SolitudeConfig{}

	// No URL means no client: key/secret/timeout checks do not apply.
	assert.False(t, cfg.Solitude.Enabled())
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate_SolitudeMissingCredentials(t *testing.T) {
	cfg := validConfig()
	cfg.Solitude.Key = ""

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "solitude.key")
}

func TestConfig_Validate_SolitudeMissingTimeout(t *testing.T) {
	cfg := validConfig()
	cfg.Solitude.Timeout = 0

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "solitude.timeout")
}

func TestConfig_Validate_UnknownProvider(t *testing.T) {
	cfg := validConfig()
	cfg.Payment.Provider = "paypal"

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "payment.provider")
}

func TestConfig_Validate_KnownProviders(t *testing.T) {
	for _, provider := range []string{"bango", "reference", "boku"} {
		t.Run(provider, func(t *testing.T) {
			cfg := validConfig()
			cfg.Payment.Provider = provider
			assert.NoError(t, cfg.Validate())
		})
	}
}

func TestConfig_Validate_ShortSessionSecret(t *testing.T) {
	cfg := validConfig()
	cfg.Session.Secret = "too-short"

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "session.secret")
}

func TestConfig_Validate_ProductionChecks(t *testing.T) {
	t.Setenv("ENV", "production")

	cfg := validConfig()
	cfg.Payment.FakePayments = true

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session.secret required in production")
	assert.Contains(t, err.Error(), "fake_payments")
}

func TestConfig_Validate_InvalidWorkerBatchSize(t *testing.T) {
	cfg := validConfig()
	cfg.Worker.BatchSize = 0

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "worker.batch_size")
}

func TestRedisConfig_RedisAddr(t *testing.T) {
	cfg := RedisConfig{Host: "redis.example.com", Port: 6379}
	assert.Equal(t, "redis.example.com:6379", cfg.RedisAddr())
}
