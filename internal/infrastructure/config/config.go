package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Solitude      SolitudeConfig      `mapstructure:"solitude"`
	Payment       PaymentConfig       `mapstructure:"payment"`
	Session       SessionConfig       `mapstructure:"session"`
	Worker        WorkerConfig        `mapstructure:"worker"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Domain        string              `mapstructure:"domain"`
	InstanceID    string              `mapstructure:"instance_id"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RateLimit       int           `mapstructure:"rate_limit"`
	CORS            CORSConfig    `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

type RedisConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	DB                int           `mapstructure:"db"`
	Password          string        `mapstructure:"password"`
	ConnectRetries    int           `mapstructure:"connect_retries"`
	ConnectRetryDelay time.Duration `mapstructure:"connect_retry_delay"`
}

// SolitudeConfig points the client at the payment backend. An empty URL
// disables the client entirely; webpay then runs in a degraded mode for
// environments that have no backend (docs builds, some CI jobs).
type SolitudeConfig struct {
	URL     string        `mapstructure:"url"`
	Key     string        `mapstructure:"key"`
	Secret  string        `mapstructure:"secret"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func (c *SolitudeConfig) Enabled() bool {
	return c.URL != ""
}

type PaymentConfig struct {
	// Provider is the default payment provider name (bango, reference, boku).
	Provider string `mapstructure:"provider"`
	// UniversalProvider selects the multi-provider backend transport
	// instead of the legacy single-provider one.
	UniversalProvider bool `mapstructure:"universal_provider"`
	// FakePayments bypasses the provider and synthesizes successful
	// transactions. Test and demo environments only.
	FakePayments bool   `mapstructure:"fake_payments"`
	SuccessURL   string `mapstructure:"success_url"`
	ErrorURL     string `mapstructure:"error_url"`
}

type SessionConfig struct {
	Secret     string        `mapstructure:"secret"`
	TTL        time.Duration `mapstructure:"ttl"`
	CookieName string        `mapstructure:"cookie_name"`
}

type WorkerConfig struct {
	BatchSize     int64         `mapstructure:"batch_size"`
	BlockDuration time.Duration `mapstructure:"block_duration"`
	ConsumerGroup string        `mapstructure:"consumer_group"`
}

type ObservabilityConfig struct {
	LogLevel       string `mapstructure:"log_level"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
	EnableMetrics  bool   `mapstructure:"enable_metrics"`
	EnableTracing  bool   `mapstructure:"enable_tracing"`
}

func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("WEBPAY")
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/webpay")

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.read_timeout must be positive"))
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.write_timeout must be positive"))
	}
	if c.Redis.Port <= 0 {
		errs = append(errs, fmt.Errorf("redis.port must be positive"))
	}
	if c.Solitude.Enabled() {
		if c.Solitude.Timeout <= 0 {
			errs = append(errs, fmt.Errorf("solitude.timeout must be positive"))
		}
		if c.Solitude.Key == "" || c.Solitude.Secret == "" {
			errs = append(errs, fmt.Errorf("solitude.key and solitude.secret are required when solitude.url is set"))
		}
	}
	switch c.Payment.Provider {
	case "bango", "reference", "boku":
	default:
		errs = append(errs, fmt.Errorf("payment.provider must be one of bango, reference, boku, got %q", c.Payment.Provider))
	}
	if c.Worker.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("worker.batch_size must be positive"))
	}

	// Production environment checks
	env := os.Getenv("ENV")
	if env == "production" || env == "prod" {
		if c.Session.Secret == "" {
			errs = append(errs, fmt.Errorf("session.secret required in production"))
		}
		if c.Payment.FakePayments {
			errs = append(errs, fmt.Errorf("payment.fake_payments must not be enabled in production"))
		}
	}

	if c.Session.Secret != "" && len(c.Session.Secret) < 32 {
		errs = append(errs, fmt.Errorf("session.secret must be at least 32 characters"))
	}

	return errors.Join(errs...)
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.rate_limit", 120)
	v.SetDefault("server.cors.allowed_origins", []string{"*"})
	v.SetDefault("server.cors.allow_credentials", false)

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.connect_retries", 5)
	v.SetDefault("redis.connect_retry_delay", "1s")

	// Solitude defaults. No default URL: the client stays disabled until
	// one is configured.
	v.SetDefault("solitude.timeout", "10s")

	// Payment defaults
	v.SetDefault("payment.provider", "bango")
	v.SetDefault("payment.universal_provider", false)
	v.SetDefault("payment.fake_payments", false)
	v.SetDefault("payment.success_url", "http://localhost:8080/callback/success")
	v.SetDefault("payment.error_url", "http://localhost:8080/callback/error")

	// Session defaults
	v.SetDefault("session.ttl", "30m")
	v.SetDefault("session.cookie_name", "webpay_session")

	// Worker defaults
	v.SetDefault("worker.batch_size", 10)
	v.SetDefault("worker.block_duration", "1s")
	v.SetDefault("worker.consumer_group", "webpay-notify")

	// Observability defaults
	v.SetDefault("observability.log_level", "info")
	v.SetDefault("observability.jaeger_endpoint", "http://localhost:14268/api/traces")
	v.SetDefault("observability.enable_metrics", true)
	v.SetDefault("observability.enable_tracing", true)

	v.SetDefault("domain", "localhost")
	v.SetDefault("instance_id", "webpay-1")
}

func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
