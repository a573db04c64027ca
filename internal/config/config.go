package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/louvornalaje/distribuidora-sub000/pkg/config"
)

// Config holds all configuration for the sales service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort        int           `env:"SALES_HTTP_PORT" envDefault:"8004"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"distribuidora"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"distribuidora_secret"`
	PostgresDB   string `env:"SALES_DB_NAME" envDefault:"sales_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Queries slower than this are logged at warn level; 0 disables.
	SlowQueryThresholdMs int `env:"SLOW_QUERY_THRESHOLD_MS" envDefault:"200"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Contact service
	ContactServiceURL     string        `env:"CONTACT_SERVICE_URL" envDefault:"http://localhost:8002"`
	ContactTimeout        time.Duration `env:"CONTACT_TIMEOUT" envDefault:"5s"`
	ContactMaxRetries     int           `env:"CONTACT_MAX_RETRIES" envDefault:"2"`
	ContactBreakerEnabled bool          `env:"CONTACT_BREAKER_ENABLED" envDefault:"true"`

	// Tracing
	TracingEnabled  bool   `env:"TRACING_ENABLED" envDefault:"false"`
	TracingEndpoint string `env:"TRACING_ENDPOINT" envDefault:"localhost:4317"`

	// Profiling endpoints are exposed only to these CIDRs.
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"127.0.0.0/8" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load sales config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.ContactServiceURL == "" {
		return fmt.Errorf("contact service URL is required")
	}
	if len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("at least one Kafka broker is required")
	}
	return nil
}

// PostgresDSN returns the PostgreSQL connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPass, c.PostgresHost, c.PostgresPort, c.PostgresDB, c.PostgresSSL,
	)
}
