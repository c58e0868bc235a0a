package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port      int
	LogLevel  string
	Env       string
	PortalURL string
	DB        DBConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	SMTP      SMTPConfig
	Storage   StorageConfig
	Outbox    OutboxConfig
	Auth      AuthConfig
}

// DBConfig holds the database configuration
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig holds the session store configuration. An empty Addr keeps sessions in memory.
type RedisConfig struct {
	Addr string
	DB   int
}

// KafkaConfig holds the event relay configuration. No brokers disables Kafka entirely.
type KafkaConfig struct {
	Brokers       []string
	OrdersTopic   string
	ConsumerGroup string
}

// Enabled reports whether brokers were configured
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// SMTPConfig holds outgoing mail settings. An empty Host logs mail instead of sending it.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// StorageConfig selects where uploaded documents go
type StorageConfig struct {
	Driver        string // local | http
	LocalDir      string
	PublicBaseURL string
	HTTPEndpoint  string
}

// OutboxConfig tunes the outbox processor
type OutboxConfig struct {
	PollingInterval time.Duration
	BatchSize       int
	MaxRetries      int
}

// AuthConfig holds session and login throttling settings
type AuthConfig struct {
	SessionTTL             time.Duration
	LoginBurst             float64
	LoginRatePerSec        float64
	BootstrapAdminEmail    string
	BootstrapAdminPassword string
}

// getEnv retrieves the value of an environment variable or returns a default value if not set.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}

	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	v := getEnv(key, "")
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	v := getEnv(key, "")
	if v == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Load reads the configuration from environment variables and returns a Config struct.
func Load() (*Config, error) {
	port, err := getEnvInt("PORT", 8080)
	if err != nil {
		return nil, err
	}

	dbPort, err := getEnvInt("DB_PORT", 5432)
	if err != nil {
		return nil, err
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}

	smtpPort, err := getEnvInt("SMTP_PORT", 587)
	if err != nil {
		return nil, err
	}

	sessionHours, err := getEnvInt("SESSION_TTL_HOURS", 12)
	if err != nil {
		return nil, err
	}
	if sessionHours <= 0 {
		return nil, fmt.Errorf("SESSION_TTL_HOURS must be > 0")
	}

	pollSeconds, err := getEnvInt("OUTBOX_POLL_SECONDS", 5)
	if err != nil {
		return nil, err
	}
	if pollSeconds <= 0 {
		return nil, fmt.Errorf("OUTBOX_POLL_SECONDS must be > 0")
	}

	batchSize, err := getEnvInt("OUTBOX_BATCH_SIZE", 20)
	if err != nil {
		return nil, err
	}

	maxRetries, err := getEnvInt("OUTBOX_MAX_RETRIES", 5)
	if err != nil {
		return nil, err
	}

	loginBurst, err := getEnvFloat("LOGIN_RATE_BURST", 5)
	if err != nil {
		return nil, err
	}

	loginRate, err := getEnvFloat("LOGIN_RATE_PER_SEC", 0.2)
	if err != nil {
		return nil, err
	}
	if loginBurst <= 0 || loginRate <= 0 {
		return nil, fmt.Errorf("LOGIN_RATE_BURST and LOGIN_RATE_PER_SEC must be > 0")
	}

	cfg := &Config{
		Port:      port,
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		Env:       getEnv("APP_ENV", "development"),
		PortalURL: getEnv("PORTAL_URL", "http://localhost:8080"),
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "pools"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr: getEnv("REDIS_ADDR", ""),
			DB:   redisDB,
		},
		Kafka: KafkaConfig{
			Brokers:       splitCSV(getEnv("KAFKA_BROKERS", "")),
			OrdersTopic:   getEnv("KAFKA_ORDERS_TOPIC", "pool-orders.events"),
			ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "pool-orders-mailer"),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     smtpPort,
			User:     getEnv("SMTP_USER", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "orders@example.com"),
		},
		Storage: StorageConfig{
			Driver:        getEnv("STORAGE_DRIVER", "local"),
			LocalDir:      getEnv("STORAGE_LOCAL_DIR", "./uploads"),
			PublicBaseURL: getEnv("STORAGE_PUBLIC_BASE_URL", "http://localhost:8080/uploads"),
			HTTPEndpoint:  getEnv("STORAGE_HTTP_ENDPOINT", ""),
		},
		Outbox: OutboxConfig{
			PollingInterval: time.Duration(pollSeconds) * time.Second,
			BatchSize:       batchSize,
			MaxRetries:      maxRetries,
		},
		Auth: AuthConfig{
			SessionTTL:             time.Duration(sessionHours) * time.Hour,
			LoginBurst:             loginBurst,
			LoginRatePerSec:        loginRate,
			BootstrapAdminEmail:    getEnv("BOOTSTRAP_ADMIN_EMAIL", ""),
			BootstrapAdminPassword: getEnv("BOOTSTRAP_ADMIN_PASSWORD", ""),
		},
	}

	switch cfg.Storage.Driver {
	case "local":
	case "http":
		if cfg.Storage.HTTPEndpoint == "" {
			return nil, fmt.Errorf("STORAGE_HTTP_ENDPOINT is required when STORAGE_DRIVER=http")
		}
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.Storage.Driver)
	}

	if cfg.Kafka.Enabled() && cfg.Kafka.OrdersTopic == "" {
		return nil, fmt.Errorf("KAFKA_ORDERS_TOPIC must not be empty")
	}

	return cfg, nil
}

// GetDBConnString returns the database connection string
func (c *Config) GetDBConnString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Name, c.DB.SSLMode)
}
