package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config holds all configuration for the application.
type Config struct {
	AppEnv   string `yaml:"app_env"`
	LogLevel string `yaml:"log_level"`

	DBDriver string `yaml:"db_driver"`
	DBPath   string `yaml:"db_path"`

	CacheBackend  string        `yaml:"cache_backend"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	CacheTTL      time.Duration `yaml:"cache_ttl"`

	GRPCPort              int    `yaml:"grpc_port"`
	GRPCReflectionEnabled bool   `yaml:"grpc_reflection_enabled"`
	HTTPAddr              string `yaml:"http_addr"`

	RefreshInterval time.Duration `yaml:"refresh_interval"`
	RandomSeed      int64         `yaml:"random_seed"`
	RatePerKWh      float64       `yaml:"rate_per_kwh"`
	CarbonPerKWh    float64       `yaml:"carbon_per_kwh"`

	KafkaBrokers    []string `yaml:"kafka_brokers"`
	KafkaTopic      string   `yaml:"kafka_topic"`
	MQTTBroker      string   `yaml:"mqtt_broker"`
	MQTTTopicPrefix string   `yaml:"mqtt_topic_prefix"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		AppEnv:          "development",
		DBDriver:        "sqlite3",
		DBPath:          "./data/energy.db",
		CacheBackend:    CacheMemory,
		RedisAddr:       "localhost:6379",
		GRPCPort:        50051,
		HTTPAddr:        ":8080",
		RefreshInterval: 5 * time.Second,
		RatePerKWh:      0.15,
		CarbonPerKWh:    0.4,
		KafkaTopic:      "energy.summaries",
		MQTTTopicPrefix: "home/energy",
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty), then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv loads configuration from defaults and environment variables.
func LoadFromEnv() (*Config, error) {
	return Load("")
}

func (c *Config) applyEnv() error {
	var errs []string
	parse := func(key string, fn func(string) error) {
		val, ok := os.LookupEnv(key)
		if !ok || val == "" {
			return
		}
		if err := fn(val); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}

	c.AppEnv = getEnv("APP_ENV", c.AppEnv)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.DBDriver = getEnv("DB_DRIVER", c.DBDriver)
	c.DBPath = getEnv("DB_PATH", c.DBPath)
	c.CacheBackend = getEnv("CACHE_BACKEND", c.CacheBackend)
	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = getEnv("REDIS_PASSWORD", c.RedisPassword)
	c.HTTPAddr = getEnv("HTTP_ADDR", c.HTTPAddr)
	c.KafkaTopic = getEnv("KAFKA_TOPIC", c.KafkaTopic)
	c.MQTTBroker = getEnv("MQTT_BROKER", c.MQTTBroker)
	c.MQTTTopicPrefix = getEnv("MQTT_TOPIC_PREFIX", c.MQTTTopicPrefix)

	parse("REDIS_DB", func(v string) (err error) { c.RedisDB, err = strconv.Atoi(v); return })
	parse("GRPC_PORT", func(v string) (err error) { c.GRPCPort, err = strconv.Atoi(v); return })
	parse("GRPC_REFLECTION_ENABLED", func(v string) (err error) {
		c.GRPCReflectionEnabled, err = strconv.ParseBool(v)
		return
	})
	parse("CACHE_TTL", func(v string) (err error) { c.CacheTTL, err = time.ParseDuration(v); return })
	parse("REFRESH_INTERVAL", func(v string) (err error) { c.RefreshInterval, err = time.ParseDuration(v); return })
	parse("RANDOM_SEED", func(v string) (err error) { c.RandomSeed, err = strconv.ParseInt(v, 10, 64); return })
	parse("RATE_PER_KWH", func(v string) (err error) { c.RatePerKWh, err = strconv.ParseFloat(v, 64); return })
	parse("CARBON_PER_KWH", func(v string) (err error) { c.CarbonPerKWh, err = strconv.ParseFloat(v, 64); return })
	parse("KAFKA_BROKERS", func(v string) error {
		c.KafkaBrokers = splitList(v)
		return nil
	})

	if len(errs) > 0 {
		return fmt.Errorf("invalid environment:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []string

	if c.DBDriver != "sqlite3" && c.DBDriver != "postgres" {
		errs = append(errs, fmt.Sprintf("db driver must be sqlite3 or postgres, got: %q", c.DBDriver))
	}
	if c.DBPath == "" {
		errs = append(errs, "db path is required")
	}
	switch c.CacheBackend {
	case CacheMemory:
	case CacheRedis:
		if c.RedisAddr == "" {
			errs = append(errs, "redis address is required for the redis cache backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("cache backend must be memory or redis, got: %q", c.CacheBackend))
	}
	if c.CacheTTL < 0 {
		errs = append(errs, fmt.Sprintf("cache ttl cannot be negative, got: %s", c.CacheTTL))
	}
	if c.GRPCPort < 1 || c.GRPCPort > 65535 {
		errs = append(errs, fmt.Sprintf("grpc port must be between 1-65535, got: %d", c.GRPCPort))
	}
	if c.HTTPAddr == "" {
		errs = append(errs, "http address is required")
	}
	if c.RefreshInterval <= 0 {
		errs = append(errs, fmt.Sprintf("refresh interval must be positive, got: %s", c.RefreshInterval))
	}
	if c.RatePerKWh < 0 || c.CarbonPerKWh < 0 {
		errs = append(errs, "rates cannot be negative")
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		errs = append(errs, "kafka topic is required when brokers are set")
	}
	if c.LogLevel != "" {
		if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
			errs = append(errs, fmt.Sprintf("log level: %v", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// NewLogger creates a new Zap logger based on the config.
func NewLogger(cfg *Config) (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	if cfg.AppEnv == "production" {
		zcfg = zap.NewProductionConfig()
	}
	if cfg.LogLevel != "" {
		lvl, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		zcfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	return zcfg.Build()
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
