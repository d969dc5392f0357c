package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/cart-engine/internal/pricing"
	"gopkg.in/yaml.v3"
)

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendMongo    = "mongo"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Log     LogConfig     `yaml:"log"`
	Storage StorageConfig `yaml:"storage"`
	Catalog CatalogConfig `yaml:"catalog"`
	Kafka   KafkaConfig   `yaml:"kafka"`
	Auth    AuthConfig    `yaml:"auth"`
	Pricing pricing.Rates `yaml:"pricing"`
}

type HTTPConfig struct {
	Port               string        `yaml:"port"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout"`
	MaxRequestBodySize int64         `yaml:"max_request_body_size"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Env   string `yaml:"env"`
}

type StorageConfig struct {
	Backend    string         `yaml:"backend"`
	SQLitePath string         `yaml:"sqlite_path"`
	Postgres   PostgresConfig `yaml:"postgres"`
	Mongo      MongoConfig    `yaml:"mongo"`
	Redis      RedisConfig    `yaml:"redis"`
	Cache      CacheConfig    `yaml:"cache"`
	Breaker    BreakerConfig  `yaml:"breaker"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
	// RecordTTL expires records not written for this long; zero keeps them forever.
	RecordTTL time.Duration `yaml:"record_ttl"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// CacheConfig puts Redis in front of a durable backend.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
	Jitter  time.Duration `yaml:"jitter"`
}

type BreakerConfig struct {
	MaxFailures uint32        `yaml:"max_failures"`
	OpenTimeout time.Duration `yaml:"open_timeout"`
}

// CatalogConfig selects the product source: a remote catalog when URL is set, otherwise the
// YAML product list in File.
type CatalogConfig struct {
	URL     string        `yaml:"url"`
	File    string        `yaml:"file"`
	Timeout time.Duration `yaml:"timeout"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Port:               "8080",
			RequestTimeout:     30 * time.Second,
			ShutdownTimeout:    10 * time.Second,
			MaxRequestBodySize: 1 << 20, // 1MB
		},
		Log: LogConfig{Level: "info", Env: "production"},
		Storage: StorageConfig{
			Backend:    BackendSQLite,
			SQLitePath: "cart.db",
			Postgres:   PostgresConfig{Host: "localhost", Port: 5432, User: "postgres", DBName: "cart"},
			Mongo:      MongoConfig{URI: "mongodb://localhost:27017", Database: "cartdb", RecordTTL: 90 * 24 * time.Hour},
			Redis:      RedisConfig{Addr: "localhost:6379"},
			Cache:      CacheConfig{TTL: 30 * time.Minute, Jitter: 5 * time.Minute},
			Breaker:    BreakerConfig{MaxFailures: 5, OpenTimeout: 30 * time.Second},
		},
		Catalog: CatalogConfig{Timeout: 5 * time.Second},
		Kafka:   KafkaConfig{Topic: "checkout-confirmations"},
		Pricing: pricing.DefaultRates,
	}
}

// Load builds the configuration from defaults, then the YAML file named by CART_CONFIG_FILE if set,
// then environment variables.
func Load() (*Config, error) {
	cfg := Default()
	if path := os.Getenv("CART_CONFIG_FILE"); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.overlayEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) overlayEnv() error {
	var errs []error
	c.HTTP.Port = getEnv("HTTP_PORT", c.HTTP.Port)
	c.HTTP.RequestTimeout = getEnvDuration("HTTP_REQUEST_TIMEOUT", c.HTTP.RequestTimeout, &errs)
	c.HTTP.ShutdownTimeout = getEnvDuration("HTTP_SHUTDOWN_TIMEOUT", c.HTTP.ShutdownTimeout, &errs)
	c.HTTP.MaxRequestBodySize = getEnvInt64("HTTP_MAX_REQUEST_BODY_SIZE", c.HTTP.MaxRequestBodySize, &errs)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Env = getEnv("APP_ENV", c.Log.Env)

	c.Storage.Backend = getEnv("STORAGE_BACKEND", c.Storage.Backend)
	c.Storage.SQLitePath = getEnv("SQLITE_PATH", c.Storage.SQLitePath)
	c.Storage.Postgres.Host = getEnv("DB_HOST", c.Storage.Postgres.Host)
	c.Storage.Postgres.Port = getEnvInt("DB_PORT", c.Storage.Postgres.Port, &errs)
	c.Storage.Postgres.User = getEnv("DB_USER", c.Storage.Postgres.User)
	c.Storage.Postgres.Password = getEnv("DB_PASSWORD", c.Storage.Postgres.Password)
	c.Storage.Postgres.DBName = getEnv("DB_NAME", c.Storage.Postgres.DBName)
	c.Storage.Mongo.URI = getEnv("MONGO_URI", c.Storage.Mongo.URI)
	c.Storage.Mongo.Database = getEnv("MONGO_DB_NAME", c.Storage.Mongo.Database)
	c.Storage.Mongo.RecordTTL = getEnvDuration("MONGO_RECORD_TTL", c.Storage.Mongo.RecordTTL, &errs)
	c.Storage.Redis.Addr = getEnv("REDIS_ADDR", c.Storage.Redis.Addr)
	c.Storage.Redis.Password = getEnv("REDIS_PASSWORD", c.Storage.Redis.Password)
	c.Storage.Redis.DB = getEnvInt("REDIS_DB", c.Storage.Redis.DB, &errs)
	c.Storage.Cache.Enabled = getEnvBool("CACHE_ENABLED", c.Storage.Cache.Enabled, &errs)
	c.Storage.Cache.TTL = getEnvDuration("CACHE_TTL", c.Storage.Cache.TTL, &errs)
	c.Storage.Cache.Jitter = getEnvDuration("CACHE_JITTER", c.Storage.Cache.Jitter, &errs)

	c.Catalog.URL = getEnv("CATALOG_URL", c.Catalog.URL)
	c.Catalog.File = getEnv("CATALOG_FILE", c.Catalog.File)
	c.Catalog.Timeout = getEnvDuration("CATALOG_TIMEOUT", c.Catalog.Timeout, &errs)

	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		c.Kafka.Brokers = splitList(brokers)
	}
	c.Kafka.Topic = getEnv("KAFKA_TOPIC", c.Kafka.Topic)

	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)

	c.Pricing.DiscountPercent = getEnvFloat("DISCOUNT_PERCENT", c.Pricing.DiscountPercent, &errs)
	c.Pricing.PointsPerUnit = getEnvFloat("POINTS_PER_UNIT", c.Pricing.PointsPerUnit, &errs)

	return errors.Join(errs...)
}

func (c *Config) Validate() error {
	var errs []error
	switch c.Storage.Backend {
	case BackendMemory, BackendRedis, BackendMongo, BackendSQLite, BackendPostgres:
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend %q", c.Storage.Backend))
	}
	if c.Storage.Backend == BackendSQLite && c.Storage.SQLitePath == "" {
		errs = append(errs, errors.New("sqlite backend needs a path"))
	}
	if c.Storage.Cache.Enabled && c.Storage.Redis.Addr == "" {
		errs = append(errs, errors.New("cache enabled without a redis address"))
	}
	if c.HTTP.Port == "" {
		errs = append(errs, errors.New("http port is empty"))
	}
	if c.Pricing.DiscountPercent < 0 || c.Pricing.DiscountPercent > 100 {
		errs = append(errs, fmt.Errorf("discount percent %v out of range [0,100]", c.Pricing.DiscountPercent))
	}
	if c.Pricing.PointsPerUnit < 0 {
		errs = append(errs, fmt.Errorf("points per unit %v is negative", c.Pricing.PointsPerUnit))
	}
	return errors.Join(errs...)
}

// UsesCache reports whether a Redis cache tier sits in front of the primary backend.
func (c *Config) UsesCache() bool {
	return c.Storage.Cache.Enabled && c.Storage.Backend != BackendRedis && c.Storage.Backend != BackendMemory
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int, errs *[]error) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return n
}

func getEnvInt64(key string, defaultValue int64, errs *[]error) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64, errs *[]error) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return f
}

func getEnvBool(key string, defaultValue bool, errs *[]error) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return b
}

func getEnvDuration(key string, defaultValue time.Duration, errs *[]error) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
