package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	JWT      JWTConfig      `yaml:"jwt"`
	Admin    AdminConfig    `yaml:"admin"`
	Price    PriceConfig    `yaml:"price"`
	Trade    TradeConfig    `yaml:"trade"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	Mode string `yaml:"mode"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // postgres or sqlite
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
	Path     string `yaml:"path"` // sqlite file or URI
}

// RedisConfig is optional; an empty Host disables the price cache.
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type JWTConfig struct {
	Secret      string `yaml:"secret"`
	ExpireHours int    `yaml:"expire_hours"`
}

type AdminConfig struct {
	Token string `yaml:"token"`
}

// PriceConfig configures the CoinMarketCap quote source.
type PriceConfig struct {
	BaseURL        string        `yaml:"base_url"`
	APIKey         string        `yaml:"api_key"`
	Timeout        time.Duration `yaml:"timeout"`
	CacheTTL       time.Duration `yaml:"cache_ttl"`
	RateLimit      float64       `yaml:"rate_limit"`
	RateLimitBurst int           `yaml:"rate_limit_burst"`
}

// TradeConfig holds the timed trade parameters.
type TradeConfig struct {
	MinDuration   int           `yaml:"min_duration"`
	MaxDuration   int           `yaml:"max_duration"`
	MinPercent    float64       `yaml:"min_percent"`
	MaxPercent    float64       `yaml:"max_percent"`
	MinAmount     float64       `yaml:"min_amount"`
	SettleTimeout time.Duration `yaml:"settle_timeout"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	SweepBatch    int           `yaml:"sweep_batch"`
	PoolSize      int           `yaml:"pool_size"`
}

// KafkaConfig is optional; no brokers means events are dropped.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Dir    string `yaml:"dir"`
}

// Load loads configuration from file, .env and environment variables
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	// .env is optional
	_ = godotenv.Load()

	cfg.loadFromEnv()
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFromEnv() {
	// Server
	if v := os.Getenv("SERVER_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("SERVER_MODE"); v != "" {
		c.Server.Mode = v
	}

	// Database
	if v := os.Getenv("DB_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		c.Database.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Database.Port = port
		}
	}
	if v := os.Getenv("DB_USER"); v != "" {
		c.Database.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		c.Database.DBName = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		c.Database.Path = v
	}

	// Redis
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Redis.Port = port
		}
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}

	// Auth
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.JWT.Secret = v
	}
	if v := os.Getenv("JWT_EXPIRE_HOURS"); v != "" {
		if hours, err := strconv.Atoi(v); err == nil {
			c.JWT.ExpireHours = hours
		}
	}
	if v := os.Getenv("ADMIN_TOKEN"); v != "" {
		c.Admin.Token = v
	}

	// Price
	if v := os.Getenv("CMC_API_KEY"); v != "" {
		c.Price.APIKey = v
	}
	if v := os.Getenv("CMC_BASE_URL"); v != "" {
		c.Price.BaseURL = v
	}

	// Kafka
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}

	// Logging
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv("LOG_DIR"); v != "" {
		c.Log.Dir = v
	}
}

// ApplyDefaults fills every zero value that has a sensible default
func (c *Config) ApplyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "release"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Redis.Port == 0 {
		c.Redis.Port = 6379
	}
	if c.JWT.ExpireHours == 0 {
		c.JWT.ExpireHours = 24 * 7
	}

	if c.Price.BaseURL == "" {
		c.Price.BaseURL = "https://pro-api.coinmarketcap.com"
	}
	if c.Price.Timeout == 0 {
		c.Price.Timeout = 3 * time.Second
	}
	if c.Price.CacheTTL == 0 {
		c.Price.CacheTTL = 15 * time.Second
	}
	if c.Price.RateLimit == 0 {
		c.Price.RateLimit = 5
	}
	if c.Price.RateLimitBurst == 0 {
		c.Price.RateLimitBurst = 2
	}

	if c.Trade.MinDuration == 0 {
		c.Trade.MinDuration = 5
	}
	if c.Trade.MaxDuration == 0 {
		c.Trade.MaxDuration = 120
	}
	if c.Trade.MinPercent == 0 {
		c.Trade.MinPercent = 5
	}
	if c.Trade.MaxPercent == 0 {
		c.Trade.MaxPercent = 40
	}
	if c.Trade.MinAmount == 0 {
		c.Trade.MinAmount = 1
	}
	if c.Trade.SettleTimeout == 0 {
		c.Trade.SettleTimeout = 10 * time.Second
	}
	if c.Trade.SweepInterval == 0 {
		c.Trade.SweepInterval = 15 * time.Second
	}
	if c.Trade.SweepBatch == 0 {
		c.Trade.SweepBatch = 500
	}
	if c.Trade.PoolSize == 0 {
		c.Trade.PoolSize = 64
	}

	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "trade-events"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

// Validate rejects configurations the server cannot run with
func (c *Config) Validate() error {
	if c.Database.Driver != "postgres" && c.Database.Driver != "sqlite" {
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		return errors.New("database.path is required for sqlite")
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}
	if c.Trade.MinDuration >= c.Trade.MaxDuration {
		return fmt.Errorf("trade.min_duration (%d) must be below trade.max_duration (%d)",
			c.Trade.MinDuration, c.Trade.MaxDuration)
	}
	if c.Trade.MinPercent > c.Trade.MaxPercent {
		return fmt.Errorf("trade.min_percent (%v) must not exceed trade.max_percent (%v)",
			c.Trade.MinPercent, c.Trade.MaxPercent)
	}
	return nil
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" port=" + strconv.Itoa(c.Port) +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.DBName +
		" sslmode=" + c.SSLMode
}

// Addr returns the redis address, or "" when redis is not configured
func (c *RedisConfig) Addr() string {
	if c.Host == "" {
		return ""
	}
	return c.Host + ":" + strconv.Itoa(c.Port)
}
