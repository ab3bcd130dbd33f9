package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App     AppConfig
	DB      DBConfig
	Redis   RedisConfig
	Cart    CartConfig
	Pricing PricingConfig
	JWT     JWTConfig
	Kafka   KafkaConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Cart.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"STOREFRONT_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"STOREFRONT_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	Driver string `envconfig:"STOREFRONT_DB_DRIVER" default:"sqlite"`
	DSN    string `envconfig:"STOREFRONT_DB_DSN" default:"storefront-cart.db"`

	AutoMigrate bool `envconfig:"STOREFRONT_DB_AUTO_MIGRATE" default:"true"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"4"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// CartConfig holds the cart engine policy values.
type CartConfig struct {
	StorageDriver         string `envconfig:"STOREFRONT_CART_STORAGE" default:"db"`
	StorageKey            string `envconfig:"STOREFRONT_CART_STORAGE_KEY" default:"cart-storage"`
	SchemaVersion         int    `envconfig:"STOREFRONT_CART_SCHEMA_VERSION" default:"1"`
	DefaultCompanyID      string `envconfig:"STOREFRONT_DEFAULT_COMPANY_ID" default:"1"`
	DefaultMaxQuantity    int    `envconfig:"STOREFRONT_CART_DEFAULT_MAX_QTY" default:"99"`
	FreeShippingThreshold int64  `envconfig:"STOREFRONT_FREE_SHIPPING_THRESHOLD" default:"50000"`
	ShippingCostRaw       string `envconfig:"STOREFRONT_SHIPPING_COST"`
}

// ShippingCost returns the configured flat shipping cost in minor units.
// Missing, non-numeric or negative values resolve to 0.
func (c CartConfig) ShippingCost() int64 {
	raw := strings.TrimSpace(c.ShippingCostRaw)
	if raw == "" {
		return 0
	}
	value, err := decimal.NewFromString(raw)
	if err != nil || value.IsNegative() {
		return 0
	}
	return value.Round(0).IntPart()
}

func (c CartConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.StorageDriver)) {
	case CartStorageRedis, CartStorageDB:
	default:
		return fmt.Errorf("unsupported cart storage %q", c.StorageDriver)
	}
	if strings.TrimSpace(c.StorageKey) == "" {
		return fmt.Errorf("%s is required", EnvCartStorageKey)
	}
	if c.DefaultMaxQuantity <= 0 {
		return fmt.Errorf("%s must be positive", EnvCartDefaultMaxQty)
	}
	return nil
}

type PricingConfig struct {
	Endpoint string        `envconfig:"STOREFRONT_PRICING_ENDPOINT" required:"true"`
	APIKey   string        `envconfig:"STOREFRONT_PRICING_API_KEY"`
	Timeout  time.Duration `envconfig:"STOREFRONT_PRICING_TIMEOUT" default:"10s"`
}

type JWTConfig struct {
	Secret string `envconfig:"STOREFRONT_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"STOREFRONT_JWT_ISSUER" required:"true"`
}

type KafkaConfig struct {
	Brokers       []string `envconfig:"STOREFRONT_KAFKA_BROKERS"`
	CheckoutTopic string   `envconfig:"STOREFRONT_KAFKA_CHECKOUT_TOPIC" default:"storefront.cart.checkout"`
}

// Enabled reports whether order submission should be published to Kafka.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}
