package config

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	CartStorageRedis = "redis"
	CartStorageDB    = "db"

	EnvAppEnv              = "STOREFRONT_APP_ENV"
	EnvPort                = "STOREFRONT_APP_PORT"
	EnvDBDriver            = "STOREFRONT_DB_DRIVER"
	EnvDBDSN               = "STOREFRONT_DB_DSN"
	EnvRedisURL            = "STOREFRONT_REDIS_URL"
	EnvCartStorage         = "STOREFRONT_CART_STORAGE"
	EnvCartStorageKey      = "STOREFRONT_CART_STORAGE_KEY"
	EnvCartDefaultMaxQty   = "STOREFRONT_CART_DEFAULT_MAX_QTY"
	EnvShippingCost        = "STOREFRONT_SHIPPING_COST"
	EnvFreeShippingMinimum = "STOREFRONT_FREE_SHIPPING_THRESHOLD"
	EnvPricingEndpoint     = "STOREFRONT_PRICING_ENDPOINT"
	EnvJWTSecret           = "STOREFRONT_JWT_SECRET"
	EnvJWTIssuer           = "STOREFRONT_JWT_ISSUER"
	EnvKafkaBrokers        = "STOREFRONT_KAFKA_BROKERS"
)
