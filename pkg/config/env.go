package config

// EnvPrefix is empty because every field declares its full variable name.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	StorageDriverLocal = "local"
	StorageDriverGCS   = "gcs"

	DefaultCommissionRate = "0.15"
)

const (
	EnvAppEnv           = "MARKET_APP_ENV"
	EnvPort             = "MARKET_APP_PORT"
	EnvDBDSN            = "MARKET_DB_DSN"
	EnvDBHost           = "MARKET_DB_HOST"
	EnvDBUser           = "MARKET_DB_USER"
	EnvDBName           = "MARKET_DB_NAME"
	EnvRedisURL         = "MARKET_REDIS_URL"
	EnvJWTSecret        = "MARKET_AUTH_JWT_SECRET"
	EnvJWTIssuer        = "MARKET_AUTH_JWT_ISSUER"
	EnvStorageDriver    = "MARKET_STORAGE_DRIVER"
	EnvStorageLocalRoot = "MARKET_STORAGE_LOCAL_ROOT"
	EnvGCSBucket        = "MARKET_GCS_BUCKET_NAME"
	EnvCommissionRate   = "MARKET_COMMISSION_RATE"
	EnvWebhookSecret    = "MARKET_SALE_WEBHOOK_SECRET"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
