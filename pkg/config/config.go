package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Auth         AuthConfig
	GCP          GCPConfig
	Storage      StorageConfig
	Tracking     TrackingConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Storage.validate(); err != nil {
		return nil, err
	}
	if _, err := cfg.Tracking.Rate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"MARKET_APP_ENV" required:"true"`
	Port         string   `envconfig:"MARKET_APP_PORT" default:"8080"`
	LogLevel     string   `envconfig:"MARKET_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"MARKET_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"MARKET_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MARKET_DB_DSN"`
	Driver string `envconfig:"MARKET_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MARKET_DB_HOST"`
	LegacyPort     int    `envconfig:"MARKET_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MARKET_DB_USER"`
	LegacyPassword string `envconfig:"MARKET_DB_PASSWORD"`
	LegacyName     string `envconfig:"MARKET_DB_NAME"`
	LegacySSLMode  string `envconfig:"MARKET_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MARKET_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MARKET_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MARKET_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MARKET_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MARKET_REDIS_URL"`
	Address      string        `envconfig:"MARKET_REDIS_ADDR"`
	Password     string        `envconfig:"MARKET_REDIS_PASSWORD"`
	DB           int           `envconfig:"MARKET_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MARKET_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MARKET_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MARKET_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MARKET_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MARKET_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis endpoint has been configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

// AuthConfig holds the verification settings for bearer tokens minted by the identity provider.
type AuthConfig struct {
	Secret string `envconfig:"MARKET_AUTH_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"MARKET_AUTH_JWT_ISSUER" required:"true"`
	// TokenTTLMinutes only applies to locally minted tokens (dev tooling and tests).
	TokenTTLMinutes int `envconfig:"MARKET_AUTH_TOKEN_TTL_MINUTES" default:"60"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"MARKET_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"MARKET_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"MARKET_GOOGLE_APPLICATION_CREDENTIALS"`
}

type StorageConfig struct {
	Driver      string `envconfig:"MARKET_STORAGE_DRIVER" default:"local"`
	BucketName  string `envconfig:"MARKET_GCS_BUCKET_NAME"`
	LocalRoot   string `envconfig:"MARKET_STORAGE_LOCAL_ROOT" default:"uploads"`
	PublicBase  string `envconfig:"MARKET_STORAGE_PUBLIC_BASE" default:"/files"`
	MaxUploadMB int    `envconfig:"MARKET_MAX_UPLOAD_MB" default:"20"`
}

// MaxUploadBytes returns the configured upload ceiling in bytes.
func (s StorageConfig) MaxUploadBytes() int64 {
	if s.MaxUploadMB <= 0 {
		return 20 << 20
	}
	return int64(s.MaxUploadMB) << 20
}

func (s StorageConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(s.Driver)) {
	case StorageDriverLocal:
		if strings.TrimSpace(s.LocalRoot) == "" {
			return fmt.Errorf("%s is required for the local storage driver", EnvStorageLocalRoot)
		}
	case StorageDriverGCS:
		if strings.TrimSpace(s.BucketName) == "" {
			return fmt.Errorf("%s is required for the gcs storage driver", EnvGCSBucket)
		}
	default:
		return fmt.Errorf("unsupported storage driver %q", s.Driver)
	}
	return nil
}

type TrackingConfig struct {
	StorefrontURL  string `envconfig:"MARKET_STOREFRONT_URL" default:"http://localhost:3000"`
	WebhookSecret  string `envconfig:"MARKET_SALE_WEBHOOK_SECRET"`
	CommissionRate string `envconfig:"MARKET_COMMISSION_RATE" default:"0.15"`
}

// Rate parses the commission rate as a fraction between 0 and 1.
func (t TrackingConfig) Rate() (decimal.Decimal, error) {
	raw := strings.TrimSpace(t.CommissionRate)
	if raw == "" {
		return decimal.RequireFromString(DefaultCommissionRate), nil
	}
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing %s: %w", EnvCommissionRate, err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("%s must be between 0 and 1", EnvCommissionRate)
	}
	return rate, nil
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MARKET_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
