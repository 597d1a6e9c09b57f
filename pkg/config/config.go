package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	EnvPrefix = "exportdesk"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "EXPORTDESK_DB_DSN"
	EnvDBHost = "EXPORTDESK_DB_HOST"
	EnvDBUser = "EXPORTDESK_DB_USER"
	EnvDBName = "EXPORTDESK_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Exchange     ExchangeConfig
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
	if err := cfg.Exchange.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"EXPORTDESK_APP_ENV" required:"true"`
	Port         string `envconfig:"EXPORTDESK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"EXPORTDESK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"EXPORTDESK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"EXPORTDESK_DB_DSN"`
	Driver string `envconfig:"EXPORTDESK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"EXPORTDESK_DB_HOST"`
	LegacyPort     int    `envconfig:"EXPORTDESK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"EXPORTDESK_DB_USER"`
	LegacyPassword string `envconfig:"EXPORTDESK_DB_PASSWORD"`
	LegacyName     string `envconfig:"EXPORTDESK_DB_NAME"`
	LegacySSLMode  string `envconfig:"EXPORTDESK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"EXPORTDESK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"EXPORTDESK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"EXPORTDESK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"EXPORTDESK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"EXPORTDESK_REDIS_URL"`
	Address      string        `envconfig:"EXPORTDESK_REDIS_ADDR"`
	Password     string        `envconfig:"EXPORTDESK_REDIS_PASSWORD"`
	DB           int           `envconfig:"EXPORTDESK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"EXPORTDESK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"EXPORTDESK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"EXPORTDESK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"EXPORTDESK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"EXPORTDESK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"EXPORTDESK_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"EXPORTDESK_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"EXPORTDESK_JWT_EXPIRATION_MINUTES" default:"60"`
}

// ExchangeConfig drives the currency rate resolver chain.
type ExchangeConfig struct {
	ProviderName   string        `envconfig:"EXPORTDESK_EXCHANGE_PROVIDER_NAME" default:"awesomeapi"`
	ProviderURL    string        `envconfig:"EXPORTDESK_EXCHANGE_PROVIDER_URL" default:"https://economia.awesomeapi.com.br/json/last"`
	ProviderTO     time.Duration `envconfig:"EXPORTDESK_EXCHANGE_PROVIDER_TIMEOUT" default:"5s"`
	FromCurrency   string        `envconfig:"EXPORTDESK_EXCHANGE_FROM" default:"USD"`
	ToCurrency     string        `envconfig:"EXPORTDESK_EXCHANGE_TO" default:"BRL"`
	FallbackRate   string        `envconfig:"EXPORTDESK_EXCHANGE_FALLBACK_RATE" default:"5.00"`
	CacheTTL       time.Duration `envconfig:"EXPORTDESK_EXCHANGE_CACHE_TTL" default:"0"`
	fallbackParsed decimal.Decimal
}

func (e *ExchangeConfig) validate() error {
	rate, err := decimal.NewFromString(e.FallbackRate)
	if err != nil {
		return fmt.Errorf("invalid exchange fallback rate %q: %w", e.FallbackRate, err)
	}
	if !rate.IsPositive() {
		return fmt.Errorf("exchange fallback rate must be positive, got %s", e.FallbackRate)
	}
	e.fallbackParsed = rate
	return nil
}

// Fallback returns the hard-coded last-resort exchange rate.
func (e ExchangeConfig) Fallback() decimal.Decimal {
	if e.fallbackParsed.IsPositive() {
		return e.fallbackParsed
	}
	rate, err := decimal.NewFromString(e.FallbackRate)
	if err != nil || !rate.IsPositive() {
		return decimal.NewFromInt(5)
	}
	return rate
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"EXPORTDESK_AUTO_MIGRATE" default:"false"`
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
