package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Payment  PaymentConfig
	SMS      SMSConfig
	GCP      GCPConfig
	PubSub   PubSubConfig
	Verify   VerifyConfig
	Features FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SERVISTORE_APP_ENV" required:"true"`
	Port         string `envconfig:"SERVISTORE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SERVISTORE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SERVISTORE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SERVISTORE_DB_DSN"`
	Driver string `envconfig:"SERVISTORE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SERVISTORE_DB_HOST"`
	LegacyPort     int    `envconfig:"SERVISTORE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SERVISTORE_DB_USER"`
	LegacyPassword string `envconfig:"SERVISTORE_DB_PASSWORD"`
	LegacyName     string `envconfig:"SERVISTORE_DB_NAME"`
	LegacySSLMode  string `envconfig:"SERVISTORE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SERVISTORE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SERVISTORE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SERVISTORE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SERVISTORE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SERVISTORE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SERVISTORE_REDIS_ADDR"`
	Password     string        `envconfig:"SERVISTORE_REDIS_PASSWORD"`
	DB           int           `envconfig:"SERVISTORE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SERVISTORE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SERVISTORE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SERVISTORE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SERVISTORE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SERVISTORE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SERVISTORE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SERVISTORE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SERVISTORE_JWT_EXPIRATION_MINUTES" default:"60"`
}

// PaymentConfig holds the payment gateway integration settings.
type PaymentConfig struct {
	MerchantID  string        `envconfig:"SERVISTORE_PAYMENT_MERCHANT_ID" required:"true"`
	RequestURL  string        `envconfig:"SERVISTORE_PAYMENT_REQUEST_URL" required:"true"`
	VerifyURL   string        `envconfig:"SERVISTORE_PAYMENT_VERIFY_URL" required:"true"`
	StartPayURL string        `envconfig:"SERVISTORE_PAYMENT_START_PAY_URL" required:"true"`
	CallbackURL string        `envconfig:"SERVISTORE_PAYMENT_CALLBACK_URL" required:"true"`
	Timeout     time.Duration `envconfig:"SERVISTORE_PAYMENT_TIMEOUT" default:"15s"`

	// SubunitFactor converts the store currency into the gateway's integer unit.
	SubunitFactor int64 `envconfig:"SERVISTORE_PAYMENT_SUBUNIT_FACTOR" default:"10"`

	// CancelOnGatewayError restores the legacy behavior of canceling an order
	// when the verify call fails at the transport level. When false the order
	// stays unpaid so the gateway can redeliver the callback.
	CancelOnGatewayError bool `envconfig:"SERVISTORE_PAYMENT_CANCEL_ON_GATEWAY_ERROR" default:"false"`
}

type SMSConfig struct {
	APIKey  string        `envconfig:"SERVISTORE_SMS_API_KEY"`
	Sender  string        `envconfig:"SERVISTORE_SMS_SENDER"`
	BaseURL string        `envconfig:"SERVISTORE_SMS_BASE_URL" default:"https://api.kavenegar.com"`
	Timeout time.Duration `envconfig:"SERVISTORE_SMS_TIMEOUT" default:"10s"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"SERVISTORE_GCP_PROJECT_ID"`
	ApplicationCredentials string `envconfig:"SERVISTORE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	SMSTopic        string `envconfig:"SERVISTORE_PUBSUB_SMS_TOPIC" default:"servistore-sms-tasks"`
	SMSSubscription string `envconfig:"SERVISTORE_PUBSUB_SMS_SUBSCRIPTION"`
}

// VerifyConfig controls the phone verification code flow.
type VerifyConfig struct {
	CodeTTL time.Duration `envconfig:"SERVISTORE_VERIFY_CODE_TTL" default:"5m"`

	// RequestLimit caps how many codes one customer can request per window.
	RequestLimit  int64         `envconfig:"SERVISTORE_VERIFY_REQUEST_LIMIT" default:"5"`
	RequestWindow time.Duration `envconfig:"SERVISTORE_VERIFY_REQUEST_WINDOW" default:"1h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SERVISTORE_AUTO_MIGRATE" default:"false"`
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
