package config

// EnvPrefix namespaces every environment variable the loader reads.
const EnvPrefix = "SERVISTORE"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv   = "SERVISTORE_APP_ENV"
	EnvPort     = "SERVISTORE_APP_PORT"
	EnvDBDSN    = "SERVISTORE_DB_DSN"
	EnvDBHost   = "SERVISTORE_DB_HOST"
	EnvDBUser   = "SERVISTORE_DB_USER"
	EnvDBName   = "SERVISTORE_DB_NAME"
	EnvRedisURL = "SERVISTORE_REDIS_URL"

	EnvJWTSecret = "SERVISTORE_JWT_SECRET"
	EnvJWTIssuer = "SERVISTORE_JWT_ISSUER"

	EnvPaymentMerchantID  = "SERVISTORE_PAYMENT_MERCHANT_ID"
	EnvPaymentRequestURL  = "SERVISTORE_PAYMENT_REQUEST_URL"
	EnvPaymentVerifyURL   = "SERVISTORE_PAYMENT_VERIFY_URL"
	EnvPaymentStartPayURL = "SERVISTORE_PAYMENT_START_PAY_URL"
	EnvPaymentCallbackURL = "SERVISTORE_PAYMENT_CALLBACK_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
