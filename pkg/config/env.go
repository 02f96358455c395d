package config

const EnvPrefix = "ADDONHUB"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Environment variable names referenced in validation errors and tests.
const (
	EnvAppEnv                 = "ADDONHUB_APP_ENV"
	EnvPort                   = "ADDONHUB_APP_PORT"
	EnvLogLevel               = "ADDONHUB_LOG_LEVEL"
	EnvCORSOrigins            = "ADDONHUB_CORS_ORIGINS"
	EnvDBDSN                  = "ADDONHUB_DB_DSN"
	EnvDBHost                 = "ADDONHUB_DB_HOST"
	EnvDBUser                 = "ADDONHUB_DB_USER"
	EnvDBName                 = "ADDONHUB_DB_NAME"
	EnvDBPassword             = "ADDONHUB_DB_PASSWORD"
	EnvRedisURL               = "ADDONHUB_REDIS_URL"
	EnvJWTSecret              = "ADDONHUB_JWT_SECRET"
	EnvJWTIssuer              = "ADDONHUB_JWT_ISSUER"
	EnvJWTExpMins             = "ADDONHUB_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "ADDONHUB_REFRESH_TOKEN_TTL_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
