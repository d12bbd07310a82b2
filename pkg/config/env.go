package config

const (
	EnvPrefix = "SHOKUJIN"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "SHOKUJIN_APP_ENV"
	EnvPort     = "SHOKUJIN_APP_PORT"
	EnvLogLevel = "SHOKUJIN_LOG_LEVEL"

	EnvDBDSN  = "SHOKUJIN_DB_DSN"
	EnvDBHost = "SHOKUJIN_DB_HOST"
	EnvDBUser = "SHOKUJIN_DB_USER"
	EnvDBName = "SHOKUJIN_DB_NAME"

	EnvRedisURL = "SHOKUJIN_REDIS_URL"

	EnvJWTSecret              = "SHOKUJIN_JWT_SECRET"
	EnvJWTIssuer              = "SHOKUJIN_JWT_ISSUER"
	EnvJWTExpMins             = "SHOKUJIN_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "SHOKUJIN_REFRESH_TOKEN_TTL_MINUTES"

	EnvS3Bucket     = "SHOKUJIN_S3_BUCKET_NAME"
	EnvCDNBaseURL   = "SHOKUJIN_CDN_BASE_URL"
	EnvUploadExpiry = "SHOKUJIN_UPLOAD_URL_EXPIRY"

	EnvPaginationMaxLimit = "SHOKUJIN_PAGINATION_MAX_LIMIT"
	EnvCORSOrigins        = "SHOKUJIN_CORS_ALLOWED_ORIGINS"
	EnvOriginVerifyToken  = "SHOKUJIN_ORIGIN_VERIFY_TOKEN"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
