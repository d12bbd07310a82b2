package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App        AppConfig
	DB         DBConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Password   PasswordConfig
	RateLimit  AuthRateLimitConfig
	Storage    StorageConfig
	Pagination PaginationConfig
	CORS       CORSConfig
	Origin     OriginConfig
	Features   FeatureFlagsConfig
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
	Env          string `envconfig:"SHOKUJIN_APP_ENV" required:"true"`
	Port         string `envconfig:"SHOKUJIN_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SHOKUJIN_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHOKUJIN_LOG_WARN_STACK" default:"false"`
	SiteURL      string `envconfig:"SHOKUJIN_SITE_URL" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SHOKUJIN_DB_DSN"`
	Driver string `envconfig:"SHOKUJIN_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SHOKUJIN_DB_HOST"`
	LegacyPort     int    `envconfig:"SHOKUJIN_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SHOKUJIN_DB_USER"`
	LegacyPassword string `envconfig:"SHOKUJIN_DB_PASSWORD"`
	LegacyName     string `envconfig:"SHOKUJIN_DB_NAME"`
	LegacySSLMode  string `envconfig:"SHOKUJIN_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SHOKUJIN_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHOKUJIN_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHOKUJIN_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHOKUJIN_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SHOKUJIN_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SHOKUJIN_REDIS_ADDR"`
	Password     string        `envconfig:"SHOKUJIN_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHOKUJIN_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHOKUJIN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHOKUJIN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHOKUJIN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHOKUJIN_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHOKUJIN_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"SHOKUJIN_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"SHOKUJIN_JWT_ISSUER" default:"shokujin-wiki"`
	ExpirationMinutes      int    `envconfig:"SHOKUJIN_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"SHOKUJIN_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SHOKUJIN_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SHOKUJIN_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SHOKUJIN_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SHOKUJIN_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SHOKUJIN_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"SHOKUJIN_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginIPLimit    int           `envconfig:"SHOKUJIN_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	LoginEmailLimit int           `envconfig:"SHOKUJIN_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"10"`
	SignupWindow    time.Duration `envconfig:"SHOKUJIN_AUTH_RATE_LIMIT_SIGNUP_WINDOW" default:"5m"`
	SignupIPLimit   int           `envconfig:"SHOKUJIN_AUTH_RATE_LIMIT_SIGNUP_IP_LIMIT" default:"10"`
	IdempotencyTTL  time.Duration `envconfig:"SHOKUJIN_IDEMPOTENCY_TTL" default:"24h"`
}

// StorageConfig describes the S3 compatible bucket holding uploaded images
// and the CDN distribution that serves them.
type StorageConfig struct {
	Endpoint        string        `envconfig:"SHOKUJIN_S3_ENDPOINT" default:"s3.amazonaws.com"`
	Region          string        `envconfig:"SHOKUJIN_AWS_REGION" default:"ap-northeast-1"`
	AccessKeyID     string        `envconfig:"SHOKUJIN_AWS_ACCESS_KEY_ID"`
	SecretAccessKey string        `envconfig:"SHOKUJIN_AWS_SECRET_ACCESS_KEY"`
	Bucket          string        `envconfig:"SHOKUJIN_S3_BUCKET_NAME" required:"true"`
	UseSSL          bool          `envconfig:"SHOKUJIN_S3_USE_SSL" default:"true"`
	CDNBaseURL      string        `envconfig:"SHOKUJIN_CDN_BASE_URL" required:"true"`
	UploadURLExpiry time.Duration `envconfig:"SHOKUJIN_UPLOAD_URL_EXPIRY" default:"1h"`
	PresignMaxMB    int64         `envconfig:"SHOKUJIN_PRESIGN_MAX_MB" default:"20"`
	UploadMaxMB     int64         `envconfig:"SHOKUJIN_UPLOAD_MAX_MB" default:"50"`
}

type PaginationConfig struct {
	MaxLimit int `envconfig:"SHOKUJIN_PAGINATION_MAX_LIMIT" default:"500"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"SHOKUJIN_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

// OriginConfig holds the shared secret the CDN attaches to every request.
type OriginConfig struct {
	VerifyToken string `envconfig:"SHOKUJIN_ORIGIN_VERIFY_TOKEN"`
}

type FeatureFlagsConfig struct {
	AutoMigrate  bool `envconfig:"SHOKUJIN_AUTO_MIGRATE" default:"false"`
	EnsureBucket bool `envconfig:"SHOKUJIN_ENSURE_BUCKET" default:"false"`
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
