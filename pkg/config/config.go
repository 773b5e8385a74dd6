package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "pharmacloud"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "PHARMACLOUD_DB_DSN"
	EnvDBHost = "PHARMACLOUD_DB_HOST"
	EnvDBUser = "PHARMACLOUD_DB_USER"
	EnvDBName = "PHARMACLOUD_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Sync          SyncConfig
	Pharmacy      PharmacyConfig
	Reconcile     ReconcileConfig
	FeatureFlags  FeatureFlagsConfig
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
	Env          string `envconfig:"PHARMACLOUD_APP_ENV" required:"true"`
	Port         string `envconfig:"PHARMACLOUD_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PHARMACLOUD_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PHARMACLOUD_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PHARMACLOUD_DB_DSN"`
	Driver string `envconfig:"PHARMACLOUD_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PHARMACLOUD_DB_HOST"`
	LegacyPort     int    `envconfig:"PHARMACLOUD_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PHARMACLOUD_DB_USER"`
	LegacyPassword string `envconfig:"PHARMACLOUD_DB_PASSWORD"`
	LegacyName     string `envconfig:"PHARMACLOUD_DB_NAME"`
	LegacySSLMode  string `envconfig:"PHARMACLOUD_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PHARMACLOUD_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PHARMACLOUD_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PHARMACLOUD_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PHARMACLOUD_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PHARMACLOUD_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PHARMACLOUD_REDIS_ADDR"`
	Password     string        `envconfig:"PHARMACLOUD_REDIS_PASSWORD"`
	DB           int           `envconfig:"PHARMACLOUD_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PHARMACLOUD_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PHARMACLOUD_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PHARMACLOUD_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PHARMACLOUD_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PHARMACLOUD_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"PHARMACLOUD_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"PHARMACLOUD_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"PHARMACLOUD_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"PHARMACLOUD_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"PHARMACLOUD_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"PHARMACLOUD_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"PHARMACLOUD_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"PHARMACLOUD_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"PHARMACLOUD_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"PHARMACLOUD_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginUsernameLimit int           `envconfig:"PHARMACLOUD_AUTH_RATE_LIMIT_LOGIN_USERNAME_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"PHARMACLOUD_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

// SyncConfig bounds the ingestion payloads accepted from LAN systems.
type SyncConfig struct {
	MaxBodyBytes         int64 `envconfig:"PHARMACLOUD_SYNC_MAX_BODY_BYTES" default:"10485760"`
	MaxDecompressedBytes int64 `envconfig:"PHARMACLOUD_SYNC_MAX_DECOMPRESSED_BYTES" default:"52428800"`
}

// PharmacyConfig pins the owner-facing endpoints to a specific pharmacy when
// more than one is registered.
type PharmacyConfig struct {
	DefaultPharmacyID string `envconfig:"PHARMACLOUD_PHARMACY_ID"`
}

type ReconcileConfig struct {
	Interval time.Duration `envconfig:"PHARMACLOUD_RECONCILE_INTERVAL" default:"1h"`
	LockTTL  time.Duration `envconfig:"PHARMACLOUD_RECONCILE_LOCK_TTL" default:"2h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PHARMACLOUD_AUTO_MIGRATE" default:"false"`
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
