package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Stripe       StripeConfig
	Resend       ResendConfig
	Outbox       OutboxConfig

	AuthRateLimit AuthRateLimitConfig
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
	Env          string `envconfig:"VEOX_APP_ENV" required:"true"`
	Port         string `envconfig:"VEOX_APP_PORT" required:"true"`
	BaseURL      string `envconfig:"VEOX_APP_BASE_URL" default:"http://localhost:3000"`
	LogLevel     string `envconfig:"VEOX_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VEOX_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"VEOX_DB_DSN"`
	Driver string `envconfig:"VEOX_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"VEOX_DB_HOST"`
	LegacyPort     int    `envconfig:"VEOX_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"VEOX_DB_USER"`
	LegacyPassword string `envconfig:"VEOX_DB_PASSWORD"`
	LegacyName     string `envconfig:"VEOX_DB_NAME"`
	LegacySSLMode  string `envconfig:"VEOX_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VEOX_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VEOX_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VEOX_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VEOX_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"VEOX_REDIS_URL" required:"true"`
	PoolSize     int           `envconfig:"VEOX_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VEOX_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VEOX_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VEOX_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VEOX_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"VEOX_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"VEOX_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"VEOX_JWT_EXPIRATION_MINUTES" default:"60"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"VEOX_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"VEOX_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"VEOX_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"VEOX_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"VEOX_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"VEOX_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"VEOX_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"VEOX_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"VEOX_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"VEOX_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"VEOX_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"VEOX_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"VEOX_GCP_PROJECT_ID" required:"true"`
}

type PubSubConfig struct {
	NotificationTopic        string `envconfig:"VEOX_PUBSUB_NOTIFICATION_TOPIC" default:"veox-notification-events"`
	NotificationSubscription string `envconfig:"VEOX_PUBSUB_NOTIFICATION_SUBSCRIPTION" required:"true"`
}

type StripeConfig struct {
	APIKey string `envconfig:"VEOX_STRIPE_API_KEY"`
	Secret string `envconfig:"VEOX_STRIPE_WEBHOOK_SECRET"`
	Env    string `envconfig:"VEOX_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type ResendConfig struct {
	APIKey      string `envconfig:"VEOX_RESEND_API_KEY"`
	DefaultFrom string `envconfig:"VEOX_EMAIL_FROM" default:"VEOX <noreply@veox.ee>"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"VEOX_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"VEOX_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"VEOX_OUTBOX_MAX_ATTEMPTS" default:"10"`
	IdempotencyTTL time.Duration `envconfig:"VEOX_OUTBOX_IDEMPOTENCY_TTL" default:"24h"`
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
