package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	OTP          OTPConfig
	CORS         CORSConfig
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
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"QUADMARKET_APP_ENV" required:"true"`
	Port         string `envconfig:"QUADMARKET_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"QUADMARKET_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"QUADMARKET_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"QUADMARKET_DB_DSN"`
	Driver string `envconfig:"QUADMARKET_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"QUADMARKET_DB_HOST"`
	Port     int    `envconfig:"QUADMARKET_DB_PORT" default:"5432"`
	User     string `envconfig:"QUADMARKET_DB_USER"`
	Password string `envconfig:"QUADMARKET_DB_PASSWORD"`
	Name     string `envconfig:"QUADMARKET_DB_NAME"`
	SSLMode  string `envconfig:"QUADMARKET_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"QUADMARKET_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"QUADMARKET_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"QUADMARKET_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"QUADMARKET_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"QUADMARKET_REDIS_URL" required:"true"`
	Address      string        `envconfig:"QUADMARKET_REDIS_ADDR"`
	Password     string        `envconfig:"QUADMARKET_REDIS_PASSWORD"`
	DB           int           `envconfig:"QUADMARKET_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"QUADMARKET_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"QUADMARKET_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"QUADMARKET_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"QUADMARKET_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"QUADMARKET_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"QUADMARKET_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"QUADMARKET_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"QUADMARKET_JWT_EXPIRATION_MINUTES" default:"60"`
}

// OTPConfig tunes delivery-code generation and the Argon2id parameters used
// to hash codes at rest.
type OTPConfig struct {
	Digits     int           `envconfig:"QUADMARKET_OTP_DIGITS" default:"6"`
	TTL        time.Duration `envconfig:"QUADMARKET_OTP_TTL" default:"5m"`
	ArgonMemKB int           `envconfig:"QUADMARKET_OTP_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime  int           `envconfig:"QUADMARKET_OTP_ARGON_TIME" default:"3"`
	ArgonLanes int           `envconfig:"QUADMARKET_OTP_ARGON_PARALLELISM" default:"2"`
	ArgonSalt  int           `envconfig:"QUADMARKET_OTP_ARGON_SALT_LEN" default:"16"`
	ArgonKey   int           `envconfig:"QUADMARKET_OTP_ARGON_KEY_LEN" default:"32"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"QUADMARKET_CORS_ALLOWED_ORIGINS" default:"*"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"QUADMARKET_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"QUADMARKET_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacy := []struct {
		env   string
		value string
	}{
		{"QUADMARKET_DB_HOST", db.Host},
		{"QUADMARKET_DB_USER", db.User},
		{"QUADMARKET_DB_NAME", db.Name},
	}
	for _, item := range legacy {
		if item.value == "" {
			missing = append(missing, item.env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either QUADMARKET_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
