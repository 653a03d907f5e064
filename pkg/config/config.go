package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Store         StoreConfig
	DB            DBConfig
	Redis         RedisConfig
	Auth          AuthConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Uploads       UploadsConfig
	Card          CardConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Store.validate(); err != nil {
		return nil, err
	}
	if cfg.Store.UsesDB() {
		if err := cfg.DB.ensureDSN(cfg.Store); err != nil {
			return nil, err
		}
	}
	if err := cfg.Auth.validate(cfg.JWT); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env             string        `envconfig:"MEMBERCARDS_APP_ENV" default:"dev"`
	Port            string        `envconfig:"MEMBERCARDS_APP_PORT" default:"3000"`
	LogLevel        string        `envconfig:"MEMBERCARDS_LOG_LEVEL" default:"info"`
	LogWarnStack    bool          `envconfig:"MEMBERCARDS_LOG_WARN_STACK" default:"false"`
	LogFormat       string        `envconfig:"MEMBERCARDS_LOG_FORMAT"`
	PublicBaseURL   string        `envconfig:"MEMBERCARDS_PUBLIC_BASE_URL"`
	PublicDir       string        `envconfig:"MEMBERCARDS_PUBLIC_DIR" default:"public"`
	CORSOrigins     []string      `envconfig:"MEMBERCARDS_CORS_ORIGINS" default:"*"`
	ShutdownTimeout time.Duration `envconfig:"MEMBERCARDS_SHUTDOWN_TIMEOUT" default:"10s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// StoreConfig selects the member persistence backend.
type StoreConfig struct {
	Driver   string `envconfig:"MEMBERCARDS_STORE_DRIVER" default:"file"`
	FilePath string `envconfig:"MEMBERCARDS_STORE_FILE" default:"data/members.json"`
}

// NormalizedDriver returns the lower-cased driver name, defaulting to the file store.
func (s StoreConfig) NormalizedDriver() string {
	driver := strings.ToLower(strings.TrimSpace(s.Driver))
	if driver == "" {
		return StoreDriverFile
	}
	return driver
}

// UsesDB reports whether the selected backend needs a database connection.
func (s StoreConfig) UsesDB() bool {
	switch s.NormalizedDriver() {
	case StoreDriverPostgres, StoreDriverSQLite:
		return true
	}
	return false
}

func (s StoreConfig) validate() error {
	switch s.NormalizedDriver() {
	case StoreDriverFile:
		if strings.TrimSpace(s.FilePath) == "" {
			return fmt.Errorf("%s is required for the file store", EnvStoreFile)
		}
		return nil
	case StoreDriverPostgres, StoreDriverSQLite:
		return nil
	}
	return fmt.Errorf("unsupported %s %q (expected file, postgres or sqlite)", EnvStoreDriver, s.Driver)
}

type DBConfig struct {
	DSN string `envconfig:"MEMBERCARDS_DB_DSN"`

	LegacyHost     string `envconfig:"MEMBERCARDS_DB_HOST"`
	LegacyPort     int    `envconfig:"MEMBERCARDS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MEMBERCARDS_DB_USER"`
	LegacyPassword string `envconfig:"MEMBERCARDS_DB_PASSWORD"`
	LegacyName     string `envconfig:"MEMBERCARDS_DB_NAME"`
	LegacySSLMode  string `envconfig:"MEMBERCARDS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MEMBERCARDS_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"MEMBERCARDS_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"MEMBERCARDS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MEMBERCARDS_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// Driver is copied from StoreConfig by Load so db.New can pick a dialector.
	Driver string `ignored:"true"`
}

// RedisConfig is optional; an empty URL and address disables rate limiting,
// idempotency and the redis card cache.
type RedisConfig struct {
	URL          string        `envconfig:"MEMBERCARDS_REDIS_URL"`
	Address      string        `envconfig:"MEMBERCARDS_REDIS_ADDR"`
	Password     string        `envconfig:"MEMBERCARDS_REDIS_PASSWORD"`
	DB           int           `envconfig:"MEMBERCARDS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MEMBERCARDS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MEMBERCARDS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MEMBERCARDS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MEMBERCARDS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MEMBERCARDS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

// AuthConfig holds the single admin identity protecting mutating routes.
type AuthConfig struct {
	Enabled       bool   `envconfig:"MEMBERCARDS_AUTH_ENABLED" default:"true"`
	AdminUsername string `envconfig:"MEMBERCARDS_ADMIN_USERNAME" default:"admin"`
	AdminPassword string `envconfig:"MEMBERCARDS_ADMIN_PASSWORD_HASH"`
}

func (a AuthConfig) validate(jwtCfg JWTConfig) error {
	if !a.Enabled {
		return nil
	}
	missing := []string{}
	if strings.TrimSpace(a.AdminUsername) == "" {
		missing = append(missing, EnvAdminUsername)
	}
	if strings.TrimSpace(a.AdminPassword) == "" {
		missing = append(missing, EnvAdminPasswordHash)
	}
	if strings.TrimSpace(jwtCfg.Secret) == "" {
		missing = append(missing, EnvJWTSecret)
	}
	if len(missing) > 0 {
		return fmt.Errorf("auth is enabled but %s are missing", strings.Join(missing, ", "))
	}
	return nil
}

type JWTConfig struct {
	Secret            string `envconfig:"MEMBERCARDS_JWT_SECRET"`
	Issuer            string `envconfig:"MEMBERCARDS_JWT_ISSUER" default:"membercards"`
	ExpirationMinutes int    `envconfig:"MEMBERCARDS_JWT_EXPIRATION_MINUTES" default:"480"`
}

// TTL returns the access token lifetime.
func (j JWTConfig) TTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"MEMBERCARDS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"MEMBERCARDS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"MEMBERCARDS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"MEMBERCARDS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"MEMBERCARDS_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"MEMBERCARDS_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginUsernameLimit int           `envconfig:"MEMBERCARDS_AUTH_RATE_LIMIT_LOGIN_USERNAME_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"MEMBERCARDS_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type UploadsConfig struct {
	Dir         string `envconfig:"MEMBERCARDS_UPLOADS_DIR" default:"public/uploads"`
	URLPrefix   string `envconfig:"MEMBERCARDS_UPLOADS_URL_PREFIX" default:"/uploads"`
	MaxUploadMB int    `envconfig:"MEMBERCARDS_MAX_UPLOAD_MB" default:"5"`
}

// MaxBytes returns the upload limit in bytes.
func (u UploadsConfig) MaxBytes() int64 {
	if u.MaxUploadMB <= 0 {
		return 5 << 20
	}
	return int64(u.MaxUploadMB) << 20
}

type CardConfig struct {
	QRSize       int           `envconfig:"MEMBERCARDS_CARD_QR_SIZE" default:"256"`
	Organization string        `envconfig:"MEMBERCARDS_CARD_ORGANIZATION" default:"Conexão Arq Serra"`
	CountryCode  string        `envconfig:"MEMBERCARDS_CARD_COUNTRY_CODE" default:"55"`
	CacheDir     string        `envconfig:"MEMBERCARDS_CARD_CACHE_DIR" default:".cardcache"`
	CacheTTL     time.Duration `envconfig:"MEMBERCARDS_CARD_CACHE_TTL" default:"720h"`
}

// IdempotencyTTL bounds how long a replayed create response is kept.
const IdempotencyTTL = 24 * time.Hour

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MEMBERCARDS_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN(store StoreConfig) error {
	db.Driver = store.NormalizedDriver()
	if db.DSN != "" {
		return nil
	}
	if db.Driver == StoreDriverSQLite {
		return fmt.Errorf("%s is required for the sqlite store", EnvDBDSN)
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
