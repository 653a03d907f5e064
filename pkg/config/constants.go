package config

const EnvPrefix = "MEMBERCARDS"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	StoreDriverFile     = "file"
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv            = "MEMBERCARDS_APP_ENV"
	EnvPort              = "MEMBERCARDS_APP_PORT"
	EnvPublicBaseURL     = "MEMBERCARDS_PUBLIC_BASE_URL"
	EnvStoreDriver       = "MEMBERCARDS_STORE_DRIVER"
	EnvStoreFile         = "MEMBERCARDS_STORE_FILE"
	EnvDBDSN             = "MEMBERCARDS_DB_DSN"
	EnvDBHost            = "MEMBERCARDS_DB_HOST"
	EnvDBUser            = "MEMBERCARDS_DB_USER"
	EnvDBName            = "MEMBERCARDS_DB_NAME"
	EnvRedisURL          = "MEMBERCARDS_REDIS_URL"
	EnvAuthEnabled       = "MEMBERCARDS_AUTH_ENABLED"
	EnvAdminUsername     = "MEMBERCARDS_ADMIN_USERNAME"
	EnvAdminPasswordHash = "MEMBERCARDS_ADMIN_PASSWORD_HASH"
	EnvJWTSecret         = "MEMBERCARDS_JWT_SECRET"
	EnvUploadsDir        = "MEMBERCARDS_UPLOADS_DIR"
	EnvMaxUploadMB       = "MEMBERCARDS_MAX_UPLOAD_MB"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
