package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"classsite/internal/model"
)

// Ledger backends.
const (
	LedgerDB     = "db"
	LedgerRedis  = "redis"
	LedgerMemory = "memory"
)

// Media backends.
const (
	MediaLocal = "local"
	MediaMinIO = "minio"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort  string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	SwaggerHost string
	CORSOrigins []string

	Auth  AuthConfig
	Media MediaConfig
	Log   LogConfig
}

// AuthConfig holds authentication and lockout settings.
type AuthConfig struct {
	JWTSecret            string
	TokenTTL             time.Duration
	Lockout              model.LockoutPolicy
	PasswordMinLength    int
	StorageTimeout       time.Duration
	LedgerBackend        string
	CookieSecure         bool
	BootstrapAdmin       bool
	AdminAccount         string
	AdminDefaultPassword string
}

// MediaConfig selects where uploaded files go.
type MediaConfig struct {
	Backend        string
	Dir            string
	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool
	MinIOPublicURL string
}

// LogConfig configures the application logger.
type LogConfig struct {
	Level  string
	Format string
}

// Load builds Config from environment with sensible defaults.
// A .env file in the working directory is read first if present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		MySQLDSN:    getEnv("MYSQL_DSN", "user:password@tcp(localhost:3306)/classsite?charset=utf8mb4&parseTime=True&loc=UTC&timeout=5s&readTimeout=5s&writeTimeout=5s"),
		RedisAddr:   getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:     getEnvInt("REDIS_DB", 0),
		RedisPass:   os.Getenv("REDIS_PASSWORD"),
		SwaggerHost: os.Getenv("SWAGGER_HOST"),
		CORSOrigins: getEnvList("CORS_ORIGINS", []string{
			"http://localhost:8000", "http://127.0.0.1:8000",
			"http://localhost:8787", "http://127.0.0.1:8787",
			"http://localhost:5173", "http://127.0.0.1:5173",
		}),
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", getEnv("SECRET_KEY", "change-me")),
			TokenTTL:  time.Duration(getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 480)) * time.Minute,
			Lockout: model.LockoutPolicy{
				MaxFailures:  getEnvInt("LOGIN_MAX_TRIES", model.DefaultMaxFailures),
				LockDuration: time.Duration(getEnvInt("LOGIN_LOCK_SECONDS", int(model.DefaultLockDuration/time.Second))) * time.Second,
			},
			PasswordMinLength:    getEnvInt("PASSWORD_MIN_LENGTH", 6),
			StorageTimeout:       time.Duration(getEnvInt("AUTH_STORAGE_TIMEOUT_SECONDS", 5)) * time.Second,
			LedgerBackend:        getEnv("LEDGER_BACKEND", LedgerDB),
			CookieSecure:         getEnvBool("COOKIE_SECURE", false),
			BootstrapAdmin:       getEnvBool("BOOTSTRAP_ADMIN", true),
			AdminAccount:         getEnv("ADMIN_ACCOUNT", "admin"),
			AdminDefaultPassword: getEnv("ADMIN_DEFAULT_PASSWORD", "admin123"),
		},
		Media: MediaConfig{
			Backend:        getEnv("MEDIA_BACKEND", MediaLocal),
			Dir:            getEnv("MEDIA_DIR", "media"),
			MinIOEndpoint:  os.Getenv("MINIO_ENDPOINT"),
			MinIOAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			MinIOSecretKey: os.Getenv("MINIO_SECRET_KEY"),
			MinIOBucket:    getEnv("MINIO_BUCKET", "classsite"),
			MinIOUseSSL:    getEnvBool("MINIO_USE_SSL", false),
			MinIOPublicURL: os.Getenv("MINIO_PUBLIC_URL"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt falls back to def for unparsable or negative values.
func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
