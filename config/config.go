package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// AppConfig holds environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided via env files or the environment.
type AppConfig struct {
	AppPort   string `mapstructure:"APP_PORT"`
	AppEnv    string `mapstructure:"APP_ENV"`
	JWTSecret string `mapstructure:"APP_JWT_SECRET"`
	GinMode   string `mapstructure:"GIN_MODE"`

	// Database; DBDriver is one of mysql, postgres, sqlite
	DBDriver    string `mapstructure:"DB_DRIVER"`
	DatabaseURI string `mapstructure:"DATABASE_URI"`
	DBHost      string `mapstructure:"DB_HOST"`
	DBPort      string `mapstructure:"DB_PORT"`
	DBUser      string `mapstructure:"DB_USER"`
	DBPassword  string `mapstructure:"DB_PASSWORD"`
	DBName      string `mapstructure:"DB_NAME"`

	// Redis backs the page cache; an empty host selects the in-memory store
	RedisHost     string `mapstructure:"REDIS_HOST"`
	RedisPort     int    `mapstructure:"REDIS_PORT"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	CachePageTTLSeconds int `mapstructure:"CACHE_PAGE_TTL_SECONDS"`

	// Uploaded post images
	MediaRoot   string `mapstructure:"MEDIA_ROOT"`
	MediaURL    string `mapstructure:"MEDIA_URL"`
	UploadMaxMB int    `mapstructure:"UPLOAD_MAX_MB"`

	// Request gating
	RateLimitPerMinute int      `mapstructure:"RATE_LIMIT_PER_MINUTE"`
	AllowedOrigins     []string `mapstructure:"ALLOWED_ORIGINS"`
	LoginURL           string   `mapstructure:"LOGIN_URL"`
	SessionCookie      string   `mapstructure:"SESSION_COOKIE"`
	CSRFEnabled        bool     `mapstructure:"CSRF_ENABLED"`

	// Logging configuration
	LogLevel      string `mapstructure:"LOG_LEVEL"`
	LogPath       string `mapstructure:"LOG_PATH"`
	LogMaxSizeMB  int    `mapstructure:"LOG_MAX_SIZE_MB"`
	LogMaxBackups int    `mapstructure:"LOG_MAX_BACKUPS"`
	LogMaxAgeDays int    `mapstructure:"LOG_MAX_AGE_DAYS"`
	LogCompress   bool   `mapstructure:"LOG_COMPRESS"`

	// Observability, both optional. TracesExporter is otlp, stdout or none.
	SentryDSN      string `mapstructure:"SENTRY_DSN"`
	TracesExporter string `mapstructure:"OTEL_TRACES_EXPORTER"`
	OTLPEndpoint   string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName    string `mapstructure:"OTEL_SERVICE_NAME"`
}

var (
	cfg AppConfig
	mu  sync.RWMutex
)

var defaults = map[string]any{
	"APP_PORT":                    "8080",
	"APP_ENV":                     "development",
	"APP_JWT_SECRET":              "",
	"GIN_MODE":                    "release",
	"DB_DRIVER":                   "mysql",
	"DATABASE_URI":                "",
	"DB_HOST":                     "127.0.0.1",
	"DB_PORT":                     "3306",
	"DB_USER":                     "root",
	"DB_PASSWORD":                 "",
	"DB_NAME":                     "bloghub",
	"REDIS_HOST":                  "",
	"REDIS_PORT":                  6379,
	"REDIS_DB":                    0,
	"REDIS_PASSWORD":              "",
	"CACHE_PAGE_TTL_SECONDS":      20,
	"MEDIA_ROOT":                  "media",
	"MEDIA_URL":                   "/media/",
	"UPLOAD_MAX_MB":               5,
	"RATE_LIMIT_PER_MINUTE":       60,
	"ALLOWED_ORIGINS":             []string{"*"},
	"LOGIN_URL":                   "/auth/login/",
	"SESSION_COOKIE":              "sessionid",
	"CSRF_ENABLED":                true,
	"LOG_LEVEL":                   "info",
	"LOG_PATH":                    "",
	"LOG_MAX_SIZE_MB":             100,
	"LOG_MAX_BACKUPS":             3,
	"LOG_MAX_AGE_DAYS":            7,
	"LOG_COMPRESS":                false,
	"SENTRY_DSN":                  "",
	"OTEL_TRACES_EXPORTER":        "otlp",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "",
	"OTEL_SERVICE_NAME":           "bloghub",
}

// Load loads the application configuration. It should be called once during boot.
// Precedence: defaults -> config/config.json -> .env -> environment variables.
func Load() (AppConfig, error) {
	_ = godotenv.Load()

	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath("config")
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return AppConfig{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var out AppConfig
	if err := v.Unmarshal(&out); err != nil {
		return AppConfig{}, fmt.Errorf("decode config: %w", err)
	}
	out.AllowedOrigins = trimList(out.AllowedOrigins)

	if out.JWTSecret == "" {
		return AppConfig{}, errors.New("APP_JWT_SECRET must be set in environment variables")
	}

	Set(out)
	return out, nil
}

// Get returns the cached configuration. Callers must Load (or Set) first.
func Get() AppConfig {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// Set replaces the active configuration; used by Load and by tests.
func Set(c AppConfig) {
	mu.Lock()
	cfg = c
	mu.Unlock()
}

func trimList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
