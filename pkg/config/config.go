package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Canvas    CanvasConfig
	Notion    NotionConfig
	Sync      SyncConfig
	Worker    WorkerConfig
	Scheduler SchedulerConfig
	Settings  SettingsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig describes how access tokens minted by the web front-end are verified.
type JWTConfig struct {
	Secret string
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CanvasConfig configures the course-management source client.
type CanvasConfig struct {
	BaseURLTemplate string
	Timeout         time.Duration
}

// NotionConfig configures the workspace-database destination client.
type NotionConfig struct {
	BaseURL    string
	Version    string
	Timeout    time.Duration
	MaxRetries int
}

// SyncConfig holds calendar and reporting knobs consumed by every run.
type SyncConfig struct {
	UTCOffsetHours   int
	MatricYear       int
	CalendarYears    int
	ErrorDetailLimit int
	ResultCacheTTL   time.Duration
}

// WorkerConfig toggles asynchronous sync execution.
type WorkerConfig struct {
	Enabled     bool
	Concurrency int
	Retries     int
}

// SchedulerConfig toggles periodic sync for users that opted in.
type SchedulerConfig struct {
	Enabled bool
	Cron    string
}

// SettingsConfig carries the key used to seal stored API tokens.
type SettingsConfig struct {
	EncryptionKey string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
		Issuer: v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Canvas = CanvasConfig{
		BaseURLTemplate: v.GetString("CANVAS_BASE_URL_TEMPLATE"),
		Timeout:         parseDuration(v.GetString("CANVAS_TIMEOUT"), 20*time.Second),
	}

	cfg.Notion = NotionConfig{
		BaseURL:    v.GetString("NOTION_BASE_URL"),
		Version:    v.GetString("NOTION_VERSION"),
		Timeout:    parseDuration(v.GetString("NOTION_TIMEOUT"), 20*time.Second),
		MaxRetries: v.GetInt("NOTION_MAX_RETRIES"),
	}

	errorLimit := v.GetInt("SYNC_ERROR_DETAIL_LIMIT")
	if errorLimit <= 0 {
		errorLimit = 10
	}
	cfg.Sync = SyncConfig{
		UTCOffsetHours:   v.GetInt("SYNC_UTC_OFFSET_HOURS"),
		MatricYear:       v.GetInt("SYNC_MATRIC_YEAR"),
		CalendarYears:    v.GetInt("SYNC_CALENDAR_YEARS"),
		ErrorDetailLimit: errorLimit,
		ResultCacheTTL:   parseDuration(v.GetString("SYNC_RESULT_CACHE_TTL"), 24*time.Hour),
	}

	cfg.Worker = WorkerConfig{
		Enabled:     v.GetBool("ENABLE_ASYNC_SYNC"),
		Concurrency: v.GetInt("SYNC_WORKER_CONCURRENCY"),
		Retries:     v.GetInt("SYNC_WORKER_RETRIES"),
	}

	cfg.Scheduler = SchedulerConfig{
		Enabled: v.GetBool("ENABLE_SCHEDULED_SYNC"),
		Cron:    v.GetString("SYNC_CRON"),
	}

	cfg.Settings = SettingsConfig{
		EncryptionKey: v.GetString("SETTINGS_ENCRYPTION_KEY"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "coursework_sync")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("CANVAS_BASE_URL_TEMPLATE", "https://%s.instructure.com")
	v.SetDefault("CANVAS_TIMEOUT", "20s")

	v.SetDefault("NOTION_BASE_URL", "https://api.notion.com")
	v.SetDefault("NOTION_VERSION", "2022-06-28")
	v.SetDefault("NOTION_TIMEOUT", "20s")
	v.SetDefault("NOTION_MAX_RETRIES", 3)

	v.SetDefault("SYNC_UTC_OFFSET_HOURS", 8)
	v.SetDefault("SYNC_MATRIC_YEAR", time.Now().Year()-1)
	v.SetDefault("SYNC_CALENDAR_YEARS", 5)
	v.SetDefault("SYNC_ERROR_DETAIL_LIMIT", 10)
	v.SetDefault("SYNC_RESULT_CACHE_TTL", "24h")

	v.SetDefault("ENABLE_ASYNC_SYNC", false)
	v.SetDefault("SYNC_WORKER_CONCURRENCY", 2)
	v.SetDefault("SYNC_WORKER_RETRIES", 1)

	v.SetDefault("ENABLE_SCHEDULED_SYNC", false)
	v.SetDefault("SYNC_CRON", "0 */6 * * *")

	v.SetDefault("SETTINGS_ENCRYPTION_KEY", "")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
