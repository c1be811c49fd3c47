package config

import (
	"errors"
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

	Database DatabaseConfig
	Stores   StoreRoutingConfig
	Redis    RedisConfig
	Log      LogConfig
	Pipeline PipelineConfig
	Alerts   AlertConfig
	Ops      OpsConfig
	Exports  ExportConfig
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

// StoreRoutingConfig names the logical stores record families are routed to.
// Routing is declarative: an override changes where rows live, never how
// they are joined.
type StoreRoutingConfig struct {
	AnalyticsName       string
	PredictionCacheName string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type LogConfig struct {
	Level  string
	Format string
}

// PipelineConfig governs the daily wellbeing calculation run.
type PipelineConfig struct {
	Enabled            bool
	ScheduleAt         string // "HH:MM" local time
	ConfigName         string
	ForceRecalculation bool
	BatchSize          int
	TaskRetries        int
	TaskRetryDelay     time.Duration
	TaskTimeout        time.Duration
	HandoffMaxItems    int
	HandoffTTL         time.Duration
	ResultCacheTTL     time.Duration
	MinDiskBytes       uint64
	MaxHeapBytes       uint64
}

// AlertConfig lists notification recipients and mail dispatch tuning.
type AlertConfig struct {
	AtRiskRecipients []string
	ReportRecipients []string
	FailureEmails    []string
	MailWorkers      int
	MailRetries      int
	MailRetryDelay   time.Duration
}

// OpsConfig gates the operator HTTP API.
type OpsConfig struct {
	APIEnabled  bool
	TokenSecret string
}

// ExportConfig controls report artifact rendering.
type ExportConfig struct {
	Enabled    bool
	StorageDir string
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
		if !errors.As(err, &notFound) {
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

	cfg.Stores = StoreRoutingConfig{
		AnalyticsName:       v.GetString("DB_ANALYTICS_NAME"),
		PredictionCacheName: v.GetString("DB_PREDICTION_CACHE_NAME"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Pipeline = PipelineConfig{
		Enabled:            v.GetBool("PIPELINE_ENABLED"),
		ScheduleAt:         v.GetString("PIPELINE_SCHEDULE_AT"),
		ConfigName:         v.GetString("PIPELINE_CONFIG_NAME"),
		ForceRecalculation: v.GetBool("PIPELINE_FORCE_RECALCULATION"),
		BatchSize:          v.GetInt("PIPELINE_BATCH_SIZE"),
		TaskRetries:        v.GetInt("PIPELINE_TASK_RETRIES"),
		TaskRetryDelay:     parseDuration(v.GetString("PIPELINE_TASK_RETRY_DELAY"), 5*time.Minute),
		TaskTimeout:        parseDuration(v.GetString("PIPELINE_TASK_TIMEOUT"), 30*time.Minute),
		HandoffMaxItems:    v.GetInt("PIPELINE_HANDOFF_MAX_ITEMS"),
		HandoffTTL:         parseDuration(v.GetString("PIPELINE_HANDOFF_TTL"), 24*time.Hour),
		ResultCacheTTL:     parseDuration(v.GetString("PIPELINE_RESULT_CACHE_TTL"), time.Hour),
		MinDiskBytes:       uint64(v.GetInt64("PIPELINE_MIN_DISK_BYTES")),
		MaxHeapBytes:       uint64(v.GetInt64("PIPELINE_MAX_HEAP_BYTES")),
	}

	cfg.Alerts = AlertConfig{
		AtRiskRecipients: splitAndTrim(v.GetString("ALERT_AT_RISK_RECIPIENTS")),
		ReportRecipients: splitAndTrim(v.GetString("ALERT_REPORT_RECIPIENTS")),
		FailureEmails:    splitAndTrim(v.GetString("ALERT_FAILURE_EMAILS")),
		MailWorkers:      v.GetInt("ALERT_MAIL_WORKERS"),
		MailRetries:      v.GetInt("ALERT_MAIL_RETRIES"),
		MailRetryDelay:   parseDuration(v.GetString("ALERT_MAIL_RETRY_DELAY"), time.Minute),
	}

	cfg.Ops = OpsConfig{
		APIEnabled:  v.GetBool("ENABLE_OPS_API"),
		TokenSecret: v.GetString("OPS_TOKEN_SECRET"),
	}

	cfg.Exports = ExportConfig{
		Enabled:    v.GetBool("ENABLE_EXPORTS"),
		StorageDir: v.GetString("EXPORTS_STORAGE_DIR"),
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
	v.SetDefault("DB_NAME", "edusight_prism")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("DB_ANALYTICS_NAME", "edusight_analytics")
	v.SetDefault("DB_PREDICTION_CACHE_NAME", "edusight_prediction_cache")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("PIPELINE_ENABLED", true)
	v.SetDefault("PIPELINE_SCHEDULE_AT", "06:00")
	v.SetDefault("PIPELINE_CONFIG_NAME", "")
	v.SetDefault("PIPELINE_FORCE_RECALCULATION", false)
	v.SetDefault("PIPELINE_BATCH_SIZE", 500)
	v.SetDefault("PIPELINE_TASK_RETRIES", 2)
	v.SetDefault("PIPELINE_TASK_RETRY_DELAY", "5m")
	v.SetDefault("PIPELINE_TASK_TIMEOUT", "30m")
	v.SetDefault("PIPELINE_HANDOFF_MAX_ITEMS", 1000)
	v.SetDefault("PIPELINE_HANDOFF_TTL", "24h")
	v.SetDefault("PIPELINE_RESULT_CACHE_TTL", "1h")
	v.SetDefault("PIPELINE_MIN_DISK_BYTES", 512*1024*1024)
	v.SetDefault("PIPELINE_MAX_HEAP_BYTES", 2*1024*1024*1024)

	v.SetDefault("ALERT_AT_RISK_RECIPIENTS", "counselors@school.edu")
	v.SetDefault("ALERT_REPORT_RECIPIENTS", "admin@school.edu")
	v.SetDefault("ALERT_FAILURE_EMAILS", "admin@school.edu")
	v.SetDefault("ALERT_MAIL_WORKERS", 1)
	v.SetDefault("ALERT_MAIL_RETRIES", 3)
	v.SetDefault("ALERT_MAIL_RETRY_DELAY", "1m")

	v.SetDefault("ENABLE_OPS_API", true)
	v.SetDefault("OPS_TOKEN_SECRET", "dev_ops_secret")

	v.SetDefault("ENABLE_EXPORTS", false)
	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
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
