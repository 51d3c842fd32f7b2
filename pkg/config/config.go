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

	Database  DatabaseConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Log       LogConfig
	Scheduler SchedulerConfig
	Risk      RiskConfig
	Capacity  CapacityConfig
	Alerts    AlertsConfig
	Export    ExportConfig
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

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SchedulerConfig governs the slot optimizer.
type SchedulerConfig struct {
	SlotGranularityMinutes int
	AverageRevenue         float64
	ResultCacheTTL         time.Duration
	MaxRequestsPerCall     int
}

// RiskConfig tunes the no-show risk estimator and its cache. An empty
// OracleURL disables the prediction service; assessments then use the
// heuristic estimator.
type RiskConfig struct {
	CacheTTL       time.Duration
	SweepInterval  time.Duration
	BatchChunkSize int
	OracleURL      string
	OracleAPIKey   string
	OracleTimeout  time.Duration
}

// CapacityConfig governs the provider capacity planner.
type CapacityConfig struct {
	CacheTTL       time.Duration
	BaselineSlots  int
	TargetDefaults float64
}

// ExportConfig governs archived plan exports and their download links.
type ExportConfig struct {
	Dir        string
	SignSecret string
	LinkTTL    time.Duration
}

// AlertsConfig tunes high-risk alert dispatch.
type AlertsConfig struct {
	Cooldown   time.Duration
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
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

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Scheduler = SchedulerConfig{
		SlotGranularityMinutes: v.GetInt("SCHEDULER_SLOT_GRANULARITY_MINUTES"),
		AverageRevenue:         v.GetFloat64("SCHEDULER_AVERAGE_REVENUE"),
		ResultCacheTTL:         parseDuration(v.GetString("SCHEDULER_RESULT_CACHE_TTL"), 5*time.Minute),
		MaxRequestsPerCall:     v.GetInt("SCHEDULER_MAX_REQUESTS_PER_CALL"),
	}

	cfg.Risk = RiskConfig{
		CacheTTL:       parseDuration(v.GetString("RISK_CACHE_TTL"), 5*time.Minute),
		SweepInterval:  parseDuration(v.GetString("RISK_SWEEP_INTERVAL"), 5*time.Minute),
		BatchChunkSize: v.GetInt("RISK_BATCH_CHUNK_SIZE"),
		OracleURL:      v.GetString("RISK_ORACLE_URL"),
		OracleAPIKey:   v.GetString("RISK_ORACLE_API_KEY"),
		OracleTimeout:  parseDuration(v.GetString("RISK_ORACLE_TIMEOUT"), 3*time.Second),
	}

	cfg.Capacity = CapacityConfig{
		CacheTTL:       parseDuration(v.GetString("CAPACITY_CACHE_TTL"), 15*time.Minute),
		BaselineSlots:  v.GetInt("CAPACITY_BASELINE_SLOTS"),
		TargetDefaults: v.GetFloat64("CAPACITY_DEFAULT_TARGET_UTILIZATION"),
	}

	cfg.Export = ExportConfig{
		Dir:        v.GetString("EXPORT_DIR"),
		SignSecret: v.GetString("EXPORT_SIGN_SECRET"),
		LinkTTL:    parseDuration(v.GetString("EXPORT_LINK_TTL"), 24*time.Hour),
	}

	cfg.Alerts = AlertsConfig{
		Cooldown:   parseDuration(v.GetString("ALERTS_COOLDOWN"), 15*time.Minute),
		Workers:    v.GetInt("ALERTS_WORKERS"),
		MaxRetries: v.GetInt("ALERTS_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("ALERTS_RETRY_DELAY"), time.Second),
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
	v.SetDefault("DB_NAME", "clinic_scheduling")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SCHEDULER_SLOT_GRANULARITY_MINUTES", 15)
	v.SetDefault("SCHEDULER_AVERAGE_REVENUE", 150.0)
	v.SetDefault("SCHEDULER_RESULT_CACHE_TTL", "5m")
	v.SetDefault("SCHEDULER_MAX_REQUESTS_PER_CALL", 256)

	v.SetDefault("RISK_CACHE_TTL", "5m")
	v.SetDefault("RISK_SWEEP_INTERVAL", "5m")
	v.SetDefault("RISK_BATCH_CHUNK_SIZE", 10)
	v.SetDefault("RISK_ORACLE_URL", "")
	v.SetDefault("RISK_ORACLE_API_KEY", "")
	v.SetDefault("RISK_ORACLE_TIMEOUT", "3s")

	v.SetDefault("CAPACITY_CACHE_TTL", "15m")
	v.SetDefault("CAPACITY_BASELINE_SLOTS", 32)
	v.SetDefault("CAPACITY_DEFAULT_TARGET_UTILIZATION", 0.75)

	v.SetDefault("EXPORT_DIR", "./exports")
	v.SetDefault("EXPORT_SIGN_SECRET", "dev-export-secret")
	v.SetDefault("EXPORT_LINK_TTL", "24h")

	v.SetDefault("ALERTS_COOLDOWN", "15m")
	v.SetDefault("ALERTS_WORKERS", 2)
	v.SetDefault("ALERTS_MAX_RETRIES", 3)
	v.SetDefault("ALERTS_RETRY_DELAY", "1s")
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
