package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/labstack/gommon/random"
)

// Config holds the application configuration
type Config struct {
	Environment string `toml:"environment"`
	Port        int    `toml:"port"`
	LogLevel    string `toml:"log_level"`
	DatabaseURL string `toml:"database_url"`

	Auth     AuthConfig     `toml:"auth"`
	Redis    RedisConfig    `toml:"redis"`
	Minio    MinioConfig    `toml:"minio"`
	Billing  BillingConfig  `toml:"billing"`
	Jobs     JobsConfig     `toml:"jobs"`
	Tracing  TracingConfig  `toml:"tracing"`
	CORS     []string       `toml:"cors_allowed_origins"`

	// GeneratedJWTSecret is set when no secret was configured and a random one was used.
	GeneratedJWTSecret bool `toml:"-"`
}

type AuthConfig struct {
	JWTSecret              string `toml:"jwt_secret"`
	Issuer                 string `toml:"issuer"`
	AccessTokenTTLSeconds  int    `toml:"access_token_ttl_seconds"`
	RefreshTokenTTLSeconds int    `toml:"refresh_token_ttl_seconds"`
	JWKSURL                string `toml:"jwks_url"`
}

type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

type MinioConfig struct {
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	UseSSL    bool   `toml:"use_ssl"`
	Bucket    string `toml:"bucket"`
}

type BillingConfig struct {
	CommissionRate float64 `toml:"commission_rate"`
}

type JobsConfig struct {
	IntervalMinutes   int `toml:"interval_minutes"`
	LeaseReminderDays int `toml:"lease_reminder_days"`
}

type TracingConfig struct {
	OTLPEndpoint string `toml:"otlp_endpoint"`
}

func (a AuthConfig) AccessTTL() time.Duration {
	return time.Duration(a.AccessTokenTTLSeconds) * time.Second
}

func (a AuthConfig) RefreshTTL() time.Duration {
	return time.Duration(a.RefreshTokenTTLSeconds) * time.Second
}

func (j JobsConfig) Interval() time.Duration {
	return time.Duration(j.IntervalMinutes) * time.Minute
}

func Default() *Config {
	return &Config{
		Environment: "development",
		Port:        8080,
		LogLevel:    "info",
		Auth: AuthConfig{
			Issuer:                 "rentalhub-auth",
			AccessTokenTTLSeconds:  3600,
			RefreshTokenTTLSeconds: 604800,
		},
		Redis: RedisConfig{Addr: "localhost:6379"},
		Minio: MinioConfig{
			Endpoint: "localhost:9000",
			Bucket:   "property-images",
		},
		Billing: BillingConfig{CommissionRate: 0.05},
		Jobs: JobsConfig{
			IntervalMinutes:   60,
			LeaseReminderDays: 30,
		},
		CORS: []string{"http://localhost:5173", "http://localhost:3000"},
	}
}

// Load reads .env, then the TOML file named by RENTALHUB_CONFIG, then environment variables.
// Environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("RENTALHUB_CONFIG"); path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Billing.CommissionRate < 0 || cfg.Billing.CommissionRate > 1 {
		return nil, fmt.Errorf("invalid COMMISSION_RATE: %v must be between 0 and 1", cfg.Billing.CommissionRate)
	}
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = random.String(32)
		cfg.GeneratedJWTSecret = true
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Environment, "ENVIRONMENT")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	setString(&cfg.Auth.Issuer, "JWT_ISSUER")
	setString(&cfg.Auth.JWKSURL, "JWKS_URL")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setString(&cfg.Minio.Endpoint, "MINIO_ENDPOINT")
	setString(&cfg.Minio.AccessKey, "MINIO_ACCESS_KEY")
	setString(&cfg.Minio.SecretKey, "MINIO_SECRET_KEY")
	setString(&cfg.Minio.Bucket, "MINIO_BUCKET")
	setString(&cfg.Tracing.OTLPEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	if origins := parseCSVEnv("CORS_ALLOWED_ORIGINS"); origins != nil {
		cfg.CORS = origins
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"PORT", &cfg.Port},
		{"ACCESS_TOKEN_TTL_SECONDS", &cfg.Auth.AccessTokenTTLSeconds},
		{"REFRESH_TOKEN_TTL_SECONDS", &cfg.Auth.RefreshTokenTTLSeconds},
		{"REDIS_DB", &cfg.Redis.DB},
		{"LEASE_REMINDER_DAYS", &cfg.Jobs.LeaseReminderDays},
		{"JOB_INTERVAL_MINUTES", &cfg.Jobs.IntervalMinutes},
	}
	for _, i := range ints {
		if err := setInt(i.dst, i.key); err != nil {
			return err
		}
	}

	if v := os.Getenv("MINIO_USE_SSL"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid MINIO_USE_SSL: %w", err)
		}
		cfg.Minio.UseSSL = b
	}
	if v := os.Getenv("COMMISSION_RATE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid COMMISSION_RATE: %w", err)
		}
		cfg.Billing.CommissionRate = f
	}
	return nil
}

func setString(dst *string, key string) {
	if value := os.Getenv(key); value != "" {
		*dst = value
	}
}

func setInt(dst *int, key string) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func parseCSVEnv(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
