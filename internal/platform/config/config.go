package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const defaultJWTSecret = "change-me"

type Config struct {
	Addr                string        `toml:"addr"`
	Environment         string        `toml:"environment"`
	StoreDriver         string        `toml:"store_driver"`
	DatabaseURL         string        `toml:"database_url"`
	MongoURI            string        `toml:"mongo_uri"`
	MongoDatabase       string        `toml:"mongo_database"`
	RedisURL            string        `toml:"redis_url"`
	LockDriver          string        `toml:"lock_driver"`
	LockTTL             time.Duration `toml:"lock_ttl"`
	JWTSecret           string        `toml:"jwt_secret"`
	TokenTTL            time.Duration `toml:"jwt_ttl"`
	RefreshTokenTTL     time.Duration `toml:"jwt_refresh_ttl"`
	ResetTokenTTL       time.Duration `toml:"reset_token_ttl"`
	AllowSelfSignup     bool          `toml:"allow_self_signup"`
	SeedAdminEmail      string        `toml:"seed_admin_email"`
	SeedAdminPassword   string        `toml:"seed_admin_password"`
	SeedHolidayRegion   string        `toml:"seed_holiday_region"`
	RunMigrations       bool          `toml:"run_migrations"`
	RunSeed             bool          `toml:"run_seed"`
	EmailEnabled        bool          `toml:"email_enabled"`
	EmailFrom           string        `toml:"email_from"`
	SMTPHost            string        `toml:"smtp_host"`
	SMTPPort            int           `toml:"smtp_port"`
	SMTPUser            string        `toml:"smtp_user"`
	SMTPPassword        string        `toml:"smtp_password"`
	SMTPUseTLS          bool          `toml:"smtp_use_tls"`
	FrontendURL         string        `toml:"frontend_url"`
	FrontendDir         string        `toml:"frontend_dir"`
	CORSAllowedOrigins  []string      `toml:"cors_allowed_origins"`
	MaxBodyBytes        int64         `toml:"max_body_bytes"`
	RateLimitRequests   int           `toml:"rate_limit_requests"`
	RateLimitWindow     time.Duration `toml:"rate_limit_window"`
	LogLevel            string        `toml:"log_level"`
	LogFile             string        `toml:"log_file"`
	LogFormat           string        `toml:"log_format"`
	KafkaBrokers        []string      `toml:"kafka_brokers"`
	KafkaTopic          string        `toml:"kafka_topic"`
	LeaveRecreditPolicy string        `toml:"leave_recredit_policy"`
	LeaveTimezone       string        `toml:"leave_timezone"`
	MetricsEnabled      bool          `toml:"metrics_enabled"`
	JobQueueSize        int           `toml:"job_queue_size"`
	JobWorkers          int           `toml:"job_workers"`
}

func Defaults() Config {
	return Config{
		Addr:                ":8080",
		Environment:         "development",
		StoreDriver:         "postgres",
		MongoDatabase:       "leavestride",
		LockDriver:          "local",
		LockTTL:             10 * time.Second,
		JWTSecret:           defaultJWTSecret,
		TokenTTL:            24 * time.Hour,
		RefreshTokenTTL:     7 * 24 * time.Hour,
		ResetTokenTTL:       time.Hour,
		AllowSelfSignup:     true,
		RunMigrations:       true,
		RunSeed:             true,
		EmailFrom:           "no-reply@leavestride.local",
		SMTPPort:            587,
		SMTPUseTLS:          true,
		FrontendURL:         "http://localhost:5173",
		FrontendDir:         "web/dist",
		CORSAllowedOrigins:  []string{"http://localhost:5173"},
		MaxBodyBytes:        10 << 20,
		RateLimitRequests:   100,
		RateLimitWindow:     15 * time.Minute,
		LogLevel:            "info",
		LogFormat:           "console",
		KafkaTopic:          "leavestride.events",
		LeaveRecreditPolicy: "never",
		LeaveTimezone:       "UTC",
		MetricsEnabled:      true,
		JobQueueSize:        128,
		JobWorkers:          2,
	}
}

// Load layers defaults, an optional .env, an optional TOML file and the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(c *Config) {
	c.Addr = getEnv("APP_ADDR", c.Addr)
	c.Environment = getEnv("APP_ENV", c.Environment)
	c.StoreDriver = strings.ToLower(getEnv("STORE_DRIVER", c.StoreDriver))
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.MongoURI = getEnv("MONGO_URI", c.MongoURI)
	c.MongoDatabase = getEnv("MONGO_DATABASE", c.MongoDatabase)
	c.RedisURL = getEnv("REDIS_URL", c.RedisURL)
	c.LockDriver = strings.ToLower(getEnv("LOCK_DRIVER", c.LockDriver))
	c.LockTTL = getEnvDuration("LOCK_TTL", c.LockTTL)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.TokenTTL = getEnvDuration("JWT_TTL", c.TokenTTL)
	c.RefreshTokenTTL = getEnvDuration("JWT_REFRESH_TTL", c.RefreshTokenTTL)
	c.ResetTokenTTL = getEnvDuration("RESET_TOKEN_TTL", c.ResetTokenTTL)
	c.AllowSelfSignup = getEnvBool("ALLOW_SELF_SIGNUP", c.AllowSelfSignup)
	c.SeedAdminEmail = getEnv("SEED_ADMIN_EMAIL", c.SeedAdminEmail)
	c.SeedAdminPassword = getEnv("SEED_ADMIN_PASSWORD", c.SeedAdminPassword)
	c.SeedHolidayRegion = strings.ToLower(getEnv("SEED_HOLIDAY_REGION", c.SeedHolidayRegion))
	c.RunMigrations = getEnvBool("RUN_MIGRATIONS", c.RunMigrations)
	c.RunSeed = getEnvBool("RUN_SEED", c.RunSeed)
	c.EmailEnabled = getEnvBool("EMAIL_ENABLED", c.EmailEnabled)
	c.EmailFrom = getEnv("EMAIL_FROM", c.EmailFrom)
	c.SMTPHost = getEnv("SMTP_HOST", c.SMTPHost)
	c.SMTPPort = getEnvInt("SMTP_PORT", c.SMTPPort)
	c.SMTPUser = getEnv("SMTP_USER", c.SMTPUser)
	c.SMTPPassword = getEnv("SMTP_PASSWORD", c.SMTPPassword)
	c.SMTPUseTLS = getEnvBool("SMTP_USE_TLS", c.SMTPUseTLS)
	c.FrontendURL = getEnv("FRONTEND_URL", c.FrontendURL)
	c.FrontendDir = getEnv("FRONTEND_DIR", c.FrontendDir)
	c.CORSAllowedOrigins = getEnvList("CORS_ALLOWED_ORIGINS", c.CORSAllowedOrigins)
	c.MaxBodyBytes = int64(getEnvInt("MAX_BODY_BYTES", int(c.MaxBodyBytes)))
	c.RateLimitRequests = getEnvInt("RATE_LIMIT_REQUESTS", c.RateLimitRequests)
	c.RateLimitWindow = getEnvDuration("RATE_LIMIT_WINDOW", c.RateLimitWindow)
	c.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", c.LogLevel))
	c.LogFile = getEnv("LOG_FILE", c.LogFile)
	c.LogFormat = strings.ToLower(getEnv("LOG_FORMAT", c.LogFormat))
	c.KafkaBrokers = getEnvList("KAFKA_BROKERS", c.KafkaBrokers)
	c.KafkaTopic = getEnv("KAFKA_TOPIC", c.KafkaTopic)
	c.LeaveRecreditPolicy = strings.ToLower(getEnv("LEAVE_RECREDIT_POLICY", c.LeaveRecreditPolicy))
	c.LeaveTimezone = getEnv("LEAVE_TIMEZONE", c.LeaveTimezone)
	c.MetricsEnabled = getEnvBool("METRICS_ENABLED", c.MetricsEnabled)
	c.JobQueueSize = getEnvInt("JOB_QUEUE_SIZE", c.JobQueueSize)
	c.JobWorkers = getEnvInt("JOB_WORKERS", c.JobWorkers)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.LeaveTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c Config) Validate() error {
	switch c.StoreDriver {
	case "postgres":
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	case "mongo":
		if strings.TrimSpace(c.MongoURI) == "" {
			return fmt.Errorf("MONGO_URI is required for the mongo store")
		}
	case "memory":
		if c.IsProduction() {
			return fmt.Errorf("STORE_DRIVER=memory is not allowed in production")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	switch c.LockDriver {
	case "local":
	case "redis":
		if strings.TrimSpace(c.RedisURL) == "" {
			return fmt.Errorf("REDIS_URL must be set when LOCK_DRIVER is redis")
		}
	default:
		return fmt.Errorf("unknown LOCK_DRIVER %q", c.LockDriver)
	}
	if c.IsProduction() {
		if strings.TrimSpace(c.JWTSecret) == "" || c.JWTSecret == defaultJWTSecret {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if c.RunSeed && c.SeedAdminEmail != "" && strings.TrimSpace(c.SeedAdminPassword) == "" {
			return fmt.Errorf("SEED_ADMIN_PASSWORD must be set or RUN_SEED disabled in production")
		}
	}
	if _, err := time.LoadLocation(c.LeaveTimezone); err != nil {
		return fmt.Errorf("LEAVE_TIMEZONE: %w", err)
	}
	if c.LeaveRecreditPolicy != "never" && c.LeaveRecreditPolicy != "on_delete" {
		return fmt.Errorf("LEAVE_RECREDIT_POLICY must be never or on_delete")
	}
	if c.TokenTTL <= 0 || c.RefreshTokenTTL <= 0 || c.ResetTokenTTL <= 0 {
		return fmt.Errorf("token lifetimes must be positive")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitRequests <= 0 || c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive")
	}
	if c.JobQueueSize <= 0 || c.JobWorkers <= 0 {
		return fmt.Errorf("JOB_QUEUE_SIZE and JOB_WORKERS must be positive")
	}
	if c.EmailEnabled && c.SMTPHost == "" {
		return fmt.Errorf("SMTP_HOST must be set when EMAIL_ENABLED is true")
	}
	return nil
}
