package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration loaded from environment variables or config files.
type Config struct {
	AppEnv          string        `mapstructure:"APP_ENV" validate:"required,oneof=development staging production test"`
	HTTPAddr        string        `mapstructure:"HTTP_ADDR" validate:"required,hostname_port"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT" validate:"required"`

	LogLevel  string `mapstructure:"LOG_LEVEL" validate:"required,oneof=debug info warn error dpanic panic fatal"`
	LogFormat string `mapstructure:"LOG_FORMAT" validate:"required,oneof=json console"`

	// DatabaseURL is a postgres URL or sqlite://<path> for local runs.
	DatabaseURL string `mapstructure:"DATABASE_URL" validate:"required,url|uri"`

	JWTSecret         string `mapstructure:"JWT_SECRET"`
	AllowLegacyUserID bool   `mapstructure:"AUTH_ALLOW_LEGACY_USER_ID"`
	Timezone          string `mapstructure:"TIMEZONE" validate:"required"`

	RateLimitRPS       float64 `mapstructure:"RATE_LIMIT_RPS" validate:"gt=0"`
	RateLimitBurst     int     `mapstructure:"RATE_LIMIT_BURST" validate:"gte=1"`
	CORSAllowedOrigins string  `mapstructure:"CORS_ALLOWED_ORIGINS"`
	TrustProxyHeaders  bool    `mapstructure:"TRUST_PROXY_HEADERS"`

	OpenAIAPIKey      string        `mapstructure:"OPENAI_API_KEY"`
	OpenAIBaseURL     string        `mapstructure:"OPENAI_BASE_URL" validate:"omitempty,url"`
	OpenAIModel       string        `mapstructure:"OPENAI_MODEL" validate:"required"`
	OpenAIVisionModel string        `mapstructure:"OPENAI_VISION_MODEL" validate:"required"`
	ClaudeAPIKey      string        `mapstructure:"CLAUDE_API_KEY"`
	ClaudeModel       string        `mapstructure:"CLAUDE_MODEL" validate:"required"`
	LLMTimeout        time.Duration `mapstructure:"LLM_TIMEOUT" validate:"required"`

	UploadDir       string        `mapstructure:"UPLOAD_DIR" validate:"required"`
	UploadMaxBytes  int64         `mapstructure:"UPLOAD_MAX_BYTES" validate:"gte=1"`
	UploadRetention time.Duration `mapstructure:"UPLOAD_RETENTION" validate:"required"`
	S3Bucket        string        `mapstructure:"S3_BUCKET"`
	S3Region        string        `mapstructure:"S3_REGION"`

	RedisAddr     string `mapstructure:"REDIS_ADDR" validate:"omitempty,hostname_port"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	AsynqConcurrency int `mapstructure:"ASYNQ_CONCURRENCY" validate:"gte=1,lte=1000"`

	GoMaxProcs int `mapstructure:"GOMAXPROCS" validate:"gte=0,lte=4096"`
}

var (
	cfg      *Config
	validate = validator.New(validator.WithRequiredStructEnabled())
)

var defaults = map[string]any{
	"APP_ENV":                   "development",
	"HTTP_ADDR":                 "0.0.0.0:8080",
	"SHUTDOWN_TIMEOUT":          "15s",
	"LOG_LEVEL":                 "info",
	"LOG_FORMAT":                "json",
	"DATABASE_URL":              "",
	"JWT_SECRET":                "",
	"AUTH_ALLOW_LEGACY_USER_ID": false,
	"TIMEZONE":                  "UTC",
	"RATE_LIMIT_RPS":            10,
	"RATE_LIMIT_BURST":          20,
	"CORS_ALLOWED_ORIGINS":      "*",
	"TRUST_PROXY_HEADERS":       false,
	"OPENAI_API_KEY":            "",
	"OPENAI_BASE_URL":           "",
	"OPENAI_MODEL":              "gpt-4",
	"OPENAI_VISION_MODEL":       "gpt-4o",
	"CLAUDE_API_KEY":            "",
	"CLAUDE_MODEL":              "claude-3-5-sonnet-20241022",
	"LLM_TIMEOUT":               "60s",
	"UPLOAD_DIR":                "uploads",
	"UPLOAD_MAX_BYTES":          10 << 20,
	"UPLOAD_RETENTION":          "24h",
	"S3_BUCKET":                 "",
	"S3_REGION":                 "",
	"REDIS_ADDR":                "",
	"REDIS_PASSWORD":            "",
	"ASYNQ_CONCURRENCY":         10,
	"GOMAXPROCS":                0,
}

// Load initializes configuration using Viper. It loads from .env if present,
// applies defaults, binds env vars, and validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
		_ = v.BindEnv(key)
	}

	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config unmarshal error: %w", err)
	}

	// Durations may arrive as plain strings from the environment.
	durations := map[string]*time.Duration{
		"SHUTDOWN_TIMEOUT": &c.ShutdownTimeout,
		"LLM_TIMEOUT":      &c.LLMTimeout,
		"UPLOAD_RETENTION": &c.UploadRetention,
	}
	for key, dst := range durations {
		s := v.GetString(key)
		if s == "" {
			continue
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = d
	}

	if err := validate.Struct(&c); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	if c.IsProduction() {
		if c.JWTSecret == "" {
			return nil, errors.New("invalid configuration: JWT_SECRET is required in production")
		}
		if c.AllowLegacyUserID {
			return nil, errors.New("invalid configuration: AUTH_ALLOW_LEGACY_USER_ID cannot be enabled in production")
		}
	}

	if c.GoMaxProcs > 0 {
		runtime.GOMAXPROCS(c.GoMaxProcs)
	}

	cfg = &c
	return cfg, nil
}

// MustLoad loads configuration or exits the process on failure.
func MustLoad() *Config {
	c, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	return c
}

// Get returns the loaded configuration. Panics if not loaded.
func Get() *Config {
	if cfg == nil {
		panic("config not loaded: call config.Load or config.MustLoad first")
	}
	return cfg
}

// IsProduction reports whether error details must be hidden from clients.
func (c *Config) IsProduction() bool { return c.AppEnv == "production" }

// Location returns the time zone used to cut calendar days.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Origins splits CORS_ALLOWED_ORIGINS on commas.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
