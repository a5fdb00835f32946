package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the shopping assistant service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	DBSSL      bool

	UploadDir      string
	StorageBackend string

	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3UseSSL    bool
	S3PublicURL string

	AnthropicAPIKey     string
	ChatModel           string
	ChatAdapterMode     string
	ChatUpstreamTimeout time.Duration

	SessionIdleTimeout time.Duration
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "shopassist"),

		DBHost:     stringsTrimSpace("DB_HOST"),
		DBPort:     5432,
		DBName:     envOrDefault("DB_NAME", "shopassist"),
		DBUser:     envOrDefault("DB_USER", "shopassist"),
		DBPassword: stringsTrimSpace("DB_PASSWORD"),

		UploadDir:      envOrDefault("UPLOAD_DIR", "uploads"),
		StorageBackend: strings.ToLower(envOrDefault("STORAGE_BACKEND", "local")),

		S3Endpoint:  stringsTrimSpace("S3_ENDPOINT"),
		S3AccessKey: stringsTrimSpace("S3_ACCESS_KEY"),
		S3SecretKey: stringsTrimSpace("S3_SECRET_KEY"),
		S3Bucket:    envOrDefault("S3_BUCKET", "products"),
		S3PublicURL: stringsTrimSpace("S3_PUBLIC_URL"),

		AnthropicAPIKey: stringsTrimSpace("ANTHROPIC_API_KEY"),
		ChatModel:       envOrDefault("CHAT_MODEL", "claude-3-5-sonnet-20241022"),
		ChatAdapterMode: strings.ToLower(envOrDefault("CHAT_ADAPTER_MODE", "auto")),

		ShutdownTimeout:     15 * time.Second,
		ChatUpstreamTimeout: 60 * time.Second,
		SessionIdleTimeout:  10 * time.Minute,
	}

	var err error
	cfg.DBPort, err = intFromEnv("DB_PORT", cfg.DBPort)
	if err != nil {
		return Config{}, err
	}
	cfg.DBSSL, err = boolFromEnv("DB_SSL", cfg.DBSSL)
	if err != nil {
		return Config{}, err
	}
	cfg.S3UseSSL, err = boolFromEnv("S3_USE_SSL", true)
	if err != nil {
		return Config{}, err
	}
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.ChatUpstreamTimeout, err = durationFromEnv("CHAT_UPSTREAM_TIMEOUT", cfg.ChatUpstreamTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionIdleTimeout, err = durationFromEnv("SESSION_IDLE_TIMEOUT", cfg.SessionIdleTimeout)
	if err != nil {
		return Config{}, err
	}

	if cfg.DBPort <= 0 || cfg.DBPort > 65535 {
		return Config{}, fmt.Errorf("DB_PORT must be in 1..65535")
	}
	switch cfg.StorageBackend {
	case "local", "s3":
	default:
		return Config{}, fmt.Errorf("invalid STORAGE_BACKEND: %q (expected local|s3)", cfg.StorageBackend)
	}
	if cfg.StorageBackend == "s3" && cfg.S3Endpoint == "" {
		return Config{}, fmt.Errorf("STORAGE_BACKEND=s3 but S3_ENDPOINT is not set")
	}
	switch cfg.ChatAdapterMode {
	case "auto", "anthropic", "mock":
	default:
		return Config{}, fmt.Errorf("invalid CHAT_ADAPTER_MODE: %q (expected auto|anthropic|mock)", cfg.ChatAdapterMode)
	}
	if cfg.ChatUpstreamTimeout < time.Second {
		return Config{}, fmt.Errorf("CHAT_UPSTREAM_TIMEOUT must be at least 1s")
	}
	if cfg.SessionIdleTimeout < 5*time.Second {
		return Config{}, fmt.Errorf("SESSION_IDLE_TIMEOUT must be at least 5s")
	}

	return cfg, nil
}

// DatabaseURL composes a pgx DSN from the DB_* settings. Empty when no
// database host is configured, which selects the in-memory store.
func (c Config) DatabaseURL() string {
	if c.DBHost == "" {
		return ""
	}
	sslMode := "disable"
	if c.DBSSL {
		sslMode = "require"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     fmt.Sprintf("%s:%d", c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + sslMode,
	}
	return u.String()
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
