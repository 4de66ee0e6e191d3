package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config file location, relative to the
// working directory.
const ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"logLevel"`

	DatabaseURL string `yaml:"databaseURL"`

	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`

	SessionStrategy string `yaml:"sessionStrategy"`
	SessionTTL      string `yaml:"sessionTTL"`
	RefreshTTL      string `yaml:"refreshTTL"`
	JWTSecret       string `yaml:"jwtSecret"`

	AdminPhone    string `yaml:"adminPhone"`
	AdminPassword string `yaml:"adminPassword"`

	TrustedProxyCIDRs          []string `yaml:"trustedProxyCidrs"`
	RegisterRateLimitPerMinute int      `yaml:"registerRateLimitPerMinute"`
	LoginRateLimitPerMinute    int      `yaml:"loginRateLimitPerMinute"`

	MinioEndpoint  string `yaml:"minioEndpoint"`
	MinioAccessKey string `yaml:"minioAccessKey"`
	MinioSecretKey string `yaml:"minioSecretKey"`
	MinioBucket    string `yaml:"minioBucket"`
	MinioUseSSL    bool   `yaml:"minioUseSSL"`

	NotifyStream      string `yaml:"notifyStream"`
	NotifyGroup       string `yaml:"notifyGroup"`
	NotifyConcurrency int    `yaml:"notifyConcurrency"`
}

// Load reads config from path (defaults to config.yaml), applies
// environment overrides, and validates the result.
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = strings.TrimSpace(v)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.TrimSpace(v)
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("SESSION_STRATEGY"); v != "" {
		cfg.SessionStrategy = strings.TrimSpace(v)
	}
	if v := os.Getenv("SESSION_TTL"); v != "" {
		cfg.SessionTTL = strings.TrimSpace(v)
	}
	if v := os.Getenv("REFRESH_TTL"); v != "" {
		cfg.RefreshTTL = strings.TrimSpace(v)
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("ADMIN_PHONE"); v != "" {
		cfg.AdminPhone = strings.TrimSpace(v)
	}
	if v := os.Getenv("ADMIN_PASSWORD"); v != "" {
		cfg.AdminPassword = v
	}
	if v := os.Getenv("TRUSTED_PROXY_CIDRS"); v != "" {
		cfg.TrustedProxyCIDRs = splitCSV(v)
	}
	if v := os.Getenv("REGISTER_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RegisterRateLimitPerMinute = n
		}
	}
	if v := os.Getenv("LOGIN_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.LoginRateLimitPerMinute = n
		}
	}
	if v := os.Getenv("MINIO_ENDPOINT"); v != "" {
		cfg.MinioEndpoint = strings.TrimSpace(v)
	}
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		cfg.MinioAccessKey = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		cfg.MinioSecretKey = v
	}
	if v := os.Getenv("MINIO_BUCKET"); v != "" {
		cfg.MinioBucket = strings.TrimSpace(v)
	}
	if v := os.Getenv("MINIO_USE_SSL"); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			cfg.MinioUseSSL = b
		}
	}
	if v := os.Getenv("NOTIFY_STREAM"); v != "" {
		cfg.NotifyStream = strings.TrimSpace(v)
	}
	if v := os.Getenv("NOTIFY_GROUP"); v != "" {
		cfg.NotifyGroup = strings.TrimSpace(v)
	}
	if v := os.Getenv("NOTIFY_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.NotifyConcurrency = n
		}
	}
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml or PORT)")
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return errors.New("config: databaseURL is required (set in config.yaml or DATABASE_URL)")
	}
	strategy := strings.ToLower(strings.TrimSpace(cfg.SessionStrategy))
	switch strategy {
	case "", "jwt":
		if strings.TrimSpace(cfg.JWTSecret) == "" {
			return errors.New("config: jwtSecret is required for the jwt session strategy")
		}
	case "redis":
		if strings.TrimSpace(cfg.RedisAddr) == "" {
			return errors.New("config: redisAddr is required for the redis session strategy")
		}
	default:
		return fmt.Errorf("config: unknown sessionStrategy %q", cfg.SessionStrategy)
	}
	if cfg.SessionTTL != "" {
		if _, err := time.ParseDuration(cfg.SessionTTL); err != nil {
			return fmt.Errorf("config: invalid sessionTTL: %w", err)
		}
	}
	if cfg.RefreshTTL != "" {
		if _, err := time.ParseDuration(cfg.RefreshTTL); err != nil {
			return fmt.Errorf("config: invalid refreshTTL: %w", err)
		}
	}
	return nil
}

// ParseSessionTTL converts the configured TTL, defaulting to 24h.
func ParseSessionTTL(raw string) (time.Duration, error) {
	return parseTTL(raw, "sessionTTL", 24*time.Hour)
}

// ParseRefreshTTL converts the configured refresh TTL, defaulting to
// 30 days.
func ParseRefreshTTL(raw string) (time.Duration, error) {
	return parseTTL(raw, "refreshTTL", 30*24*time.Hour)
}

func parseTTL(raw, name string, fallback time.Duration) (time.Duration, error) {
	if strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	ttl, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", name, err)
	}
	if ttl <= 0 {
		return 0, fmt.Errorf("%s must be positive", name)
	}
	return ttl, nil
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
