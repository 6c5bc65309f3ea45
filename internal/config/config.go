// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"activation-gate/internal/domain/model"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverMemory   = "memory"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	// Enable only when a reverse proxy overwrites those headers.
	TrustProxy bool `yaml:"trust_proxy"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // postgres|mysql|memory
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// Enabled reports whether a Redis server is configured. Cache and rate
// limiting are skipped without one.
func (r RedisConfig) Enabled() bool { return strings.TrimSpace(r.URL) != "" }

type ActivationConfig struct {
	// DeveloperCode always validates and is never consumed. Empty disables it.
	DeveloperCode    string        `yaml:"developer_code"`
	StoreTimeout     time.Duration `yaml:"store_timeout"`
	LogTimeout       time.Duration `yaml:"log_timeout"`
	ClaimMaxAttempts int           `yaml:"claim_max_attempts"`
}

type AdminConfig struct {
	APIKey       string        `yaml:"api_key"`
	JWTSecret    string        `yaml:"jwt_secret"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
	SecureCookie bool          `yaml:"secure_cookie"`
	CookieDomain string        `yaml:"cookie_domain"`
}

type RateLimitConfig struct {
	ClaimsPerMinute int `yaml:"claims_per_minute"`
}

type LocaleConfig struct {
	// Languages served for rejection messages. The first is the fallback.
	Languages []string `yaml:"languages"`
}

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Activation ActivationConfig `yaml:"activation"`
	Admin      AdminConfig      `yaml:"admin"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Locale     LocaleConfig     `yaml:"locale"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path, applies env overrides and defaults,
// then validates. A missing file is tolerated in dev mode.
func LoadConfig(path string, dev bool) (*Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && dev:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg.Runtime.Dev = dev
	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	set := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	set(&cfg.Database.URL, "DATABASE_URL")
	set(&cfg.Database.Driver, "DATABASE_DRIVER")
	set(&cfg.Redis.URL, "REDIS_URL")
	set(&cfg.Admin.APIKey, "ADMIN_API_KEY")
	set(&cfg.Admin.JWTSecret, "ADMIN_JWT_SECRET")
	set(&cfg.Activation.DeveloperCode, "DEVELOPER_CODE")
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout <= 0 {
		cfg.Server.ReadTimeout = 10 * time.Second
	}
	if cfg.Server.WriteTimeout <= 0 {
		cfg.Server.WriteTimeout = 15 * time.Second
	}
	if cfg.Server.RequestTimeout <= 0 {
		cfg.Server.RequestTimeout = 10 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	if cfg.Database.Driver == "" {
		if cfg.Runtime.Dev && cfg.Database.URL == "" {
			cfg.Database.Driver = DriverMemory
		} else {
			cfg.Database.Driver = DriverPostgres
		}
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)
	if cfg.Activation.StoreTimeout <= 0 {
		cfg.Activation.StoreTimeout = 3 * time.Second
	}
	if cfg.Activation.LogTimeout <= 0 {
		cfg.Activation.LogTimeout = time.Second
	}
	if cfg.Activation.ClaimMaxAttempts <= 0 {
		cfg.Activation.ClaimMaxAttempts = 3
	}
	cfg.Activation.DeveloperCode = strings.TrimSpace(cfg.Activation.DeveloperCode)
	if cfg.Admin.TokenTTL <= 0 {
		cfg.Admin.TokenTTL = 30 * time.Minute
	}
	if cfg.RateLimit.ClaimsPerMinute <= 0 {
		cfg.RateLimit.ClaimsPerMinute = 20
	}
	if len(cfg.Locale.Languages) == 0 {
		cfg.Locale.Languages = []string{"en", "fa"}
	}
}

// Validate performs minimal validation.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverMySQL:
		if c.Database.URL == "" {
			return errors.New("database.url is required")
		}
	case DriverMemory:
		if !c.Runtime.Dev {
			return errors.New("database.driver=memory is only allowed with -dev")
		}
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}
	if c.Admin.APIKey == "" && !c.Runtime.Dev {
		return errors.New("admin.api_key is required")
	}
	if c.Admin.JWTSecret != "" && len(c.Admin.JWTSecret) < 32 {
		return errors.New("admin.jwt_secret must be at least 32 bytes")
	}
	if c.Activation.DeveloperCode != "" {
		if _, err := model.NormalizeCode(c.Activation.DeveloperCode); err != nil {
			return errors.New("activation.developer_code must be 1-64 letters, digits, '-' or '_' and start with a letter or digit")
		}
	}
	if c.Activation.ClaimMaxAttempts > 10 {
		return errors.New("activation.claim_max_attempts must be <= 10")
	}
	return nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return 5 * time.Second
	}
	return d
}
