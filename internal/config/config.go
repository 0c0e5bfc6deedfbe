// Package config loads the keyswap server configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/evcraddock/keyswap/internal/finance"
)

// Config holds all server configuration.
type Config struct {
	Addr     string   `yaml:"addr"`
	DBPath   string   `yaml:"db_path"`
	DevMode  bool     `yaml:"dev_mode"`
	BaseURL  string   `yaml:"base_url"`
	Metrics  bool     `yaml:"metrics"`
	Auth     Auth     `yaml:"auth"`
	Geocode  Geocode  `yaml:"geocode"`
	Redis    Redis    `yaml:"redis"`
	SMTP     SMTP     `yaml:"smtp"`
	Finance  Finance  `yaml:"finance"`
	Schedule Schedule `yaml:"schedule"`

	// TrustProxy takes the client address from X-Forwarded-For and
	// X-Real-IP. Enable only behind a proxy that overwrites them.
	TrustProxy bool `yaml:"trust_proxy"`
}

// Auth configures accounts and access tokens.
type Auth struct {
	JWTSecret  string        `yaml:"jwt_secret"`
	SessionTTL time.Duration `yaml:"session_ttl"`
	LoginRate  float64       `yaml:"login_rate"` // signup/login attempts per second per IP
	LoginBurst int           `yaml:"login_burst"`
}

// Geocode configures the Mapbox client and its cache.
type Geocode struct {
	MapboxToken string        `yaml:"mapbox_token"`
	BaseURL     string        `yaml:"base_url"`
	RPS         float64       `yaml:"rps"`
	CacheTTL    time.Duration `yaml:"cache_ttl"`
}

// Redis configures the optional geocode cache backend.
type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// SMTP configures outbound inquiry email.
type SMTP struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
	User string `yaml:"user"`
	Pass string `yaml:"pass"`
	From string `yaml:"from"`
}

// Configured reports whether enough is set to send mail.
func (s SMTP) Configured() bool {
	return s.Host != "" && s.From != ""
}

// Schedule configures background jobs.
type Schedule struct {
	CleanupCron string `yaml:"cleanup_cron"`
}

// Finance holds the calculator assumptions.
type Finance struct {
	InterestRatePercent float64 `yaml:"interest_rate_percent"`
	LoanTermYears       int     `yaml:"loan_term_years"`
	StrictInput         bool    `yaml:"strict_input"`
}

// Assumptions returns the configured loan assumptions.
func (f Finance) Assumptions() finance.Assumptions {
	return finance.Assumptions{
		InterestRatePercent: f.InterestRatePercent,
		LoanTermYears:       f.LoanTermYears,
	}
}

// ParsePolicy returns the configured amount parsing policy.
func (f Finance) ParsePolicy() finance.ParsePolicy {
	return finance.ParsePolicyFor(f.StrictInput)
}

// DefaultPath returns ~/.config/keyswap/server.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "keyswap", "server.yaml")
	}
	return filepath.Join(home, ".config", "keyswap", "server.yaml")
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	strs := []struct {
		key string
		dst *string
	}{
		{"KS_ADDR", &cfg.Addr},
		{"KS_DB_PATH", &cfg.DBPath},
		{"KS_BASE_URL", &cfg.BaseURL},
		{"KS_JWT_SECRET", &cfg.Auth.JWTSecret},
		{"KS_MAPBOX_TOKEN", &cfg.Geocode.MapboxToken},
		{"KS_MAPBOX_URL", &cfg.Geocode.BaseURL},
		{"KS_REDIS_ADDR", &cfg.Redis.Addr},
		{"KS_REDIS_PASSWORD", &cfg.Redis.Password},
		{"KS_SMTP_HOST", &cfg.SMTP.Host},
		{"KS_SMTP_PORT", &cfg.SMTP.Port},
		{"KS_SMTP_USER", &cfg.SMTP.User},
		{"KS_SMTP_PASS", &cfg.SMTP.Pass},
		{"KS_SMTP_FROM", &cfg.SMTP.From},
		{"KS_CLEANUP_CRON", &cfg.Schedule.CleanupCron},
	}
	for _, s := range strs {
		if v := os.Getenv(s.key); v != "" {
			*s.dst = v
		}
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"KS_DEV_MODE", &cfg.DevMode},
		{"KS_METRICS", &cfg.Metrics},
		{"KS_TRUST_PROXY", &cfg.TrustProxy},
		{"KS_STRICT_INPUT", &cfg.Finance.StrictInput},
	}
	for _, b := range bools {
		if v := os.Getenv(b.key); v != "" {
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", b.key, err)
			}
			*b.dst = parsed
		}
	}

	if v := os.Getenv("KS_SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("KS_SESSION_TTL: %w", err)
		}
		cfg.Auth.SessionTTL = d
	}
	if v := os.Getenv("KS_GEOCODE_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("KS_GEOCODE_CACHE_TTL: %w", err)
		}
		cfg.Geocode.CacheTTL = d
	}
	if v := os.Getenv("KS_MAPBOX_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("KS_MAPBOX_RPS: %w", err)
		}
		cfg.Geocode.RPS = f
	}
	if v := os.Getenv("KS_REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("KS_REDIS_DB: %w", err)
		}
		cfg.Redis.DB = n
	}
	if v := os.Getenv("KS_INTEREST_RATE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("KS_INTEREST_RATE: %w", err)
		}
		cfg.Finance.InterestRatePercent = f
	}
	if v := os.Getenv("KS_LOAN_TERM_YEARS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("KS_LOAN_TERM_YEARS: %w", err)
		}
		cfg.Finance.LoanTermYears = n
	}

	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	if cfg.Auth.SessionTTL == 0 {
		cfg.Auth.SessionTTL = 7 * 24 * time.Hour
	}
	if cfg.Auth.LoginRate == 0 {
		cfg.Auth.LoginRate = 1
	}
	if cfg.Auth.LoginBurst == 0 {
		cfg.Auth.LoginBurst = 5
	}
	if cfg.Geocode.BaseURL == "" {
		cfg.Geocode.BaseURL = "https://api.mapbox.com"
	}
	if cfg.Geocode.RPS == 0 {
		cfg.Geocode.RPS = 10
	}
	if cfg.Geocode.CacheTTL == 0 {
		cfg.Geocode.CacheTTL = 24 * time.Hour
	}
	if cfg.SMTP.Port == "" {
		cfg.SMTP.Port = "587"
	}
	if cfg.Finance.InterestRatePercent == 0 {
		cfg.Finance.InterestRatePercent = finance.DefaultInterestRatePercent
	}
	if cfg.Finance.LoanTermYears == 0 {
		cfg.Finance.LoanTermYears = finance.DefaultLoanTermYears
	}
	if cfg.Schedule.CleanupCron == "" {
		cfg.Schedule.CleanupCron = "@hourly"
	}
}

// Validate checks that required fields are set and values are usable.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" && !c.DevMode {
		return fmt.Errorf("auth.jwt_secret is required outside dev mode")
	}
	if c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 bytes")
	}
	if c.Auth.SessionTTL < time.Minute {
		return fmt.Errorf("auth.session_ttl must be at least 1m")
	}
	if c.Geocode.RPS < 0 {
		return fmt.Errorf("geocode.rps must not be negative")
	}
	if err := c.Finance.Assumptions().Validate(); err != nil {
		return fmt.Errorf("finance: %w", err)
	}
	return nil
}
