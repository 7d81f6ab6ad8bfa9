package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Black-And-White-Club/stride-bot/app/observability"
)

// Config struct to hold the configuration settings
type Config struct {
	Postgres      PostgresConfig      `yaml:"postgres"`
	NATS          NATSConfig          `yaml:"nats"`
	HTTP          HTTPConfig          `yaml:"http"`
	Observability ObservabilityConfig `yaml:"observability"`
	Ledger        LedgerConfig        `yaml:"ledger"`
	Leaderboard   LeaderboardConfig   `yaml:"leaderboard"`
	Report        ReportConfig        `yaml:"report"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN         string `yaml:"dsn"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

// NATSConfig holds NATS configuration.
type NATSConfig struct {
	URL string `yaml:"url"`
}

// HTTPConfig holds the read API / metrics listener configuration.
type HTTPConfig struct {
	Address              string  `yaml:"address"`
	RateLimit            float64 `yaml:"rate_limit"`
	RateBurst            int     `yaml:"rate_burst"`
	LeaderboardRateLimit float64 `yaml:"leaderboard_rate_limit"`
	LeaderboardRateBurst int     `yaml:"leaderboard_rate_burst"`
}

// ObservabilityConfig holds configuration for observability components
type ObservabilityConfig struct {
	Environment     string  `yaml:"environment"`
	LogLevel        string  `yaml:"log_level"`
	OTLPEndpoint    string  `yaml:"otlp_endpoint"`
	OTLPInsecure    bool    `yaml:"otlp_insecure"`
	TraceSampleRate float64 `yaml:"trace_sample_rate"`
}

// LedgerConfig controls how "today" is evaluated.
type LedgerConfig struct {
	Timezone string `yaml:"timezone"`
}

// LeaderboardConfig controls leaderboard queries.
type LeaderboardConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	// MonthlyTierFromMonthlyTotal ranks monthly entries by their monthly total
	// instead of the weekly total.
	MonthlyTierFromMonthlyTotal bool `yaml:"monthly_tier_from_monthly_total"`
}

// ReportConfig controls the scheduled weekly report.
type ReportConfig struct {
	Enabled       bool    `yaml:"enabled"`
	Weekday       string  `yaml:"weekday"`
	Hour          int     `yaml:"hour"`
	Minute        int     `yaml:"minute"`
	Limit         int     `yaml:"limit"`
	DeliveryRate  float64 `yaml:"delivery_rate"`
	DeliveryBurst int     `yaml:"delivery_burst"`
}

// LoadConfig loads the configuration from a YAML file.
func LoadConfig(filename string) (*Config, error) {
	// Try reading configuration from the file first
	data, err := os.ReadFile(filename)
	if err != nil {
		// If the file is not found, try loading from environment variables
		return loadConfigFromEnv()
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadConfigFromEnv loads the configuration from environment variables.
func loadConfigFromEnv() (*Config, error) {
	var cfg Config

	cfg.Postgres.DSN = os.Getenv("DATABASE_URL")
	if cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}

	cfg.NATS.URL = os.Getenv("NATS_URL")
	if cfg.NATS.URL == "" {
		return nil, fmt.Errorf("NATS_URL environment variable not set")
	}

	// Migrations run on startup unless explicitly disabled when no file is used.
	cfg.Postgres.AutoMigrate = true
	cfg.Report.Enabled = true

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("AUTO_MIGRATE"); v != "" {
		cfg.Postgres.AutoMigrate = v == "true"
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("ENV"); v != "" {
		cfg.Observability.Environment = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("OTLP_ENDPOINT"); v != "" {
		cfg.Observability.OTLPEndpoint = v
	}
	if v := os.Getenv("OTLP_INSECURE"); v != "" {
		cfg.Observability.OTLPInsecure = v == "true"
	}
	if v := os.Getenv("TRACE_SAMPLE_RATE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid TRACE_SAMPLE_RATE value: %w", err)
		}
		cfg.Observability.TraceSampleRate = f
	}
	if v := os.Getenv("TIMEZONE"); v != "" {
		cfg.Ledger.Timezone = v
	}
	if v := os.Getenv("LEADERBOARD_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid LEADERBOARD_LIMIT value: %w", err)
		}
		cfg.Leaderboard.DefaultLimit = n
	}
	if v := os.Getenv("MONTHLY_TIER_FROM_MONTHLY_TOTAL"); v != "" {
		cfg.Leaderboard.MonthlyTierFromMonthlyTotal = v == "true"
	}
	if v := os.Getenv("REPORT_ENABLED"); v != "" {
		cfg.Report.Enabled = v == "true"
	}
	if v := os.Getenv("REPORT_WEEKDAY"); v != "" {
		cfg.Report.Weekday = v
	}
	if v := os.Getenv("REPORT_HOUR"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid REPORT_HOUR value: %w", err)
		}
		cfg.Report.Hour = n
	}
	if v := os.Getenv("REPORT_DELIVERY_RATE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid REPORT_DELIVERY_RATE value: %w", err)
		}
		cfg.Report.DeliveryRate = f
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Address == "" {
		cfg.HTTP.Address = ":8080"
	}
	if cfg.HTTP.RateLimit <= 0 {
		cfg.HTTP.RateLimit = 10
	}
	if cfg.HTTP.RateBurst <= 0 {
		cfg.HTTP.RateBurst = 20
	}
	if cfg.HTTP.LeaderboardRateLimit <= 0 {
		cfg.HTTP.LeaderboardRateLimit = 2
	}
	if cfg.HTTP.LeaderboardRateBurst <= 0 {
		cfg.HTTP.LeaderboardRateBurst = 5
	}
	if cfg.Observability.LogLevel == "" {
		cfg.Observability.LogLevel = "info"
	}
	if cfg.Observability.TraceSampleRate == 0 {
		cfg.Observability.TraceSampleRate = 0.1
	}
	if cfg.Ledger.Timezone == "" {
		cfg.Ledger.Timezone = "UTC"
	}
	if cfg.Leaderboard.DefaultLimit <= 0 {
		cfg.Leaderboard.DefaultLimit = 10
	}
	if cfg.Report.Weekday == "" {
		cfg.Report.Weekday = "sunday"
		if cfg.Report.Hour == 0 && cfg.Report.Minute == 0 {
			cfg.Report.Hour = 20
		}
	}
	if cfg.Report.Limit <= 0 {
		cfg.Report.Limit = cfg.Leaderboard.DefaultLimit
	}
	if cfg.Report.DeliveryRate <= 0 {
		cfg.Report.DeliveryRate = 20
	}
	if cfg.Report.DeliveryBurst <= 0 {
		cfg.Report.DeliveryBurst = 5
	}
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Postgres.DSN == "" {
		return fmt.Errorf("postgres dsn is required")
	}
	if c.NATS.URL == "" {
		return fmt.Errorf("nats url is required")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.ReportWeekday(); err != nil {
		return err
	}
	if c.Report.Hour < 0 || c.Report.Hour > 23 {
		return fmt.Errorf("report hour must be in [0, 23], got %d", c.Report.Hour)
	}
	if c.Report.Minute < 0 || c.Report.Minute > 59 {
		return fmt.Errorf("report minute must be in [0, 59], got %d", c.Report.Minute)
	}
	return nil
}

// Location resolves the ledger time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Ledger.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid ledger timezone %q: %w", c.Ledger.Timezone, err)
	}
	return loc, nil
}

// ReportWeekday parses the configured report weekday.
func (c *Config) ReportWeekday() (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(c.Report.Weekday))
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.ToLower(d.String()) == name {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("invalid report weekday %q", c.Report.Weekday)
}

// ToObsConfig maps the application config onto the observability setup.
func ToObsConfig(appCfg *Config) observability.Config {
	return observability.Config{
		ServiceName:  "stride-bot",
		Environment:  appCfg.Observability.Environment,
		Version:      Version,
		LogLevel:     appCfg.Observability.LogLevel,
		OTLPEndpoint: appCfg.Observability.OTLPEndpoint,
		OTLPInsecure: appCfg.Observability.OTLPInsecure,
		SampleRate:   appCfg.Observability.TraceSampleRate,
	}
}

// Version is injected at build time via -ldflags.
var Version = "dev"
