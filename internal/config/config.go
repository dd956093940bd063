// Package config provides configuration management for the FnO tracker.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	yaml "gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when FNO_CONFIG is unset.
	DefaultConfigPath = "config.yaml"
	// ConfigPathEnv names the environment variable holding the config path.
	ConfigPathEnv = "FNO_CONFIG"

	defaultTimezone     = "Asia/Kolkata"
	defaultNSEBaseURL   = "https://www.nseindia.com"
	defaultVIXSymbol    = "INDIA VIX"
	defaultStrikeWindow = 1500.0
	defaultLookbackDays = 6
	defaultMinTrendDays = 3
	defaultHTTPTimeout  = "10s"
	defaultRunTimeout   = "5m"
	defaultRateLimit    = 1.0
	defaultDashPort     = 8080
)

// Config represents the complete application configuration.
type Config struct {
	Environment EnvironmentConfig `yaml:"environment"`
	MarketData  MarketDataConfig  `yaml:"market_data"`
	Analysis    AnalysisConfig    `yaml:"analysis"`
	Storage     StorageConfig     `yaml:"storage"`
	Schedule    ScheduleConfig    `yaml:"schedule"`
	Dashboard   DashboardConfig   `yaml:"dashboard"`
}

// EnvironmentConfig defines logging settings.
type EnvironmentConfig struct {
	LogLevel  string `yaml:"log_level"`  // debug | info | warn | error
	LogFormat string `yaml:"log_format"` // text | json
	LogFile   string `yaml:"log_file"`   // empty logs to stdout
}

// MarketDataConfig defines the upstream data sources.
type MarketDataConfig struct {
	Provider      string              `yaml:"provider"` // nse | mock
	BaseURL       string              `yaml:"base_url"`
	Timeout       string              `yaml:"timeout"`
	VIXSymbol     string              `yaml:"vix_symbol"`
	GlobalIndices []GlobalIndexConfig `yaml:"global_indices"`
	RateLimit     float64             `yaml:"rate_limit"` // requests per second
	MaxRetries    int                 `yaml:"max_retries"`
	// CircuitBreaker wraps the provider with a gobreaker circuit breaker
	CircuitBreaker bool `yaml:"circuit_breaker"`
}

// GlobalIndexConfig names one member of the global market basket.
type GlobalIndexConfig struct {
	Name   string `yaml:"name"`
	Ticker string `yaml:"ticker"`
}

// AnalysisConfig defines the symbols and aggregation windows.
type AnalysisConfig struct {
	Symbols      []string `yaml:"symbols"`
	StrikeWindow float64  `yaml:"strike_window"` // index points around spot
	LookbackDays *int     `yaml:"lookback_days"` // prior trading days in the trend window; 0 is honored
	MinTrendDays int      `yaml:"min_trend_days"`
}

// StorageConfig defines where snapshots, reports and logs live.
type StorageConfig struct {
	BaseDir string `yaml:"base_dir"`
}

// ScheduleConfig defines the run calendar.
type ScheduleConfig struct {
	Timezone   string `yaml:"timezone"`    // e.g., "Asia/Kolkata"
	Evening    string `yaml:"evening"`     // cron spec for evening runs
	Morning    string `yaml:"morning"`     // cron spec for morning runs
	RunTimeout string `yaml:"run_timeout"` // deadline for one pipeline run
}

// DashboardConfig defines the read-only report server.
type DashboardConfig struct {
	AuthToken string `yaml:"auth_token"`
	Port      int    `yaml:"port"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.normalize()
	return cfg
}

// Load reads and parses the configuration file from the specified path.
// A missing file yields the defaults; a malformed one is an error.
func Load(configPath string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	if configPath == "" {
		configPath = DefaultConfigPath
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- configPath is a user-provided config file path
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			return cfg, cfg.Validate()
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var config Config
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&config); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	config.normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// LoadFromEnv loads the file named by FNO_CONFIG, falling back to config.yaml.
func LoadFromEnv() (*Config, error) {
	return Load(os.Getenv(ConfigPathEnv))
}

// Validate checks that all configuration values are valid and consistent.
func (c *Config) Validate() error {
	switch c.MarketData.Provider {
	case "nse", "mock":
	default:
		return fmt.Errorf("market_data.provider must be 'nse' or 'mock'")
	}
	if _, err := time.ParseDuration(c.MarketData.Timeout); err != nil {
		return fmt.Errorf("market_data.timeout invalid: %w", err)
	}
	if c.MarketData.RateLimit <= 0 {
		return fmt.Errorf("market_data.rate_limit must be > 0")
	}
	if c.MarketData.MaxRetries < 0 {
		return fmt.Errorf("market_data.max_retries must be >= 0")
	}
	for i, gi := range c.MarketData.GlobalIndices {
		if gi.Name == "" || gi.Ticker == "" {
			return fmt.Errorf("market_data.global_indices[%d] needs both name and ticker", i)
		}
	}

	if len(c.Analysis.Symbols) == 0 {
		return fmt.Errorf("analysis.symbols must not be empty")
	}
	for _, s := range c.Analysis.Symbols {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("analysis.symbols must not contain blank entries")
		}
	}
	if c.Analysis.StrikeWindow <= 0 {
		return fmt.Errorf("analysis.strike_window must be > 0")
	}
	lookback := c.Analysis.Lookback()
	if lookback < 0 {
		return fmt.Errorf("analysis.lookback_days must be >= 0")
	}
	if c.Analysis.MinTrendDays < 2 {
		return fmt.Errorf("analysis.min_trend_days must be >= 2")
	}
	if c.Analysis.MinTrendDays > lookback+1 {
		return fmt.Errorf("analysis.min_trend_days (%d) cannot exceed lookback_days+1 (%d)",
			c.Analysis.MinTrendDays, lookback+1)
	}

	// The IST fallback in Location only covers the default zone on hosts
	// without tzdata; any other unloadable name is a typo.
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil && c.Schedule.Timezone != defaultTimezone {
		return fmt.Errorf("schedule.timezone %q invalid: %w", c.Schedule.Timezone, err)
	}

	if _, err := time.ParseDuration(c.Schedule.RunTimeout); err != nil {
		return fmt.Errorf("schedule.run_timeout invalid: %w", err)
	}
	if c.Dashboard.Port <= 0 || c.Dashboard.Port > 65535 {
		return fmt.Errorf("dashboard.port must be between 1 and 65535")
	}

	return nil
}

// normalize fills unset values with defaults.
func (c *Config) normalize() {
	if c.Environment.LogLevel == "" {
		c.Environment.LogLevel = "info"
	}
	if c.Environment.LogFormat == "" {
		c.Environment.LogFormat = "text"
	}
	if c.MarketData.Provider == "" {
		c.MarketData.Provider = "nse"
	}
	if c.MarketData.BaseURL == "" {
		c.MarketData.BaseURL = defaultNSEBaseURL
	}
	if c.MarketData.Timeout == "" {
		c.MarketData.Timeout = defaultHTTPTimeout
	}
	if c.MarketData.VIXSymbol == "" {
		c.MarketData.VIXSymbol = defaultVIXSymbol
	}
	if c.MarketData.RateLimit == 0 {
		c.MarketData.RateLimit = defaultRateLimit
	}
	if c.MarketData.GlobalIndices == nil {
		c.MarketData.GlobalIndices = []GlobalIndexConfig{
			{Name: "Dow", Ticker: "^DJI"},
			{Name: "Nasdaq", Ticker: "^IXIC"},
			{Name: "S&P 500", Ticker: "^GSPC"},
			{Name: "SGX Nifty", Ticker: "^NSEI"},
		}
	}
	if len(c.Analysis.Symbols) == 0 {
		c.Analysis.Symbols = []string{"BANKNIFTY", "NIFTY"}
	}
	if c.Analysis.StrikeWindow == 0 {
		c.Analysis.StrikeWindow = defaultStrikeWindow
	}
	if c.Analysis.LookbackDays == nil {
		lookback := defaultLookbackDays
		c.Analysis.LookbackDays = &lookback
	}
	if c.Analysis.MinTrendDays == 0 {
		c.Analysis.MinTrendDays = defaultMinTrendDays
	}
	if c.Storage.BaseDir == "" {
		c.Storage.BaseDir = "."
	}
	if c.Schedule.Timezone == "" {
		c.Schedule.Timezone = defaultTimezone
	}
	if c.Schedule.Evening == "" {
		c.Schedule.Evening = "30 18 * * MON-FRI"
	}
	if c.Schedule.Morning == "" {
		c.Schedule.Morning = "15 8 * * MON-FRI"
	}
	if c.Schedule.RunTimeout == "" {
		c.Schedule.RunTimeout = defaultRunTimeout
	}
	if c.Dashboard.Port == 0 {
		c.Dashboard.Port = defaultDashPort
	}
}

// Lookback returns the number of prior trading days in the trend window.
func (a AnalysisConfig) Lookback() int {
	if a.LookbackDays == nil {
		return defaultLookbackDays
	}
	return *a.LookbackDays
}

// Location returns the market timezone, falling back to a fixed IST offset
// on hosts without tzdata.
func (c *Config) Location() *time.Location {
	tz := c.Schedule.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.FixedZone("IST", 5*60*60+30*60)
	}
	return loc
}

// HTTPTimeout returns the configured upstream request timeout.
func (c *Config) HTTPTimeout() time.Duration {
	d, err := time.ParseDuration(c.MarketData.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// RunTimeout returns the deadline for a single pipeline run.
func (c *Config) RunTimeout() time.Duration {
	d, err := time.ParseDuration(c.Schedule.RunTimeout)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}
