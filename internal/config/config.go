package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/therealutkarshpriyadarshi/logview/pkg/types"
)

// Config represents the main configuration
type Config struct {
	Logging LoggingConfig  `yaml:"logging"`
	Sources []SourceConfig `yaml:"sources,omitempty"`
	View    ViewConfig     `yaml:"view"`
	Follow  FollowConfig   `yaml:"follow"`
	Metrics *MetricsConfig `yaml:"metrics,omitempty"`
	Tracing *TracingConfig `yaml:"tracing,omitempty"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

// SourceConfig describes one log file to load
type SourceConfig struct {
	Path         string `yaml:"path"`
	Format       string `yaml:"format,omitempty"` // auto, json, text
	LogType      string `yaml:"log_type,omitempty"`
	Pattern      string `yaml:"pattern,omitempty"`
	TimeField    string `yaml:"time_field,omitempty"`
	LevelField   string `yaml:"level_field,omitempty"`
	MessageField string `yaml:"message_field,omitempty"`
}

// ViewConfig holds the initial view parameters and rendering options
type ViewConfig struct {
	SortBy          string   `yaml:"sort_by"`
	SortDirection   string   `yaml:"sort_direction"`
	Search          string   `yaml:"search,omitempty"`
	OnlyShowMatches bool     `yaml:"only_show_matches,omitempty"`
	Levels          []string `yaml:"levels,omitempty"`
	TimeLayout      string   `yaml:"time_layout,omitempty"`
	Locale          string   `yaml:"locale"`
	MetaIndicator   string   `yaml:"meta_indicator,omitempty"`
	CollapseRepeats bool     `yaml:"collapse_repeats,omitempty"`
	RedactMeta      bool     `yaml:"redact_meta,omitempty"`
}

// FollowConfig controls live reloading of appended lines
type FollowConfig struct {
	Enabled      bool          `yaml:"enabled"`
	MinInterval  time.Duration `yaml:"min_interval,omitempty"`
	Burst        int           `yaml:"burst,omitempty"`
	PollInterval time.Duration `yaml:"poll_interval,omitempty"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
	Path    string `yaml:"path,omitempty"`
}

// TracingConfig holds tracing configuration
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Endpoint   string  `yaml:"endpoint,omitempty"`
	SampleRate float64 `yaml:"sample_rate,omitempty"`
}

// EnvOverrides are settings that environment variables may override after the
// YAML file is read
type EnvOverrides struct {
	LogLevel       string `env:"LOGVIEW_LOG_LEVEL"`
	LogFormat      string `env:"LOGVIEW_LOG_FORMAT"`
	Locale         string `env:"LOGVIEW_LOCALE"`
	TimeLayout     string `env:"LOGVIEW_TIME_LAYOUT"`
	MetricsAddress string `env:"LOGVIEW_METRICS_ADDRESS"`
	TraceEndpoint  string `env:"LOGVIEW_TRACING_ENDPOINT"`
}

// Default values
const (
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "json"
	DefaultSourceFormat  = "auto"
	DefaultTimeLayout    = "2006-01-02 15:04:05"
	DefaultLocale        = "en"
	DefaultMinInterval   = 250 * time.Millisecond
	DefaultPollInterval  = time.Second
	DefaultMetricsPath   = "/metrics"
	DefaultMetricsAddr   = ":9090"
	DefaultTraceSampling = 1.0
)

// Load loads configuration from a YAML file with environment variable overrides
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(expandedData, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// ApplyEnv loads a .env file from the working directory when present and
// overrides the matching fields with any LOGVIEW_* variables that are set
func (c *Config) ApplyEnv() error {
	// Attempt to load .env file for local use; a missing file is fine.
	_ = godotenv.Load()

	var o EnvOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}

	if o.LogLevel != "" {
		c.Logging.Level = o.LogLevel
	}
	if o.LogFormat != "" {
		c.Logging.Format = o.LogFormat
	}
	if o.Locale != "" {
		c.View.Locale = o.Locale
	}
	if o.TimeLayout != "" {
		c.View.TimeLayout = o.TimeLayout
	}
	if o.MetricsAddress != "" {
		if c.Metrics == nil {
			c.Metrics = &MetricsConfig{Enabled: true}
		}
		c.Metrics.Address = o.MetricsAddress
	}
	if o.TraceEndpoint != "" {
		if c.Tracing == nil {
			c.Tracing = &TracingConfig{Enabled: true}
		}
		c.Tracing.Endpoint = o.TraceEndpoint
	}
	return nil
}

// applyDefaults sets default values for unspecified configuration
func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}

	for i := range c.Sources {
		if c.Sources[i].Format == "" {
			c.Sources[i].Format = DefaultSourceFormat
		}
	}

	if c.View.SortBy == "" {
		c.View.SortBy = string(types.SortByIndex)
	}
	if c.View.SortDirection == "" {
		c.View.SortDirection = string(types.Ascending)
	}
	if c.View.TimeLayout == "" {
		c.View.TimeLayout = DefaultTimeLayout
	}
	if c.View.Locale == "" {
		c.View.Locale = DefaultLocale
	}

	if c.Follow.MinInterval == 0 {
		c.Follow.MinInterval = DefaultMinInterval
	}
	if c.Follow.Burst == 0 {
		c.Follow.Burst = 1
	}
	if c.Follow.PollInterval == 0 {
		c.Follow.PollInterval = DefaultPollInterval
	}

	if c.Metrics != nil {
		if c.Metrics.Address == "" {
			c.Metrics.Address = DefaultMetricsAddr
		}
		if c.Metrics.Path == "" {
			c.Metrics.Path = DefaultMetricsPath
		}
	}
	if c.Tracing != nil && c.Tracing.SampleRate == 0 {
		c.Tracing.SampleRate = DefaultTraceSampling
	}
}

// Validate validates the configuration. Sources may be empty since files can
// also be given on the command line.
func (c *Config) Validate() error {
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"json": true, "console": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	validSourceFormats := map[string]bool{
		"": true, "auto": true, "json": true, "text": true,
	}
	for i, src := range c.Sources {
		if src.Path == "" {
			return fmt.Errorf("source %d has no path configured", i)
		}
		if !validSourceFormats[src.Format] {
			return fmt.Errorf("source %d has invalid format: %s", i, src.Format)
		}
	}

	if _, err := c.View.Parameters(); err != nil {
		return err
	}
	if _, err := language.Parse(c.View.Locale); c.View.Locale != "" && err != nil {
		return fmt.Errorf("invalid locale %q: %w", c.View.Locale, err)
	}

	if c.Follow.MinInterval < 0 || c.Follow.PollInterval < 0 {
		return fmt.Errorf("follow intervals must not be negative")
	}
	if c.Follow.Burst < 0 {
		return fmt.Errorf("follow burst must not be negative: %d", c.Follow.Burst)
	}

	if c.Metrics != nil && c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics path must start with /: %s", c.Metrics.Path)
	}
	if c.Tracing != nil && (c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1) {
		return fmt.Errorf("tracing sample rate must be between 0 and 1: %v", c.Tracing.SampleRate)
	}

	return nil
}

// Parameters converts the configured view into initial view parameters
func (v ViewConfig) Parameters() (types.ViewParameters, error) {
	sortBy, err := types.ParseSortKey(v.SortBy)
	if err != nil {
		return types.ViewParameters{}, err
	}
	dir, err := types.ParseSortDirection(v.SortDirection)
	if err != nil {
		return types.ViewParameters{}, err
	}
	levels, err := types.ParseLevelFilter(strings.Join(v.Levels, ","))
	if err != nil {
		return types.ViewParameters{}, err
	}

	return types.ViewParameters{
		SortBy:          sortBy,
		SortDirection:   dir,
		Search:          v.Search,
		OnlyShowMatches: v.OnlyShowMatches,
		Levels:          levels,
	}, nil
}

// LoadOrDefault loads configuration from file or returns a default configuration
func LoadOrDefault(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		return DefaultConfig()
	}
	return cfg
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	cfg := &Config{
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
	cfg.applyDefaults()
	return cfg
}

// FromEnv returns the default configuration with environment overrides applied
func FromEnv() (*Config, error) {
	cfg := &Config{}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
