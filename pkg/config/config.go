package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AppName is used for data, config and env var naming
const AppName = "tftcrawler"

// DefaultFallbackIDs are the top-entity ids used when the league call fails
var DefaultFallbackIDs = []string{
	"SVl3E89xTvMRHILCrxrA48GygMdGih4qEyf-xaJFFb8c9tw",
	"5FBnLDL43thPLWmfBB6fOZ-cvPD_JnDP7lVE-jFPNpt8LdU",
}

// Config holds all configuration options for the crawler
type Config struct {
	// Riot API access
	Riot RiotConfig `yaml:"riot" json:"riot"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Durable state location
	Storage StorageConfig `yaml:"storage" json:"storage"`

	// Crawl policy
	Crawl CrawlConfig `yaml:"crawl" json:"crawl"`

	// Metrics output
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// RiotConfig holds Riot API specific configuration
type RiotConfig struct {
	APIKey       string        `yaml:"api_key" json:"api_key"`
	APIKeyFile   string        `yaml:"api_key_file" json:"api_key_file"`
	PlatformHost string        `yaml:"platform_host" json:"platform_host"`
	RegionalHost string        `yaml:"regional_host" json:"regional_host"`
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
	MatchCount   int           `yaml:"match_count" json:"match_count"`
}

// RateLimitConfig holds the dual-window limiter caps
type RateLimitConfig struct {
	PerSecond int           `yaml:"per_second" json:"per_second"`
	PerWindow int           `yaml:"per_window" json:"per_window"`
	Window    time.Duration `yaml:"window" json:"window"`
	Margin    time.Duration `yaml:"margin" json:"margin"`
}

// StorageConfig holds the collection store location
type StorageConfig struct {
	Directory string `yaml:"directory" json:"directory"`
}

// CrawlConfig holds crawl policy switches
type CrawlConfig struct {
	FallbackOnTopFailure bool     `yaml:"fallback_on_top_failure" json:"fallback_on_top_failure"`
	FallbackIDs          []string `yaml:"fallback_ids" json:"fallback_ids"`

	// ReuseStoredDetails skips fetching a match already stored for another identity
	ReuseStoredDetails bool `yaml:"reuse_stored_details" json:"reuse_stored_details"`
}

// MetricsConfig holds metrics output configuration
type MetricsConfig struct {
	// Textfile is a path for a Prometheus text exposition written at the end of a run.
	Textfile string `yaml:"textfile" json:"textfile"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Riot: RiotConfig{
			APIKeyFile:   "api_key.txt",
			PlatformHost: "https://na1.api.riotgames.com",
			RegionalHost: "https://americas.api.riotgames.com",
			Timeout:      30 * time.Second,
			MatchCount:   20,
		},
		RateLimit: RateLimitConfig{
			PerSecond: 20,
			PerWindow: 100,
			Window:    120 * time.Second,
			Margin:    100 * time.Millisecond,
		},
		Storage: StorageConfig{
			Directory: DefaultStateDir(),
		},
		Crawl: CrawlConfig{
			FallbackOnTopFailure: true,
			FallbackIDs:          append([]string(nil), DefaultFallbackIDs...),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultStateDir returns the XDG data directory for crawl state.
// On Linux: ~/.local/share/tftcrawler
func DefaultStateDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// DefaultConfigDir returns the XDG config directory.
// On Linux: ~/.config/tftcrawler
func DefaultConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if apiKey := os.Getenv("TFTCRAWLER_API_KEY"); apiKey != "" {
		c.Riot.APIKey = apiKey
	}
	if keyFile := os.Getenv("TFTCRAWLER_API_KEY_FILE"); keyFile != "" {
		c.Riot.APIKeyFile = keyFile
	}
	if host := os.Getenv("TFTCRAWLER_PLATFORM_HOST"); host != "" {
		c.Riot.PlatformHost = host
	}
	if host := os.Getenv("TFTCRAWLER_REGIONAL_HOST"); host != "" {
		c.Riot.RegionalHost = host
	}

	if perSecond := os.Getenv("TFTCRAWLER_PER_SECOND"); perSecond != "" {
		val, err := strconv.Atoi(perSecond)
		if err != nil {
			return fmt.Errorf("invalid TFTCRAWLER_PER_SECOND: %w", err)
		}
		c.RateLimit.PerSecond = val
	}
	if perWindow := os.Getenv("TFTCRAWLER_PER_WINDOW"); perWindow != "" {
		val, err := strconv.Atoi(perWindow)
		if err != nil {
			return fmt.Errorf("invalid TFTCRAWLER_PER_WINDOW: %w", err)
		}
		c.RateLimit.PerWindow = val
	}

	if stateDir := os.Getenv("TFTCRAWLER_STATE_DIR"); stateDir != "" {
		c.Storage.Directory = stateDir
	}

	if fallback := os.Getenv("TFTCRAWLER_FALLBACK_ON_TOP_FAILURE"); fallback != "" {
		c.Crawl.FallbackOnTopFailure = strings.ToLower(fallback) == "true"
	}

	if reuse := os.Getenv("TFTCRAWLER_REUSE_STORED_DETAILS"); reuse != "" {
		c.Crawl.ReuseStoredDetails = strings.ToLower(reuse) == "true"
	}

	if textfile := os.Getenv("TFTCRAWLER_METRICS_TEXTFILE"); textfile != "" {
		c.Metrics.Textfile = textfile
	}

	if logLevel := os.Getenv("TFTCRAWLER_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".tftcrawler.yaml",
		".tftcrawler.yml",
		filepath.Join(DefaultConfigDir(), "config.yaml"),
		filepath.Join(DefaultConfigDir(), "config.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Riot.PlatformHost == "" {
		errs = append(errs, errors.New("platform host is required"))
	}
	if c.Riot.RegionalHost == "" {
		errs = append(errs, errors.New("regional host is required"))
	}
	if c.Riot.Timeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	if c.Riot.MatchCount < 0 || c.Riot.MatchCount > 200 {
		errs = append(errs, errors.New("match count must be between 0 and 200"))
	}

	if c.RateLimit.PerSecond <= 0 {
		errs = append(errs, errors.New("per-second cap must be positive"))
	}
	if c.RateLimit.PerWindow <= 0 {
		errs = append(errs, errors.New("per-window cap must be positive"))
	}
	if c.RateLimit.Window < time.Second {
		errs = append(errs, errors.New("rate limit window must be at least one second"))
	}
	if c.RateLimit.Margin < 0 {
		errs = append(errs, errors.New("rate limit margin cannot be negative"))
	}

	if c.Storage.Directory == "" {
		errs = append(errs, errors.New("storage directory is required"))
	}

	if c.Crawl.FallbackOnTopFailure && len(c.Crawl.FallbackIDs) == 0 {
		errs = append(errs, errors.New("fallback ids are required when fallback is enabled"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if apiKey, ok := flags["api-key"].(string); ok && apiKey != "" {
		c.Riot.APIKey = apiKey
	}
	if keyFile, ok := flags["api-key-file"].(string); ok && keyFile != "" {
		c.Riot.APIKeyFile = keyFile
	}
	if stateDir, ok := flags["state-dir"].(string); ok && stateDir != "" {
		c.Storage.Directory = stateDir
	}
	if perSecond, ok := flags["per-second"].(int); ok && perSecond > 0 {
		c.RateLimit.PerSecond = perSecond
	}
	if perWindow, ok := flags["per-window"].(int); ok && perWindow > 0 {
		c.RateLimit.PerWindow = perWindow
	}
	if fallback, ok := flags["fallback"].(bool); ok {
		c.Crawl.FallbackOnTopFailure = fallback
	}
	if reuse, ok := flags["reuse-details"].(bool); ok {
		c.Crawl.ReuseStoredDetails = reuse
	}
	if textfile, ok := flags["metrics-textfile"].(string); ok && textfile != "" {
		c.Metrics.Textfile = textfile
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile, ok := flags["log-file"].(string); ok && logFile != "" {
		c.Logging.File = logFile
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(DefaultConfigDir(), ".env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
