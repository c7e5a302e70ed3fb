package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the factstore API configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Walrus  WalrusConfig  `yaml:"walrus"`
	Auth    AuthConfig    `yaml:"auth"`
	Index   IndexConfig   `yaml:"index"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// WalrusConfig holds Walrus network and fallback settings.
type WalrusConfig struct {
	PublisherURL      string `yaml:"publisher_url"`
	AggregatorURL     string `yaml:"aggregator_url"`
	DefaultEpochs     int    `yaml:"default_epochs"`
	MaxBlobSize       int64  `yaml:"max_blob_size"`
	HealthIntervalSec int    `yaml:"health_interval_sec"`
	ProbeTimeoutSec   int    `yaml:"probe_timeout_sec"`
	FallbackEnabled   *bool  `yaml:"fallback_enabled"` // default: true
}

// IndexConfig holds fact index and pagination settings.
type IndexConfig struct {
	PersistPath     string   `yaml:"persist_path"`
	DefaultPageSize int      `yaml:"default_page_size"`
	MaxPageSize     int      `yaml:"max_page_size"`
	MaxBatchSize    int      `yaml:"max_batch_size"`
	SeedOnEmpty     bool     `yaml:"seed_on_empty"`
	SeedBlobIDs     []string `yaml:"seed_blob_ids"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Walrus.DefaultEpochs <= 0 {
		c.Walrus.DefaultEpochs = 5
	}
	if c.Walrus.MaxBlobSize <= 0 {
		c.Walrus.MaxBlobSize = 10 << 20
	}
	if c.Walrus.HealthIntervalSec <= 0 {
		c.Walrus.HealthIntervalSec = 300
	}
	if c.Walrus.ProbeTimeoutSec <= 0 {
		c.Walrus.ProbeTimeoutSec = 5
	}
	if c.Walrus.FallbackEnabled == nil {
		enabled := true
		c.Walrus.FallbackEnabled = &enabled
	}
	if c.Index.DefaultPageSize <= 0 {
		c.Index.DefaultPageSize = 20
	}
	if c.Index.MaxPageSize <= 0 {
		c.Index.MaxPageSize = 100
	}
	if c.Index.MaxBatchSize <= 0 {
		c.Index.MaxBatchSize = 100
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Walrus.PublisherURL == "" {
		return fmt.Errorf("walrus.publisher_url is required")
	}
	if c.Walrus.AggregatorURL == "" {
		return fmt.Errorf("walrus.aggregator_url is required")
	}
	if c.Index.DefaultPageSize > c.Index.MaxPageSize {
		return fmt.Errorf(
			"index.default_page_size (%d) must not exceed index.max_page_size (%d)",
			c.Index.DefaultPageSize, c.Index.MaxPageSize,
		)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
