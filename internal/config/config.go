// Package config loads and persists the application configuration. The
// config file is YAML at ~/.paper_cli/config.yaml by default; values can
// be overridden through PAPERREADER_* environment variables and CLI
// flags.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/localrivet/configurator"
	"gopkg.in/yaml.v3"

	"github.com/Maxwell0339/paper-cli/internal/errortypes"
)

const (
	// ConfigDirName is the per-user configuration directory.
	ConfigDirName = ".paper_cli"
	// ConfigFileName is the config file inside ConfigDirName.
	ConfigFileName = "config.yaml"

	// EnvPrefix is the prefix for environment overrides.
	EnvPrefix = "PAPERREADER"

	DefaultBaseURL      = "https://api.openai.com/v1"
	DefaultModel        = "gpt-4o-mini"
	DefaultSystemPrompt = "You are a senior reviewer in computer vision. Summarize papers rigorously, clearly, and with a reproducibility focus."

	DefaultMaxChars       = 120000
	MinMaxChars           = 2000
	DefaultChunkChars     = 12000
	MinChunkChars         = 1000
	DefaultFileWorkers    = 2
	DefaultChunkWorkers   = 3
	DefaultMaxRetries     = 3
	DefaultRequestTimeout = 120
	MinRequestTimeout     = 10
	DefaultRateLimitQPS   = 1.5
	MinRateLimitQPS       = 0.1
	DefaultCacheEntries   = 512
	DefaultCrawlResults   = 10

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Config is the full application configuration.
type Config struct {
	Provider     string `yaml:"provider" json:"provider" env:"PROVIDER"`
	ProviderName string `yaml:"provider_name,omitempty" json:"provider_name" env:"PROVIDER_NAME"`
	BaseURL      string `yaml:"base_url" json:"base_url" env:"BASE_URL"`
	APIKey       string `yaml:"api_key" json:"api_key" env:"API_KEY"`
	Model        string `yaml:"model" json:"model" env:"MODEL"`
	SystemPrompt string `yaml:"system_prompt" json:"system_prompt" env:"SYSTEM_PROMPT"`

	MaxChars   int    `yaml:"max_chars" json:"max_chars" env:"MAX_CHARS"`
	ChunkChars int    `yaml:"chunk_chars" json:"chunk_chars" env:"CHUNK_CHARS"`
	Recursive  bool   `yaml:"recursive" json:"recursive" env:"RECURSIVE"`
	Profile    string `yaml:"profile,omitempty" json:"profile" env:"PROFILE"`

	FileWorkers    int     `yaml:"file_workers,omitempty" json:"file_workers" env:"FILE_WORKERS"`
	ChunkWorkers   int     `yaml:"chunk_workers,omitempty" json:"chunk_workers" env:"CHUNK_WORKERS"`
	MaxRetries     int     `yaml:"max_retries,omitempty" json:"max_retries" env:"MAX_RETRIES"`
	RequestTimeout int     `yaml:"request_timeout,omitempty" json:"request_timeout" env:"REQUEST_TIMEOUT"`
	RateLimitQPS   float64 `yaml:"rate_limit_qps,omitempty" json:"rate_limit_qps" env:"RATE_LIMIT_QPS"`

	CacheEnabled    bool `yaml:"cache_enabled" json:"cache_enabled" env:"CACHE_ENABLED"`
	CacheMaxEntries int  `yaml:"cache_max_entries,omitempty" json:"cache_max_entries" env:"CACHE_MAX_ENTRIES"`

	LastCrawlQuery        string `yaml:"last_crawl_query,omitempty" json:"last_crawl_query"`
	DefaultCrawlOutputDir string `yaml:"default_crawl_output_dir,omitempty" json:"default_crawl_output_dir" env:"CRAWL_OUTPUT_DIR"`

	Logging struct {
		Level  string `yaml:"level" json:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" json:"format" env:"LOG_FORMAT"`
	} `yaml:"logging" json:"logging"`

	configPath string
}

// NewConfig creates a Config populated with default values.
func NewConfig() *Config {
	cfg := &Config{
		Provider:        "openai",
		BaseURL:         DefaultBaseURL,
		Model:           DefaultModel,
		SystemPrompt:    DefaultSystemPrompt,
		MaxChars:        DefaultMaxChars,
		ChunkChars:      DefaultChunkChars,
		Recursive:       true,
		Profile:         "paper",
		FileWorkers:     DefaultFileWorkers,
		ChunkWorkers:    DefaultChunkWorkers,
		MaxRetries:      DefaultMaxRetries,
		RequestTimeout:  DefaultRequestTimeout,
		RateLimitQPS:    DefaultRateLimitQPS,
		CacheEnabled:    true,
		CacheMaxEntries: DefaultCacheEntries,
	}
	cfg.Logging.Level = DefaultLogLevel
	cfg.Logging.Format = DefaultLogFormat
	return cfg
}

// DefaultConfigPath returns ~/.paper_cli/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(ConfigDirName, ConfigFileName)
	}
	return filepath.Join(home, ConfigDirName, ConfigFileName)
}

// DefaultDataDir returns the directory holding downloaded papers, the
// library database, and summaries.
func DefaultDataDir() string {
	return filepath.Dir(DefaultConfigPath())
}

// Exists reports whether a config file is present at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Load reads the configuration from configPath, layering file values
// over defaults and environment overrides over both. A missing file
// yields the defaults.
func Load(configPath string) (*Config, error) {
	stdLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	cfg := NewConfig()

	if configPath == "" {
		configPath = DefaultConfigPath()
		if foundPath, err := configurator.FindConfigFile(ConfigFileName); err == nil {
			configPath = foundPath
		}
	}
	cfg.configPath = configPath

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		applyEnv(cfg)
		cfg.normalize()
		return cfg, nil
	}

	loader := configurator.New(stdLogger).
		WithProvider(configurator.NewDefaultProvider()).
		WithProvider(configurator.NewFileProvider(configPath)).
		WithProvider(configurator.NewEnvProvider(EnvPrefix))

	if err := loader.Load(context.Background(), cfg); err != nil {
		return nil, errortypes.ConfigError(err, fmt.Sprintf("failed to load config: %s", configPath))
	}

	cfg.normalize()
	return cfg, nil
}

// applyEnv layers environment overrides onto cfg when no config file
// exists to run the provider chain against.
func applyEnv(cfg *Config) {
	set := func(target *string, key string) {
		if v := strings.TrimSpace(os.Getenv(EnvPrefix + "_" + key)); v != "" {
			*target = v
		}
	}
	set(&cfg.BaseURL, "BASE_URL")
	set(&cfg.APIKey, "API_KEY")
	set(&cfg.Model, "MODEL")
	set(&cfg.SystemPrompt, "SYSTEM_PROMPT")
}

// normalize clamps every numeric knob to its floor.
func (c *Config) normalize() {
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.MaxChars < MinMaxChars {
		c.MaxChars = MinMaxChars
	}
	if c.ChunkChars < MinChunkChars {
		c.ChunkChars = MinChunkChars
	}
	if c.FileWorkers < 1 {
		c.FileWorkers = DefaultFileWorkers
	}
	if c.ChunkWorkers < 1 {
		c.ChunkWorkers = DefaultChunkWorkers
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RequestTimeout < MinRequestTimeout {
		c.RequestTimeout = MinRequestTimeout
	}
	if c.RateLimitQPS < MinRateLimitQPS {
		c.RateLimitQPS = MinRateLimitQPS
	}
	if c.CacheMaxEntries < 1 {
		c.CacheMaxEntries = DefaultCacheEntries
	}
	if c.Profile != "paper" && c.Profile != "report" {
		c.Profile = "paper"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
}

// GetConfigPath returns the path this configuration was loaded from.
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// SaveToFile writes the configuration as YAML to path, creating parent
// directories as needed.
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errortypes.ConfigError(err, "failed to create config directory")
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return errortypes.ConfigError(err, "failed to marshal config")
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errortypes.ConfigError(err, fmt.Sprintf("failed to write config: %s", path))
	}

	c.configPath = path
	return nil
}

// Save writes the configuration back to the path it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		c.configPath = DefaultConfigPath()
	}
	return c.SaveToFile(c.configPath)
}
