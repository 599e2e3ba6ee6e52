package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables consulted when the config file leaves a value unset.
const (
	EnvCompassURL   = "COMPASS_URL"
	EnvCompassToken = "COMPASS_TOKEN"
	EnvCohereAPIKey = "COHERE_API_KEY"
	EnvIndexName    = "COMPASS_INDEX_NAME"
)

// Config holds all configuration for the medical assistant.
type Config struct {
	Search   SearchConfig   `yaml:"search"`
	Chat     ChatConfig     `yaml:"chat"`
	Retrieve RetrieveConfig `yaml:"retrieve"`
	Select   SelectConfig   `yaml:"select"`
	Augment  AugmentConfig  `yaml:"augment"`
	Server   ServerConfig   `yaml:"server"`
	History  HistoryConfig  `yaml:"history"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SearchConfig holds the Compass search backend settings.
type SearchConfig struct {
	URL       string        `yaml:"url"`
	Token     string        `yaml:"token"`
	IndexName string        `yaml:"index_name"`
	Timeout   time.Duration `yaml:"timeout"`
	CacheSize int           `yaml:"cache_size"` // 0 disables the query cache
	CacheTTL  time.Duration `yaml:"cache_ttl"`
	// Consecutive failures before the circuit breaker opens.
	BreakerFailures uint32        `yaml:"breaker_failures"`
	BreakerCooldown time.Duration `yaml:"breaker_cooldown"`
}

// ChatConfig holds the Cohere generative backend settings.
type ChatConfig struct {
	APIKey            string        `yaml:"api_key"`
	BaseURL           string        `yaml:"base_url"`
	Model             string        `yaml:"model"`
	Temperature       float64       `yaml:"temperature"`
	Timeout           time.Duration `yaml:"timeout"`
	MaxRetries        int           `yaml:"max_retries"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	Limit int `yaml:"limit"`
}

// SelectConfig holds passage selection configuration.
type SelectConfig struct {
	TopN         int     `yaml:"top_n"`
	Strategy     string  `yaml:"strategy"` // "passthrough", "mmr", "rerank"
	MMRLambda    float64 `yaml:"mmr_lambda"`
	DedupJaccard float64 `yaml:"dedup_jaccard"`
	RerankModel  string  `yaml:"rerank_model"`
}

// AugmentConfig lists extra keyword rules applied after the built-in ones.
type AugmentConfig struct {
	Rules []AugmentRuleConfig `yaml:"rules"`
}

type AugmentRuleConfig struct {
	Keyword string `yaml:"keyword"`
	Suffix  string `yaml:"suffix"`
}

// ServerConfig holds the HTTP wrapper configuration.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// HistoryConfig holds CLI transcript storage configuration.
type HistoryConfig struct {
	Path string `yaml:"path"` // empty means <dir>/.medrag/history.db
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
	Mode  string `yaml:"mode"` // "development" or "production"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			URL:             "http://compass-api-stg-compass:8080",
			IndexName:       "childrens_hospital_index",
			Timeout:         30 * time.Second,
			CacheSize:       0,
			CacheTTL:        5 * time.Minute,
			BreakerFailures: 5,
			BreakerCooldown: 30 * time.Second,
		},
		Chat: ChatConfig{
			BaseURL:           "https://api.cohere.ai",
			Model:             "command-r-08-2024",
			Temperature:       0.3,
			Timeout:           60 * time.Second,
			MaxRetries:        2,
			RequestsPerSecond: 5,
		},
		Retrieve: RetrieveConfig{
			Limit: 8,
		},
		Select: SelectConfig{
			TopN:         3,
			Strategy:     "passthrough",
			MMRLambda:    0.7,
			DedupJaccard: 0.8,
			RerankModel:  "rerank-english-v3.0",
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
			Mode:  "development",
		},
	}
}

// Load loads configuration from a YAML file. Environment variables fill in
// credentials and endpoints; values present in the file take precedence.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.applyEnv()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for medrag.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "medrag.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".medrag", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	cfg := DefaultConfig()
	cfg.applyEnv()
	return cfg, nil
}

// Resolve is the single configuration entry point: an explicit file wins,
// otherwise the directory is searched. Precedence, lowest first, is
// defaults, environment, config file. CLI flags are applied by the caller.
func Resolve(path, dir string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	return LoadFromDir(dir)
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvCompassURL)); v != "" {
		c.Search.URL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvCompassToken)); v != "" {
		c.Search.Token = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvIndexName)); v != "" {
		c.Search.IndexName = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvCohereAPIKey)); v != "" {
		c.Chat.APIKey = v
	}
}

// Validate reports every missing required setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Search.URL == "" {
		errs = append(errs, errors.New("search.url is required"))
	}
	if c.Search.Token == "" {
		errs = append(errs, fmt.Errorf("compass token is required (set search.token or %s)", EnvCompassToken))
	}
	if c.Search.IndexName == "" {
		errs = append(errs, errors.New("search.index_name is required"))
	}
	if c.Chat.APIKey == "" {
		errs = append(errs, fmt.Errorf("cohere API key is required (set chat.api_key or %s)", EnvCohereAPIKey))
	}
	switch c.Select.Strategy {
	case "", "passthrough", "mmr", "rerank":
	default:
		errs = append(errs, fmt.Errorf("unknown select.strategy: %s", c.Select.Strategy))
	}
	return errors.Join(errs...)
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// HistoryDBPath returns the path to the transcript database.
func (c *Config) HistoryDBPath(dir string) string {
	if c.History.Path != "" {
		return c.History.Path
	}
	return filepath.Join(dir, ".medrag", "history.db")
}

// EnsureDataDir ensures the directory holding the transcript database exists.
func EnsureDataDir(dbPath string) error {
	return os.MkdirAll(filepath.Dir(dbPath), 0755)
}
