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

// Config holds the courserec API configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Provider ProviderConfig `yaml:"provider"`
	Limits   LimitsConfig   `yaml:"limits"`
	Auth     AuthConfig     `yaml:"auth"`
	Corpus   CorpusConfig   `yaml:"corpus"`
	Storage  StorageConfig  `yaml:"storage"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings. An empty secret disables
// token auth; every caller is then treated as a guest.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds cache backend connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// ProviderConfig holds model provider settings. Embedding and generation
// share the API key, base URL, and the request concurrency cap.
type ProviderConfig struct {
	APIKey          string  `yaml:"api_key"`
	BaseURL         string  `yaml:"base_url"`
	EmbeddingModel  string  `yaml:"embedding_model"`
	GenerationModel string  `yaml:"generation_model"`
	MaxTokens       int     `yaml:"max_tokens"`
	Temperature     float32 `yaml:"temperature"`
	Concurrency     int     `yaml:"concurrency"`
}

// LimitsConfig holds quota settings beyond the per-role defaults.
type LimitsConfig struct {
	DepartmentQuotas map[string]int `yaml:"department_quotas"`
}

// CorpusConfig holds course catalog settings.
type CorpusConfig struct {
	SnapshotPath string `yaml:"snapshot_path"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
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
	if c.Database.Driver == "" {
		c.Database.Driver = "valkey"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Provider.EmbeddingModel == "" {
		c.Provider.EmbeddingModel = "text-embedding-ada-002"
	}
	if c.Provider.GenerationModel == "" {
		c.Provider.GenerationModel = "gpt-4o"
	}
	if c.Provider.MaxTokens <= 0 {
		c.Provider.MaxTokens = 1500
	}
	if c.Provider.Concurrency <= 0 {
		c.Provider.Concurrency = 5
	}
	if c.Corpus.SnapshotPath == "" {
		c.Corpus.SnapshotPath = filepath.Join("data", "courses.json")
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "courserec:"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	switch c.Database.Driver {
	case "valkey", "redis":
	default:
		return fmt.Errorf("database.driver must be \"valkey\" or \"redis\", got %q", c.Database.Driver)
	}
	if c.Provider.APIKey == "" {
		return fmt.Errorf("provider.api_key is required")
	}
	for dept, limit := range c.Limits.DepartmentQuotas {
		if limit <= 0 {
			return fmt.Errorf("limits.department_quotas.%s must be positive, got %d", dept, limit)
		}
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
