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

// Config holds the policyscan API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Cache     CacheConfig     `yaml:"cache"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Relevance RelevanceConfig `yaml:"relevance"`
	Safety    SafetyConfig    `yaml:"safety"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Screening ScreeningConfig `yaml:"screening"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
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

// CacheConfig holds the optional embedding cache connection settings.
// Empty addrs disables the cache entirely.
type CacheConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Enabled reports whether an embedding cache is configured.
func (c CacheConfig) Enabled() bool { return len(c.Addrs) > 0 }

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"` // label for metrics (default: openai)
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// RelevanceConfig holds relevance (reranker) provider settings.
type RelevanceConfig struct {
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// SafetyConfig holds the optional toxicity classifier settings.
// Empty base_url falls back to the built-in lexicon heuristics.
type SafetyConfig struct {
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// CorpusConfig holds the policy corpus file locations.
type CorpusConfig struct {
	ParaphrasePath string   `yaml:"paraphrase_path"`
	ChunkPaths     []string `yaml:"chunk_paths"`
}

// ScreeningConfig holds screening breadth, threshold, and fusion settings.
type ScreeningConfig struct {
	TopK            int     `yaml:"top_k"`
	QueryTopK       int     `yaml:"query_top_k"`
	RerankTop       int     `yaml:"rerank_top"`
	SimThreshold    float64 `yaml:"sim_threshold"`
	Alpha           float64 `yaml:"alpha"`
	HighThreshold   float64 `yaml:"high_threshold"`
	MediumThreshold float64 `yaml:"medium_threshold"`
	PageWorkers     int     `yaml:"page_workers"` // 0 = NumCPU/2
	MaxPages        int     `yaml:"max_pages"`
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
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Relevance.TimeoutSec <= 0 {
		c.Relevance.TimeoutSec = 30
	}
	if c.Safety.TimeoutSec <= 0 {
		c.Safety.TimeoutSec = 15
	}
	if c.Screening.TopK <= 0 {
		c.Screening.TopK = 10
	}
	if c.Screening.QueryTopK <= 0 {
		c.Screening.QueryTopK = 50
	}
	if c.Screening.RerankTop <= 0 {
		c.Screening.RerankTop = 6
	}
	if c.Screening.SimThreshold <= 0 {
		c.Screening.SimThreshold = 0.60
	}
	if c.Screening.Alpha <= 0 {
		c.Screening.Alpha = 0.75
	}
	if c.Screening.HighThreshold <= 0 {
		c.Screening.HighThreshold = 0.7
	}
	if c.Screening.MediumThreshold <= 0 {
		c.Screening.MediumThreshold = 0.4
	}
	if c.Screening.MaxPages <= 0 {
		c.Screening.MaxPages = 500
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Embedding.BaseURL == "" {
		return fmt.Errorf("embedding.base_url is required")
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required")
	}
	if c.Relevance.BaseURL == "" {
		return fmt.Errorf("relevance.base_url is required")
	}
	if c.Screening.Alpha > 1 {
		return fmt.Errorf("screening.alpha must be in (0, 1], got %v", c.Screening.Alpha)
	}
	if c.Screening.SimThreshold > 1 {
		return fmt.Errorf("screening.sim_threshold must be in (0, 1], got %v", c.Screening.SimThreshold)
	}
	if c.Screening.MediumThreshold > c.Screening.HighThreshold {
		return fmt.Errorf("screening.medium_threshold %v must not exceed high_threshold %v",
			c.Screening.MediumThreshold, c.Screening.HighThreshold)
	}
	if c.Screening.HighThreshold > 1 {
		return fmt.Errorf("screening.high_threshold must be in (0, 1], got %v", c.Screening.HighThreshold)
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
