package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/archpilot/archpilot/internal/domain/chunk"
)

// Config holds the archpilot server configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Auth      AuthConfig      `yaml:"auth"`
	Index     IndexConfig     `yaml:"index"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Cache     CacheConfig     `yaml:"cache"`
	Search    SearchConfig    `yaml:"search"`
	Tools     ToolsConfig     `yaml:"tools"`
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

// IndexConfig holds index artifact settings.
type IndexConfig struct {
	ArtifactPath string `yaml:"artifact_path"`
}

// EmbeddingConfig holds the query embedding provider settings.
// Model must match the embedding_model_id recorded in the artifact.
type EmbeddingConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// CacheConfig holds the optional Redis-backed embedding cache settings.
// Off by default: the embedder adapter itself caches nothing.
type CacheConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Addrs    []string `yaml:"addrs"`
	Password string   `yaml:"password"`
	TTLSec   int      `yaml:"ttl_sec"`
}

// SearchConfig holds ranking policy settings.
type SearchConfig struct {
	MaxResults      int                `yaml:"max_results"`
	Overscan        int                `yaml:"overscan"`
	CategoryWeights map[string]float64 `yaml:"category_weights"`
	DedupOverlap    float64            `yaml:"dedup_overlap"`
}

// ToolsConfig holds settings for subprocess-wrapped tools.
type ToolsConfig struct {
	WorkspaceDir   string   `yaml:"workspace_dir"`
	ExecTimeoutSec int      `yaml:"exec_timeout_sec"`
	Scanners       []string `yaml:"scanners"` // migrate-ease scanner names
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

// defaultCategoryWeights favors intrinsics matches, which tend to be high-precision.
func defaultCategoryWeights() map[string]float64 {
	return map[string]float64{
		string(chunk.ArchitectureDocs):   1.0,
		string(chunk.LearningResources):  1.0,
		string(chunk.Intrinsics):         1.1,
		string(chunk.CompatibilityNotes): 1.0,
	}
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
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 5
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 86400
	}
	if c.Search.MaxResults <= 0 {
		c.Search.MaxResults = 20
	}
	if c.Search.Overscan <= 0 {
		c.Search.Overscan = 4
	}
	if len(c.Search.CategoryWeights) == 0 {
		c.Search.CategoryWeights = defaultCategoryWeights()
	}
	if c.Search.DedupOverlap <= 0 {
		c.Search.DedupOverlap = 0.5
	}
	if c.Tools.WorkspaceDir == "" {
		c.Tools.WorkspaceDir = "/workspace"
	}
	if c.Tools.ExecTimeoutSec <= 0 {
		c.Tools.ExecTimeoutSec = 120
	}
	if len(c.Tools.Scanners) == 0 {
		c.Tools.Scanners = []string{"c", "cpp", "go", "java", "python"}
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Index.ArtifactPath == "" {
		return fmt.Errorf("index.artifact_path is required")
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required")
	}
	if c.Cache.Enabled && len(c.Cache.Addrs) == 0 {
		return fmt.Errorf("cache.addrs is required when cache.enabled")
	}
	for name, w := range c.Search.CategoryWeights {
		if !chunk.Category(name).IsValid() {
			return fmt.Errorf("search.category_weights: unknown category %q", name)
		}
		if w <= 0 {
			return fmt.Errorf("search.category_weights.%s must be positive, got %v", name, w)
		}
	}
	if c.Search.DedupOverlap > 1 {
		return fmt.Errorf("search.dedup_overlap must be in (0, 1], got %v", c.Search.DedupOverlap)
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
