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

// Config holds the shopsearch API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Auth      AuthConfig      `yaml:"auth"`
	Caches    CachesConfig    `yaml:"caches"`
	Search    SearchConfig    `yaml:"search"`
	Recommend RecommendConfig `yaml:"recommend"`
	Storage   StorageConfig   `yaml:"storage"`
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

// DatabaseConfig holds document store connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// StorageConfig holds key layout settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// CacheClassConfig sizes one in-memory cache instance.
type CacheClassConfig struct {
	MaxSize    int `yaml:"max_size"`
	TTLSeconds int `yaml:"ttl_sec"`
}

// CachesConfig sizes the per-data-class cache instances. Search results
// are short-lived, product lookups long-lived, recommendations in
// between; the algorithm is identical for all three.
type CachesConfig struct {
	Search          CacheClassConfig `yaml:"search"`
	Product         CacheClassConfig `yaml:"product"`
	Recommendations CacheClassConfig `yaml:"recommendations"`
}

// SearchConfig holds consolidated search settings.
type SearchConfig struct {
	MinQueryLength      int     `yaml:"min_query_length"`
	MaxCategories       int     `yaml:"max_categories"`
	MaxBrands           int     `yaml:"max_brands"`
	MaxProducts         int     `yaml:"max_products"`
	VectorMinSimilarity float64 `yaml:"vector_min_similarity"`
}

// RecommendConfig holds recommendation blending settings.
type RecommendConfig struct {
	DefaultLimit         int     `yaml:"default_limit"`
	ContentMinSimilarity float64 `yaml:"content_min_similarity"`
	StockBoost           float64 `yaml:"stock_boost"`
	SaleBoost            float64 `yaml:"sale_boost"`
}

// EmbeddingConfig holds embedding provider settings.
// Driver "local" generates deterministic vectors for tests and offline
// runs; "openai" calls an OpenAI-compatible API.
type EmbeddingConfig struct {
	Driver     string `yaml:"driver"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
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
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "shopsearch:"
	}

	applyCacheDefaults(&c.Caches.Search, 500, 300)           // 5 minutes for search results
	applyCacheDefaults(&c.Caches.Product, 1000, 3600)        // 1 hour for product details
	applyCacheDefaults(&c.Caches.Recommendations, 200, 1800) // 30 minutes for recommendations

	if c.Search.MinQueryLength <= 0 {
		c.Search.MinQueryLength = 3
	}
	if c.Search.MaxCategories <= 0 {
		c.Search.MaxCategories = 5
	}
	if c.Search.MaxBrands <= 0 {
		c.Search.MaxBrands = 5
	}
	if c.Search.MaxProducts <= 0 {
		c.Search.MaxProducts = 10
	}
	if c.Search.VectorMinSimilarity <= 0 {
		c.Search.VectorMinSimilarity = 0.5
	}

	if c.Recommend.DefaultLimit <= 0 {
		c.Recommend.DefaultLimit = 5
	}
	if c.Recommend.ContentMinSimilarity <= 0 {
		c.Recommend.ContentMinSimilarity = 0.5
	}
	if c.Recommend.StockBoost <= 0 {
		c.Recommend.StockBoost = 0.3
	}
	if c.Recommend.SaleBoost <= 0 {
		c.Recommend.SaleBoost = 0.2
	}

	if c.Embedding.Driver == "" {
		c.Embedding.Driver = "local"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 384
	}
}

func applyCacheDefaults(cc *CacheClassConfig, maxSize, ttlSec int) {
	if cc.MaxSize <= 0 {
		cc.MaxSize = maxSize
	}
	if cc.TTLSeconds <= 0 {
		cc.TTLSeconds = ttlSec
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
	switch c.Embedding.Driver {
	case "local", "openai":
		// ok
	default:
		return fmt.Errorf("embedding.driver must be \"local\" or \"openai\", got %q", c.Embedding.Driver)
	}
	if c.Embedding.Driver == "openai" && c.Embedding.APIKey == "" {
		return fmt.Errorf("embedding.api_key is required for the openai driver")
	}
	if c.Search.VectorMinSimilarity > 1 {
		return fmt.Errorf("search.vector_min_similarity must be <= 1, got %v", c.Search.VectorMinSimilarity)
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
