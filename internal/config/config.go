package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the complete KGQ configuration (v1 schema)
type Config struct {
	Version int `json:"version" mapstructure:"version"`

	Weights WeightsConfig `json:"weights" mapstructure:"weights"`
	BM25    BM25Config    `json:"bm25" mapstructure:"bm25"`
	Vector  VectorConfig  `json:"vector" mapstructure:"vector"`
	Intent  IntentConfig  `json:"intent" mapstructure:"intent"`
	Cache   CacheConfig   `json:"cache" mapstructure:"cache"`
	Limits  LimitsConfig  `json:"limits" mapstructure:"limits"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// ProfilesPath points at an optional PROFILES.toml declaring extra
	// schema profiles. Empty means built-in profiles only.
	ProfilesPath string `json:"profilesPath" mapstructure:"profilesPath"`
}

// WeightsConfig contains the default fusion weights. Callers can override
// any of them per query.
type WeightsConfig struct {
	Alpha float64 `json:"alpha" mapstructure:"alpha"` // vector
	Beta  float64 `json:"beta" mapstructure:"beta"`   // lexical
	Gamma float64 `json:"gamma" mapstructure:"gamma"` // graph
	Delta float64 `json:"delta" mapstructure:"delta"` // intent
}

// BM25Config contains lexical scoring parameters
type BM25Config struct {
	K1          float64 `json:"k1" mapstructure:"k1"`
	B           float64 `json:"b" mapstructure:"b"`
	MinTokenLen int     `json:"minTokenLen" mapstructure:"minTokenLen"`
}

// VectorConfig contains embedding provider configuration
type VectorConfig struct {
	// Provider selects the embedding source: auto, local, or remote.
	Provider   string       `json:"provider" mapstructure:"provider"`
	Dimensions int          `json:"dimensions" mapstructure:"dimensions"`
	TimeoutMs  int          `json:"timeoutMs" mapstructure:"timeoutMs"`
	Remote     RemoteConfig `json:"remote" mapstructure:"remote"`
}

// RemoteConfig contains the remote embedding API settings
type RemoteConfig struct {
	Model     string `json:"model" mapstructure:"model"`
	BaseURL   string `json:"baseUrl" mapstructure:"baseUrl"`
	APIKeyEnv string `json:"apiKeyEnv" mapstructure:"apiKeyEnv"`
}

// IntentConfig contains intent classifier configuration
type IntentConfig struct {
	MemoCapacity int `json:"memoCapacity" mapstructure:"memoCapacity"`
	// PatternsPath points at an optional YAML file with extra patterns
	// merged into the built-in intent table.
	PatternsPath string `json:"patternsPath" mapstructure:"patternsPath"`
}

// CacheConfig contains query cache configuration
type CacheConfig struct {
	MaxEntries         int `json:"maxEntries" mapstructure:"maxEntries"`
	TTLSeconds         int `json:"ttlSeconds" mapstructure:"ttlSeconds"`
	NegativeTTLSeconds int `json:"negativeTtlSeconds" mapstructure:"negativeTtlSeconds"`
}

// LimitsConfig contains traversal and result-size limits
type LimitsConfig struct {
	DefaultLimit            int `json:"defaultLimit" mapstructure:"defaultLimit"`
	SeedCount               int `json:"seedCount" mapstructure:"seedCount"`
	SimilarCandidateCeiling int `json:"similarCandidateCeiling" mapstructure:"similarCandidateCeiling"`
	HubDegreeThreshold      int `json:"hubDegreeThreshold" mapstructure:"hubDegreeThreshold"`
	MaxTraceDepth           int `json:"maxTraceDepth" mapstructure:"maxTraceDepth"`
	MaxImpactDepth          int `json:"maxImpactDepth" mapstructure:"maxImpactDepth"`
	MaxComposeSteps         int `json:"maxComposeSteps" mapstructure:"maxComposeSteps"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Weights: WeightsConfig{
			Alpha: 1.0,
			Beta:  1.0,
			Gamma: 0.5,
			Delta: 0.5,
		},
		BM25: BM25Config{
			K1:          1.5,
			B:           0.75,
			MinTokenLen: 3,
		},
		Vector: VectorConfig{
			Provider:   "auto",
			Dimensions: 256,
			TimeoutMs:  5000,
			Remote: RemoteConfig{
				Model:     "text-embedding-3-small",
				APIKeyEnv: "KGQ_EMBED_API_KEY",
			},
		},
		Intent: IntentConfig{
			MemoCapacity: 10000,
		},
		Cache: CacheConfig{
			MaxEntries:         256,
			TTLSeconds:         300,
			NegativeTTLSeconds: 60,
		},
		Limits: LimitsConfig{
			DefaultLimit:            10,
			SeedCount:               10,
			SimilarCandidateCeiling: 500,
			HubDegreeThreshold:      5,
			MaxTraceDepth:           6,
			MaxImpactDepth:          3,
			MaxComposeSteps:         8,
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// LoadConfig loads configuration from <root>/.kgq/config.json
func LoadConfig(root string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("version", 1)

	// Configure viper
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(root, ".kgq"))

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		// If config doesn't exist, return default config
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	// Start from defaults so partial files only override what they name
	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to <root>/.kgq/config.json
func (c *Config) Save(root string) error {
	configPath := filepath.Join(root, ".kgq", "config.json")

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != 1 {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	if c.Weights.Alpha < 0 || c.Weights.Beta < 0 || c.Weights.Gamma < 0 || c.Weights.Delta < 0 {
		return &ConfigError{Field: "weights", Message: "fusion weights must be non-negative"}
	}
	if c.BM25.K1 <= 0 {
		return &ConfigError{Field: "bm25.k1", Message: "k1 must be positive"}
	}
	if c.BM25.B < 0 || c.BM25.B > 1 {
		return &ConfigError{Field: "bm25.b", Message: "b must be in [0, 1]"}
	}
	if c.Vector.Dimensions <= 0 {
		return &ConfigError{Field: "vector.dimensions", Message: "dimensions must be positive"}
	}
	switch c.Vector.Provider {
	case "auto", "local", "remote":
	default:
		return &ConfigError{Field: "vector.provider", Message: "provider must be auto, local, or remote"}
	}
	if c.Cache.MaxEntries <= 0 {
		return &ConfigError{Field: "cache.maxEntries", Message: "maxEntries must be positive"}
	}
	if c.Intent.MemoCapacity <= 0 {
		return &ConfigError{Field: "intent.memoCapacity", Message: "memoCapacity must be positive"}
	}
	if c.Limits.DefaultLimit <= 0 {
		return &ConfigError{Field: "limits.defaultLimit", Message: "defaultLimit must be positive"}
	}
	if c.Limits.MaxTraceDepth <= 0 {
		return &ConfigError{Field: "limits.maxTraceDepth", Message: "maxTraceDepth must be positive"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
