package lihtcrag

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/poiesic/lihtcrag/ai"
)

// Config is the on-disk configuration of a System, usually lihtcrag.toml.
type Config struct {
	IndexDir string            `toml:"index_dir" validate:"required"`
	LogLevel string            `toml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	Index    IndexConfig       `toml:"index"`
	Vector   VectorStoreConfig `toml:"vector"`
	Search   SearchConfig      `toml:"search"`
	AI       EmbeddingConfig   `toml:"embedding"`
}

// IndexConfig controls loading of the precomputed index files.
type IndexConfig struct {
	LoaderPoolSize int `toml:"loader_pool_size" validate:"gte=0"` // 0 uses the loader default
}

// VectorStoreConfig controls the local state chunk store.
type VectorStoreConfig struct {
	Enabled bool `toml:"enabled"`

	// Path is the Badger directory. It is required unless InMemory is set.
	Path     string `toml:"path" validate:"required_if=Enabled true InMemory false"`
	InMemory bool   `toml:"in_memory"`
}

// SearchConfig overrides the search defaults shipped with the index.
type SearchConfig struct {
	VectorTimeout string `toml:"vector_timeout"` // e.g. "10s"; empty uses the index config
	Telemetry     bool   `toml:"telemetry"`
}

// EmbeddingConfig selects the OpenAI-compatible embedding service.
type EmbeddingConfig struct {
	Host     string `toml:"host"`
	Model    string `toml:"model"`
	APIToken string `toml:"api_token"`

	// BatchSize caps texts per embedding request. 0 uses the client default.
	BatchSize int `toml:"batch_size" validate:"gte=0"`

	// RequestsPerSecond caps embedding calls during import. 0 is unlimited.
	RequestsPerSecond float64 `toml:"requests_per_second" validate:"gte=0"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	aiDefaults := ai.DefaultConfig()
	return &Config{
		IndexDir: "indexes",
		LogLevel: "info",
		Vector: VectorStoreConfig{
			Enabled: true,
			Path:    "qapdb",
		},
		AI: EmbeddingConfig{
			Host:  aiDefaults.EmbeddingHost,
			Model: aiDefaults.EmbeddingModel,
		},
	}
}

// LoadConfig reads a TOML file over DefaultConfig. Keys absent from the
// file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes TOML data over DefaultConfig and validates the result.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values that cannot be used.
// LogLevel is lower-cased in place.
func (c *Config) Validate() error {
	c.LogLevel = strings.ToLower(c.LogLevel)
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := c.VectorTimeout(); err != nil {
		return err
	}
	return nil
}

// VectorTimeout parses search.vector_timeout. Zero means "use the index default".
func (c *Config) VectorTimeout() (time.Duration, error) {
	if c.Search.VectorTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Search.VectorTimeout)
	if err != nil {
		return 0, fmt.Errorf("%w: vector_timeout: %v", ErrInvalidConfig, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: vector_timeout must be positive", ErrInvalidConfig)
	}
	return d, nil
}

// AIConfig converts the embedding section to an ai.Config.
func (c *Config) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(c.AI.Host),
		ai.WithEmbeddingModel(c.AI.Model),
		ai.WithAPIToken(c.AI.APIToken),
		ai.WithBatchSize(c.AI.BatchSize),
	)
}
