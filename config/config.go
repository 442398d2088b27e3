package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"docchat/internal/domain"
	"docchat/internal/prompt"
)

// Config holds all configuration for the document chat assistant.
type Config struct {
	Storage    StorageConfig    `yaml:"storage"`
	Loader     LoaderConfig     `yaml:"loader"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Retrieve   RetrieveConfig   `yaml:"retrieve"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Memory     MemoryConfig     `yaml:"memory"`
	Persona    string           `yaml:"persona"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// StorageConfig holds on-disk locations. Relative paths resolve against the
// root directory.
type StorageConfig struct {
	DocumentsDir string `yaml:"documents_dir"`
	IndexDir     string `yaml:"index_dir"`
}

// LoaderConfig holds document discovery configuration.
type LoaderConfig struct {
	Includes  []string `yaml:"includes"`
	Excludes  []string `yaml:"excludes"`
	Extractor string   `yaml:"extractor"` // "native" or "pdftotext"
}

// ChunkingConfig holds the sliding window parameters, in characters.
type ChunkingConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK      int           `yaml:"top_k"`
	CacheSize int           `yaml:"cache_size"` // 0 disables the query cache
	CacheTTL  time.Duration `yaml:"cache_ttl"`
}

// EmbeddingConfig holds embedding provider configuration.
type EmbeddingConfig struct {
	Provider          string        `yaml:"provider"` // "openai", "eino", "ollama", "mock"
	Model             string        `yaml:"model"`
	APIKeyEnv         string        `yaml:"api_key_env"`
	BaseURL           string        `yaml:"base_url"`
	Dimension         int           `yaml:"dimension"` // 0 uses the model's known size
	BatchSize         int           `yaml:"batch_size"`
	Timeout           time.Duration `yaml:"timeout"`
	Retries           int           `yaml:"retries"`
	Backoff           time.Duration `yaml:"backoff"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
}

// GenerationConfig holds answer generator configuration.
type GenerationConfig struct {
	Provider    string        `yaml:"provider"` // "groq", "openai", "ollama", "eino", "mock"
	Model       string        `yaml:"model"`
	APIKeyEnv   string        `yaml:"api_key_env"`
	BaseURL     string        `yaml:"base_url"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
	Retries     int           `yaml:"retries"`
	Backoff     time.Duration `yaml:"backoff"`
}

// MemoryConfig holds conversation memory configuration.
type MemoryConfig struct {
	WindowTurns int `yaml:"window_turns"` // 0 renders the full history
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			DocumentsDir: "data",
			IndexDir:     "index",
		},
		Loader: LoaderConfig{
			Includes:  []string{"**/*.pdf"},
			Excludes:  []string{"**/.git/**"},
			Extractor: "native",
		},
		Chunking: ChunkingConfig{
			ChunkSize:    1024,
			ChunkOverlap: 100,
		},
		Retrieve: RetrieveConfig{
			TopK:      3,
			CacheSize: 64,
			CacheTTL:  5 * time.Minute,
		},
		Embedding: EmbeddingConfig{
			Provider:  "openai",
			Model:     "text-embedding-3-small",
			APIKeyEnv: "OPENAI_API_KEY",
			BatchSize: 100,
			Timeout:   60 * time.Second,
			Retries:   1,
			Backoff:   500 * time.Millisecond,
		},
		Generation: GenerationConfig{
			Provider:    "groq",
			Model:       "llama3-8b-8192",
			APIKeyEnv:   "GROQ_API_KEY",
			Temperature: 0.7,
			MaxTokens:   2000,
			Timeout:     60 * time.Second,
			Retries:     1,
			Backoff:     500 * time.Millisecond,
		},
		Persona: prompt.General.String(),
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for docchat.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "docchat.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".docchat", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the parameters that would otherwise fail deep inside the
// pipeline.
func (c *Config) Validate() error {
	if c.Chunking.ChunkSize <= 0 || c.Chunking.ChunkOverlap < 0 || c.Chunking.ChunkOverlap >= c.Chunking.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap must satisfy 0 <= overlap < chunk_size (got size=%d overlap=%d)",
			domain.ErrConfig, c.Chunking.ChunkSize, c.Chunking.ChunkOverlap)
	}
	if c.Retrieve.TopK <= 0 {
		return fmt.Errorf("%w: top_k must be positive (got %d)", domain.ErrConfig, c.Retrieve.TopK)
	}
	if _, err := prompt.ParsePersona(c.Persona); err != nil {
		return err
	}
	switch c.Embedding.Provider {
	case "openai", "eino", "ollama", "mock":
	default:
		return fmt.Errorf("%w: unsupported embedding provider %q", domain.ErrConfig, c.Embedding.Provider)
	}
	switch c.Generation.Provider {
	case "groq", "openai", "ollama", "eino", "mock":
	default:
		return fmt.Errorf("%w: unsupported generation provider %q", domain.ErrConfig, c.Generation.Provider)
	}
	switch c.Loader.Extractor {
	case "native", "pdftotext":
	default:
		return fmt.Errorf("%w: unsupported pdf extractor %q", domain.ErrConfig, c.Loader.Extractor)
	}
	return nil
}

// DocumentsDir returns the absolute documents directory for root.
func (c *Config) DocumentsDir(root string) string {
	return resolve(root, c.Storage.DocumentsDir)
}

// IndexPath returns the path to the persisted vector index.
func (c *Config) IndexPath(root string) string {
	return filepath.Join(resolve(root, c.Storage.IndexDir), "index.db")
}

// EnsureIndexDir ensures the index directory exists.
func (c *Config) EnsureIndexDir(root string) error {
	return os.MkdirAll(resolve(root, c.Storage.IndexDir), 0755)
}

func resolve(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
