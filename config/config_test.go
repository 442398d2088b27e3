package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"docchat/internal/domain"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Chunking.ChunkSize != 1024 {
		t.Errorf("expected ChunkSize=1024, got %d", cfg.Chunking.ChunkSize)
	}
	if cfg.Chunking.ChunkOverlap != 100 {
		t.Errorf("expected ChunkOverlap=100, got %d", cfg.Chunking.ChunkOverlap)
	}
	if cfg.Retrieve.TopK != 3 {
		t.Errorf("expected TopK=3, got %d", cfg.Retrieve.TopK)
	}
	if cfg.Embedding.Model != "text-embedding-3-small" {
		t.Errorf("expected text-embedding-3-small, got %s", cfg.Embedding.Model)
	}
	if cfg.Embedding.Dimension != 0 {
		t.Errorf("expected dimension to follow the model by default, got %d", cfg.Embedding.Dimension)
	}
	if cfg.Memory.WindowTurns != 0 {
		t.Errorf("expected full history by default, got window %d", cfg.Memory.WindowTurns)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Errorf("expected no error for non-existent file, got %v", err)
	}
	if cfg == nil {
		t.Error("expected default config, got nil")
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "docchat.yaml")

	content := `
chunking:
  chunk_size: 256
  chunk_overlap: 32
retrieve:
  top_k: 5
  cache_ttl: 30s
persona: medical
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Chunking.ChunkSize != 256 {
		t.Errorf("expected ChunkSize=256, got %d", cfg.Chunking.ChunkSize)
	}
	if cfg.Chunking.ChunkOverlap != 32 {
		t.Errorf("expected ChunkOverlap=32, got %d", cfg.Chunking.ChunkOverlap)
	}
	if cfg.Retrieve.TopK != 5 {
		t.Errorf("expected TopK=5, got %d", cfg.Retrieve.TopK)
	}
	if cfg.Retrieve.CacheTTL != 30*time.Second {
		t.Errorf("expected CacheTTL=30s, got %v", cfg.Retrieve.CacheTTL)
	}
	if cfg.Persona != "medical" {
		t.Errorf("expected persona medical, got %s", cfg.Persona)
	}
	// untouched sections keep their defaults
	if cfg.Embedding.BatchSize != 100 {
		t.Errorf("expected default BatchSize=100, got %d", cfg.Embedding.BatchSize)
	}
}

func TestLoadFromDir(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir, ".docchat"), 0755); err != nil {
		t.Fatal(err)
	}
	configPath := filepath.Join(tmpDir, ".docchat", "config.yaml")

	content := `
memory:
  window_turns: 6
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Memory.WindowTurns != 6 {
		t.Errorf("expected WindowTurns=6, got %d", cfg.Memory.WindowTurns)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docchat.yaml")
	cfg := DefaultConfig()
	cfg.Retrieve.TopK = 7

	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Retrieve.TopK != 7 {
		t.Errorf("expected TopK=7 after round trip, got %d", loaded.Retrieve.TopK)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"overlap equals size", func(c *Config) { c.Chunking.ChunkOverlap = c.Chunking.ChunkSize }},
		{"negative overlap", func(c *Config) { c.Chunking.ChunkOverlap = -1 }},
		{"zero size", func(c *Config) { c.Chunking.ChunkSize = 0 }},
		{"zero top k", func(c *Config) { c.Retrieve.TopK = 0 }},
		{"unknown persona", func(c *Config) { c.Persona = "pirate" }},
		{"unknown embedding provider", func(c *Config) { c.Embedding.Provider = "faiss" }},
		{"unknown generation provider", func(c *Config) { c.Generation.Provider = "anthropic-v0" }},
		{"unknown extractor", func(c *Config) { c.Loader.Extractor = "ocr" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, domain.ErrConfig) {
				t.Errorf("expected ErrConfig, got %v", err)
			}
		})
	}
}

func TestPaths(t *testing.T) {
	cfg := DefaultConfig()

	path := cfg.IndexPath("/home/user/project")
	expected := filepath.Join("/home/user/project", "index", "index.db")
	if path != expected {
		t.Errorf("expected %s, got %s", expected, path)
	}

	cfg.Storage.DocumentsDir = "/srv/pdfs"
	if got := cfg.DocumentsDir("/home/user/project"); got != "/srv/pdfs" {
		t.Errorf("absolute documents dir should be kept, got %s", got)
	}
}
