package main

import (
	"testing"

	"docchat/config"
)

func TestCheckFlags(t *testing.T) {
	tests := []struct {
		topK, runs int
		wantErr    bool
	}{
		{10, 5, false},
		{1, 0, false},
		{0, 5, true},
		{-3, 5, true},
		{10, -1, true},
	}
	for _, tt := range tests {
		err := checkFlags(tt.topK, tt.runs)
		if (err != nil) != tt.wantErr {
			t.Errorf("checkFlags(%d, %d) error = %v, wantErr %v", tt.topK, tt.runs, err, tt.wantErr)
		}
	}
}

func TestSetupEmbedding_ModelDimension(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Embedding.Provider = "ollama"
	cfg.Embedding.Model = "nomic-embed-text"

	e, err := setupEmbedding(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if e.Dimension() != 768 {
		t.Errorf("expected 768, got %d", e.Dimension())
	}
}
