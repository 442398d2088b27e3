package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"docchat/config"
	"docchat/internal/adapter/embedding"
	"docchat/internal/adapter/store"
	"docchat/internal/port"
)

func main() {
	rootDir := flag.String("dir", ".", "root directory holding docchat.yaml and the index")
	query := flag.String("q", "", "Query to test")
	topK := flag.Int("k", 10, "Number of results")
	runs := flag.Int("runs", 5, "Searches to time")
	flag.Parse()

	if *query == "" {
		fmt.Println("Usage: go run ./cmd/benchmark -dir ./docs -q \"query\"")
		fmt.Println("\nTests:")
		fmt.Println("  1. Embedding infrastructure (model connection, persisted index)")
		fmt.Println("  2. Semantic similarity (query vs results)")
		fmt.Println("  3. Search latency over the loaded index")
		os.Exit(1)
	}
	if err := checkFlags(*topK, *runs); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	_ = godotenv.Load(filepath.Join(*rootDir, ".env"))

	cfg, err := config.LoadFromDir(*rootDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	embedder, err := setupEmbedding(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Semantic search not available: %v\n", err)
		os.Exit(1)
	}

	idx, err := store.Load(cfg.IndexPath(*rootDir), embedder.Dimension())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening index: %v\n", err)
		os.Exit(1)
	}
	if idx.Count() == 0 {
		fmt.Fprintln(os.Stderr, "Index is empty - add PDFs and run 'docchat index --rebuild'")
		os.Exit(1)
	}

	fmt.Println("SEMANTIC SEARCH BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))

	info := idx.Info()
	fmt.Printf("Entries indexed: %d\n", idx.Count())
	fmt.Printf("Model: %s (%s)\n", cfg.Embedding.Model, cfg.Embedding.Provider)
	fmt.Printf("Dimension: %d\n", idx.Dimension())
	if reason := store.StaleReason(info, store.BuildParams{
		Model:        cfg.Embedding.Model,
		ChunkSize:    cfg.Chunking.ChunkSize,
		ChunkOverlap: cfg.Chunking.ChunkOverlap,
	}); reason != "" {
		fmt.Printf("Warning: index is stale (%s)\n", reason)
	}
	fmt.Println()

	fmt.Printf("Query: \"%s\"\n", *query)
	fmt.Println(strings.Repeat("-", 70))

	embedStart := time.Now()
	queryVec, err := embedder.Embed(context.Background(), *query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Embedding error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Query embedded: %d dimensions in %s\n\n", len(queryVec), time.Since(embedStart).Round(time.Millisecond))

	results, err := idx.Search(queryVec, *topK)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search error: %v\n", err)
		os.Exit(1)
	}

	if len(results) == 0 {
		fmt.Println("No matches.")
		return
	}

	fmt.Printf("Top %d semantic matches:\n\n", len(results))

	totalScore := 0.0
	for i, r := range results {
		preview := []rune(r.Chunk.Text)
		text := string(preview)
		if len(preview) > 150 {
			text = string(preview[:150]) + "..."
		}
		text = strings.ReplaceAll(text, "\n", " ")

		similarity := r.Score
		totalScore += similarity

		rating := "LOW"
		if similarity > 0.7 {
			rating = "HIGH"
		} else if similarity > 0.5 {
			rating = "GOOD"
		} else if similarity > 0.3 {
			rating = "OK"
		}

		fmt.Printf("%d. [%s %.3f] %s p.%d\n", i+1, rating, similarity, filepath.Base(r.Chunk.SourcePath), r.Chunk.PageNumber)
		fmt.Printf("   %s\n\n", text)
	}

	var elapsed time.Duration
	for i := 0; i < *runs; i++ {
		start := time.Now()
		if _, err := idx.Search(queryVec, *topK); err != nil {
			fmt.Fprintf(os.Stderr, "Search error: %v\n", err)
			os.Exit(1)
		}
		elapsed += time.Since(start)
	}

	avgScore := totalScore / float64(len(results))
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("QUALITY METRICS:\n")
	fmt.Printf("  Average similarity: %.3f\n", avgScore)
	fmt.Printf("  Top-1 similarity:   %.3f\n", results[0].Score)
	if *runs > 0 {
		fmt.Printf("  Search latency:     %s (avg of %d)\n", (elapsed / time.Duration(*runs)).Round(time.Microsecond), *runs)
	}

	if avgScore > 0.5 {
		fmt.Println("  Status: GOOD - semantic search working well")
	} else if avgScore > 0.3 {
		fmt.Println("  Status: OK - results are somewhat related")
	} else {
		fmt.Println("  Status: POOR - may need better embeddings or re-indexing")
	}
}

func checkFlags(topK, runs int) error {
	if topK <= 0 {
		return fmt.Errorf("-k must be positive, got %d", topK)
	}
	if runs < 0 {
		return fmt.Errorf("-runs must not be negative, got %d", runs)
	}
	return nil
}

func setupEmbedding(cfg *config.Config) (port.Embedder, error) {
	ec := cfg.Embedding
	switch ec.Provider {
	case "ollama":
		return embedding.NewOllamaEmbedder(ec.Model, ec.BaseURL, embedding.WithDimension(ec.Dimension)), nil
	case "openai":
		return embedding.NewOpenAIEmbedder(ec.APIKeyEnv, ec.Model, ec.BaseURL, embedding.WithDimension(ec.Dimension))
	case "eino":
		return embedding.NewEinoEmbedder(context.Background(), ec.APIKeyEnv, ec.Model, ec.BaseURL, ec.Dimension)
	case "mock":
		return embedding.NewMockEmbedder(ec.Dimension), nil
	}
	return nil, fmt.Errorf("unsupported provider: %s", ec.Provider)
}
