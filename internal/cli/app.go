package cli

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"docchat/config"
	"docchat/internal/adapter/cache"
	"docchat/internal/adapter/chunker"
	"docchat/internal/adapter/embedding"
	"docchat/internal/adapter/fs"
	"docchat/internal/adapter/llm"
	"docchat/internal/adapter/loader"
	"docchat/internal/adapter/memory"
	"docchat/internal/adapter/pdf"
	"docchat/internal/adapter/retry"
	"docchat/internal/adapter/store"
	"docchat/internal/metrics"
	"docchat/internal/port"
	"docchat/internal/prompt"
	"docchat/internal/usecase"
)

// app holds the collaborators built from configuration for one command.
type app struct {
	cfg       *config.Config
	embedder  port.Embedder
	indexer   *usecase.IndexUseCase
	retriever *usecase.RetrieveUseCase
	pipeline  *usecase.Pipeline
	registry  *prometheus.Registry
}

type appOptions struct {
	// withGenerator is false for commands that never call the model.
	withGenerator bool
	progress      func(done, total int)
}

func newApp(ctx context.Context, cfg *config.Config, root string, opts appOptions) (*app, error) {
	embedder, err := newEmbedder(ctx, cfg)
	if err != nil {
		return nil, err
	}

	extractor, err := newExtractor(cfg)
	if err != nil {
		return nil, err
	}

	ch, err := chunker.NewWindowChunker(cfg.Chunking.ChunkSize, cfg.Chunking.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	m, err := metrics.New(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	walker := fs.NewWalker(cfg.Loader.Includes, cfg.Loader.Excludes)
	ld := loader.NewDirectoryLoader(walker, extractor, log)

	indexer := usecase.NewIndexUseCase(ld, ch, embedder, cfg.IndexPath(root), store.BuildOptions{
		BatchSize:    cfg.Embedding.BatchSize,
		ChunkSize:    cfg.Chunking.ChunkSize,
		ChunkOverlap: cfg.Chunking.ChunkOverlap,
	}, log)

	var retrieveOpts []usecase.RetrieveOption
	retrieveOpts = append(retrieveOpts, usecase.WithRetrieveMetrics(m))
	if cfg.Retrieve.CacheSize > 0 {
		retrieveOpts = append(retrieveOpts, usecase.WithQueryCache(cache.NewQueryCache(cfg.Retrieve.CacheSize, cfg.Retrieve.CacheTTL)))
	}
	retriever := usecase.NewRetrieveUseCase(embedder, cfg.Retrieve.TopK, retrieveOpts...)

	var generator port.Generator = llm.NewMockGenerator()
	if opts.withGenerator {
		generator, err = newGenerator(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	persona, err := prompt.ParsePersona(cfg.Persona)
	if err != nil {
		return nil, err
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Documents: fs.NewDocumentStore(cfg.DocumentsDir(root)),
		Indexer:   indexer,
		Retriever: retriever,
		Generator: generator,
		Memory:    memory.New(cfg.Memory.WindowTurns),
		Persona:   persona,
		Metrics:   m,
		Log:       log,
		Progress:  opts.progress,
	})

	return &app{
		cfg:       cfg,
		embedder:  embedder,
		indexer:   indexer,
		retriever: retriever,
		pipeline:  pipeline,
		registry:  registry,
	}, nil
}

func newEmbedder(ctx context.Context, cfg *config.Config) (port.Embedder, error) {
	ec := cfg.Embedding
	policy := retry.FromConfig(ec.Timeout, ec.Retries, ec.Backoff)
	limiter := retry.NewLimiter(ec.RequestsPerSecond, 1)

	switch ec.Provider {
	case "openai":
		return embedding.NewOpenAIEmbedder(ec.APIKeyEnv, ec.Model, ec.BaseURL,
			embedding.WithPolicy(policy),
			embedding.WithLimiter(limiter),
			embedding.WithBatchSize(ec.BatchSize),
			embedding.WithDimension(ec.Dimension))
	case "ollama":
		return embedding.NewOllamaEmbedder(ec.Model, ec.BaseURL,
			embedding.WithPolicy(policy),
			embedding.WithLimiter(limiter),
			embedding.WithBatchSize(ec.BatchSize),
			embedding.WithDimension(ec.Dimension)), nil
	case "eino":
		e, err := embedding.NewEinoEmbedder(ctx, ec.APIKeyEnv, ec.Model, ec.BaseURL, ec.Dimension)
		if err != nil {
			return nil, err
		}
		return e.WithPolicy(policy).WithLimiter(limiter).WithBatchSize(ec.BatchSize), nil
	case "mock":
		return embedding.NewMockEmbedder(ec.Dimension), nil
	}
	return nil, fmt.Errorf("unsupported embedding provider: %s", ec.Provider)
}

func newGenerator(ctx context.Context, cfg *config.Config) (port.Generator, error) {
	gc := cfg.Generation
	cc := llm.ClientConfig{
		Provider:    gc.Provider,
		Model:       gc.Model,
		BaseURL:     gc.BaseURL,
		APIKeyEnv:   gc.APIKeyEnv,
		Temperature: gc.Temperature,
		MaxTokens:   gc.MaxTokens,
		Policy:      retry.FromConfig(gc.Timeout, gc.Retries, gc.Backoff),
	}

	switch gc.Provider {
	case "groq", "openai", "ollama":
		return llm.NewOpenAIGenerator(cc)
	case "eino":
		return llm.NewEinoGenerator(ctx, cc)
	case "mock":
		return llm.NewMockGenerator(), nil
	}
	return nil, fmt.Errorf("unsupported generation provider: %s", gc.Provider)
}

func newExtractor(cfg *config.Config) (port.PageExtractor, error) {
	switch cfg.Loader.Extractor {
	case "pdftotext":
		if err := pdf.CheckAvailable(); err != nil {
			return nil, fmt.Errorf("%w\n%s", err, pdf.InstallInstructions())
		}
		return pdf.NewPopplerExtractor(), nil
	default:
		return pdf.NewNativeExtractor(), nil
	}
}
