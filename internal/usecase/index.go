package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"docchat/internal/adapter/store"
	"docchat/internal/domain"
	"docchat/internal/logger"
	"docchat/internal/port"
)

// IndexUseCase turns the documents directory into a persisted vector index.
type IndexUseCase struct {
	loader    port.Loader
	chunker   port.Chunker
	embedder  port.Embedder
	indexPath string
	opts      store.BuildOptions
	log       *slog.Logger
}

// NewIndexUseCase creates a new index use case.
func NewIndexUseCase(
	loader port.Loader,
	chunker port.Chunker,
	embedder port.Embedder,
	indexPath string,
	opts store.BuildOptions,
	log *slog.Logger,
) *IndexUseCase {
	if log == nil {
		log = logger.Discard()
	}
	return &IndexUseCase{
		loader:    loader,
		chunker:   chunker,
		embedder:  embedder,
		indexPath: indexPath,
		opts:      opts,
		log:       log,
	}
}

// IndexResult contains the results of an indexing operation.
type IndexResult struct {
	Pages    int
	Chunks   int
	Sources  int
	Duration time.Duration
	Info     domain.IndexInfo
}

// Rebuild loads every document under dir, chunks and embeds it, and replaces
// the persisted index. progress may be nil.
func (u *IndexUseCase) Rebuild(ctx context.Context, dir string, progress func(done, total int)) (*store.BoltVectorIndex, *IndexResult, error) {
	start := time.Now()

	units, err := u.loader.Load(ctx, dir)
	if err != nil {
		return nil, nil, err
	}

	chunks, err := u.chunker.Split(units)
	if err != nil {
		return nil, nil, err
	}
	u.log.Debug("documents chunked", "pages", len(units), "chunks", len(chunks))

	opts := u.opts
	opts.Progress = progress
	idx, err := store.Build(ctx, u.indexPath, chunks, u.embedder, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("build index: %w", err)
	}

	sources := make(map[string]struct{})
	for _, unit := range units {
		sources[unit.SourcePath] = struct{}{}
	}

	result := &IndexResult{
		Pages:    len(units),
		Chunks:   len(chunks),
		Sources:  len(sources),
		Duration: time.Since(start),
		Info:     idx.Info(),
	}
	u.log.Info("index rebuilt",
		"path", u.indexPath,
		"documents", result.Sources,
		"chunks", result.Chunks,
		"build_id", result.Info.BuildID,
		"duration", result.Duration)
	return idx, result, nil
}

// Load opens the persisted index without re-embedding anything.
func (u *IndexUseCase) Load() (*store.BoltVectorIndex, error) {
	idx, err := store.Load(u.indexPath, u.embedder.Dimension())
	if err != nil {
		return nil, err
	}

	params := store.BuildParams{
		Model:        u.embedder.ModelName(),
		ChunkSize:    u.opts.ChunkSize,
		ChunkOverlap: u.opts.ChunkOverlap,
	}
	if reason := store.StaleReason(idx.Info(), params); reason != "" {
		u.log.Warn("index was built with different settings, run a rebuild", "reason", reason)
	}
	u.log.Info("index loaded", "path", u.indexPath, "entries", idx.Count())
	return idx, nil
}

func (u *IndexUseCase) Exists() bool {
	return store.Exists(u.indexPath)
}

func (u *IndexUseCase) Path() string {
	return u.indexPath
}
