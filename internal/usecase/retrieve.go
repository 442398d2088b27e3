package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"docchat/internal/adapter/cache"
	"docchat/internal/domain"
	"docchat/internal/metrics"
	"docchat/internal/port"
)

// RetrieveUseCase embeds a question and searches the active index.
type RetrieveUseCase struct {
	embedder port.Embedder
	topK     int
	cache    *cache.QueryCache
	metrics  *metrics.Metrics

	mu    sync.RWMutex
	index port.VectorIndex

	// searcher is the cache-wrapped view of search
	searcher port.Retriever
}

// RetrieveOption configures a RetrieveUseCase.
type RetrieveOption func(*RetrieveUseCase)

func WithQueryCache(c *cache.QueryCache) RetrieveOption {
	return func(u *RetrieveUseCase) { u.cache = c }
}

func WithRetrieveMetrics(m *metrics.Metrics) RetrieveOption {
	return func(u *RetrieveUseCase) { u.metrics = m }
}

// NewRetrieveUseCase creates a new retrieve use case with no index attached.
func NewRetrieveUseCase(embedder port.Embedder, topK int, opts ...RetrieveOption) *RetrieveUseCase {
	if topK <= 0 {
		topK = 3
	}
	u := &RetrieveUseCase{embedder: embedder, topK: topK}
	for _, opt := range opts {
		opt(u)
	}

	u.searcher = retrieverFunc(u.search)
	if u.cache != nil {
		u.searcher = cache.NewCachedRetriever(u.searcher, u.cache)
	}
	return u
}

// SetIndex replaces the backing index and drops cached results.
func (u *RetrieveUseCase) SetIndex(ix port.VectorIndex) {
	u.mu.Lock()
	u.index = ix
	u.mu.Unlock()
	if u.cache != nil {
		u.cache.Invalidate()
	}
}

func (u *RetrieveUseCase) Index() port.VectorIndex {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.index
}

func (u *RetrieveUseCase) TopK() int {
	return u.topK
}

// Retrieve returns the top chunks for the question in rank order. With no
// index or an empty one the result is empty.
func (u *RetrieveUseCase) Retrieve(ctx context.Context, question string) ([]domain.Chunk, error) {
	scored, err := u.RetrieveScored(ctx, question)
	if err != nil {
		return nil, err
	}
	chunks := make([]domain.Chunk, len(scored))
	for i, s := range scored {
		chunks[i] = s.Chunk
	}
	return chunks, nil
}

// RetrieveScored is Retrieve with similarity scores kept.
func (u *RetrieveUseCase) RetrieveScored(ctx context.Context, question string) ([]domain.ScoredChunk, error) {
	return u.Search(ctx, question, u.topK)
}

// Search implements port.Retriever for an explicit k.
func (u *RetrieveUseCase) Search(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error) {
	start := time.Now()
	defer func() { u.metrics.ObserveRetrieve(time.Since(start)) }()
	return u.searcher.Search(ctx, query, k)
}

func (u *RetrieveUseCase) search(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error) {
	ix := u.Index()
	if ix == nil || ix.Count() == 0 || k <= 0 {
		return nil, nil
	}

	vec, err := u.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	results, err := ix.Search(vec, k)
	if errors.Is(err, domain.ErrEmptyIndex) {
		return nil, nil
	}
	return results, err
}

type retrieverFunc func(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error)

func (f retrieverFunc) Search(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error) {
	return f(ctx, query, k)
}
