package usecase

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat/internal/adapter/cache"
	"docchat/internal/adapter/embedding"
	"docchat/internal/adapter/store"
	"docchat/internal/domain"
)

func buildIndex(t *testing.T, emb *embedding.MockEmbedder, texts ...string) *store.BoltVectorIndex {
	t.Helper()
	chunks := make([]domain.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = domain.Chunk{Text: text, SourcePath: "doc.pdf", PageNumber: i + 1}
	}
	idx, err := store.Build(context.Background(), filepath.Join(t.TempDir(), "index.db"), chunks, emb, store.BuildOptions{})
	require.NoError(t, err)
	return idx
}

func TestRetrieve_NoIndex(t *testing.T) {
	u := NewRetrieveUseCase(embedding.NewMockEmbedder(16), 3)
	chunks, err := u.Retrieve(context.Background(), "anything")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestRetrieve_EmptyIndex(t *testing.T) {
	emb := embedding.NewMockEmbedder(16)
	u := NewRetrieveUseCase(emb, 3)
	u.SetIndex(buildIndex(t, emb))

	chunks, err := u.Retrieve(context.Background(), "anything")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestRetrieve_RankOrderAndLimit(t *testing.T) {
	emb := embedding.NewMockEmbedder(64)
	u := NewRetrieveUseCase(emb, 2)
	u.SetIndex(buildIndex(t, emb,
		"bananas are yellow",
		"the invoice total is due monthly",
		"invoice payment terms",
	))

	chunks, err := u.Retrieve(context.Background(), "invoice payment terms")
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "invoice payment terms", chunks[0].Text)

	all, err := u.Search(context.Background(), "invoice", 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRetrieve_CacheInvalidatedOnNewIndex(t *testing.T) {
	emb := embedding.NewMockEmbedder(64)
	qc := cache.NewQueryCache(8, time.Minute)
	u := NewRetrieveUseCase(emb, 1, WithQueryCache(qc))

	u.SetIndex(buildIndex(t, emb, "old text about cats"))
	first, err := u.Retrieve(context.Background(), "cats")
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 1, qc.Size())

	u.SetIndex(buildIndex(t, emb, "new text about cats"))
	second, err := u.Retrieve(context.Background(), "cats")
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "new text about cats", second[0].Text)
}
