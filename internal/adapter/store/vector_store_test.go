package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"docchat/internal/domain"
)

// tableEmbedder maps texts to fixed vectors.
type tableEmbedder struct {
	vectors map[string][]float32
	dim     int
	fail    error
	calls   int
}

func (e *tableEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	v, err := e.EmbedMany(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return v[0], nil
}

func (e *tableEmbedder) EmbedMany(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	if e.fail != nil {
		return nil, e.fail
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, ok := e.vectors[t]
		if !ok {
			v = make([]float32, e.dim)
			v[e.dim-1] = 1
		}
		out[i] = v
	}
	return out, nil
}

func (e *tableEmbedder) Dimension() int    { return e.dim }
func (e *tableEmbedder) ModelName() string { return "table" }

func chunk(text string) domain.Chunk {
	return domain.Chunk{Text: text, SourcePath: "doc.pdf", PageNumber: 1}
}

func fixture() ([]domain.Chunk, *tableEmbedder) {
	chunks := []domain.Chunk{chunk("north"), chunk("east"), chunk("north again"), chunk("south")}
	emb := &tableEmbedder{dim: 3, vectors: map[string][]float32{
		"north":       {1, 0, 0},
		"east":        {0, 1, 0},
		"north again": {1, 0, 0},
		"south":       {-1, 0, 0},
	}}
	return chunks, emb
}

func TestBuildLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index", "index.db")
	chunks, emb := fixture()

	var progress [][2]int
	built, err := Build(context.Background(), path, chunks, emb, BuildOptions{
		BatchSize:    3,
		ChunkSize:    1024,
		ChunkOverlap: 100,
		Progress:     func(done, total int) { progress = append(progress, [2]int{done, total}) },
	})
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{3, 4}, {4, 4}}, progress)
	assert.True(t, Exists(path))
	assert.False(t, Exists(path+".tmp"))

	loaded, err := Load(path, 3)
	require.NoError(t, err)
	assert.Equal(t, built.Entries(), loaded.Entries())
	assert.Equal(t, built.Info().BuildID, loaded.Info().BuildID)
	assert.Equal(t, 4, loaded.Count())
	assert.Equal(t, 3, loaded.Dimension())
	assert.Equal(t, "table", loaded.Info().Model)

	q := []float32{1, 0.1, 0}
	a, err := built.Search(q, 3)
	require.NoError(t, err)
	b, err := loaded.Search(q, 3)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSearch_OrderAndTies(t *testing.T) {
	chunks, emb := fixture()
	idx, err := Build(context.Background(), filepath.Join(t.TempDir(), "i.db"), chunks, emb, BuildOptions{})
	require.NoError(t, err)

	res, err := idx.Search([]float32{1, 0, 0}, 4)
	require.NoError(t, err)
	require.Len(t, res, 4)
	// equal scores keep insertion order
	assert.Equal(t, "north", res[0].Chunk.Text)
	assert.Equal(t, "north again", res[1].Chunk.Text)
	assert.Equal(t, "east", res[2].Chunk.Text)
	assert.Equal(t, "south", res[3].Chunk.Text)
	for i := 1; i < len(res); i++ {
		assert.GreaterOrEqual(t, res[i-1].Score, res[i].Score)
	}
}

func TestSearch_Bounds(t *testing.T) {
	chunks, emb := fixture()
	idx, err := Build(context.Background(), filepath.Join(t.TempDir(), "i.db"), chunks, emb, BuildOptions{})
	require.NoError(t, err)

	res, err := idx.Search([]float32{0, 1, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, res, 4)

	res, err = idx.Search([]float32{0, 1, 0}, 0)
	require.NoError(t, err)
	assert.Empty(t, res)

	_, err = idx.Search([]float32{0, 1}, 1)
	assert.ErrorIs(t, err, domain.ErrEmbedding)
}

func TestSearch_EmptyIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "i.db")
	idx, err := Build(context.Background(), path, nil, &tableEmbedder{dim: 3}, BuildOptions{})
	require.NoError(t, err)

	_, err = idx.Search([]float32{1, 0, 0}, 3)
	assert.ErrorIs(t, err, domain.ErrEmptyIndex)

	loaded, err := Load(path, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.Count())
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.db"), 3)
	assert.ErrorIs(t, err, domain.ErrIndexNotFound)
}

func TestLoad_Garbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "i.db")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a bolt file, just some bytes"), 0644))

	_, err := Load(path, 3)
	assert.ErrorIs(t, err, domain.ErrIndexCorrupt)
}

func TestLoad_DimensionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "i.db")
	chunks, emb := fixture()
	_, err := Build(context.Background(), path, chunks, emb, BuildOptions{})
	require.NoError(t, err)

	_, err = Load(path, 1536)
	assert.ErrorIs(t, err, domain.ErrIndexCorrupt)
}

func TestLoad_MissingBucket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "i.db")
	chunks, emb := fixture()
	_, err := Build(context.Background(), path, chunks, emb, BuildOptions{})
	require.NoError(t, err)

	db, err := bbolt.Open(path, 0600, nil)
	require.NoError(t, err)
	require.NoError(t, db.Update(func(tx *bbolt.Tx) error {
		return tx.DeleteBucket(bucketEntries)
	}))
	require.NoError(t, db.Close())

	_, err = Load(path, 3)
	assert.ErrorIs(t, err, domain.ErrIndexCorrupt)
}

func TestLoad_BadEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "i.db")
	chunks, emb := fixture()
	_, err := Build(context.Background(), path, chunks, emb, BuildOptions{})
	require.NoError(t, err)

	db, err := bbolt.Open(path, 0600, nil)
	require.NoError(t, err)
	require.NoError(t, db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketEntries).Put(ordinalKey(1), []byte("{not json"))
	}))
	require.NoError(t, db.Close())

	_, err = Load(path, 3)
	assert.ErrorIs(t, err, domain.ErrIndexCorrupt)
}

func TestBuild_FailureKeepsPreviousIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "i.db")
	chunks, emb := fixture()
	first, err := Build(context.Background(), path, chunks, emb, BuildOptions{})
	require.NoError(t, err)

	broken := &tableEmbedder{dim: 3, fail: errors.New("provider down")}
	_, err = Build(context.Background(), path, []domain.Chunk{chunk("new")}, broken, BuildOptions{})
	require.Error(t, err)

	loaded, err := Load(path, 3)
	require.NoError(t, err)
	assert.Equal(t, first.Info().BuildID, loaded.Info().BuildID)
	assert.Equal(t, 4, loaded.Count())
}

func TestBuild_Canceled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "i.db")
	chunks, emb := fixture()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Build(ctx, path, chunks, emb, BuildOptions{BatchSize: 1})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, emb.calls)
	assert.False(t, Exists(path))
}

func TestBuild_InconsistentDimensions(t *testing.T) {
	emb := &tableEmbedder{dim: 3, vectors: map[string][]float32{"odd": {1, 2}}}
	_, err := Build(context.Background(), filepath.Join(t.TempDir(), "i.db"), []domain.Chunk{chunk("odd")}, emb, BuildOptions{})
	assert.ErrorIs(t, err, domain.ErrEmbedding)
}

func TestStaleReason(t *testing.T) {
	info := domain.IndexInfo{Model: "m", ChunkSize: 1024, ChunkOverlap: 100}
	assert.Empty(t, StaleReason(info, BuildParams{Model: "m", ChunkSize: 1024, ChunkOverlap: 100}))
	assert.Contains(t, StaleReason(info, BuildParams{Model: "other"}), "model")
	assert.Contains(t, StaleReason(info, BuildParams{Model: "m", ChunkSize: 512, ChunkOverlap: 100}), "chunk size")
	assert.Contains(t, StaleReason(info, BuildParams{Model: "m", ChunkSize: 1024, ChunkOverlap: 0}), "overlap")
}

func TestCheckSchema(t *testing.T) {
	assert.NoError(t, checkSchema(domain.IndexInfo{SchemaVersion: CurrentSchemaVersion}))
	assert.Error(t, checkSchema(domain.IndexInfo{}))
	assert.Error(t, checkSchema(domain.IndexInfo{SchemaVersion: CurrentSchemaVersion + 1}))
}
