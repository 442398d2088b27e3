package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"docchat/internal/domain"
	"docchat/internal/port"
)

var (
	bucketMeta    = []byte("meta")
	bucketEntries = []byte("entries")

	keyInfo = []byte("info")
)

// BuildOptions carries the parameters recorded with a build.
type BuildOptions struct {
	BatchSize    int
	ChunkSize    int
	ChunkOverlap int

	// Progress is called after each embedded batch.
	Progress func(done, total int)
}

// BoltVectorIndex is an immutable in-memory index backed by a bbolt file.
// Search is brute force over every entry.
type BoltVectorIndex struct {
	info    domain.IndexInfo
	entries []domain.IndexEntry
}

// Exists reports whether an index file is present at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Build embeds every chunk and writes a fresh index to path. The previous file
// is replaced only once the new one is complete.
func Build(ctx context.Context, path string, chunks []domain.Chunk, embedder port.Embedder, opts BuildOptions) (*BoltVectorIndex, error) {
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	entries := make([]domain.IndexEntry, 0, len(chunks))
	dimension := embedder.Dimension()

	for i := 0; i < len(chunks); i += batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := min(i+batchSize, len(chunks))
		texts := make([]string, end-i)
		for j, c := range chunks[i:end] {
			texts[j] = c.Text
		}

		vectors, err := embedder.EmbedMany(ctx, texts)
		if err != nil {
			return nil, err
		}
		if len(vectors) != len(texts) {
			return nil, fmt.Errorf("%w: got %d vectors for %d chunks", domain.ErrEmbedding, len(vectors), len(texts))
		}

		for j, v := range vectors {
			if len(entries) == 0 && j == 0 && dimension <= 0 {
				dimension = len(v)
			}
			if len(v) != dimension {
				return nil, fmt.Errorf("%w: vector dimension mismatch: expected %d, got %d", domain.ErrEmbedding, dimension, len(v))
			}
			entries = append(entries, domain.IndexEntry{Chunk: chunks[i+j], Vector: v})
		}

		if opts.Progress != nil {
			opts.Progress(end, len(chunks))
		}
	}

	idx := &BoltVectorIndex{
		info: domain.IndexInfo{
			SchemaVersion: CurrentSchemaVersion,
			BuildID:       uuid.NewString(),
			BuiltAt:       time.Now().UTC(),
			Model:         embedder.ModelName(),
			Dimension:     dimension,
			Entries:       len(entries),
			ChunkSize:     opts.ChunkSize,
			ChunkOverlap:  opts.ChunkOverlap,
		},
		entries: entries,
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := idx.writeFile(path); err != nil {
		return nil, err
	}
	return idx, nil
}

func (s *BoltVectorIndex) writeFile(path string) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.Remove(tmp); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove stale temp index: %w", err)
	}
	defer func() {
		if err != nil {
			os.Remove(tmp)
		}
	}()

	db, err := bbolt.Open(tmp, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return fmt.Errorf("failed to open temp index: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		meta, err := tx.CreateBucket(bucketMeta)
		if err != nil {
			return err
		}
		entries, err := tx.CreateBucket(bucketEntries)
		if err != nil {
			return err
		}
		// keys are written in order
		entries.FillPercent = 1.0

		for i, e := range s.entries {
			data, err := json.Marshal(e)
			if err != nil {
				return err
			}
			if err := entries.Put(ordinalKey(i), data); err != nil {
				return err
			}
		}

		info, err := json.Marshal(s.info)
		if err != nil {
			return err
		}
		return meta.Put(keyInfo, info)
	})
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to write index: %w", err)
	}
	if err := db.Close(); err != nil {
		return fmt.Errorf("failed to close index: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace index: %w", err)
	}
	return nil
}

// Load reads a persisted index into memory. A positive dimension must match
// the stored one.
func Load(path string, dimension int) (*BoltVectorIndex, error) {
	if !Exists(path) {
		return nil, fmt.Errorf("%w: %s", domain.ErrIndexNotFound, path)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrIndexCorrupt, err)
	}
	defer db.Close()

	idx := &BoltVectorIndex{}
	err = db.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		if meta == nil {
			return errors.New("meta bucket missing")
		}
		raw := meta.Get(keyInfo)
		if raw == nil {
			return errors.New("index metadata missing")
		}
		if err := json.Unmarshal(raw, &idx.info); err != nil {
			return fmt.Errorf("bad metadata: %w", err)
		}
		if err := checkSchema(idx.info); err != nil {
			return err
		}

		b := tx.Bucket(bucketEntries)
		if b == nil {
			return errors.New("entries bucket missing")
		}

		idx.entries = make([]domain.IndexEntry, 0, idx.info.Entries)
		return b.ForEach(func(k, v []byte) error {
			if len(k) != 8 || binary.BigEndian.Uint64(k) != uint64(len(idx.entries)) {
				return fmt.Errorf("unexpected entry key %x", k)
			}
			var e domain.IndexEntry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("bad entry %d: %w", len(idx.entries), err)
			}
			if len(e.Vector) != idx.info.Dimension {
				return fmt.Errorf("entry %d has dimension %d, index has %d", len(idx.entries), len(e.Vector), idx.info.Dimension)
			}
			idx.entries = append(idx.entries, e)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrIndexCorrupt, err)
	}

	if len(idx.entries) != idx.info.Entries {
		return nil, fmt.Errorf("%w: metadata lists %d entries, found %d", domain.ErrIndexCorrupt, idx.info.Entries, len(idx.entries))
	}
	if dimension > 0 && idx.info.Dimension != dimension {
		return nil, fmt.Errorf("%w: index dimension %d does not match embedder dimension %d",
			domain.ErrIndexCorrupt, idx.info.Dimension, dimension)
	}

	return idx, nil
}

// Search finds the k nearest entries to the query using cosine similarity.
// Equal scores keep insertion order.
func (s *BoltVectorIndex) Search(query []float32, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		return nil, nil
	}
	if len(s.entries) == 0 {
		return nil, domain.ErrEmptyIndex
	}
	if len(query) != s.info.Dimension {
		return nil, fmt.Errorf("%w: query dimension mismatch: expected %d, got %d", domain.ErrEmbedding, s.info.Dimension, len(query))
	}

	type scored struct {
		ordinal int
		score   float64
	}

	scores := make([]scored, len(s.entries))
	for i, e := range s.entries {
		scores[i] = scored{ordinal: i, score: cosineSimilarity(query, e.Vector)}
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})

	if k > len(scores) {
		k = len(scores)
	}

	results := make([]domain.ScoredChunk, k)
	for i := 0; i < k; i++ {
		results[i] = domain.ScoredChunk{
			Chunk: s.entries[scores[i].ordinal].Chunk,
			Score: scores[i].score,
		}
	}
	return results, nil
}

func (s *BoltVectorIndex) Count() int {
	return len(s.entries)
}

func (s *BoltVectorIndex) Dimension() int {
	return s.info.Dimension
}

func (s *BoltVectorIndex) Info() domain.IndexInfo {
	return s.info
}

// Entries returns a copy of the entries in insertion order.
func (s *BoltVectorIndex) Entries() []domain.IndexEntry {
	out := make([]domain.IndexEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

func ordinalKey(i int) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(i))
	return k
}

// cosineSimilarity calculates the cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
