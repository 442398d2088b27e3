package cache

import (
	"context"
	"testing"
	"time"

	"docchat/internal/domain"
)

func results(texts ...string) []domain.ScoredChunk {
	out := make([]domain.ScoredChunk, len(texts))
	for i, t := range texts {
		out[i] = domain.ScoredChunk{Chunk: domain.Chunk{Text: t}, Score: 1 - float64(i)/10}
	}
	return out
}

func TestQueryCache_PutGet(t *testing.T) {
	c := NewQueryCache(10, time.Minute)
	c.Put("what is x", 3, results("a", "b"))

	got, ok := c.Get("what is x", 3)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if len(got) != 2 || got[0].Chunk.Text != "a" {
		t.Errorf("unexpected results: %+v", got)
	}

	if _, ok := c.Get("what is x", 4); ok {
		t.Error("different k must miss")
	}

	hits, misses := c.Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("stats = %d/%d, want 1/1", hits, misses)
	}
}

func TestQueryCache_ReturnsCopy(t *testing.T) {
	c := NewQueryCache(10, time.Minute)
	c.Put("q", 1, results("a"))

	got, _ := c.Get("q", 1)
	got[0].Chunk.Text = "mutated"

	again, _ := c.Get("q", 1)
	if again[0].Chunk.Text != "a" {
		t.Errorf("cache entry was mutated through returned slice")
	}
}

func TestQueryCache_TTL(t *testing.T) {
	c := NewQueryCache(10, time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }

	c.Put("q", 1, results("a"))
	now = now.Add(2 * time.Minute)

	if _, ok := c.Get("q", 1); ok {
		t.Error("expired entry returned")
	}
	if c.Size() != 0 {
		t.Errorf("size = %d, want 0", c.Size())
	}
}

func TestQueryCache_Invalidate(t *testing.T) {
	c := NewQueryCache(10, time.Minute)
	c.Put("q", 1, results("a"))
	c.Invalidate()

	if _, ok := c.Get("q", 1); ok {
		t.Error("entry survived invalidation")
	}
}

func TestQueryCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewQueryCache(2, time.Minute)
	c.Put("a", 1, results("a"))
	c.Put("b", 1, results("b"))
	c.Get("a", 1)
	c.Put("c", 1, results("c"))

	if _, ok := c.Get("b", 1); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := c.Get("a", 1); !ok {
		t.Error("a should still be cached")
	}
}

type countingRetriever struct{ calls int }

func (r *countingRetriever) Search(_ context.Context, query string, k int) ([]domain.ScoredChunk, error) {
	r.calls++
	return results(query), nil
}

func TestCachedRetriever(t *testing.T) {
	inner := &countingRetriever{}
	c := NewQueryCache(10, time.Minute)
	r := NewCachedRetriever(inner, c)

	for i := 0; i < 3; i++ {
		if _, err := r.Search(context.Background(), "q", 3); err != nil {
			t.Fatal(err)
		}
	}
	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1", inner.calls)
	}

	c.Invalidate()
	if _, err := r.Search(context.Background(), "q", 3); err != nil {
		t.Fatal(err)
	}
	if inner.calls != 2 {
		t.Errorf("inner calls after invalidate = %d, want 2", inner.calls)
	}
}
