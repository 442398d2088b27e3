package usecase

import (
	"testing"

	"docchat/internal/domain"
)

func scored(path string, page int, score float64) domain.ScoredChunk {
	return domain.ScoredChunk{
		Chunk: domain.Chunk{SourcePath: path, PageNumber: page},
		Score: score,
	}
}

func TestSources(t *testing.T) {
	got := Sources([]domain.ScoredChunk{
		scored("/d/b.pdf", 4, 0.9),
		scored("/d/a.pdf", 2, 0.8),
		scored("/d/b.pdf", 1, 0.7),
		scored("/d/b.pdf", 4, 0.6),
	})

	if len(got) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(got))
	}
	if got[0].Path != "/d/b.pdf" || got[1].Path != "/d/a.pdf" {
		t.Errorf("unexpected order: %+v", got)
	}
	if len(got[0].Pages) != 2 || got[0].Pages[0] != 1 || got[0].Pages[1] != 4 {
		t.Errorf("pages = %v, want [1 4]", got[0].Pages)
	}
	if got[0].Score != 0.9 {
		t.Errorf("score = %v, want 0.9", got[0].Score)
	}

	if s := FormatSource(got[0]); s != "b.pdf (p. 1, 4)" {
		t.Errorf("FormatSource = %q", s)
	}
}

func TestSources_Empty(t *testing.T) {
	if got := Sources(nil); got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}
